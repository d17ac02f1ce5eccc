package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAIN_SIMULATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadRequiresChainConfig(t *testing.T) {
	t.Setenv("CHAIN_SIMULATE", "false")
	t.Setenv("CHAIN_RPC_URL", "")
	t.Setenv("CHAIN_CONTRACT_HASH", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without rpc url in non-simulated mode")
	}
}

func TestFileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHAIN_SIMULATE", "true")
	t.Setenv("SERVER_ADDR", ":8081")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("file must win over environment, got %q", cfg.Server.Addr)
	}
}
