// Package config loads runtime configuration from the environment, with an
// optional YAML file overlay for deployments that prefer files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Chain    Chain    `yaml:"chain"`
	Redis    Redis    `yaml:"redis"`
	Log      Log      `yaml:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `env:"SERVER_ADDR,default=:8080" yaml:"addr"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`
}

// Database configures the Postgres connection. An empty DSN selects the
// in-memory stores.
type Database struct {
	DSN     string `env:"DATABASE_URL" yaml:"dsn"`
	Migrate bool   `env:"DATABASE_MIGRATE,default=true" yaml:"migrate"`
}

// Chain configures the ledger client. Simulate selects the in-process
// simulator and ignores the other fields.
type Chain struct {
	Simulate     bool          `env:"CHAIN_SIMULATE,default=false" yaml:"simulate"`
	RPCURL       string        `env:"CHAIN_RPC_URL" yaml:"rpc_url"`
	NetworkID    uint32        `env:"CHAIN_NETWORK_ID,default=894710606" yaml:"network_id"`
	ContractHash string        `env:"CHAIN_CONTRACT_HASH" yaml:"contract_hash"`
	Timeout      time.Duration `env:"CHAIN_TIMEOUT,default=30s" yaml:"timeout"`
}

// Redis configures the optional ledger read cache. An empty Addr disables
// it.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR" yaml:"addr"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int           `env:"REDIS_DB,default=0" yaml:"db"`
	TTL      time.Duration `env:"REDIS_TTL,default=30s" yaml:"ttl"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format string `env:"LOG_FORMAT,default=json" yaml:"format"`
}

// Load reads .env if present, decodes the environment, and finally applies
// the YAML file named by CONFIG_FILE when set. File values win over
// environment values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.Chain.Simulate {
		if c.Chain.RPCURL == "" {
			return fmt.Errorf("chain: rpc_url is required unless simulate is set")
		}
		if c.Chain.ContractHash == "" {
			return fmt.Errorf("chain: contract_hash is required unless simulate is set")
		}
	}
	return nil
}
