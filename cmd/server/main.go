// Package main runs the game backend API server: off-chain stores, the
// ledger client and the REST surface over them.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	app "github.com/NeoReef/game-backend/internal/app"
	"github.com/NeoReef/game-backend/internal/app/httpapi"
	"github.com/NeoReef/game-backend/internal/app/storage/postgres"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/internal/config"
	"github.com/NeoReef/game-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").Errorf("load config: %v", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: "server",
	})

	stores, closeStores, err := buildStores(cfg, log)
	if err != nil {
		log.Errorf("storage init: %v", err)
		os.Exit(1)
	}
	defer closeStores()

	ledger, err := buildLedger(cfg, log)
	if err != nil {
		log.Errorf("ledger init: %v", err)
		os.Exit(1)
	}

	application, err := app.New(stores, ledger, log)
	if err != nil {
		log.Errorf("application init: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Errorf("start background services: %v", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewHandler(application, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Errorf("http server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.Warnf("background services shutdown: %v", err)
	}
	log.Info("server stopped")
}

// buildStores opens Postgres when a DSN is configured and falls back to the
// in-memory stores otherwise. The returned closer is a no-op for memory.
func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, func(), error) {
	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_URL not set; using in-memory storage")
		return app.Stores{}, func() {}, nil
	}

	db, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		return app.Stores{}, nil, err
	}
	if cfg.Database.Migrate {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}
	}
	store := postgres.New(db)
	log.Info("postgres storage ready")
	return app.Stores{
		Players:        store,
		Fish:           store,
		Tanks:          store,
		Decorations:    store,
		Reconciliation: store,
	}, func() { db.Close() }, nil
}

// buildLedger selects the simulator or the RPC-backed contract client, and
// wraps either in the Redis read cache when configured. A nil return lets
// the application fall back to its own simulator wired to the id
// allocators.
func buildLedger(cfg *config.Config, log *logger.Logger) (chain.Ledger, error) {
	var ledger chain.Ledger
	if cfg.Chain.Simulate {
		ledger = nil // app.New wires the simulator to the id allocators
	} else {
		client, err := chain.NewClient(chain.Config{
			RPCURL:    cfg.Chain.RPCURL,
			NetworkID: cfg.Chain.NetworkID,
			Timeout:   cfg.Chain.Timeout,
		})
		if err != nil {
			return nil, err
		}
		contract, err := chain.NewContractLedger(client, cfg.Chain.ContractHash)
		if err != nil {
			return nil, err
		}
		ledger = contract
	}

	if cfg.Redis.Addr == "" || ledger == nil {
		return ledger, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Infof("ledger read cache enabled via redis at %s", cfg.Redis.Addr)
	return chain.NewCachedLedger(ledger, rdb, cfg.Redis.TTL, log), nil
}
