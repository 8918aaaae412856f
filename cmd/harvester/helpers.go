package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tdnsg/novel-harvester/internal/config"
	"github.com/tdnsg/novel-harvester/internal/pipeline"
	"github.com/tdnsg/novel-harvester/internal/store"
)

// resolveConfig loads the optional config file, applies built-in defaults
// beneath it, and falls back to DATABASE_URL from the environment.
func resolveConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.DefaultConfig())

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// openStore connects and applies migrations. Every command needs the
// database, so the missing-URL error lives here.
func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL required: set --db-url, 'database_url' in the config file, or the DATABASE_URL environment variable")
	}
	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func delaysFromConfig(cfg config.Config) pipeline.Delays {
	return pipeline.Delays{
		Min:        time.Duration(cfg.DelayMinSeconds) * time.Second,
		Max:        time.Duration(cfg.DelayMaxSeconds) * time.Second,
		FailureMin: time.Duration(cfg.FailureDelayMinSeconds) * time.Second,
		FailureMax: time.Duration(cfg.FailureDelayMaxSeconds) * time.Second,
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
