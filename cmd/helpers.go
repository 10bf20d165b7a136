package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/db"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/logger"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `dirsite init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logger.NewLogger(cfg.Logging.Env, level)
}

// openStore connects to the configured listing backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (listing.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	store, err := db.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	return store, nil
}
