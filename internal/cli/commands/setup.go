// Package commands implements the cascade CLI subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lakeforge-labs/cascade/internal/cli/config"
	"github.com/lakeforge-labs/cascade/internal/engine"
	"github.com/lakeforge-labs/cascade/internal/state"
)

// logger is installed by the root command before any subcommand runs.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger installs the CLI logger for all subcommands.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// getConfig returns the loaded CLI config, falling back to defaults when a
// command runs outside the root command's PersistentPreRunE (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		StorePath:   config.DefaultStoreFile,
		LookupLimit: config.DefaultLookupLimit,
	}
}

// newStore creates a bare store handle with the CLI logger attached.
func newStore() *state.SQLiteStore {
	return state.NewSQLiteStore(logger)
}

// openEngine creates the engine over the configured store, creating the
// store's parent directory on first use.
func openEngine() (*engine.Engine, error) {
	cfg := getConfig()

	if dir := filepath.Dir(cfg.StorePath); dir != "." && dir != "" && cfg.StorePath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return engine.New(engine.Config{
		StorePath:   cfg.StorePath,
		LookupLimit: cfg.LookupLimit,
		Logger:      logger,
	})
}
