// Package engine orchestrates column cascading over the artifact graph.
// It owns the store lifecycle, drives the relation processor per upstream
// merge, and keeps the derived column set consistent across repeated runs.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lakeforge-labs/cascade/internal/relation"
	"github.com/lakeforge-labs/cascade/internal/state"
	"github.com/lakeforge-labs/cascade/pkg/core"
)

// Engine drives cascade, cleanup and reenumeration runs against one store.
type Engine struct {
	store     core.Store
	processor *relation.Processor
	logger    *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// StorePath is the path to the SQLite workbench store.
	// Use ":memory:" for an ephemeral store.
	StorePath string
	// LookupLimit caps lookup-relation field propagation (default 3).
	LookupLimit int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine and opens its store, migrating the schema to the
// current version.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("initializing engine", "store_path", cfg.StorePath)

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StorePath); err != nil {
		return nil, fmt.Errorf("failed to open workbench store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate workbench store: %w", err)
	}

	return &Engine{
		store:     store,
		processor: relation.NewProcessor(logger, cfg.LookupLimit),
		logger:    logger,
	}, nil
}

// Store exposes the underlying store for read paths (listing, display).
func (e *Engine) Store() core.Store {
	return e.store
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Cleanup removes duplicate (artifact, name) columns, keeping the first
// occurrence of each.
func (e *Engine) Cleanup() (int, error) {
	removed, err := e.store.RemoveDuplicateColumns()
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	e.logger.Info("cleanup completed", "removed", removed)
	return removed, nil
}

// Reenumerate reassigns all column ids as a dense 1..N sequence ordered by
// artifact and declared order.
func (e *Engine) Reenumerate() (int, error) {
	renumbered, err := e.store.ReenumerateColumnIDs()
	if err != nil {
		return 0, fmt.Errorf("reenumeration failed: %w", err)
	}
	e.logger.Info("reenumeration completed", "columns", renumbered)
	return renumbered, nil
}
