// Package storage provides key-value store adapters for ports.KeyValueStore.
//
// Drivers:
//   - file: one JSON document on disk, replaced atomically on every write
//   - postgres: one row per key in a GORM-managed table
//   - memory: process lifetime only
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jsamuelsen/quotegen/internal/platform/config"
	"github.com/jsamuelsen/quotegen/internal/ports"
)

// Store is a durable key-value store that can report its health and be closed.
type Store interface {
	ports.KeyValueStore
	ports.HealthChecker
	io.Closer
}

// Open returns the durable store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.StorageDriverFile:
		s, err := NewFileStore(cfg.File.Path)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}

		return s, nil
	case config.StorageDriverPostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}

		return s, nil
	case config.StorageDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
