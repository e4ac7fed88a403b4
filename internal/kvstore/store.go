// Package kvstore holds the flat key-value document store behind the storage
// API and its backends.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/workoutlog/internal/config"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is a flat namespace of JSON documents.
// Put is an upsert and never inspects the value; deleting an absent key succeeds.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return OpenFile(cfg.Path)
	case config.BackendSQLite:
		return OpenSQL(ctx, "sqlite", cfg.Path)
	case config.BackendLibSQL:
		return OpenSQL(ctx, "libsql", cfg.URL)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.URL, cfg.Prefix)
	case config.BackendPostgres:
		dsn := cfg.Postgres.DSN()
		if err := RunMigrations(dsn); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
