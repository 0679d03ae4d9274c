// File: cmd/store.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/internal/config"
	"github.com/SC5KSystems/Auto-Form-Recovery/internal/kvstore"
)

// openStore builds the configured snapshot store backend. The returned
// cleanup function releases backend resources and is safe to defer.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kvstore.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return kvstore.NewMemory(), func() {}, nil

	case "sqlite":
		path, err := homedir.Expand(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to expand storage path %q: %w", cfg.Storage.Path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		store, err := kvstore.OpenSQLite(ctx, path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		store, err := kvstore.NewPostgres(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		// Validate catches this earlier; keep the guard for direct callers.
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
