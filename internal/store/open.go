package store

import (
	"context"
	"errors"
	"fmt"

	"cargo-recon/internal/config"
)

// Open returns the Store selected by cfg.DBDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.DBDriver {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(cfg.DBPath)
	case "postgres", "postgresql", "pgx":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres: DATABASE_URL is empty")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
