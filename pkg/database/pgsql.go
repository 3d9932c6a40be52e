package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects to databaseURL and applies the migrations found at migrationsPath.
// The caller owns the returned pool.
func Open(ctx context.Context, databaseURL, migrationsPath string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := NewPgxPool(ctx, databaseURL, logger)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(databaseURL, migrationsPath, logger); err != nil {
		ClosePgxPool(pool, logger)
		return nil, err
	}
	return pool, nil
}

// NewPgxPool creates a PostgreSQL connection pool and pings it once.
func NewPgxPool(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL cannot be empty", apperrors.ErrConnect)
	}

	// Settings missing from the URL fall back to PGHOST, PGUSER and friends.
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid database URL: %w", apperrors.ErrConnect, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create connection pool: %w", apperrors.ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %s:%d unreachable: %w", apperrors.ErrConnect, cfg.ConnConfig.Host, cfg.ConnConfig.Port, err)
	}

	logger.Info("Connected to PostgreSQL",
		slog.String("host", cfg.ConnConfig.Host),
		slog.String("database", cfg.ConnConfig.Database),
	)
	return pool, nil
}

// ClosePgxPool closes pool; a nil pool is ignored.
func ClosePgxPool(pool *pgxpool.Pool, logger *slog.Logger) {
	if pool == nil {
		return
	}
	pool.Close()
	logger.Info("PostgreSQL connection pool closed")
}
