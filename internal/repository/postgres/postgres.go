// Package postgres implements the repository interfaces on a pgx connection
// pool. It is the durable half of the system: cache entries and quota
// counters may evaporate, rows here do not.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool shared by all repositories.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens a connection pool and verifies the database is reachable.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	// Screening runs hold connections briefly per upsert, not for the whole
	// run, so a small pool suffices.
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}
