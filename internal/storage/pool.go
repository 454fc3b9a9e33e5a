// Package storage provides the PostgreSQL storage layer for murmur.
//
// It manages connection pooling via pgxpool, forward-only SQL migrations,
// and one repository per simulation entity (runs, agents, posts, generated
// feeds and actions, turn and run metrics). Repository methods open their own
// transaction when the caller does not supply one; the ...Tx variants execute
// against a caller-supplied Querier and never manage transaction boundaries.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DB wraps a pgxpool.Pool and exposes the murmur repositories.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a new DB with a connection pool and verifies connectivity.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}

	return &DB{pool: pool, logger: logger}, nil
}

// Pool returns the underlying connection pool for use by other packages.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks connectivity to the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// RegisterPoolMetrics registers observable OTEL gauges for pool utilization.
// Call after telemetry.Init so the global meter provider is in place.
func (db *DB) RegisterPoolMetrics() {
	meter := otel.GetMeterProvider().Meter("murmur/storage")

	total, err1 := meter.Int64ObservableGauge("db.pool.connections.total")
	idle, err2 := meter.Int64ObservableGauge("db.pool.connections.idle")
	acquired, err3 := meter.Int64ObservableGauge("db.pool.connections.acquired")
	if err1 != nil || err2 != nil || err3 != nil {
		db.logger.Warn("storage: pool metrics registration failed",
			"errors", []error{err1, err2, err3})
		return
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stat := db.pool.Stat()
		o.ObserveInt64(total, int64(stat.TotalConns()))
		o.ObserveInt64(idle, int64(stat.IdleConns()))
		o.ObserveInt64(acquired, int64(stat.AcquiredConns()))
		return nil
	}, total, idle, acquired)
	if err != nil {
		db.logger.Warn("storage: pool metrics callback registration failed", "error", err)
	}
}
