package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/murmuration-labs/murmur/internal/model"
)

// InsertTurnMetrics persists the computed metrics for one (run, turn).
// The primary key on (run_id, turn) enforces at-most-once computation:
// a second insert for the same turn is a constraint violation, not an upsert.
func (db *DB) InsertTurnMetrics(ctx context.Context, tm model.TurnMetrics) error {
	if tm.CreatedAt.IsZero() {
		tm.CreatedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO turn_metrics (run_id, turn, metric_values, created_at)
		 VALUES ($1, $2, $3, $4)`,
		tm.RunID, tm.Turn, tm.Values, tm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert turn metrics: %w", err)
	}
	return nil
}

// GetTurnMetrics retrieves the metrics for one (run, turn).
func (db *DB) GetTurnMetrics(ctx context.Context, runID uuid.UUID, turn int) (model.TurnMetrics, error) {
	var tm model.TurnMetrics
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, turn, metric_values, created_at
		 FROM turn_metrics WHERE run_id = $1 AND turn = $2`, runID, turn,
	).Scan(&tm.RunID, &tm.Turn, &tm.Values, &tm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TurnMetrics{}, fmt.Errorf("storage: turn metrics %s/%d: %w", runID, turn, ErrNotFound)
		}
		return model.TurnMetrics{}, fmt.Errorf("storage: get turn metrics: %w", err)
	}
	return tm, nil
}

// ListTurnMetrics returns all turn metrics for a run, ordered by turn ASC.
func (db *DB) ListTurnMetrics(ctx context.Context, runID uuid.UUID) ([]model.TurnMetrics, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, turn, metric_values, created_at
		 FROM turn_metrics WHERE run_id = $1 ORDER BY turn ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list turn metrics: %w", err)
	}
	defer rows.Close()

	var metrics []model.TurnMetrics
	for rows.Next() {
		var tm model.TurnMetrics
		if err := rows.Scan(&tm.RunID, &tm.Turn, &tm.Values, &tm.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan turn metrics: %w", err)
		}
		metrics = append(metrics, tm)
	}
	return metrics, rows.Err()
}

// InsertRunMetrics persists the aggregated metrics for a run. The primary key
// on run_id enforces exactly-once computation.
func (db *DB) InsertRunMetrics(ctx context.Context, rm model.RunMetrics) error {
	if rm.CreatedAt.IsZero() {
		rm.CreatedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_metrics (run_id, metric_values, created_at)
		 VALUES ($1, $2, $3)`,
		rm.RunID, rm.Values, rm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert run metrics: %w", err)
	}
	return nil
}

// GetRunMetrics retrieves the aggregated metrics for a run.
func (db *DB) GetRunMetrics(ctx context.Context, runID uuid.UUID) (model.RunMetrics, error) {
	var rm model.RunMetrics
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, metric_values, created_at FROM run_metrics WHERE run_id = $1`, runID,
	).Scan(&rm.RunID, &rm.Values, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RunMetrics{}, fmt.Errorf("storage: run metrics %s: %w", runID, ErrNotFound)
		}
		return model.RunMetrics{}, fmt.Errorf("storage: get run metrics: %w", err)
	}
	return rm, nil
}
