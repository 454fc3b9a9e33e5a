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

// CreateRun inserts a new simulation run with status running and returns it.
// The insert is its own transaction: a failure here means no run exists at all.
func (db *DB) CreateRun(ctx context.Context, cfg model.RunConfig, createdBy string) (model.Run, error) {
	now := time.Now().UTC()
	run := model.Run{
		ID:        uuid.New(),
		Config:    cfg,
		CreatedBy: createdBy,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO runs (id, config, created_by, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Config, run.CreatedBy, string(run.Status), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return model.Run{}, fmt.Errorf("storage: create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (model.Run, error) {
	var run model.Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, config, created_by, status, error, created_at, updated_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.Config, &run.CreatedBy, &run.Status, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Run{}, fmt.Errorf("storage: run %s: %w", id, ErrNotFound)
		}
		return model.Run{}, fmt.Errorf("storage: get run: %w", err)
	}
	return run, nil
}

// MarkRunCompleted transitions a run from running to completed.
// The status guard makes the transition one-way: a completed or failed run
// is never moved back.
func (db *DB) MarkRunCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = 'running'`,
		string(model.RunStatusCompleted), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storage: complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: run not found or not running: %s", id)
	}
	return nil
}

// MarkRunFailed transitions a run from running to failed and attaches the
// error payload. Same one-way status guard as MarkRunCompleted.
func (db *DB) MarkRunFailed(ctx context.Context, id uuid.UUID, payload model.ErrorPayload) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3
		 WHERE id = $4 AND status = 'running'`,
		string(model.RunStatusFailed), payload, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storage: fail run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: run not found or not running: %s", id)
	}
	return nil
}

// ListRuns returns runs ordered by created_at DESC with pagination.
// limit defaults to 50 when non-positive.
func (db *DB) ListRuns(ctx context.Context, limit, offset int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, config, created_by, status, error, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.Config, &r.CreatedBy, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
