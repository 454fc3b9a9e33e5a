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

// CreateAgent inserts a new agent.
func (db *DB) CreateAgent(ctx context.Context, agent model.Agent) (model.Agent, error) {
	if err := model.ValidateHandle(agent.Handle); err != nil {
		return model.Agent{}, err
	}
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO agents (id, handle, display_name, bio, persona, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		agent.ID, agent.Handle, agent.DisplayName, agent.Bio, agent.Persona, agent.CreatedAt,
	)
	if err != nil {
		return model.Agent{}, fmt.Errorf("storage: create agent: %w", err)
	}
	return agent, nil
}

// SeedAgents inserts agents that do not exist yet, keyed by handle, in a
// single transaction. Existing handles are left untouched.
func (db *DB) SeedAgents(ctx context.Context, agents []model.Agent) error {
	return db.WithTx(ctx, func(q Querier) error {
		now := time.Now().UTC()
		for _, a := range agents {
			if err := model.ValidateHandle(a.Handle); err != nil {
				return err
			}
			if a.ID == uuid.Nil {
				a.ID = uuid.New()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			if _, err := q.Exec(ctx,
				`INSERT INTO agents (id, handle, display_name, bio, persona, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (handle) DO NOTHING`,
				a.ID, a.Handle, a.DisplayName, a.Bio, a.Persona, a.CreatedAt,
			); err != nil {
				return fmt.Errorf("storage: seed agent %s: %w", a.Handle, err)
			}
		}
		return nil
	})
}

// GetAgentByHandle retrieves an agent by handle.
func (db *DB) GetAgentByHandle(ctx context.Context, handle string) (model.Agent, error) {
	var a model.Agent
	err := db.pool.QueryRow(ctx,
		`SELECT id, handle, display_name, bio, persona, created_at
		 FROM agents WHERE handle = $1`, handle,
	).Scan(&a.ID, &a.Handle, &a.DisplayName, &a.Bio, &a.Persona, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Agent{}, fmt.Errorf("storage: agent %s: %w", handle, ErrNotFound)
		}
		return model.Agent{}, fmt.Errorf("storage: get agent: %w", err)
	}
	return a, nil
}

// ListAgents returns up to limit agents in a deterministic order
// (created_at ASC, handle ASC). The engine takes the first NumAgents of these
// as the run's population, so identical corpora yield identical populations.
func (db *DB) ListAgents(ctx context.Context, limit int) ([]model.Agent, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, handle, display_name, bio, persona, created_at
		 FROM agents ORDER BY created_at ASC, handle ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list agents: %w", err)
	}
	defer rows.Close()

	var agents []model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(&a.ID, &a.Handle, &a.DisplayName, &a.Bio, &a.Persona, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// CountAgents returns the number of registered agents.
func (db *DB) CountAgents(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count agents: %w", err)
	}
	return count, nil
}
