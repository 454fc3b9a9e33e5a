package sim

import (
	"context"

	"github.com/google/uuid"

	"github.com/murmuration-labs/murmur/internal/model"
)

// Store is the persistence surface the engine depends on. *storage.DB
// satisfies it; tests use an in-memory fake. Every method is a complete
// storage operation: multi-entity writes (PersistTurn) are transactional
// inside the implementation, so the engine never holds a connection.
type Store interface {
	CreateRun(ctx context.Context, cfg model.RunConfig, createdBy string) (model.Run, error)
	MarkRunCompleted(ctx context.Context, id uuid.UUID) error
	MarkRunFailed(ctx context.Context, id uuid.UUID, payload model.ErrorPayload) error

	ListAgents(ctx context.Context, limit int) ([]model.Agent, error)
	ListCandidatePosts(ctx context.Context, limit int) ([]model.Post, error)

	PersistTurn(ctx context.Context, batch model.TurnBatch) error
	ListFeedsForTurn(ctx context.Context, runID uuid.UUID, turn int) ([]model.GeneratedFeed, error)
	ListTurnActions(ctx context.Context, runID uuid.UUID, turn int) (model.TurnActions, error)

	InsertTurnMetrics(ctx context.Context, tm model.TurnMetrics) error
	ListTurnMetrics(ctx context.Context, runID uuid.UUID) ([]model.TurnMetrics, error)
	InsertRunMetrics(ctx context.Context, rm model.RunMetrics) error

	GetRunReport(ctx context.Context, runID uuid.UUID) (model.RunReport, error)
}
