package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/murmuration-labs/murmur/internal/model"
)

// InsertGeneratedFeedTx inserts a generated feed against a caller-supplied
// connection. The caller owns the transaction boundary. The unique
// (run_id, turn, agent_handle) constraint enforces at-most-once creation.
func (db *DB) InsertGeneratedFeedTx(ctx context.Context, q Querier, feed model.GeneratedFeed) error {
	if feed.ID == uuid.Nil {
		feed.ID = uuid.New()
	}
	if feed.CreatedAt.IsZero() {
		feed.CreatedAt = time.Now().UTC()
	}
	_, err := q.Exec(ctx,
		`INSERT INTO generated_feeds (id, run_id, turn, agent_handle, post_uris, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		feed.ID, feed.RunID, feed.Turn, feed.AgentHandle, feed.PostURIs, feed.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert generated feed: %w", err)
	}
	return nil
}

// InsertGeneratedFeed inserts a generated feed in its own transaction.
func (db *DB) InsertGeneratedFeed(ctx context.Context, feed model.GeneratedFeed) error {
	return db.WithTx(ctx, func(q Querier) error {
		return db.InsertGeneratedFeedTx(ctx, q, feed)
	})
}

// ListFeedsForTurn returns the persisted feeds for one (run, turn), ordered
// by agent handle.
func (db *DB) ListFeedsForTurn(ctx context.Context, runID uuid.UUID, turn int) ([]model.GeneratedFeed, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uris, created_at
		 FROM generated_feeds WHERE run_id = $1 AND turn = $2
		 ORDER BY agent_handle ASC`, runID, turn,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []model.GeneratedFeed
	for rows.Next() {
		var f model.GeneratedFeed
		if err := rows.Scan(&f.ID, &f.RunID, &f.Turn, &f.AgentHandle, &f.PostURIs, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}
