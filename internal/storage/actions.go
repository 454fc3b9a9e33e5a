package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/murmuration-labs/murmur/internal/model"
)

// InsertLikesTx inserts generated likes against a caller-supplied connection.
func (db *DB) InsertLikesTx(ctx context.Context, q Querier, likes []model.GeneratedLike) error {
	now := time.Now().UTC()
	for _, l := range likes {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO generated_likes (id, run_id, turn, agent_handle, post_uri, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, l.RunID, l.Turn, l.AgentHandle, l.PostURI, l.CreatedAt,
		); err != nil {
			return fmt.Errorf("storage: insert like: %w", err)
		}
	}
	return nil
}

// InsertCommentsTx inserts generated comments against a caller-supplied connection.
func (db *DB) InsertCommentsTx(ctx context.Context, q Querier, comments []model.GeneratedComment) error {
	now := time.Now().UTC()
	for _, c := range comments {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO generated_comments (id, run_id, turn, agent_handle, post_uri, text, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.RunID, c.Turn, c.AgentHandle, c.PostURI, c.Text, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("storage: insert comment: %w", err)
		}
	}
	return nil
}

// InsertFollowsTx inserts generated follows against a caller-supplied connection.
func (db *DB) InsertFollowsTx(ctx context.Context, q Querier, follows []model.GeneratedFollow) error {
	now := time.Now().UTC()
	for _, f := range follows {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO generated_follows (id, run_id, turn, agent_handle, target_handle, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			f.ID, f.RunID, f.Turn, f.AgentHandle, f.TargetHandle, f.CreatedAt,
		); err != nil {
			return fmt.Errorf("storage: insert follow: %w", err)
		}
	}
	return nil
}

// PersistTurn writes one turn's feeds and actions in a single transaction,
// retrying on transient serialization conflicts. Either the whole turn lands
// or none of it does — a feed is never persisted without its actions.
func (db *DB) PersistTurn(ctx context.Context, batch model.TurnBatch) error {
	return WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		return db.WithTx(ctx, func(q Querier) error {
			for _, f := range batch.Feeds {
				if err := db.InsertGeneratedFeedTx(ctx, q, f); err != nil {
					return err
				}
			}
			if err := db.InsertLikesTx(ctx, q, batch.Likes); err != nil {
				return err
			}
			if err := db.InsertCommentsTx(ctx, q, batch.Comments); err != nil {
				return err
			}
			return db.InsertFollowsTx(ctx, q, batch.Follows)
		})
	})
}

// ListTurnActions reads back the persisted actions for one (run, turn).
// Results are ordered deterministically (agent handle, then target) so metric
// computation over them is reproducible.
func (db *DB) ListTurnActions(ctx context.Context, runID uuid.UUID, turn int) (model.TurnActions, error) {
	ta := model.TurnActions{RunID: runID, Turn: turn}

	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uri, created_at
		 FROM generated_likes WHERE run_id = $1 AND turn = $2
		 ORDER BY agent_handle ASC, post_uri ASC`, runID, turn,
	)
	if err != nil {
		return ta, fmt.Errorf("storage: list likes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l model.GeneratedLike
		if err := rows.Scan(&l.ID, &l.RunID, &l.Turn, &l.AgentHandle, &l.PostURI, &l.CreatedAt); err != nil {
			return ta, fmt.Errorf("storage: scan like: %w", err)
		}
		ta.Likes = append(ta.Likes, l)
	}
	if err := rows.Err(); err != nil {
		return ta, fmt.Errorf("storage: list likes: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uri, text, created_at
		 FROM generated_comments WHERE run_id = $1 AND turn = $2
		 ORDER BY agent_handle ASC, post_uri ASC`, runID, turn,
	)
	if err != nil {
		return ta, fmt.Errorf("storage: list comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.GeneratedComment
		if err := rows.Scan(&c.ID, &c.RunID, &c.Turn, &c.AgentHandle, &c.PostURI, &c.Text, &c.CreatedAt); err != nil {
			return ta, fmt.Errorf("storage: scan comment: %w", err)
		}
		ta.Comments = append(ta.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return ta, fmt.Errorf("storage: list comments: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, target_handle, created_at
		 FROM generated_follows WHERE run_id = $1 AND turn = $2
		 ORDER BY agent_handle ASC, target_handle ASC`, runID, turn,
	)
	if err != nil {
		return ta, fmt.Errorf("storage: list follows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f model.GeneratedFollow
		if err := rows.Scan(&f.ID, &f.RunID, &f.Turn, &f.AgentHandle, &f.TargetHandle, &f.CreatedAt); err != nil {
			return ta, fmt.Errorf("storage: scan follow: %w", err)
		}
		ta.Follows = append(ta.Follows, f)
	}
	if err := rows.Err(); err != nil {
		return ta, fmt.Errorf("storage: list follows: %w", err)
	}

	return ta, nil
}
