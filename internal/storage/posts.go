package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/murmuration-labs/murmur/internal/model"
)

// SeedPosts inserts corpus posts that do not exist yet, keyed by URI, in a
// single transaction.
func (db *DB) SeedPosts(ctx context.Context, posts []model.Post) error {
	return db.WithTx(ctx, func(q Querier) error {
		now := time.Now().UTC()
		for _, p := range posts {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			if _, err := q.Exec(ctx,
				`INSERT INTO posts (uri, author_handle, text, like_count, comment_count, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (uri) DO NOTHING`,
				p.URI, p.AuthorHandle, p.Text, p.LikeCount, p.CommentCount, p.CreatedAt,
			); err != nil {
				return fmt.Errorf("storage: seed post %s: %w", p.URI, err)
			}
		}
		return nil
	})
}

// ListCandidatePosts returns up to limit posts as the candidate set for a
// turn, in a deterministic order (created_at DESC, uri ASC).
func (db *DB) ListCandidatePosts(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.pool.Query(ctx,
		`SELECT uri, author_handle, text, like_count, comment_count, created_at
		 FROM posts ORDER BY created_at DESC, uri ASC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list candidate posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.URI, &p.AuthorHandle, &p.Text, &p.LikeCount, &p.CommentCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of corpus posts.
func (db *DB) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count posts: %w", err)
	}
	return count, nil
}
