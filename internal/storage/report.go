package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/murmuration-labs/murmur/internal/model"
)

// GetRunReport assembles the full read surface for a run: the run row, one
// TurnReport per persisted turn ordered by turn number ascending (with feeds
// and actions keyed by agent handle), and the run metrics when present.
// A failed run yields a report over the turns that completed before failure.
func (db *DB) GetRunReport(ctx context.Context, runID uuid.UUID) (model.RunReport, error) {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return model.RunReport{}, err
	}
	report := model.RunReport{Run: run}

	turns := make(map[int]*model.TurnReport)
	turnReport := func(n int) *model.TurnReport {
		tr, ok := turns[n]
		if !ok {
			tr = &model.TurnReport{
				Turn:     n,
				Feeds:    make(map[string]model.GeneratedFeed),
				Likes:    make(map[string][]model.GeneratedLike),
				Comments: make(map[string][]model.GeneratedComment),
				Follows:  make(map[string][]model.GeneratedFollow),
			}
			turns[n] = tr
		}
		return tr
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uris, created_at
		 FROM generated_feeds WHERE run_id = $1 ORDER BY turn ASC, agent_handle ASC`, runID,
	)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report feeds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f model.GeneratedFeed
		if err := rows.Scan(&f.ID, &f.RunID, &f.Turn, &f.AgentHandle, &f.PostURIs, &f.CreatedAt); err != nil {
			return model.RunReport{}, fmt.Errorf("storage: scan report feed: %w", err)
		}
		turnReport(f.Turn).Feeds[f.AgentHandle] = f
	}
	if err := rows.Err(); err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report feeds: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uri, created_at
		 FROM generated_likes WHERE run_id = $1 ORDER BY turn ASC, agent_handle ASC, post_uri ASC`, runID,
	)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report likes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l model.GeneratedLike
		if err := rows.Scan(&l.ID, &l.RunID, &l.Turn, &l.AgentHandle, &l.PostURI, &l.CreatedAt); err != nil {
			return model.RunReport{}, fmt.Errorf("storage: scan report like: %w", err)
		}
		tr := turnReport(l.Turn)
		tr.Likes[l.AgentHandle] = append(tr.Likes[l.AgentHandle], l)
	}
	if err := rows.Err(); err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report likes: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, post_uri, text, created_at
		 FROM generated_comments WHERE run_id = $1 ORDER BY turn ASC, agent_handle ASC, post_uri ASC`, runID,
	)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.GeneratedComment
		if err := rows.Scan(&c.ID, &c.RunID, &c.Turn, &c.AgentHandle, &c.PostURI, &c.Text, &c.CreatedAt); err != nil {
			return model.RunReport{}, fmt.Errorf("storage: scan report comment: %w", err)
		}
		tr := turnReport(c.Turn)
		tr.Comments[c.AgentHandle] = append(tr.Comments[c.AgentHandle], c)
	}
	if err := rows.Err(); err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report comments: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT id, run_id, turn, agent_handle, target_handle, created_at
		 FROM generated_follows WHERE run_id = $1 ORDER BY turn ASC, agent_handle ASC, target_handle ASC`, runID,
	)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report follows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f model.GeneratedFollow
		if err := rows.Scan(&f.ID, &f.RunID, &f.Turn, &f.AgentHandle, &f.TargetHandle, &f.CreatedAt); err != nil {
			return model.RunReport{}, fmt.Errorf("storage: scan report follow: %w", err)
		}
		tr := turnReport(f.Turn)
		tr.Follows[f.AgentHandle] = append(tr.Follows[f.AgentHandle], f)
	}
	if err := rows.Err(); err != nil {
		return model.RunReport{}, fmt.Errorf("storage: report follows: %w", err)
	}

	turnMetrics, err := db.ListTurnMetrics(ctx, runID)
	if err != nil {
		return model.RunReport{}, err
	}
	for _, tm := range turnMetrics {
		turnReport(tm.Turn).Metrics = &model.TurnMetrics{
			RunID:     tm.RunID,
			Turn:      tm.Turn,
			Values:    tm.Values,
			CreatedAt: tm.CreatedAt,
		}
	}

	maxTurn := -1
	for n := range turns {
		if n > maxTurn {
			maxTurn = n
		}
	}
	for n := 0; n <= maxTurn; n++ {
		report.Turns = append(report.Turns, *turnReport(n))
	}

	rm, err := db.GetRunMetrics(ctx, runID)
	switch {
	case err == nil:
		report.RunMetrics = &rm
	case errors.Is(err, ErrNotFound):
		// Failed or still-running runs have no run metrics.
	default:
		return model.RunReport{}, err
	}

	return report, nil
}
