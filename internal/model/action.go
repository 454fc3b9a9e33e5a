package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionType discriminates the three kinds of generated actions.
type ActionType string

const (
	ActionLike    ActionType = "like"
	ActionComment ActionType = "comment"
	ActionFollow  ActionType = "follow"
)

// GeneratedLike records an agent liking a post from its feed on a turn.
// Immutable once persisted.
type GeneratedLike struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Turn        int       `json:"turn"`
	AgentHandle string    `json:"agent_handle"`
	PostURI     string    `json:"post_uri"`
	CreatedAt   time.Time `json:"created_at"`
}

// GeneratedComment records an agent commenting on a post from its feed,
// with the generated comment text. Immutable once persisted.
type GeneratedComment struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Turn        int       `json:"turn"`
	AgentHandle string    `json:"agent_handle"`
	PostURI     string    `json:"post_uri"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

// GeneratedFollow records an agent following another agent. Unlike likes and
// comments, the target is not feed-scoped — any known agent is a valid target.
type GeneratedFollow struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	Turn         int       `json:"turn"`
	AgentHandle  string    `json:"agent_handle"`
	TargetHandle string    `json:"target_handle"`
	CreatedAt    time.Time `json:"created_at"`
}

// TurnBatch bundles everything produced by one turn of a run. It is the unit
// of transactional persistence: a batch is written in a single transaction so
// a feed is never persisted without its actions, or vice versa.
type TurnBatch struct {
	RunID    uuid.UUID          `json:"run_id"`
	Turn     int                `json:"turn"`
	Feeds    []GeneratedFeed    `json:"feeds"`
	Likes    []GeneratedLike    `json:"likes"`
	Comments []GeneratedComment `json:"comments"`
	Follows  []GeneratedFollow  `json:"follows"`
}

// TurnActions is the read-back of one turn's persisted actions, the input to
// turn-scoped metric computation.
type TurnActions struct {
	RunID    uuid.UUID          `json:"run_id"`
	Turn     int                `json:"turn"`
	Likes    []GeneratedLike    `json:"likes"`
	Comments []GeneratedComment `json:"comments"`
	Follows  []GeneratedFollow  `json:"follows"`
}

// Total returns the number of persisted actions across all types.
func (ta TurnActions) Total() int {
	return len(ta.Likes) + len(ta.Comments) + len(ta.Follows)
}
