package model

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedFeed is the ranked feed shown to one agent on one turn.
// PostURIs order is semantically meaningful: index 0 is top-of-feed.
// Created exactly once per (run, turn, agent).
type GeneratedFeed struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Turn        int       `json:"turn"`
	AgentHandle string    `json:"agent_handle"`
	PostURIs    []string  `json:"post_uris"`
	CreatedAt   time.Time `json:"created_at"`
}
