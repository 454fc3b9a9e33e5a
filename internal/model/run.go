// Package model defines the core domain types for murmur.
//
// All types correspond directly to database tables or to payloads exchanged
// between the simulation engine and its collaborators. Types use strong
// typing (UUIDs, time.Time, enums) and avoid interface{} wherever possible.
package model

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a simulation run.
// Transitions are one-way: running -> completed or running -> failed.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunConfig is the immutable configuration a run is created with.
// The engine does not apply defaults; callers supply every field.
type RunConfig struct {
	NumAgents     int            `json:"num_agents"`
	NumTurns      int            `json:"num_turns"`
	FeedAlgorithm string         `json:"feed_algorithm"`
	FeedConfig    map[string]any `json:"feed_config,omitempty"`
	FeedLimit     int            `json:"feed_limit"`
	MetricKeys    []string       `json:"metric_keys"`
	LikePolicy    string         `json:"like_policy"`
	CommentPolicy string         `json:"comment_policy"`
	FollowPolicy  string         `json:"follow_policy"`
	Seed          int64          `json:"seed"`
	TurnTimeout   time.Duration  `json:"turn_timeout,omitempty"`
}

// ErrorPayload is the stable error shape attached to a failed run.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Run is one complete simulation execution. Configuration is immutable after
// creation; only the engine mutates status and timestamps.
type Run struct {
	ID        uuid.UUID     `json:"id"`
	Config    RunConfig     `json:"config"`
	CreatedBy string        `json:"created_by"`
	Status    RunStatus     `json:"status"`
	Error     *ErrorPayload `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
