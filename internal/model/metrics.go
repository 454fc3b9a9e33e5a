package model

import (
	"time"

	"github.com/google/uuid"
)

// TurnMetrics holds the computed metric values for one (run, turn).
// Computed at most once per turn, as a pure function of that turn's
// persisted actions.
type TurnMetrics struct {
	RunID     uuid.UUID          `json:"run_id"`
	Turn      int                `json:"turn"`
	Values    map[string]float64 `json:"values"`
	CreatedAt time.Time          `json:"created_at"`
}

// RunMetrics holds the aggregated metric values for a completed run.
// Computed exactly once after all turns are persisted; never mutated.
type RunMetrics struct {
	RunID     uuid.UUID          `json:"run_id"`
	Values    map[string]float64 `json:"values"`
	CreatedAt time.Time          `json:"created_at"`
}
