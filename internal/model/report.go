package model

// TurnReport is the read surface for one turn: the persisted feed, actions,
// and metrics, keyed by agent handle.
type TurnReport struct {
	Turn     int                           `json:"turn"`
	Feeds    map[string]GeneratedFeed      `json:"feeds"`
	Likes    map[string][]GeneratedLike    `json:"likes"`
	Comments map[string][]GeneratedComment `json:"comments"`
	Follows  map[string][]GeneratedFollow  `json:"follows"`
	Metrics  *TurnMetrics                  `json:"metrics,omitempty"`
}

// RunReport is the full read surface for a run: the run row plus per-turn
// reports ordered by turn number ascending and, when the run completed, the
// aggregated run metrics.
type RunReport struct {
	Run        Run          `json:"run"`
	Turns      []TurnReport `json:"turns"`
	RunMetrics *RunMetrics  `json:"run_metrics,omitempty"`
}
