package metrics

// Built-in metric keys.
const (
	KeyTurnActionsTotal       = "turn.actions.total"
	KeyTurnActionsLikes       = "turn.actions.likes"
	KeyTurnActionsComments    = "turn.actions.comments"
	KeyTurnActionsFollows     = "turn.actions.follows"
	KeyTurnActionsPerAgentAvg = "turn.actions.per_agent.avg"

	KeyRunActionsTotal      = "run.actions.total"
	KeyRunTurnsCompleted    = "run.turns.completed"
	KeyRunActionsPerTurnAvg = "run.actions.per_turn.avg"
)

// NewDefaultRegistry returns a registry with all built-in metrics.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(Definition{
		Key:         KeyTurnActionsTotal,
		Description: "Total persisted actions in the turn across all agents.",
		Scope:       ScopeTurn,
		Author:      "murmur",
		ComputeTurn: func(d TurnData) float64 { return float64(d.Actions.Total()) },
	})
	r.Register(Definition{
		Key:         KeyTurnActionsLikes,
		Description: "Likes persisted in the turn.",
		Scope:       ScopeTurn,
		Author:      "murmur",
		ComputeTurn: func(d TurnData) float64 { return float64(len(d.Actions.Likes)) },
	})
	r.Register(Definition{
		Key:         KeyTurnActionsComments,
		Description: "Comments persisted in the turn.",
		Scope:       ScopeTurn,
		Author:      "murmur",
		ComputeTurn: func(d TurnData) float64 { return float64(len(d.Actions.Comments)) },
	})
	r.Register(Definition{
		Key:         KeyTurnActionsFollows,
		Description: "Follows persisted in the turn.",
		Scope:       ScopeTurn,
		Author:      "murmur",
		ComputeTurn: func(d TurnData) float64 { return float64(len(d.Actions.Follows)) },
	})
	r.Register(Definition{
		Key:         KeyTurnActionsPerAgentAvg,
		Description: "Average persisted actions per agent in the turn.",
		Scope:       ScopeTurn,
		Author:      "murmur",
		ComputeTurn: func(d TurnData) float64 {
			if d.NumAgents == 0 {
				return 0
			}
			return float64(d.Actions.Total()) / float64(d.NumAgents)
		},
	})

	r.Register(Definition{
		Key:         KeyRunActionsTotal,
		Description: "Sum of turn.actions.total across all persisted turns.",
		Scope:       ScopeRun,
		Author:      "murmur",
		ComputeRun: func(d RunData) float64 {
			var total float64
			for _, tm := range d.TurnMetrics {
				total += tm.Values[KeyTurnActionsTotal]
			}
			return total
		},
	})
	r.Register(Definition{
		Key:         KeyRunTurnsCompleted,
		Description: "Number of turns with persisted metrics.",
		Scope:       ScopeRun,
		Author:      "murmur",
		ComputeRun:  func(d RunData) float64 { return float64(len(d.TurnMetrics)) },
	})
	r.Register(Definition{
		Key:         KeyRunActionsPerTurnAvg,
		Description: "Average turn.actions.total across all persisted turns.",
		Scope:       ScopeRun,
		Author:      "murmur",
		ComputeRun: func(d RunData) float64 {
			if len(d.TurnMetrics) == 0 {
				return 0
			}
			var total float64
			for _, tm := range d.TurnMetrics {
				total += tm.Values[KeyTurnActionsTotal]
			}
			return total / float64(len(d.TurnMetrics))
		},
	})

	return r
}
