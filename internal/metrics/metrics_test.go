package metrics_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmuration-labs/murmur/internal/metrics"
	"github.com/murmuration-labs/murmur/internal/model"
)

func turnData() metrics.TurnData {
	runID := uuid.New()
	return metrics.TurnData{
		Actions: model.TurnActions{
			RunID: runID,
			Turn:  0,
			Likes: []model.GeneratedLike{
				{RunID: runID, AgentHandle: "alice", PostURI: "p1"},
				{RunID: runID, AgentHandle: "bob", PostURI: "p2"},
			},
			Comments: []model.GeneratedComment{
				{RunID: runID, AgentHandle: "alice", PostURI: "p1", Text: "hi"},
			},
			Follows: []model.GeneratedFollow{
				{RunID: runID, AgentHandle: "carol", TargetHandle: "alice"},
			},
		},
		NumAgents: 4,
	}
}

func TestRegistry_UnknownKey(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	_, err := r.Get("no.such.metric")
	require.ErrorIs(t, err, metrics.ErrUnknownMetric)

	_, _, err = r.Partition([]string{metrics.KeyTurnActionsTotal, "no.such.metric"})
	require.ErrorIs(t, err, metrics.ErrUnknownMetric)
}

func TestRegistry_Partition(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	turnKeys, runKeys, err := r.Partition([]string{
		metrics.KeyRunActionsTotal,
		metrics.KeyTurnActionsTotal,
		metrics.KeyTurnActionsLikes,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{metrics.KeyTurnActionsTotal, metrics.KeyTurnActionsLikes}, turnKeys)
	assert.Equal(t, []string{metrics.KeyRunActionsTotal}, runKeys)
}

func TestComputeTurn_Builtins(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	values, err := r.ComputeTurn([]string{
		metrics.KeyTurnActionsTotal,
		metrics.KeyTurnActionsLikes,
		metrics.KeyTurnActionsComments,
		metrics.KeyTurnActionsFollows,
		metrics.KeyTurnActionsPerAgentAvg,
	}, turnData())
	require.NoError(t, err)

	assert.Equal(t, 4.0, values[metrics.KeyTurnActionsTotal])
	assert.Equal(t, 2.0, values[metrics.KeyTurnActionsLikes])
	assert.Equal(t, 1.0, values[metrics.KeyTurnActionsComments])
	assert.Equal(t, 1.0, values[metrics.KeyTurnActionsFollows])
	assert.Equal(t, 1.0, values[metrics.KeyTurnActionsPerAgentAvg])
}

func TestComputeTurn_Idempotent(t *testing.T) {
	// Same persisted actions in, same values out — no hidden state.
	r := metrics.NewDefaultRegistry()
	keys := []string{metrics.KeyTurnActionsTotal, metrics.KeyTurnActionsPerAgentAvg}

	first, err := r.ComputeTurn(keys, turnData())
	require.NoError(t, err)
	for range 5 {
		again, err := r.ComputeTurn(keys, turnData())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeTurn_RejectsRunScopedKey(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	_, err := r.ComputeTurn([]string{metrics.KeyRunActionsTotal}, turnData())
	require.Error(t, err)
}

func TestComputeRun_Builtins(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	runID := uuid.New()
	data := metrics.RunData{
		Run: model.Run{ID: runID},
		TurnMetrics: []model.TurnMetrics{
			{RunID: runID, Turn: 0, Values: map[string]float64{metrics.KeyTurnActionsTotal: 3}},
			{RunID: runID, Turn: 1, Values: map[string]float64{metrics.KeyTurnActionsTotal: 5}},
		},
	}

	values, err := r.ComputeRun([]string{
		metrics.KeyRunActionsTotal,
		metrics.KeyRunTurnsCompleted,
		metrics.KeyRunActionsPerTurnAvg,
	}, data)
	require.NoError(t, err)

	assert.Equal(t, 8.0, values[metrics.KeyRunActionsTotal])
	assert.Equal(t, 2.0, values[metrics.KeyRunTurnsCompleted])
	assert.Equal(t, 4.0, values[metrics.KeyRunActionsPerTurnAvg])
}

func TestList_OrderedByKey(t *testing.T) {
	r := metrics.NewDefaultRegistry()
	defs := r.List()
	require.Len(t, defs, 8)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Key, defs[i].Key)
	}
	for _, def := range defs {
		assert.NotEmpty(t, def.Description)
		assert.NotEmpty(t, def.Scope)
	}
}
