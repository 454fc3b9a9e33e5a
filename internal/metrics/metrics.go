// Package metrics defines the pluggable metric computations and their
// registry. Metrics are pure functions of their declared scope's data: a
// turn metric sees one turn's persisted actions, a run metric sees the run
// row and all persisted turn metrics. Recomputing a metric over the same
// inputs always yields the same value.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/murmuration-labs/murmur/internal/model"
)

// ErrUnknownMetric is returned when no metric is registered for a key.
var ErrUnknownMetric = errors.New("metrics: unknown metric")

// Scope declares what data a metric is computed from.
type Scope string

const (
	ScopeTurn Scope = "turn"
	ScopeRun  Scope = "run"
)

// TurnData is the input to a turn-scoped metric: one turn's persisted
// actions and feeds, plus the agent population size.
type TurnData struct {
	Actions   model.TurnActions
	Feeds     []model.GeneratedFeed
	NumAgents int
}

// RunData is the input to a run-scoped metric: the run row and all persisted
// turn metrics, ordered by turn ascending.
type RunData struct {
	Run         model.Run
	TurnMetrics []model.TurnMetrics
}

// Definition is one registered metric. Exactly one of ComputeTurn and
// ComputeRun is set, matching Scope.
type Definition struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Scope       Scope  `json:"scope"`
	Author      string `json:"author,omitempty"`
	ComputeTurn func(TurnData) float64 `json:"-"`
	ComputeRun  func(RunData) float64  `json:"-"`
}

// Registry maps metric keys to definitions.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Definition)}
}

// Register adds a definition under its key, replacing any previous
// registration.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[def.Key] = def
}

// Get returns the definition registered under key.
func (r *Registry) Get(key string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.metrics[key]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	return def, nil
}

// List returns all registered definitions, ordered by key.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.metrics))
	for _, def := range r.metrics {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

// Partition splits keys into turn-scoped and run-scoped sets, or fails on
// the first unknown key. Used at configuration validation time.
func (r *Registry) Partition(keys []string) (turnKeys, runKeys []string, err error) {
	for _, key := range keys {
		def, err := r.Get(key)
		if err != nil {
			return nil, nil, err
		}
		switch def.Scope {
		case ScopeTurn:
			turnKeys = append(turnKeys, key)
		case ScopeRun:
			runKeys = append(runKeys, key)
		}
	}
	return turnKeys, runKeys, nil
}

// ComputeTurn evaluates the given turn-scoped keys over one turn's data.
func (r *Registry) ComputeTurn(keys []string, data TurnData) (map[string]float64, error) {
	values := make(map[string]float64, len(keys))
	for _, key := range keys {
		def, err := r.Get(key)
		if err != nil {
			return nil, err
		}
		if def.Scope != ScopeTurn {
			return nil, fmt.Errorf("metrics: %s is not turn-scoped", key)
		}
		values[key] = def.ComputeTurn(data)
	}
	return values, nil
}

// ComputeRun evaluates the given run-scoped keys over a run's data.
func (r *Registry) ComputeRun(keys []string, data RunData) (map[string]float64, error) {
	values := make(map[string]float64, len(keys))
	for _, key := range keys {
		def, err := r.Get(key)
		if err != nil {
			return nil, err
		}
		if def.Scope != ScopeRun {
			return nil, fmt.Errorf("metrics: %s is not run-scoped", key)
		}
		values[key] = def.ComputeRun(data)
	}
	return values, nil
}
