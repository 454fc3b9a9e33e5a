// Package feed defines the pluggable feed-ranking algorithms and their
// registry. Algorithms rank a candidate post set for one agent and must be
// deterministic: equal primary sort keys are always broken by post URI so
// identical inputs yield identical feeds.
package feed

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/murmuration-labs/murmur/internal/model"
)

// ErrUnknownAlgorithm is returned when no algorithm is registered for an id.
var ErrUnknownAlgorithm = errors.New("feed: unknown algorithm")

// Info describes a registered algorithm for selection surfaces.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Context carries the per-invocation inputs an algorithm may rank by.
// Seed, Turn and Agent make seeded algorithms deterministic per
// (run, turn, agent); Config is the run's algorithm config blob.
type Context struct {
	Agent  model.Agent
	Turn   int
	Seed   int64
	Config map[string]any
}

// Algorithm ranks candidate posts for one agent and returns an ordered list
// of post URIs, truncated to limit. Index 0 is top-of-feed.
type Algorithm interface {
	Info() Info
	Rank(fc Context, candidates []model.Post, limit int) []string
}

// Registry maps algorithm ids to implementations.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Algorithm
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{algos: make(map[string]Algorithm)}
}

// NewDefaultRegistry returns a registry with all built-in algorithms.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Chronological{})
	r.Register(&Engagement{})
	r.Register(&Shuffled{})
	return r
}

// Register adds an algorithm under its Info().ID, replacing any previous
// registration for the same id.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algos[a.Info().ID] = a
}

// Get returns the algorithm registered under id.
func (r *Registry) Get(id string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, id)
	}
	return a, nil
}

// List returns the Info of all registered algorithms, ordered by id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.algos))
	for _, a := range r.algos {
		infos = append(infos, a.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// truncate caps uris at limit without reallocating.
func truncate(uris []string, limit int) []string {
	if limit > 0 && len(uris) > limit {
		return uris[:limit]
	}
	return uris
}
