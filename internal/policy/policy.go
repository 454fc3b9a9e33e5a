// Package policy defines the pluggable action generators and their registry.
// Each action type (like, comment, follow) has its own generator interface;
// policies are looked up by (action type, policy id). Generators only ever
// return a subset of the candidates they were offered — anything else is
// filtered before it reaches persistence.
package policy

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/murmuration-labs/murmur/internal/model"
)

// ErrUnknownPolicy is returned when no generator is registered for an
// (action type, policy id) pair.
var ErrUnknownPolicy = errors.New("policy: unknown policy")

// Info describes a registered generator for selection surfaces.
type Info struct {
	ActionType  model.ActionType `json:"action_type"`
	PolicyID    string           `json:"policy_id"`
	Description string           `json:"description"`
}

// Context carries the per-invocation inputs a generator may act on.
type Context struct {
	RunID uuid.UUID
	Turn  int
	Seed  int64
	Agent model.Agent
}

// LikeGenerator produces zero or more likes from an agent's ranked feed.
type LikeGenerator interface {
	Info() Info
	Generate(ctx context.Context, pc Context, feed []model.Post) ([]model.GeneratedLike, error)
}

// CommentGenerator produces zero or more comments from an agent's ranked feed.
type CommentGenerator interface {
	Info() Info
	Generate(ctx context.Context, pc Context, feed []model.Post) ([]model.GeneratedComment, error)
}

// FollowGenerator produces zero or more follows from the preprocessed
// follow candidates (see FollowCandidates).
type FollowGenerator interface {
	Info() Info
	Generate(ctx context.Context, pc Context, candidates []FollowCandidate) ([]model.GeneratedFollow, error)
}

// FollowCandidate is one followable author: a handle plus that author's most
// recent post visible in the acting agent's feed.
type FollowCandidate struct {
	Handle     string
	LatestPost model.Post
}

// FollowCandidates reduces a feed to the unique authors visible in it,
// keeping only the most recent post per author and excluding the acting
// agent itself. Results are ordered by handle for determinism.
func FollowCandidates(agent model.Agent, feed []model.Post) []FollowCandidate {
	latest := make(map[string]model.Post)
	for _, p := range feed {
		if p.AuthorHandle == agent.Handle {
			continue
		}
		cur, ok := latest[p.AuthorHandle]
		if !ok || p.CreatedAt.After(cur.CreatedAt) {
			latest[p.AuthorHandle] = p
		}
	}

	candidates := make([]FollowCandidate, 0, len(latest))
	for handle, p := range latest {
		candidates = append(candidates, FollowCandidate{Handle: handle, LatestPost: p})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Handle < candidates[j].Handle })
	return candidates
}

// Registry maps (action type, policy id) to generator implementations.
type Registry struct {
	mu       sync.RWMutex
	likes    map[string]LikeGenerator
	comments map[string]CommentGenerator
	follows  map[string]FollowGenerator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		likes:    make(map[string]LikeGenerator),
		comments: make(map[string]CommentGenerator),
		follows:  make(map[string]FollowGenerator),
	}
}

// RegisterLike adds a like generator under its Info().PolicyID.
func (r *Registry) RegisterLike(g LikeGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.likes[g.Info().PolicyID] = g
}

// RegisterComment adds a comment generator under its Info().PolicyID.
func (r *Registry) RegisterComment(g CommentGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[g.Info().PolicyID] = g
}

// RegisterFollow adds a follow generator under its Info().PolicyID.
func (r *Registry) RegisterFollow(g FollowGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.follows[g.Info().PolicyID] = g
}

// Like returns the like generator registered under policyID.
func (r *Registry) Like(policyID string) (LikeGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.likes[policyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPolicy, model.ActionLike, policyID)
	}
	return g, nil
}

// Comment returns the comment generator registered under policyID.
func (r *Registry) Comment(policyID string) (CommentGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.comments[policyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPolicy, model.ActionComment, policyID)
	}
	return g, nil
}

// Follow returns the follow generator registered under policyID.
func (r *Registry) Follow(policyID string) (FollowGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.follows[policyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPolicy, model.ActionFollow, policyID)
	}
	return g, nil
}

// List returns the Info of all registered generators, ordered by action type
// then policy id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var infos []Info
	for _, g := range r.likes {
		infos = append(infos, g.Info())
	}
	for _, g := range r.comments {
		infos = append(infos, g.Info())
	}
	for _, g := range r.follows {
		infos = append(infos, g.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ActionType != infos[j].ActionType {
			return infos[i].ActionType < infos[j].ActionType
		}
		return infos[i].PolicyID < infos[j].PolicyID
	})
	return infos
}

// subSeed derives a stable stream id from the generation context and an
// action-type salt so like, comment and follow draws are independent.
func subSeed(pc Context, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pc.Agent.Handle))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(salt))
	return h.Sum64() ^ uint64(pc.Turn)*0x9e3779b97f4a7c15
}
