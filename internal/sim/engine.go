// Package sim contains the simulation engine: the turn loop orchestrating
// candidate selection, feed ranking, action generation, transactional
// persistence and metrics computation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/murmuration-labs/murmur/internal/feed"
	"github.com/murmuration-labs/murmur/internal/metrics"
	"github.com/murmuration-labs/murmur/internal/model"
	"github.com/murmuration-labs/murmur/internal/policy"
)

// ValidationError reports a run configuration rejected before any execution
// began. No Run row exists when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sim: invalid config: %s: %s", e.Field, e.Reason)
}

// Error payload codes attached to failed runs.
const (
	codeTurnFailure       = "turn_failure"
	codeRunMetricsFailure = "run_metrics_failure"
)

// Options tune engine behavior independent of any single run's config.
type Options struct {
	// CandidateLimit caps the candidate post set built each turn.
	CandidateLimit int
	// Concurrency bounds parallel per-agent generation within a turn.
	Concurrency int
}

// Engine drives simulation runs. All collaborators are injected; the engine
// never constructs a storage or LLM client itself.
type Engine struct {
	store    Store
	feeds    *feed.Registry
	policies *policy.Registry
	metrics  *metrics.Registry
	logger   *slog.Logger
	opts     Options

	turnsExecuted metric.Int64Counter
	actionsTotal  metric.Int64Counter
	turnDuration  metric.Float64Histogram
}

// NewEngine constructs an engine with the given collaborators.
func NewEngine(store Store, feeds *feed.Registry, policies *policy.Registry, reg *metrics.Registry, logger *slog.Logger, optFns ...func(o *Options)) *Engine {
	opts := Options{
		CandidateLimit: 200,
		Concurrency:    8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	meter := otel.GetMeterProvider().Meter("murmur/sim")
	turnsExecuted, _ := meter.Int64Counter("sim.turns.executed")
	actionsTotal, _ := meter.Int64Counter("sim.actions.generated")
	turnDuration, _ := meter.Float64Histogram("sim.turn.duration_seconds")

	return &Engine{
		store:         store,
		feeds:         feeds,
		policies:      policies,
		metrics:       reg,
		logger:        logger,
		opts:          opts,
		turnsExecuted: turnsExecuted,
		actionsTotal:  actionsTotal,
		turnDuration:  turnDuration,
	}
}

// generators bundles the per-action-type policies resolved for one run.
type generators struct {
	like    policy.LikeGenerator
	comment policy.CommentGenerator
	follow  policy.FollowGenerator
}

// validate rejects a config before any Run exists. The engine applies no
// defaults: missing values are errors, not fallbacks.
func (e *Engine) validate(cfg model.RunConfig) (gens generators, turnKeys, runKeys []string, err error) {
	if cfg.NumAgents < 1 {
		return gens, nil, nil, &ValidationError{Field: "num_agents", Reason: "must be >= 1"}
	}
	if cfg.NumTurns < 1 {
		return gens, nil, nil, &ValidationError{Field: "num_turns", Reason: "must be >= 1"}
	}
	if cfg.FeedLimit < 1 {
		return gens, nil, nil, &ValidationError{Field: "feed_limit", Reason: "must be >= 1"}
	}
	if _, err := e.feeds.Get(cfg.FeedAlgorithm); err != nil {
		return gens, nil, nil, &ValidationError{Field: "feed_algorithm", Reason: err.Error()}
	}
	if gens.like, err = e.policies.Like(cfg.LikePolicy); err != nil {
		return gens, nil, nil, &ValidationError{Field: "like_policy", Reason: err.Error()}
	}
	if gens.comment, err = e.policies.Comment(cfg.CommentPolicy); err != nil {
		return gens, nil, nil, &ValidationError{Field: "comment_policy", Reason: err.Error()}
	}
	if gens.follow, err = e.policies.Follow(cfg.FollowPolicy); err != nil {
		return gens, nil, nil, &ValidationError{Field: "follow_policy", Reason: err.Error()}
	}
	turnKeys, runKeys, err = e.metrics.Partition(cfg.MetricKeys)
	if err != nil {
		return gens, nil, nil, &ValidationError{Field: "metric_keys", Reason: err.Error()}
	}
	return gens, turnKeys, runKeys, nil
}

// ExecuteRun validates cfg, creates a Run and drives it to completion.
//
// A non-nil error is returned only for validation failures (no Run exists)
// and pre-creation infrastructure failures (no Run exists). Once the Run row
// is created, failures are a domain outcome: the returned Run carries status
// failed and an error payload, and turns persisted before the failure remain
// intact.
func (e *Engine) ExecuteRun(ctx context.Context, cfg model.RunConfig, createdBy string) (model.Run, error) {
	gens, turnKeys, runKeys, err := e.validate(cfg)
	if err != nil {
		return model.Run{}, err
	}

	agents, err := e.store.ListAgents(ctx, cfg.NumAgents)
	if err != nil {
		return model.Run{}, fmt.Errorf("sim: load agents: %w", err)
	}
	if len(agents) < cfg.NumAgents {
		return model.Run{}, &ValidationError{
			Field:  "num_agents",
			Reason: fmt.Sprintf("requested %d agents but only %d exist", cfg.NumAgents, len(agents)),
		}
	}

	run, err := e.store.CreateRun(ctx, cfg, createdBy)
	if err != nil {
		return model.Run{}, fmt.Errorf("sim: create run: %w", err)
	}
	e.logger.Info("run started",
		"run_id", run.ID,
		"agents", cfg.NumAgents,
		"turns", cfg.NumTurns,
		"algorithm", cfg.FeedAlgorithm,
	)

	for turn := range cfg.NumTurns {
		start := time.Now()
		err := e.runTurn(ctx, run, turn, agents, gens, turnKeys)
		e.turnDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("algorithm", cfg.FeedAlgorithm)))
		if err != nil {
			e.logger.Error("turn failed", "run_id", run.ID, "turn", turn, "error", err)
			return e.failRun(ctx, run, model.ErrorPayload{
				Code:    codeTurnFailure,
				Message: fmt.Sprintf("turn %d failed", turn),
				Detail:  err.Error(),
			}), nil
		}
		e.turnsExecuted.Add(ctx, 1)
	}

	if err := e.finishRun(ctx, run, runKeys); err != nil {
		e.logger.Error("run metrics failed", "run_id", run.ID, "error", err)
		return e.failRun(ctx, run, model.ErrorPayload{
			Code:    codeRunMetricsFailure,
			Message: "run metrics computation failed",
			Detail:  err.Error(),
		}), nil
	}

	if err := e.store.MarkRunCompleted(ctx, run.ID); err != nil {
		return e.failRun(ctx, run, model.ErrorPayload{
			Code:    codeRunMetricsFailure,
			Message: "run completion failed",
			Detail:  err.Error(),
		}), nil
	}

	run.Status = model.RunStatusCompleted
	run.UpdatedAt = time.Now().UTC()
	e.logger.Info("run completed", "run_id", run.ID)
	return run, nil
}

// failRun marks the run failed, preserving all previously persisted turns.
func (e *Engine) failRun(ctx context.Context, run model.Run, payload model.ErrorPayload) model.Run {
	if err := e.store.MarkRunFailed(ctx, run.ID, payload); err != nil {
		e.logger.Error("mark run failed errored", "run_id", run.ID, "error", err)
	}
	run.Status = model.RunStatusFailed
	run.Error = &payload
	run.UpdatedAt = time.Now().UTC()
	return run
}

// agentTurn is one agent's output for a turn, produced concurrently and
// merged into the turn's single transaction afterwards.
type agentTurn struct {
	feed     model.GeneratedFeed
	likes    []model.GeneratedLike
	comments []model.GeneratedComment
	follows  []model.GeneratedFollow
}

// runTurn executes one turn: candidates, per-agent ranking and generation,
// one transaction for persistence, then turn metrics from the persisted rows.
func (e *Engine) runTurn(ctx context.Context, run model.Run, turn int, agents []model.Agent, gens generators, turnKeys []string) error {
	cfg := run.Config

	tctx := ctx
	if cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, cfg.TurnTimeout)
		defer cancel()
	}

	candidates, err := e.store.ListCandidatePosts(tctx, e.opts.CandidateLimit)
	if err != nil {
		return fmt.Errorf("candidates: %w", err)
	}
	if len(candidates) == 0 {
		return errors.New("candidate post set is empty")
	}
	postsByURI := make(map[string]model.Post, len(candidates))
	for _, p := range candidates {
		postsByURI[p.URI] = p
	}

	algo, err := e.feeds.Get(cfg.FeedAlgorithm)
	if err != nil {
		return err
	}

	// Agents within a turn have no ordering dependency; generation fans out,
	// writes are merged into the turn's single transaction below.
	results := make([]agentTurn, len(agents))
	g, gctx := errgroup.WithContext(tctx)
	g.SetLimit(e.opts.Concurrency)
	for i, agent := range agents {
		g.Go(func() error {
			fc := feed.Context{Agent: agent, Turn: turn, Seed: cfg.Seed, Config: cfg.FeedConfig}
			uris := algo.Rank(fc, candidates, cfg.FeedLimit)

			feedPosts := make([]model.Post, 0, len(uris))
			for _, uri := range uris {
				feedPosts = append(feedPosts, postsByURI[uri])
			}

			pc := policy.Context{RunID: run.ID, Turn: turn, Seed: cfg.Seed, Agent: agent}

			likes, err := gens.like.Generate(gctx, pc, feedPosts)
			if err != nil {
				return fmt.Errorf("agent %s likes: %w", agent.Handle, err)
			}
			comments, err := gens.comment.Generate(gctx, pc, feedPosts)
			if err != nil {
				return fmt.Errorf("agent %s comments: %w", agent.Handle, err)
			}
			follows, err := gens.follow.Generate(gctx, pc, policy.FollowCandidates(agent, feedPosts))
			if err != nil {
				return fmt.Errorf("agent %s follows: %w", agent.Handle, err)
			}

			results[i] = agentTurn{
				feed: model.GeneratedFeed{
					RunID:       run.ID,
					Turn:        turn,
					AgentHandle: agent.Handle,
					PostURIs:    uris,
				},
				likes:    likes,
				comments: comments,
				follows:  follows,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	batch := model.TurnBatch{RunID: run.ID, Turn: turn}
	for _, r := range results {
		batch.Feeds = append(batch.Feeds, r.feed)
		batch.Likes = append(batch.Likes, r.likes...)
		batch.Comments = append(batch.Comments, r.comments...)
		batch.Follows = append(batch.Follows, r.follows...)
	}

	if err := e.store.PersistTurn(tctx, batch); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}

	// Metrics are computed from what actually landed, not from in-memory
	// generator output, so they can be re-derived from storage alone.
	actions, err := e.store.ListTurnActions(tctx, run.ID, turn)
	if err != nil {
		return fmt.Errorf("read back actions: %w", err)
	}
	feeds, err := e.store.ListFeedsForTurn(tctx, run.ID, turn)
	if err != nil {
		return fmt.Errorf("read back feeds: %w", err)
	}
	e.actionsTotal.Add(ctx, int64(actions.Total()))

	values, err := e.metrics.ComputeTurn(turnKeys, metrics.TurnData{
		Actions:   actions,
		Feeds:     feeds,
		NumAgents: len(agents),
	})
	if err != nil {
		return fmt.Errorf("compute turn metrics: %w", err)
	}
	if err := e.store.InsertTurnMetrics(tctx, model.TurnMetrics{
		RunID:  run.ID,
		Turn:   turn,
		Values: values,
	}); err != nil {
		return fmt.Errorf("persist turn metrics: %w", err)
	}

	e.logger.Debug("turn persisted",
		"run_id", run.ID,
		"turn", turn,
		"actions", actions.Total(),
	)
	return nil
}

// finishRun computes and persists the run-scoped metrics from the persisted
// turn metrics. Called exactly once, after the final turn.
func (e *Engine) finishRun(ctx context.Context, run model.Run, runKeys []string) error {
	turnMetrics, err := e.store.ListTurnMetrics(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("load turn metrics: %w", err)
	}
	values, err := e.metrics.ComputeRun(runKeys, metrics.RunData{
		Run:         run,
		TurnMetrics: turnMetrics,
	})
	if err != nil {
		return fmt.Errorf("compute run metrics: %w", err)
	}
	if err := e.store.InsertRunMetrics(ctx, model.RunMetrics{
		RunID:  run.ID,
		Values: values,
	}); err != nil {
		return fmt.Errorf("persist run metrics: %w", err)
	}
	return nil
}

// Report returns the read surface for a run.
func (e *Engine) Report(ctx context.Context, runID uuid.UUID) (model.RunReport, error) {
	return e.store.GetRunReport(ctx, runID)
}
