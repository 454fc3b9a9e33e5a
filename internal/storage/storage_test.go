package storage_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/murmuration-labs/murmur/internal/model"
	"github.com/murmuration-labs/murmur/internal/storage"
)

// testDB holds a shared test database connection for all tests in this package.
var testDB *storage.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "murmur",
			"POSTGRES_PASSWORD": "murmur",
			"POSTGRES_DB":       "murmur",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://murmur:murmur@%s:%s/murmur?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	testDB, err = storage.New(ctx, dsn, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.RunMigrations(ctx, os.DirFS("../../migrations")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func testConfig() model.RunConfig {
	return model.RunConfig{
		NumAgents:     2,
		NumTurns:      2,
		FeedAlgorithm: "chronological",
		FeedLimit:     10,
		MetricKeys:    []string{"turn.actions.total"},
		LikePolicy:    "random-simple",
		CommentPolicy: "random-simple",
		FollowPolicy:  "random-simple",
		Seed:          7,
	}
}

func seedCorpus(t *testing.T, ctx context.Context) ([]model.Agent, []model.Post) {
	t.Helper()
	suffix := uuid.NewString()[:8]
	agents := []model.Agent{
		{Handle: "alice-" + suffix, DisplayName: "Alice"},
		{Handle: "bob-" + suffix, DisplayName: "Bob"},
	}
	require.NoError(t, testDB.SeedAgents(ctx, agents))

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	posts := []model.Post{
		{URI: "at://test/" + suffix + "/p1", AuthorHandle: "alice-" + suffix, Text: "one", CreatedAt: base.Add(time.Hour)},
		{URI: "at://test/" + suffix + "/p2", AuthorHandle: "bob-" + suffix, Text: "two", CreatedAt: base},
	}
	require.NoError(t, testDB.SeedPosts(ctx, posts))
	return agents, posts
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Equal(t, "test", run.CreatedBy)
	assert.Equal(t, 2, run.Config.NumAgents)

	got, err := testDB.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, testConfig(), got.Config)

	require.NoError(t, testDB.MarkRunCompleted(ctx, run.ID))
	got, err = testDB.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)

	// Terminal states are final.
	err = testDB.MarkRunFailed(ctx, run.ID, model.ErrorPayload{Code: "x", Message: "y"})
	require.Error(t, err)
}

func TestMarkRunFailedStoresPayload(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)

	payload := model.ErrorPayload{Code: "turn_failure", Message: "turn 1 failed", Detail: "boom"}
	require.NoError(t, testDB.MarkRunFailed(ctx, run.ID, payload))

	got, err := testDB.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, payload, *got.Error)
}

func TestGetRunNotFound(t *testing.T) {
	_, err := testDB.GetRun(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSeedAgentsIdempotent(t *testing.T) {
	ctx := context.Background()
	agents, _ := seedCorpus(t, ctx)

	// Re-seeding the same handles is a no-op, not an error.
	require.NoError(t, testDB.SeedAgents(ctx, agents))

	got, err := testDB.GetAgentByHandle(ctx, agents[0].Handle)
	require.NoError(t, err)
	assert.Equal(t, agents[0].DisplayName, got.DisplayName)
}

func TestListCandidatePostsOrdering(t *testing.T) {
	ctx := context.Background()
	_, posts := seedCorpus(t, ctx)

	listed, err := testDB.ListCandidatePosts(ctx, 1000)
	require.NoError(t, err)

	index := make(map[string]int)
	for i, p := range listed {
		index[p.URI] = i
	}
	// Newest first: p1 (created later) precedes p2.
	require.Contains(t, index, posts[0].URI)
	require.Contains(t, index, posts[1].URI)
	assert.Less(t, index[posts[0].URI], index[posts[1].URI])
}

func TestPersistTurnAtomicAndReadBack(t *testing.T) {
	ctx := context.Background()
	agents, posts := seedCorpus(t, ctx)

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)

	batch := model.TurnBatch{
		RunID: run.ID,
		Turn:  0,
		Feeds: []model.GeneratedFeed{
			{RunID: run.ID, Turn: 0, AgentHandle: agents[0].Handle, PostURIs: []string{posts[0].URI, posts[1].URI}},
			{RunID: run.ID, Turn: 0, AgentHandle: agents[1].Handle, PostURIs: []string{posts[1].URI}},
		},
		Likes: []model.GeneratedLike{
			{RunID: run.ID, Turn: 0, AgentHandle: agents[0].Handle, PostURI: posts[1].URI},
		},
		Comments: []model.GeneratedComment{
			{RunID: run.ID, Turn: 0, AgentHandle: agents[1].Handle, PostURI: posts[1].URI, Text: "nice"},
		},
		Follows: []model.GeneratedFollow{
			{RunID: run.ID, Turn: 0, AgentHandle: agents[0].Handle, TargetHandle: agents[1].Handle},
		},
	}
	require.NoError(t, testDB.PersistTurn(ctx, batch))

	feeds, err := testDB.ListFeedsForTurn(ctx, run.ID, 0)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, []string{posts[0].URI, posts[1].URI}, feeds[0].PostURIs)

	actions, err := testDB.ListTurnActions(ctx, run.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, actions.Total())
	require.Len(t, actions.Comments, 1)
	assert.Equal(t, "nice", actions.Comments[0].Text)

	// A second feed for the same (run, turn, agent) violates the unique
	// constraint and rolls back the whole batch.
	dup := model.TurnBatch{
		RunID: run.ID,
		Turn:  0,
		Feeds: batch.Feeds[:1],
		Likes: []model.GeneratedLike{
			{RunID: run.ID, Turn: 0, AgentHandle: agents[1].Handle, PostURI: posts[0].URI},
		},
	}
	require.Error(t, testDB.PersistTurn(ctx, dup))

	actions, err = testDB.ListTurnActions(ctx, run.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, actions.Total(), "failed batch must not partially land")
}

func TestTurnMetricsOncePerTurn(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)

	tm := model.TurnMetrics{RunID: run.ID, Turn: 0, Values: map[string]float64{"turn.actions.total": 3}}
	require.NoError(t, testDB.InsertTurnMetrics(ctx, tm))
	require.Error(t, testDB.InsertTurnMetrics(ctx, tm), "primary key enforces at most one row per turn")

	require.NoError(t, testDB.InsertTurnMetrics(ctx, model.TurnMetrics{
		RunID: run.ID, Turn: 1, Values: map[string]float64{"turn.actions.total": 5},
	}))

	listed, err := testDB.ListTurnMetrics(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 0, listed[0].Turn)
	assert.Equal(t, 1, listed[1].Turn)
	assert.Equal(t, 3.0, listed[0].Values["turn.actions.total"])
}

func TestRunMetricsRoundTrip(t *testing.T) {
	ctx := context.Background()

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)

	_, err = testDB.GetRunMetrics(ctx, run.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	rm := model.RunMetrics{RunID: run.ID, Values: map[string]float64{"run.actions.total": 8}}
	require.NoError(t, testDB.InsertRunMetrics(ctx, rm))

	got, err := testDB.GetRunMetrics(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.Values["run.actions.total"])
}

func TestGetRunReport(t *testing.T) {
	ctx := context.Background()
	agents, posts := seedCorpus(t, ctx)

	run, err := testDB.CreateRun(ctx, testConfig(), "test")
	require.NoError(t, err)

	for turn := range 2 {
		batch := model.TurnBatch{
			RunID: run.ID,
			Turn:  turn,
			Feeds: []model.GeneratedFeed{
				{RunID: run.ID, Turn: turn, AgentHandle: agents[0].Handle, PostURIs: []string{posts[0].URI}},
				{RunID: run.ID, Turn: turn, AgentHandle: agents[1].Handle, PostURIs: []string{posts[1].URI}},
			},
			Likes: []model.GeneratedLike{
				{RunID: run.ID, Turn: turn, AgentHandle: agents[0].Handle, PostURI: posts[0].URI},
			},
		}
		require.NoError(t, testDB.PersistTurn(ctx, batch))
		require.NoError(t, testDB.InsertTurnMetrics(ctx, model.TurnMetrics{
			RunID: run.ID, Turn: turn, Values: map[string]float64{"turn.actions.total": 1},
		}))
	}
	require.NoError(t, testDB.InsertRunMetrics(ctx, model.RunMetrics{
		RunID: run.ID, Values: map[string]float64{"run.actions.total": 2},
	}))
	require.NoError(t, testDB.MarkRunCompleted(ctx, run.ID))

	report, err := testDB.GetRunReport(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, report.Run.Status)
	require.Len(t, report.Turns, 2)
	for i, tr := range report.Turns {
		assert.Equal(t, i, tr.Turn)
		assert.Len(t, tr.Feeds, 2)
		assert.Len(t, tr.Likes[agents[0].Handle], 1)
		require.NotNil(t, tr.Metrics)
	}
	require.NotNil(t, report.RunMetrics)
	assert.Equal(t, 2.0, report.RunMetrics.Values["run.actions.total"])
}
