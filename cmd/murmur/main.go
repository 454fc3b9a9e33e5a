package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"

	"github.com/murmuration-labs/murmur/internal/config"
	"github.com/murmuration-labs/murmur/internal/feed"
	"github.com/murmuration-labs/murmur/internal/llm"
	"github.com/murmuration-labs/murmur/internal/metrics"
	"github.com/murmuration-labs/murmur/internal/model"
	"github.com/murmuration-labs/murmur/internal/policy"
	"github.com/murmuration-labs/murmur/internal/sim"
	"github.com/murmuration-labs/murmur/internal/storage"
	"github.com/murmuration-labs/murmur/internal/telemetry"
	"github.com/murmuration-labs/murmur/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("MURMUR_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var (
		numAgents  = flag.Int("agents", 10, "number of agents to simulate")
		numTurns   = flag.Int("turns", 5, "number of turns to execute")
		algorithm  = flag.String("algorithm", "chronological", "feed ranking algorithm id")
		feedLimit  = flag.Int("feed-limit", cfg.DefaultFeedLimit, "maximum posts per feed")
		metricKeys = flag.String("metrics", "turn.actions.total,run.actions.total", "comma-separated metric keys")
		likePol    = flag.String("like-policy", policy.PolicyRandomSimple, "like generation policy id")
		commentPol = flag.String("comment-policy", policy.PolicyRandomSimple, "comment generation policy id")
		followPol  = flag.String("follow-policy", policy.PolicyRandomSimple, "follow generation policy id")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "simulation seed")
		createdBy  = flag.String("created-by", "cli", "creator recorded on the run")
		listOnly   = flag.Bool("list", false, "list registered algorithms, policies and metrics, then exit")
	)
	flag.Parse()

	slog.Info("murmur starting", "version", version, "provider", cfg.LLMProvider)

	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, true)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	feeds := feed.NewDefaultRegistry()
	policies := policy.NewDefaultRegistry(newCompleter(cfg))
	metricReg := metrics.NewDefaultRegistry()

	if *listOnly {
		return printCatalog(feeds, policies, metricReg)
	}

	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Register connection pool OTEL metrics (after telemetry.Init).
	db.RegisterPoolMetrics()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if err := seedDemoCorpus(ctx, db, logger); err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}

	engine := sim.NewEngine(db, feeds, policies, metricReg, logger, func(o *sim.Options) {
		o.CandidateLimit = cfg.CandidateLimit
		o.Concurrency = cfg.Concurrency
	})

	runCfg := model.RunConfig{
		NumAgents:     *numAgents,
		NumTurns:      *numTurns,
		FeedAlgorithm: *algorithm,
		FeedLimit:     *feedLimit,
		MetricKeys:    splitKeys(*metricKeys),
		LikePolicy:    *likePol,
		CommentPolicy: *commentPol,
		FollowPolicy:  *followPol,
		Seed:          *seed,
		TurnTimeout:   cfg.DefaultTurnTimeout,
	}

	run, err := engine.ExecuteRun(ctx, runCfg, *createdBy)
	if err != nil {
		return fmt.Errorf("execute run: %w", err)
	}

	report, err := engine.Report(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if run.Status == model.RunStatusFailed {
		return fmt.Errorf("run %s failed: %s", run.ID, run.Error.Message)
	}
	return nil
}

// newCompleter picks the LLM backend from config. The mock provider keeps
// LLM-backed policies usable in local runs without an API key.
func newCompleter(cfg config.Config) llm.Completer {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicCompleter(func(o *llm.AnthropicOptions) {
			o.APIKey = cfg.AnthropicAPIKey
			o.Model = anthropic.Model(cfg.AnthropicModel)
			o.Timeout = cfg.LLMTimeout
		})
	case config.ProviderOpenAI:
		return llm.NewOpenAICompleter(func(o *llm.OpenAIOptions) {
			o.APIKey = cfg.OpenAIAPIKey
			o.Model = cfg.OpenAIModel
			o.Timeout = cfg.LLMTimeout
		})
	default:
		mock := llm.NewMockCompleter()
		mock.SetFallback(`{"selections": []}`)
		return mock
	}
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// printCatalog writes the registered extension points as JSON, for operators
// composing run configurations.
func printCatalog(feeds *feed.Registry, policies *policy.Registry, metricReg *metrics.Registry) error {
	catalog := struct {
		Algorithms []feed.Info          `json:"algorithms"`
		Policies   []policy.Info        `json:"policies"`
		Metrics    []metrics.Definition `json:"metrics"`
	}{
		Algorithms: feeds.List(),
		Policies:   policies.List(),
		Metrics:    metricReg.List(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(catalog)
}
