package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sproutapp/sprout/db"
	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/exposure"
	"github.com/sproutapp/sprout/internal/generate"
	"github.com/sproutapp/sprout/internal/github"
	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/match"
	"github.com/sproutapp/sprout/internal/observability"
	"github.com/sproutapp/sprout/internal/recommend"
)

// Setup creates and initializes the application. On failure,
// everything initialized so far is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	if err := a.buildPipelines(); err != nil {
		return nil, err
	}

	return a, nil
}

// buildPipelines wires stores and pipelines on top of the pool and
// model runtime.
func (a *App) buildPipelines() error {
	cfg, logger := a.Config, a.Logger

	ideas, err := idea.NewStore(a.DBPool, logger)
	if err != nil {
		return fmt.Errorf("creating idea store: %w", err)
	}
	a.Ideas = ideas

	exposures, err := exposure.NewStore(a.DBPool, logger)
	if err != nil {
		return fmt.Errorf("creating exposure store: %w", err)
	}
	a.Exposures = exposures

	model, err := generate.NewGenkitModel(a.Genkit, cfg.ModelName, cfg.Temperature)
	if err != nil {
		return fmt.Errorf("creating model: %w", err)
	}
	gen, err := generate.New(model, logger)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}
	llm, err := recommend.NewLLM(gen)
	if err != nil {
		return fmt.Errorf("creating idea pipeline: %w", err)
	}

	a.Selector, err = recommend.NewSelector(ideas, exposures, llm, recommend.SelectorConfig{
		Topics:       cfg.Topics,
		RecentWindow: time.Duration(cfg.RecentWindowDays) * 24 * time.Hour,
		RecentLimit:  cfg.RecentLimit,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating selector: %w", err)
	}

	a.Expander, err = recommend.NewExpander(ideas, llm, logger)
	if err != nil {
		return fmt.Errorf("creating expander: %w", err)
	}

	a.Index, err = match.NewIndex(a.DBPool, logger)
	if err != nil {
		return fmt.Errorf("creating embedding index: %w", err)
	}

	var ghOpts []github.Option
	if cfg.GitHubToken != "" {
		ghOpts = append(ghOpts, github.WithToken(cfg.GitHubToken))
	}
	fetcher := github.NewClient(logger, ghOpts...)

	a.Matcher, err = match.NewMatcher(a.Embedder, a.Index, fetcher, match.MatcherConfig{
		TopK:        cfg.MatchTopK,
		Threshold:   cfg.SimilarityThreshold,
		Concurrency: cfg.EnrichConcurrency,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}

	return nil
}

// provideOtelShutdown sets up OTLP tracing before Genkit
// initialization so the TracerProvider is ready when flows start.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without tracing", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideGenkit initializes the Genkit runtime with the Google AI
// plugin. Reads GEMINI_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initializing genkit")
	}
	return g, nil
}
