package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/concierge"
	"github.com/aretw0/concierge/internal/config"
	"github.com/aretw0/concierge/pkg/adapters/livesearch"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/ollama"
	"github.com/aretw0/concierge/pkg/adapters/pgvector"
	"github.com/aretw0/concierge/pkg/adapters/redis"
	"github.com/aretw0/concierge/pkg/adapters/sqlite"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/flight"
	"github.com/aretw0/concierge/pkg/nodes"
	"github.com/aretw0/concierge/pkg/observability"
	"github.com/aretw0/concierge/pkg/persistence/middleware"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
)

// Retriever is a content backend that can both search and index.
type Retriever interface {
	ports.ContentRetriever
	ports.ContentIndexer
}

// Runtime holds the assistant and every backend built from a Config.
type Runtime struct {
	Config    *config.Config
	Assistant *concierge.Assistant
	Records   ports.RecordStore
	Content   Retriever
	Metrics   *observability.Metrics
	Logger    *slog.Logger

	pingers []func(context.Context) error
	closers []func(context.Context) error
}

// Build wires the adapters selected by cfg into an assistant.
// Stdout spans are written to traceOut; nil discards them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	dir, err := loadDirectory(cfg.Engine.AirportsFile)
	if err != nil {
		return nil, err
	}

	llm := ollama.New(
		ollama.WithBaseURL(cfg.Ollama.URL),
		ollama.WithChatModel(cfg.Ollama.ChatModel),
		ollama.WithEmbedModel(cfg.Ollama.EmbedModel),
		ollama.WithLogger(logger),
	)

	if err := rt.buildRecords(ctx, cfg.Records); err != nil {
		return nil, err
	}
	if err := rt.buildContent(ctx, cfg.Content, llm); err != nil {
		return nil, err
	}
	store, locker, err := rt.buildSessions(ctx, cfg.Sessions)
	if err != nil {
		return nil, err
	}

	searcher := livesearch.New(
		&livesearch.HTTPFetcher{
			BaseURL: cfg.FlightSearch.ProviderURL,
			Client:  &http.Client{Timeout: cfg.FlightSearch.Timeout},
		},
		livesearch.WithDirectory(dir),
		livesearch.WithSkipOrigins(cfg.FlightSearch.SkipOrigins...),
		livesearch.WithConcurrency(cfg.FlightSearch.Concurrency),
		livesearch.WithLogger(logger),
	)

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger)}
	if cfg.Metrics.Enabled {
		rt.Metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		hooks = append(hooks, rt.Metrics.Hooks())
	}

	tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
		ServiceName: "concierge",
		Version:     concierge.Version,
		Writer:      traceOut,
	})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, tp.Shutdown)

	caps := nodes.Capabilities{
		Classifier:  llm,
		Generator:   llm,
		Searcher:    searcher,
		Records:     rt.Records,
		Retriever:   rt.Content,
		CallTimeout: cfg.Engine.CallTimeout,
		TopK:        cfg.Engine.TopK,
		Directory:   dir,
		Logger:      logger,
	}
	opts := []concierge.Option{
		concierge.WithLogger(logger),
		concierge.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		concierge.WithTracer(tp.Tracer("github.com/aretw0/concierge")),
		concierge.WithStepBudget(cfg.Engine.StepBudget),
		concierge.WithMaxInputSize(cfg.Engine.MaxInputSize),
		concierge.WithSessionStore(store),
		concierge.WithSessionOptions(session.WithLockTTL(cfg.Sessions.LockTTL), session.WithLogger(logger)),
	}
	if locker != nil {
		opts = append(opts, concierge.WithLocker(locker))
	}

	rt.Assistant, err = concierge.New(caps, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	return rt, nil
}

func loadDirectory(path string) (*flight.Directory, error) {
	if path == "" {
		return flight.DefaultDirectory(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airports file: %w", err)
	}
	defer f.Close()
	dir, err := flight.LoadDirectory(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load airports file %s: %w", path, err)
	}
	return dir, nil
}

func (rt *Runtime) buildRecords(ctx context.Context, cfg config.RecordsConfig) error {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Path, Logger: rt.Logger})
		if err != nil {
			return fmt.Errorf("failed to open flight records: %w", err)
		}
		rt.Records = store
		rt.pingers = append(rt.pingers, store.Ping)
		rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })
	default:
		rt.Records = memory.NewRecords()
	}
	return nil
}

func (rt *Runtime) buildContent(ctx context.Context, cfg config.ContentConfig, embedder ports.Embedder) error {
	switch cfg.Driver {
	case "pgvector":
		store, err := pgvector.Connect(ctx, cfg.URL, embedder,
			pgvector.WithDimensions(cfg.Dimensions),
			pgvector.WithLogger(rt.Logger),
		)
		if err != nil {
			return fmt.Errorf("failed to connect content store: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { store.Close(); return nil })
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare content store: %w", err)
		}
		rt.Content = store
	default:
		rt.Content = memory.NewRetriever()
	}
	return nil
}

func (rt *Runtime) buildSessions(ctx context.Context, cfg config.SessionsConfig) (ports.StateStore, ports.DistributedLocker, error) {
	var store ports.StateStore = memory.NewStore(memory.WithTTL(cfg.TTL))
	var locker ports.DistributedLocker
	if cfg.Driver == "redis" {
		rs := redis.New(cfg.Address, cfg.Password, cfg.DB, redis.WithTTL(cfg.TTL))
		rt.closers = append(rt.closers, func(context.Context) error { return rs.Close() })
		if err := rs.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to reach session store: %w", err)
		}
		rt.pingers = append(rt.pingers, rs.Ping)
		store, locker = rs, redis.NewLocker(rs.Client(), redis.DefaultPrefix)
	}

	if cfg.Redact {
		patterns := cfg.RedactPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultRedactPatterns
		}
		redact, err := middleware.NewRedactMiddleware(patterns)
		if err != nil {
			return nil, nil, err
		}
		store = middleware.Chain(store, redact)
	}
	return store, locker, nil
}

// HealthCheck pings every networked backend.
func (rt *Runtime) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, ping := range rt.pingers {
		errs = append(errs, ping(ctx))
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of creation.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i](ctx))
	}
	rt.closers = nil
	return errors.Join(errs...)
}
