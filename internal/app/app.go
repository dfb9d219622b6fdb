// Package app wires the poll server together: storage, question-generation
// providers, the per-room session controllers, and the HTTP surface that
// exposes them.
//
// New performs all initialisation synchronously, Run serves until the
// context is cancelled, and Shutdown tears everything down in order. Tests
// inject doubles through the functional options.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/archive"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/config"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/health"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/ingest"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/observe"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/resilience"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/session"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings"
	ollamaembed "github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings/ollama"
	oaembed "github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/embeddings/openai"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen/anyllm"
	oaiquiz "github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/provider/quizgen/openai"
	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/pkg/store/postgres"
)

// defaultEmbeddingDimensions matches OpenAI's text-embedding-3-small.
const defaultEmbeddingDimensions = 1536

// readHeaderTimeout bounds how long a client may dribble request headers.
const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	version string

	metrics   *observe.Metrics
	store     *postgres.Store  // nil when storage is disabled
	archive   *archive.Archive // nil when storage is disabled
	generator quizgen.Generator
	questions session.QuestionService
	rooms     *RoomManager
	hub       *ingest.Hub
	srv       *http.Server

	// closers run in reverse order during Shutdown.
	closers  []func()
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithVersion sets the version string reported by the health endpoints.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithGenerator injects a question generator instead of building the
// provider chain from config.
func WithGenerator(g quizgen.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithMetrics injects a metrics instance instead of using the global one.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		cfg:     cfg,
		log:     logger.With("component", "app"),
		version: "dev",
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("app: init storage: %w", err)
	}
	if err := a.initQuestions(); err != nil {
		return nil, fmt.Errorf("app: init question providers: %w", err)
	}

	var store session.TranscriptStore
	if a.archive != nil {
		store = a.archive
	}
	a.rooms = NewRoomManager(cfg, store, a.questions, a.metrics, logger)
	a.hub = ingest.NewHub(logger)

	a.srv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.buildMux(logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return a, nil
}

// initStorage connects the postgres store and builds the archive on top of
// it. An empty DSN disables both: rooms then run fully in memory.
func (a *App) initStorage(ctx context.Context) error {
	if a.cfg.Storage.PostgresDSN == "" {
		a.log.Info("no postgres dsn configured, archiving disabled")
		return nil
	}

	dims := a.cfg.Storage.EmbeddingDimensions
	if dims == 0 {
		dims = defaultEmbeddingDimensions
	}

	store, err := postgres.NewStore(ctx, a.cfg.Storage.PostgresDSN, dims)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	embedder, err := a.buildEmbedder()
	if err != nil {
		store.Close()
		return err
	}
	a.archive = archive.New(store, embedder, a.log)
	return nil
}

// buildEmbedder constructs the configured embedding provider, or nil when
// none is configured (semantic search then stays off).
func (a *App) buildEmbedder() (embeddings.Provider, error) {
	entry := a.cfg.Embeddings
	switch entry.Name {
	case "":
		return nil, nil
	case "openai":
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	case "ollama":
		return ollamaembed.New(entry.BaseURL, entry.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", entry.Name)
	}
}

// initQuestions builds the provider fallback chain from config, unless a
// generator was injected.
func (a *App) initQuestions() error {
	if a.generator == nil {
		entries := a.cfg.Generation.Providers
		if len(entries) == 0 {
			a.questions = disabledQuestions{}
			return nil
		}

		primary, err := buildGenerator(entries[0])
		if err != nil {
			return err
		}
		chain := resilience.NewQuizgenFallback(primary, a.log)
		for _, entry := range entries[1:] {
			g, err := buildGenerator(entry)
			if err != nil {
				return err
			}
			chain.AddFallback(g)
		}
		a.generator = chain
		a.log.Info("question providers configured", "chain", chain.Providers())
	}

	a.questions = newQuestionService(a.generator, a.archive, a.metrics, generationTuning{
		questionCount: a.cfg.Generation.QuestionCount,
		optionCount:   a.cfg.Generation.OptionCount,
		difficulty:    a.cfg.Generation.Difficulty,
	}, a.log)
	return nil
}

// buildGenerator constructs one question generator from a config entry. The
// openai entry uses the native SDK; everything else goes through any-llm.
func buildGenerator(entry config.ProviderEntry) (quizgen.Generator, error) {
	if entry.Name == "openai" {
		var opts []oaiquiz.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaiquiz.WithBaseURL(entry.BaseURL))
		}
		return oaiquiz.New(entry.APIKey, entry.Model, opts...)
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// buildMux assembles the HTTP surface: the room WebSocket, health probes,
// the Prometheus scrape endpoint, and the read-only REST API.
func (a *App) buildMux(logger *slog.Logger) http.Handler {
	mw := observe.Middleware(a.metrics)
	mux := http.NewServeMux()

	wsHandler := ingest.NewHandler(a.rooms, a.hub, logger,
		ingest.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		ingest.WithMetrics(a.metrics),
	)
	mux.Handle("GET /ws/{room}", wsHandler)

	checkers := []health.Checker{}
	if a.store != nil {
		checkers = append(checkers, health.PingChecker("postgres", a.store))
	}
	health.New(a.version, checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	(&api{rooms: a.rooms, archive: a.archive}).Register(mux, mw)

	return mux
}

// Run serves HTTP until ctx is cancelled, then shuts the listener down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			a.log.Info("listening with TLS", "addr", a.srv.Addr)
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			a.log.Info("listening", "addr", a.srv.Addr)
			err = a.srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops every room, flushing unsaved transcripts, then closes the
// storage layer. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "rooms", a.rooms.Count())
		a.rooms.Close(ctx)
		for i := len(a.closers) - 1; i >= 0; i-- {
			a.closers[i]()
		}
		a.log.Info("shutdown complete")
	})
	return ctx.Err()
}
