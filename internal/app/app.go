package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"carnewsbot/internal/classify"
	"carnewsbot/internal/config"
	"carnewsbot/internal/infrastructure/fetch"
	"carnewsbot/internal/infrastructure/llm"
	"carnewsbot/internal/infrastructure/parser"
	"carnewsbot/internal/infrastructure/scheduler"
	"carnewsbot/internal/infrastructure/storage"
	"carnewsbot/internal/logging"
	"carnewsbot/internal/metrics"
	"carnewsbot/internal/ports"
	"carnewsbot/internal/scanner"
	"carnewsbot/internal/security"
	"carnewsbot/internal/usecase"
)

// Application wires configuration to adapters, the pipeline, and the
// scheduler lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	metrics   *metrics.Metrics
	scheduler *usecase.Scheduler
}

// New builds a fully wired application instance. The database connection
// is established (and optionally migrated) up front so a broken DSN fails
// at startup, not mid-run.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if cfg.Database.MigrateEnabled() {
		if err := storage.Migrate(cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(
		cfg.Fetch.Timeout.Std(),
		cfg.Fetch.HostDelay.Std(),
		logging.Component(baseLogger, "fetch"),
	)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHTMLScanner(client, logging.Component(baseLogger, "scanner.html")))
	registry.Register(parser.NewFeedScanner(client, logging.Component(baseLogger, "scanner.feed")))

	repository := storage.NewPostgresRepository(db)

	var enricher ports.Enricher
	if cfg.DeepSeek.Mode != config.EnrichmentOff {
		enricher = llm.NewClient(cfg.DeepSeek)
	}

	m := metrics.New()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:   registry,
		Repository: repository,
		Classifier: classify.New(repository, logging.Component(baseLogger, "classify")),
		Content:    parser.NewContentExtractor(client, logging.Component(baseLogger, "content")),
		Enricher:   enricher,
		Sanitizer:  security.NewSanitizer(),
		Metrics:    m,
		Logger:     logging.Component(baseLogger, "pipeline"),
		Sources:    buildSources(cfg.Sources),
		Workers:    cfg.Scheduler.Workers,
		Mode:       cfg.DeepSeek.Mode,
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval.Std())
	sched := usecase.NewScheduler(driver, pipeline, logging.Component(baseLogger, "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		metrics:   m,
		scheduler: sched,
	}, nil
}

// Run starts the recurring ingestion loop (and the metrics listener when
// configured) and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	metricsSrv := a.startMetrics()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("ingestion loop started",
		"interval", a.cfg.Scheduler.Interval.Std(),
		"sources", len(a.cfg.Sources),
		"enrichment", a.cfg.DeepSeek.Mode)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Error("scheduler stop failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(stopCtx); err != nil {
			a.logger.Error("metrics listener shutdown failed", "error", err)
		}
	}

	return nil
}

// RunOnce performs a single ingestion pass and exits.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.scheduler.RunNow(ctx)
}

// Close releases the database connection.
func (a *Application) Close() error {
	return a.db.Close()
}

func (a *Application) startMetrics() *http.Server {
	if a.cfg.Metrics.Addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
	go func() {
		a.logger.Info("metrics listener started", "addr", a.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics listener failed", "error", err)
		}
	}()

	return srv
}

func buildSources(configs []config.SourceConfig) []scanner.Source {
	sources := make([]scanner.Source, 0, len(configs))
	for _, c := range configs {
		kind := c.Scanner
		if kind == "" {
			kind = "html"
		}
		sources = append(sources, scanner.Source{
			Name:    c.Name,
			URL:     c.URL,
			BaseURL: c.BaseURL,
			Kind:    kind,
			Limit:   c.Limit,
			Selectors: scanner.Selectors{
				Container: c.Selectors.Container,
				Title:     c.Selectors.Title,
				Excerpt:   c.Selectors.Excerpt,
				Image:     c.Selectors.Image,
				Category:  c.Selectors.Category,
				Link:      c.Selectors.Link,
				Content:   c.Selectors.Content,
			},
		})
	}
	return sources
}
