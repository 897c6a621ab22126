package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"kvibe/internal/config"
	"kvibe/internal/infrastructure/crawl"
	"kvibe/internal/infrastructure/llm"
	"kvibe/internal/infrastructure/provider"
	"kvibe/internal/infrastructure/storage"
	"kvibe/internal/logging"
	"kvibe/internal/search"
	"kvibe/internal/server"
	"kvibe/internal/usecase"
)

// Application wires configuration to stores, providers, phase components and
// the HTTP surface.
type Application struct {
	cfg    config.Config
	db     *sql.DB
	server *server.Server
	logger *slog.Logger
}

// New builds a runnable application instance. Providers without credentials
// are left unregistered; their queries degrade to query failures at runtime.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	schedule := cfg.Schedule.Window()
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: open database: %w", err)
	}

	rawStore := storage.NewRawStore(db)
	liveStore := storage.NewLiveStore(db)
	archiveStore := storage.NewArchiveStore(db)

	registry := search.NewRegistry()
	if cfg.Naver.ClientID != "" && cfg.Naver.ClientSecret != "" {
		registry.Register(provider.NewNaver(cfg.Naver, nil, baseLogger.With("component", "provider.naver")))
	}
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		registry.Register(provider.NewCustomSearch(cfg.Search, nil, baseLogger.With("component", "provider.customsearch")))
	}
	if len(cfg.Topic.Feeds) > 0 {
		registry.Register(provider.NewRSS(cfg.Topic.Feeds, nil, baseLogger.With("component", "provider.rss")))
	}

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Providers: registry,
		Queries:   cfg.Topic.Queries,
		Exclude:   cfg.Topic.Exclude,
		Raw:       rawStore,
		Previews:  crawl.NewExtractor(nil),
		MaxDelay:  time.Duration(cfg.Pipeline.MaxStartupDelaySec) * time.Second,
		Logger:    baseLogger.With("component", "collector"),
	})

	enricher := usecase.NewEnricher(usecase.EnricherDeps{
		Raw:       rawStore,
		Live:      liveStore,
		Annotator: llm.NewClient(cfg.LLM),
		BatchSize: cfg.Pipeline.EnrichBatchSize,
		Logger:    baseLogger.With("component", "enricher"),
	})

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Raw:       rawStore,
		Live:      liveStore,
		Archive:   archiveStore,
		Retention: time.Duration(cfg.Pipeline.RawRetentionHours) * time.Hour,
		Logger:    baseLogger.With("component", "publisher"),
	})

	orchestrator := usecase.NewOrchestrator(schedule, collector, enricher, publisher,
		baseLogger.With("component", "orchestrator"))

	srv := server.New(orchestrator, liveStore, cfg.Server.TriggerToken, baseLogger)

	return &Application{
		cfg:    cfg,
		db:     db,
		server: srv,
		logger: baseLogger,
	}, nil
}

// Run serves HTTP until the listener fails.
func (a *Application) Run() error {
	a.logger.Info("starting", "addr", a.cfg.Server.Addr)
	return a.server.Start(a.cfg.Server.Addr)
}

// Close releases the database pool.
func (a *Application) Close() error {
	return a.db.Close()
}
