package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"DailyBrief/internal/config"
	"DailyBrief/internal/curation"
	"DailyBrief/internal/domain"
	"DailyBrief/internal/infrastructure/parser"
	"DailyBrief/internal/infrastructure/scheduler"
	"DailyBrief/internal/infrastructure/storage"
	"DailyBrief/internal/infrastructure/telegram"
	"DailyBrief/internal/logging"
	"DailyBrief/internal/metrics"
	"DailyBrief/internal/ports"
	"DailyBrief/internal/scanner"
	"DailyBrief/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	generator *usecase.BriefGenerator
	scheduler *usecase.Scheduler
	metrics   *metrics.Metrics
	closers   []func() error
}

// New builds the stores, sources and generator described by cfg and restores persisted state.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		metrics: newMetrics(),
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivScanner(nil, 0))
	registry.Register(parser.NewFeedScanner(nil))

	sources, err := parser.NewSiteSources(registry, cfg.Sources, baseLogger.With("component", "source"))
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	profiles, err := a.profileStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	briefs, err := a.briefRepository(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	random := curation.NewRandom()
	if cfg.Generation.ExplorationSeed != 0 {
		random = curation.NewSeededRandom(cfg.Generation.ExplorationSeed)
	}

	a.generator = usecase.NewBriefGenerator(usecase.GeneratorDeps{
		UserID:           cfg.Profile.UserID,
		Sources:          sources,
		Profiles:         profiles,
		Briefs:           briefs,
		Random:           random,
		Location:         cfg.Location(),
		Lookback:         cfg.Generation.Lookback,
		FetchTimeout:     cfg.Generation.FetchTimeout,
		FetchConcurrency: cfg.Generation.FetchConcurrency,
		Metrics:          a.metrics,
		Logger:           baseLogger.With("component", "generator"),
	})
	a.generator.Restore(ctx)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram, nil)
	}

	var driver ports.Scheduler
	if cfg.Schedule.Enabled {
		cron := scheduler.NewCronScheduler(cfg.Schedule.CronExpression, cfg.Location(),
			scheduler.WithLogger(baseLogger.With("component", "cron")))
		if err := cron.Validate(); err != nil {
			_ = a.Close()
			return nil, err
		}
		driver = cron
	}
	a.scheduler = usecase.NewScheduler(driver, a.generator, notifier, baseLogger.With("component", "scheduler"))

	return a, nil
}

func newMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg)
}

func (a *Application) profileStore(ctx context.Context) (ports.ProfileStore, error) {
	if a.cfg.Redis.Address == "" {
		a.logger.Info("profile store: in-memory")
		return storage.NewMemoryProfileStore(), nil
	}

	client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
		Address:  a.cfg.Redis.Address,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	a.logger.Info("profile store: redis", "address", a.cfg.Redis.Address)
	return storage.NewRedisProfileStore(client, a.cfg.Redis.KeyPrefix), nil
}

func (a *Application) briefRepository(ctx context.Context) (ports.BriefRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Info("brief history: in-memory")
		return storage.NewMemoryBriefRepository(), nil
	}

	db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if a.cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, db, a.logger.With("component", "migrate")); err != nil {
			return nil, err
		}
	}

	a.logger.Info("brief history: postgres")
	return storage.NewPostgresRepository(db), nil
}

// Generator exposes the caller API.
func (a *Application) Generator() *usecase.BriefGenerator {
	return a.generator
}

// Generate builds a brief; an empty modeName lets the clock choose.
func (a *Application) Generate(ctx context.Context, modeName string) (domain.Brief, error) {
	if modeName == "" {
		return a.generator.GenerateBrief(ctx, nil)
	}

	mode, err := domain.ModeByName(modeName)
	if err != nil {
		return domain.Brief{}, err
	}
	return a.generator.GenerateBrief(ctx, &mode)
}

// Engage records an interaction with an item of the current brief.
func (a *Application) Engage(ctx context.Context, briefItemID, rawAction string, dwell time.Duration) error {
	action, err := domain.ParseEngagementAction(rawAction)
	if err != nil {
		return err
	}

	var contentID string
	if brief, ok := a.generator.CurrentBrief(); ok {
		if item, found := brief.Item(briefItemID); found {
			contentID = item.Content.ID
		}
	}
	if contentID == "" {
		a.logger.Warn("brief item is not part of the current brief", "brief_item", briefItemID)
	}

	a.generator.RecordEngagement(ctx, briefItemID, contentID, dwell, action)
	return nil
}

// Serve runs scheduled generation and the metrics endpoint until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	var server *http.Server
	serveErr := make(chan error, 1)
	if a.cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{
			Addr:              a.cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("metrics listening", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("metrics server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("stop scheduler", "error", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown metrics server", "error", err)
		}
	}

	return runErr
}

// Close releases store connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate applies the brief history schema to the configured database.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is not configured")
	}

	db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer func(db *sql.DB) {
		_ = db.Close()
	}(db)

	return storage.Migrate(ctx, db, logger)
}
