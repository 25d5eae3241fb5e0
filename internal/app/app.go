package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"StarReport/internal/aggregate"
	"StarReport/internal/config"
	"StarReport/internal/enrich"
	"StarReport/internal/infrastructure/gist"
	"StarReport/internal/infrastructure/github"
	"StarReport/internal/infrastructure/scheduler"
	"StarReport/internal/infrastructure/scraper"
	"StarReport/internal/infrastructure/storage"
	"StarReport/internal/logging"
	"StarReport/internal/ports"
	"StarReport/internal/report"
	"StarReport/internal/source"
	"StarReport/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	schedule *usecase.Scheduler
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := source.NewRegistry()
	registry.Register("github", github.NewClient(cfg.GitHub, nil))
	registry.Register("scraper", scraper.NewScanner(cfg.GitHub, nil))

	eventSource, err := registry.Resolve(cfg.Pipeline.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve event source: %w", err)
	}

	enricher := enrich.NewEnricher(
		eventSource,
		cfg.Pipeline.Workers,
		cfg.Pipeline.LookupTimeout(),
		enrich.NewLogProgress(baseLogger.With("component", "enricher")),
		baseLogger.With("component", "enricher"),
	)

	var repository ports.RunRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect run history: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	pipeline, err := usecase.NewPipeline(cfg.Pipeline, usecase.PipelineDeps{
		Source:     eventSource,
		Enricher:   enricher,
		Aggregator: aggregate.NewAggregator(cfg.Pipeline.FakeWindow()),
		Builder:    report.NewBuilder(cfg.Pipeline.Repo, cfg.Pipeline.DisplayBuckets, baseLogger.With("component", "report")),
		Publisher:  gist.NewPublisher(cfg.GitHub),
		Repository: repository,
		Logger:     baseLogger.With("component", "pipeline"),
	}, usecase.NewRunState())
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	app := &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline}

	if cfg.Scheduler.CronExpression != "" && !cfg.Scheduler.RunOnce {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		app.schedule = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	}

	return app, nil
}

// Run executes the pipeline once when no cron expression is configured or
// one-shot mode is requested, otherwise keeps it on schedule until ctx is
// cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.schedule == nil {
		_, err := a.pipeline.Run(ctx, time.Now().In(a.cfg.Scheduler.Location()))
		return err
	}

	if err := a.schedule.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.schedule.Stop(stopCtx)
}
