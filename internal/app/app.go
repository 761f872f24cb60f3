package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/curation"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/infrastructure/archive"
	"AINewsAgent/internal/infrastructure/llm"
	"AINewsAgent/internal/infrastructure/parser"
	"AINewsAgent/internal/infrastructure/runstate"
	"AINewsAgent/internal/infrastructure/scheduler"
	"AINewsAgent/internal/infrastructure/social"
	"AINewsAgent/internal/infrastructure/storage"
	"AINewsAgent/internal/infrastructure/telegram"
	"AINewsAgent/internal/logging"
	"AINewsAgent/internal/ports"
	"AINewsAgent/internal/scanner"
	"AINewsAgent/internal/transport/httpapi"
	"AINewsAgent/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	drafter  ports.Drafter
	closers  []func() error
}

// New connects the stores and builds every collaborator from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open article store: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	runs, err := a.newRunStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	drafter, err := llm.NewDrafter(cfg.Drafting, baseLogger.With("component", "drafter"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.drafter = drafter

	registry := scanner.NewRegistry(
		parser.NewRSSScanner(nil, baseLogger.With("component", "scanner.rss")),
		parser.NewArxivScanner(nil, baseLogger.With("component", "scanner.arxiv")),
	)
	source := parser.NewStrategySource(registry, cfg.Feeds, cfg.Curation, baseLogger.With("component", "source"))

	policy := social.DefaultRetryPolicy(cfg.Publishing.MaxAttempts)
	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Store:    storage.NewPostgresRepository(db),
		Filter:   curation.NewFilter(cfg.Curation.Keywords),
		Drafter:  drafter,
		Approver: telegram.NewApprover(cfg.Approval.Telegram, baseLogger.With("component", "approval")),
		LinkedIn: social.NewLinkedInPublisher(cfg.Publishing.LinkedIn, policy, baseLogger.With("component", "publisher.linkedin")),
		Twitter:  social.NewTwitterPublisher(cfg.Publishing.Twitter, policy, baseLogger.With("component", "publisher.twitter")),
		Runs:     runs,
		Logger:   baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

func (a *Application) newRunStore(ctx context.Context) (ports.RunStore, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.State.Backend)) {
	case "", "redis":
		client, err := runstate.NewRedisClient(ctx, a.cfg.State.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return runstate.NewRedisStore(client, a.cfg.State.KeyPrefix), nil
	case "postgres":
		pool, err := runstate.NewPool(ctx, a.cfg.State.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return runstate.NewPostgresStore(pool), nil
	case "memory":
		a.logger.Warn("run checkpoints are kept in memory and will not survive a restart")
		return runstate.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", a.cfg.State.Backend)
	}
}

// Run starts a new pipeline run and returns it suspended at approval.
func (a *Application) Run(ctx context.Context) (domain.Run, error) {
	return a.pipeline.Start(ctx)
}

// Resume applies a reviewer decision to a suspended run.
func (a *Application) Resume(ctx context.Context, runID string, approved bool) (domain.Run, error) {
	return a.pipeline.Resume(ctx, runID, approved)
}

// Pending lists runs waiting for approval.
func (a *Application) Pending(ctx context.Context) ([]domain.Run, error) {
	return a.pipeline.Pending(ctx)
}

// Curate fetches and ranks without drafting anything.
func (a *Application) Curate(ctx context.Context) (usecase.CurationResult, error) {
	return a.pipeline.Curate(ctx)
}

// CurateRecords filters and ranks a batch supplied by the caller.
func (a *Application) CurateRecords(ctx context.Context, articles []domain.ArticleRecord) (usecase.CurationResult, error) {
	return a.pipeline.CurateRecords(ctx, articles)
}

// Digest drafts and archives the daily brief.
func (a *Application) Digest(ctx context.Context) (usecase.DigestResult, error) {
	store, err := archive.New(ctx, a.cfg.Archive)
	if err != nil {
		return usecase.DigestResult{}, fmt.Errorf("open archive: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	loc := a.cfg.Scheduler.Location()
	digest := usecase.NewDigest(usecase.DigestDeps{
		Curator: a.pipeline,
		Drafter: a.drafter,
		Archive: store,
		Size:    a.cfg.Curation.DigestSize,
		Now:     func() time.Time { return time.Now().In(loc) },
		Logger:  a.logger.With("component", "digest"),
	})
	return digest.Generate(ctx)
}

// Serve runs the cron schedule and the approval API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	loc := a.cfg.Scheduler.Location()
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, loc, a.logger.With("component", "cron"))
	if err != nil {
		return err
	}
	jobs := usecase.NewScheduler(driver, a.pipeline, a.cfg.Approval.ExpireAfter.Std(), a.logger.With("component", "scheduler"))
	server := httpapi.NewServer(a.pipeline, a.cfg.Server.Port, a.logger.With("component", "http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return jobs.Start(gctx)
	})
	g.Go(func() error {
		return server.Start(gctx)
	})
	err = g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return errors.Join(err, jobs.Stop(stopCtx))
}

// Close releases store connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate applies the embedded schema to the configured database.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return storage.Migrate(ctx, db, logger)
}
