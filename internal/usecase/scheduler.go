package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver      ports.Scheduler
	pipeline    *Pipeline
	expireAfter time.Duration
	logger      *slog.Logger
}

// NewScheduler returns a helper to start/stop the daily run. A positive
// expireAfter rejects abandoned approvals before each new run starts.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, expireAfter time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, expireAfter: expireAfter, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.Tick(ctx, trigger)
	})
}

// Tick is one scheduled execution: the abandonment sweep, then a new run.
func (s *Scheduler) Tick(ctx context.Context, trigger time.Time) {
	expired, err := s.pipeline.ExpireStale(ctx, s.expireAfter)
	if err != nil {
		s.log(slog.LevelWarn, "expire stale runs", "error", err)
	} else if expired > 0 {
		s.log(slog.LevelInfo, "expired stale runs", "count", expired)
	}

	run, err := s.pipeline.Start(ctx)
	switch {
	case errors.Is(err, apperr.ErrNoCandidate):
		s.log(slog.LevelInfo, "scheduled run found nothing to post", "run_id", run.ID, "trigger", trigger)
	case err != nil:
		s.log(slog.LevelError, "scheduled run failed", "run_id", run.ID, "trigger", trigger, "error", err)
	default:
		s.log(slog.LevelInfo, "scheduled run awaiting approval", "run_id", run.ID, "trigger", trigger)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log(level slog.Level, msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
