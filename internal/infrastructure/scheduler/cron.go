package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"AINewsAgent/internal/ports"
)

// CronScheduler runs a job on a standard five-field cron expression in a fixed
// timezone. A run that is still in progress when the next tick fires is skipped.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler validates spec up front.
func NewCronScheduler(spec string, location *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}, nil
}

// Start registers job and begins ticking. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	logger := cronLogger{logger: c.logger}
	engine := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := engine.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	engine.Start()
	c.cron = engine

	if c.logger != nil {
		entries := engine.Entries()
		if len(entries) > 0 {
			c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String(), "next_run", entries[0].Next)
		}
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts ticking and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	engine := c.cron
	c.cron = nil
	c.mu.Unlock()

	if engine == nil {
		return nil
	}

	select {
	case <-engine.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports when the job fires next after from.
func (c *CronScheduler) Next(from time.Time) time.Time {
	schedule, err := cron.ParseStandard(c.spec)
	if err != nil {
		return time.Time{}
	}
	return schedule.Next(from.In(c.location))
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Debug("cron: "+msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if l.logger != nil {
		l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
	}
}
