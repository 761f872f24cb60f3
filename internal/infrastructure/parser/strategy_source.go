package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"AINewsAgent/internal/config"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
	"AINewsAgent/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
// Feeds are fetched concurrently; a failing feed contributes nothing and never
// aborts the others.
type StrategySource struct {
	registry *scanner.Registry
	feeds    []config.FeedConfig
	workers  int
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined feeds.
func NewStrategySource(reg *scanner.Registry, feeds []config.FeedConfig, cfg config.CurationConfig, log *slog.Logger) *StrategySource {
	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = len(feeds)
	}
	return &StrategySource{
		registry: reg,
		feeds:    feeds,
		workers:  workers,
		timeout:  cfg.FeedTimeout.Std(),
		now:      time.Now,
		logger:   log,
	}
}

// FetchRecent runs every feed's scanner and merges their records. It only
// fails when the registry is missing or ctx is cancelled.
func (s *StrategySource) FetchRecent(ctx context.Context) ([]domain.ArticleRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	now := s.now()
	s.debug("fetch recent", "feeds", len(s.feeds), "workers", s.workers)

	perFeed := make([][]domain.ArticleRecord, len(s.feeds))
	g, gctx := errgroup.WithContext(ctx)
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}

	for i, feed := range s.feeds {
		g.Go(func() error {
			records, err := s.scanFeed(gctx, feed, now)
			if err != nil {
				s.warn("feed failed", "feed", feed.Name, "error", err)
				return nil
			}
			perFeed[i] = records
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var aggregated []domain.ArticleRecord
	for i, records := range perFeed {
		s.debug("feed produced articles", "feed", s.feeds[i].Name, "count", len(records))
		aggregated = append(aggregated, records...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) scanFeed(ctx context.Context, feed config.FeedConfig, now time.Time) ([]domain.ArticleRecord, error) {
	strategy, err := s.registry.Resolve(feed.Kind)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := scanner.Request{
		SiteName: feed.Name,
		URL:      feed.URL,
		Since:    scanner.Window(now, feed.HoursBack),
		Options:  feed.Options,
	}

	results, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].Source == "" {
			results[i].Source = feed.Name
		}
	}
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
