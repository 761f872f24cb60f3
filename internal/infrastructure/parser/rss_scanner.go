package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/mmcdole/gofeed"

	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/scanner"
)

const (
	noTitle   = "No title"
	noSummary = "No summary available"
)

// RSSScanner reads RSS/Atom/JSON feeds and keeps entries inside the recency window.
type RSSScanner struct {
	fetch  fetcher
	logger *slog.Logger
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; nil means a 20s timeout client.
func NewRSSScanner(client *http.Client, logger *slog.Logger) *RSSScanner {
	return &RSSScanner{fetch: newFetcher(client), logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Scan downloads req.URL and returns dated entries newer than req.Since, newest first.
func (s *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleRecord, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no url provided for feed %s", req.SiteName)
	}

	raw, err := s.fetch.get(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.SiteName, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("feed %s: parse: %w", req.SiteName, err)
	}

	source := req.SiteName
	if source == "" {
		source = strings.TrimSpace(feed.Title)
	}

	records := make([]domain.ArticleRecord, 0, len(feed.Items))
	dropped := 0
	for _, item := range feed.Items {
		record, ok := toRecord(item, source)
		if !ok {
			dropped++
			continue
		}
		if !req.Since.IsZero() && record.PublishedAt.Before(req.Since) {
			continue
		}
		records = append(records, record)
	}

	slices.SortStableFunc(records, func(a, b domain.ArticleRecord) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	s.debug("feed scanned", "feed", source, "items", len(feed.Items), "kept", len(records), "dropped", dropped)
	return records, nil
}

func toRecord(item *gofeed.Item, source string) (domain.ArticleRecord, bool) {
	if item == nil {
		return domain.ArticleRecord{}, false
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	link := strings.TrimSpace(item.Link)
	if published == nil || link == "" {
		return domain.ArticleRecord{}, false
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	return domain.ArticleRecord{
		Title:       orDefault(StripHTML(item.Title), noTitle),
		Link:        link,
		PublishedAt: published.UTC(),
		Summary:     orDefault(StripHTML(summary), noSummary),
		Source:      source,
	}, true
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (s *RSSScanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
