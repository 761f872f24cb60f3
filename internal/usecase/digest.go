package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	defaultDigestSize = 5
	latestDraftName   = "latest_draft.md"
)

// Curator produces a ranked candidate list; Pipeline satisfies it.
type Curator interface {
	Curate(ctx context.Context) (CurationResult, error)
}

// DigestDeps wires the daily digest use case.
type DigestDeps struct {
	Curator Curator
	Drafter ports.Drafter
	Archive ports.DraftArchive
	Size    int
	Now     func() time.Time
	Logger  *slog.Logger
}

// Digest drafts the daily brief from the top ranked articles and archives it.
// It never publishes and never writes the Article Store.
type Digest struct {
	curator Curator
	drafter ports.Drafter
	archive ports.DraftArchive
	size    int
	now     func() time.Time
	logger  *slog.Logger
}

// DigestResult describes one generated brief.
type DigestResult struct {
	Day       time.Time
	Articles  []domain.ScoredArticle
	Content   string
	Locations []string
}

func NewDigest(deps DigestDeps) *Digest {
	size := deps.Size
	if size <= 0 {
		size = defaultDigestSize
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Digest{
		curator: deps.Curator,
		drafter: deps.Drafter,
		archive: deps.Archive,
		size:    size,
		now:     now,
		logger:  deps.Logger,
	}
}

// Generate curates, drafts the brief and saves it as the latest draft and
// under a dated name.
func (d *Digest) Generate(ctx context.Context) (DigestResult, error) {
	result := DigestResult{Day: d.now()}

	curated, err := d.curator.Curate(ctx)
	if err != nil {
		return result, fmt.Errorf("curate: %w", err)
	}
	articles := curated.Ranking.Articles
	if len(articles) > d.size {
		articles = articles[:d.size]
	}
	result.Articles = articles

	content, err := d.drafter.DraftDigest(ctx, articles, result.Day)
	if err != nil {
		return result, fmt.Errorf("draft digest: %w", err)
	}
	result.Content = content

	if d.archive == nil {
		return result, nil
	}
	for _, name := range []string{latestDraftName, DatedDraftName(result.Day)} {
		location, err := d.archive.Save(ctx, name, []byte(content))
		if err != nil {
			return result, fmt.Errorf("archive %s: %w", name, err)
		}
		result.Locations = append(result.Locations, location)
	}

	if d.logger != nil {
		d.logger.Info("digest drafted", "articles", len(articles), "fetched", curated.Fetched, "locations", result.Locations)
	}
	return result, nil
}

// DatedDraftName is the archive name of the brief for day.
func DatedDraftName(day time.Time) string {
	return "draft_" + day.Format("2006-01-02") + ".md"
}
