package curation

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	relevanceWeight = 5
	maxRecencyBonus = 10.0
	// hoursPerPoint makes the bonus reach zero after 24 hours.
	hoursPerPoint = 2.4
)

// Ranking is the ordered output of Rank.
type Ranking struct {
	Articles []domain.ScoredArticle `json:"ranked_articles"`
	Top      *domain.ScoredArticle  `json:"top_article"`
	// Posted counts candidates dropped because the store already has them.
	Posted int `json:"already_posted"`
	// Unknown counts candidates dropped because the store lookup failed.
	Unknown int `json:"unknown_status"`
}

// Ranker scores candidates, drops already published ones and sorts the rest.
type Ranker struct {
	store  ports.PostChecker
	now    func() time.Time
	logger *slog.Logger
}

// NewRanker wires the duplicate check; now defaults to time.Now.
func NewRanker(store ports.PostChecker, now func() time.Time, logger *slog.Logger) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{store: store, now: now, logger: logger}
}

// Rank returns candidates ordered by descending composite score. Ties keep
// input order. A candidate whose posted status cannot be determined is
// excluded so that a storage outage never causes a duplicate post.
func (r *Ranker) Rank(ctx context.Context, scored []domain.ScoredArticle) (Ranking, error) {
	now := r.now()
	ranking := Ranking{Articles: make([]domain.ScoredArticle, 0, len(scored))}

	for _, candidate := range scored {
		if err := ctx.Err(); err != nil {
			return Ranking{}, err
		}

		if r.store != nil {
			posted, postedAt, err := r.store.HasBeenPosted(ctx, candidate.Link)
			if err != nil {
				ranking.Unknown++
				r.warn("posted status unknown, excluding candidate", "link", candidate.Link, "error", err)
				continue
			}
			if posted {
				ranking.Posted++
				r.debug("already posted", "link", candidate.Link, "posted_at", postedAt)
				continue
			}
		}

		candidate.FinalScore = Score(candidate, now)
		ranking.Articles = append(ranking.Articles, candidate)
	}

	slices.SortStableFunc(ranking.Articles, func(a, b domain.ScoredArticle) int {
		return cmp.Compare(b.FinalScore, a.FinalScore)
	})

	if len(ranking.Articles) > 0 {
		top := ranking.Articles[0]
		ranking.Top = &top
	}

	return ranking, nil
}

// Score computes relevance*5 + source credibility + recency, rounded to cents.
func Score(article domain.ScoredArticle, now time.Time) float64 {
	score := float64(article.RelevanceScore*relevanceWeight) +
		float64(SourceCredibility(article.Source)) +
		RecencyBonus(article.PublishedAt, now)
	return math.Round(score*100) / 100
}

// RecencyBonus decays linearly from 10 at publication to 0 after 24 hours.
// A missing timestamp earns nothing; future timestamps count as fresh.
func RecencyBonus(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	hoursOld := now.Sub(published).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}
	return math.Max(0, maxRecencyBonus-hoursOld/hoursPerPoint)
}

func (r *Ranker) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Ranker) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
