package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	postedTable      = "posted_articles"
	defaultListLimit = 20
	maxListLimit     = 500
)

var postedColumns = []string{
	"article_url",
	"article_title",
	"posted_at",
	"linkedin_post_url",
	"twitter_post_url",
	"linkedin_draft",
	"twitter_draft",
	"source_feed",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists published articles into Postgres.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ ports.ArticleStore = (*PostgresRepository)(nil)

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, apperr.NewStorage("connect", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// NewPostgresRepository wires a sqlx.DB implementation.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// HasBeenPosted reports whether url is recorded and when it was posted.
func (r *PostgresRepository) HasBeenPosted(ctx context.Context, url string) (bool, *time.Time, error) {
	query, args, err := hasBeenPostedQuery(url)
	if err != nil {
		return false, nil, apperr.NewStorage("build has-been-posted", err)
	}

	var postedAt time.Time
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&postedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil, nil
		}
		return false, nil, apperr.NewStorage("has been posted", err)
	}

	postedAt = postedAt.UTC()
	return true, &postedAt, nil
}

// RecordPublished upserts entry keyed by its article URL.
func (r *PostgresRepository) RecordPublished(ctx context.Context, entry domain.PostedArticleEntry) error {
	if strings.TrimSpace(entry.ArticleURL) == "" {
		return apperr.NewMalformed("posted entry without article url")
	}
	if entry.PostedAt.IsZero() {
		entry.PostedAt = time.Now().UTC()
	}

	query, args, err := recordPublishedQuery(entry)
	if err != nil {
		return apperr.NewStorage("build record-published", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return apperr.NewStorage("record published", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]domain.PostedArticleEntry, error) {
	query, args, err := listRecentQuery(limit)
	if err != nil {
		return nil, apperr.NewStorage("build list-recent", err)
	}

	entries := []domain.PostedArticleEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, apperr.NewStorage("list recent", err)
	}
	for i := range entries {
		entries[i].PostedAt = entries[i].PostedAt.UTC()
	}
	return entries, nil
}

func hasBeenPostedQuery(url string) (string, []interface{}, error) {
	return psql.Select("posted_at").
		From(postedTable).
		Where(sq.Eq{"article_url": url}).
		Limit(1).
		ToSql()
}

func recordPublishedQuery(entry domain.PostedArticleEntry) (string, []interface{}, error) {
	return psql.Insert(postedTable).
		Columns(postedColumns...).
		Values(
			entry.ArticleURL,
			entry.ArticleTitle,
			entry.PostedAt,
			entry.LinkedInPostURL,
			entry.TwitterPostURL,
			entry.LinkedInDraft,
			entry.TwitterDraft,
			entry.SourceFeed,
		).
		Suffix(`ON CONFLICT (article_url) DO UPDATE
              SET article_title = EXCLUDED.article_title,
                  posted_at = EXCLUDED.posted_at,
                  linkedin_post_url = EXCLUDED.linkedin_post_url,
                  twitter_post_url = EXCLUDED.twitter_post_url,
                  linkedin_draft = EXCLUDED.linkedin_draft,
                  twitter_draft = EXCLUDED.twitter_draft,
                  source_feed = EXCLUDED.source_feed`).
		ToSql()
}

func listRecentQuery(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return psql.Select(postedColumns...).
		From(postedTable).
		OrderBy("posted_at DESC", "article_url").
		Limit(uint64(limit)).
		ToSql()
}
