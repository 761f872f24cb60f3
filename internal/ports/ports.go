package ports

import (
	"context"
	"time"

	"AINewsAgent/internal/domain"
)

// ArticleSource pulls fresh articles from every configured feed.
type ArticleSource interface {
	FetchRecent(ctx context.Context) ([]domain.ArticleRecord, error)
}

// ArticleStore is the durable set of already published articles.
type ArticleStore interface {
	HasBeenPosted(ctx context.Context, url string) (bool, *time.Time, error)
	RecordPublished(ctx context.Context, entry domain.PostedArticleEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.PostedArticleEntry, error)
}

// PostChecker is the read side of ArticleStore used by ranking.
type PostChecker interface {
	HasBeenPosted(ctx context.Context, url string) (bool, *time.Time, error)
}

// Drafter turns a candidate into platform-specific texts.
type Drafter interface {
	Draft(ctx context.Context, article domain.ScoredArticle) (domain.Drafts, error)
	DraftDigest(ctx context.Context, articles []domain.ScoredArticle, day time.Time) (string, error)
}

// Approver asks a human to review drafts; it may leave the decision pending.
type Approver interface {
	RequestApproval(ctx context.Context, runID string, payload domain.ApprovalPayload) (domain.ApprovalDecision, error)
}

// Publisher posts finalized text to one platform and returns the post URL.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, parts []string) (string, error)
}

// RunStore keeps coordinator checkpoints keyed by run id.
type RunStore interface {
	Save(ctx context.Context, run domain.Run) error
	Load(ctx context.Context, runID string) (domain.Run, error)
	ListByState(ctx context.Context, state domain.RunState) ([]domain.Run, error)
}

// DraftArchive stores generated digest drafts.
type DraftArchive interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
