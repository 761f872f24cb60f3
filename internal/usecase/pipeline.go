package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/curation"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

const (
	recordAttempts       = 3
	defaultRecordBackoff = 500 * time.Millisecond
)

// PipelineDeps wires all driven adapters into the coordinator.
type PipelineDeps struct {
	Source        ports.ArticleSource
	Store         ports.ArticleStore
	Filter        *curation.Filter
	Drafter       ports.Drafter
	Approver      ports.Approver
	LinkedIn      ports.Publisher
	Twitter       ports.Publisher
	Runs          ports.RunStore
	Now           func() time.Time
	Logger        *slog.Logger
	RecordBackoff time.Duration // first wait between Article Store write attempts
}

// Pipeline sequences fetch, curation, drafting, approval and publishing,
// checkpointing the run after every transition so it can be resumed later.
type Pipeline struct {
	source        ports.ArticleSource
	store         ports.ArticleStore
	filter        *curation.Filter
	ranker        *curation.Ranker
	drafter       ports.Drafter
	approver      ports.Approver
	linkedIn      ports.Publisher
	twitter       ports.Publisher
	runs          ports.RunStore
	now           func() time.Time
	logger        *slog.Logger
	recordBackoff time.Duration
}

// CurationResult is what one fetch-filter-rank pass produced.
type CurationResult struct {
	Fetched    int
	Candidates int
	Ranking    curation.Ranking
}

// NewPipeline constructs the coordinator.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	filter := deps.Filter
	if filter == nil {
		filter = curation.NewFilter(nil)
	}
	recordBackoff := deps.RecordBackoff
	if recordBackoff <= 0 {
		recordBackoff = defaultRecordBackoff
	}

	return &Pipeline{
		source:        deps.Source,
		store:         deps.Store,
		filter:        filter,
		ranker:        curation.NewRanker(deps.Store, now, deps.Logger),
		drafter:       deps.Drafter,
		approver:      deps.Approver,
		linkedIn:      deps.LinkedIn,
		twitter:       deps.Twitter,
		runs:          deps.Runs,
		now:           now,
		logger:        deps.Logger,
		recordBackoff: recordBackoff,
	}
}

// Curate fetches every feed, keeps relevant articles and ranks them.
func (p *Pipeline) Curate(ctx context.Context) (CurationResult, error) {
	articles, err := p.fetch(ctx)
	if err != nil {
		return CurationResult{}, err
	}
	return p.CurateRecords(ctx, articles)
}

// CurateRecords filters and ranks an already collected batch.
func (p *Pipeline) CurateRecords(ctx context.Context, articles []domain.ArticleRecord) (CurationResult, error) {
	result := CurationResult{Fetched: len(articles)}

	candidates := p.filter.Filter(articles)
	result.Candidates = len(candidates)

	ranking, err := p.ranker.Rank(ctx, candidates)
	if err != nil {
		return result, fmt.Errorf("rank candidates: %w", err)
	}
	result.Ranking = ranking
	return result, nil
}

// Start runs a new pipeline up to the approval boundary and returns the
// suspended run. When nothing is worth posting the run ends Done and
// apperr.ErrNoCandidate is returned alongside it.
func (p *Pipeline) Start(ctx context.Context) (domain.Run, error) {
	run := domain.NewRun(domain.NewRunID(), p.now())
	if err := p.advance(ctx, &run, domain.StateFetching); err != nil {
		return run, err
	}

	articles, err := p.fetch(ctx)
	if err != nil {
		return p.fail(ctx, run, err)
	}
	run.Fetched = len(articles)
	if err := p.advance(ctx, &run, domain.StateCurating); err != nil {
		return run, err
	}

	candidates := p.filter.Filter(articles)
	run.Candidates = len(candidates)
	candidates, err = p.withoutPending(ctx, candidates)
	if err != nil {
		return p.fail(ctx, run, err)
	}
	ranking, err := p.ranker.Rank(ctx, candidates)
	if err != nil {
		return p.fail(ctx, run, fmt.Errorf("rank candidates: %w", err))
	}

	if ranking.Top == nil {
		run.Outcome = domain.OutcomeNoCandidate
		if err := p.advance(ctx, &run, domain.StateDone); err != nil {
			return run, err
		}
		p.info("no candidate", "run_id", run.ID, "fetched", run.Fetched, "candidates", run.Candidates, "already_posted", ranking.Posted)
		return run, apperr.ErrNoCandidate
	}

	top := *ranking.Top
	run.Candidate = &top
	if err := p.advance(ctx, &run, domain.StateDrafting); err != nil {
		return run, err
	}

	drafts, err := p.drafter.Draft(ctx, top)
	if err != nil {
		return p.fail(ctx, run, fmt.Errorf("draft %s: %w", top.Link, err))
	}
	run.Drafts = drafts
	run.Approval = domain.ApprovalDecision{
		Status:  domain.ApprovalPending,
		Payload: domain.ApprovalPayload{Title: top.Title, URL: top.Link, Drafts: drafts},
	}
	if err := p.advance(ctx, &run, domain.StateAwaitingApproval); err != nil {
		return run, err
	}

	// The checkpoint exists before the reviewer is notified; a lost
	// notification still leaves the run listed as pending.
	if p.approver != nil {
		if _, err := p.approver.RequestApproval(ctx, run.ID, run.Approval.Payload); err != nil {
			p.warn("approval request not delivered", "run_id", run.ID, "error", err)
		}
	}
	return run, nil
}

// Resume applies a reviewer decision to a suspended run.
func (p *Pipeline) Resume(ctx context.Context, runID string, approved bool) (domain.Run, error) {
	run, err := p.runs.Load(ctx, runID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	if run.State != domain.StateAwaitingApproval {
		return run, fmt.Errorf("resume run %s in state %s: %w", run.ID, run.State, apperr.ErrInvalidTransition)
	}

	// Another run may have published the same article since this one was drafted.
	if approved {
		posted, postedAt, err := p.store.HasBeenPosted(ctx, run.Approval.Payload.URL)
		if err != nil {
			return run, fmt.Errorf("resume run %s: posted status unknown: %w", run.ID, err)
		}
		if posted {
			run.Approval = run.Approval.Decide(false)
			run.Outcome = domain.OutcomeRejected
			run.Error = "article already posted"
			if postedAt != nil {
				run.Error += " at " + postedAt.UTC().Format(time.RFC3339)
			}
			if err := p.advance(ctx, &run, domain.StateRejected); err != nil {
				return run, err
			}
			p.warn("duplicate approval discarded", "run_id", run.ID, "url", run.Approval.Payload.URL)
			return run, nil
		}
	}

	run.Approval = run.Approval.Decide(approved)
	if !approved {
		run.Outcome = domain.OutcomeRejected
		if err := p.advance(ctx, &run, domain.StateRejected); err != nil {
			return run, err
		}
		return run, nil
	}

	if err := p.advance(ctx, &run, domain.StatePublishing); err != nil {
		return run, err
	}

	publication, publishErr := p.publish(ctx, run.Drafts)
	run.Publication = publication
	if !publication.AnySucceeded() {
		return p.fail(ctx, run, fmt.Errorf("no platform accepted the post: %w", publishErr))
	}

	if err := p.recordPublished(ctx, p.postedEntry(run)); err != nil {
		return p.fail(ctx, run, fmt.Errorf("record published: %w", err))
	}

	run.Outcome = domain.OutcomePublished
	if publishErr != nil {
		run.Outcome = domain.OutcomePartiallyPublished
		run.Error = publishErr.Error()
	}
	if err := p.advance(ctx, &run, domain.StateDone); err != nil {
		return run, err
	}
	return run, nil
}

// ExpireStale rejects runs that waited for approval longer than olderThan.
// A non-positive threshold disables the sweep.
func (p *Pipeline) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}

	pending, err := p.runs.ListByState(ctx, domain.StateAwaitingApproval)
	if err != nil {
		return 0, fmt.Errorf("list pending runs: %w", err)
	}

	cutoff := p.now().Add(-olderThan)
	expired := 0
	for _, run := range pending {
		if !run.UpdatedAt.Before(cutoff) {
			continue
		}
		run.Approval = run.Approval.Decide(false)
		run.Outcome = domain.OutcomeRejected
		run.Error = "approval expired"
		if err := p.advance(ctx, &run, domain.StateRejected); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// Pending lists runs waiting for a reviewer.
func (p *Pipeline) Pending(ctx context.Context) ([]domain.Run, error) {
	return p.Runs(ctx, domain.StateAwaitingApproval)
}

// Runs lists checkpoints in state.
func (p *Pipeline) Runs(ctx context.Context, state domain.RunState) ([]domain.Run, error) {
	runs, err := p.runs.ListByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("list %s runs: %w", state, err)
	}
	return runs, nil
}

// Get loads one checkpoint.
func (p *Pipeline) Get(ctx context.Context, runID string) (domain.Run, error) {
	run, err := p.runs.Load(ctx, runID)
	if err != nil {
		return domain.Run{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	return run, nil
}

// Posted returns the most recent Article Store entries.
func (p *Pipeline) Posted(ctx context.Context, limit int) ([]domain.PostedArticleEntry, error) {
	entries, err := p.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list posted: %w", err)
	}
	return entries, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]domain.ArticleRecord, error) {
	if p.source == nil {
		return nil, errors.New("pipeline has no article source")
	}
	articles, err := p.source.FetchRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch recent: %w", err)
	}
	return articles, nil
}

// withoutPending drops candidates already drafted by a run that still awaits a reviewer.
func (p *Pipeline) withoutPending(ctx context.Context, candidates []domain.ScoredArticle) ([]domain.ScoredArticle, error) {
	pending, err := p.runs.ListByState(ctx, domain.StateAwaitingApproval)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	if len(pending) == 0 {
		return candidates, nil
	}

	drafted := make(map[string]struct{}, len(pending))
	for _, run := range pending {
		drafted[run.Approval.Payload.URL] = struct{}{}
	}
	kept := make([]domain.ScoredArticle, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := drafted[candidate.Link]; ok {
			p.info("awaiting approval in another run", "link", candidate.Link)
			continue
		}
		kept = append(kept, candidate)
	}
	return kept, nil
}

func (p *Pipeline) publish(ctx context.Context, drafts domain.Drafts) (domain.Publication, error) {
	var publication domain.Publication
	var errs []error

	url, err := p.publishTo(ctx, p.linkedIn, "linkedin", []string{drafts.LinkedIn})
	if err != nil {
		publication.LinkedInError = err.Error()
		errs = append(errs, err)
	}
	publication.LinkedInURL = url

	url, err = p.publishTo(ctx, p.twitter, "twitter", drafts.Twitter)
	if err != nil {
		publication.TwitterError = err.Error()
		errs = append(errs, err)
	}
	publication.TwitterURL = url

	return publication, errors.Join(errs...)
}

func (p *Pipeline) publishTo(ctx context.Context, publisher ports.Publisher, platform string, parts []string) (string, error) {
	if publisher == nil {
		return "", fmt.Errorf("%s: publisher not configured", platform)
	}
	url, err := publisher.Publish(ctx, parts)
	if err != nil {
		// A URL alongside an error means part of the post is already live.
		p.warn("publish failed", "platform", publisher.Platform(), "url", url, "error", err)
		return url, fmt.Errorf("%s: %w", publisher.Platform(), err)
	}
	p.info("published", "platform", publisher.Platform(), "url", url)
	return url, nil
}

func (p *Pipeline) postedEntry(run domain.Run) domain.PostedArticleEntry {
	entry := domain.PostedArticleEntry{
		ArticleURL:      run.Approval.Payload.URL,
		ArticleTitle:    run.Approval.Payload.Title,
		PostedAt:        p.now(),
		LinkedInPostURL: run.Publication.LinkedInURL,
		TwitterPostURL:  run.Publication.TwitterURL,
		LinkedInDraft:   run.Drafts.LinkedIn,
		TwitterDraft:    run.Drafts.TwitterText(),
	}
	if run.Candidate != nil {
		entry.SourceFeed = run.Candidate.Source
	}
	return entry
}

func (p *Pipeline) recordPublished(ctx context.Context, entry domain.PostedArticleEntry) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.recordBackoff

	operation := func() error {
		err := p.store.RecordPublished(ctx, entry)
		var malformed *apperr.MalformedInputError
		if errors.As(err, &malformed) {
			return backoff.Permanent(err)
		}
		if err != nil {
			p.warn("record published attempt failed", "url", entry.ArticleURL, "error", err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, recordAttempts-1), ctx))
}

func (p *Pipeline) advance(ctx context.Context, run *domain.Run, next domain.RunState) error {
	from := run.State
	if err := run.Advance(next, p.now()); err != nil {
		return err
	}
	p.info("run transition", "run_id", run.ID, "from", from.String(), "to", next.String())
	if err := p.runs.Save(ctx, *run); err != nil {
		return fmt.Errorf("checkpoint run %s: %w", run.ID, err)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, run domain.Run, cause error) (domain.Run, error) {
	run.Outcome = domain.OutcomeFailed
	run.Error = cause.Error()
	if err := p.advance(ctx, &run, domain.StateFailed); err != nil {
		return run, errors.Join(cause, err)
	}
	p.warn("run failed", "run_id", run.ID, "error", cause)
	return run, cause
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
