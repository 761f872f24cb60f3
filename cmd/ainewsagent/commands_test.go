package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/config"
	"AINewsAgent/internal/curation"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/usecase"
)

type fakeAgent struct {
	run     domain.Run
	runErr  error
	resumed map[string]bool
	pending []domain.Run
	curated usecase.CurationResult
	batch   []domain.ArticleRecord
	digest  usecase.DigestResult
	closed  bool
	served  bool
}

func (f *fakeAgent) Run(context.Context) (domain.Run, error) { return f.run, f.runErr }

func (f *fakeAgent) Resume(_ context.Context, runID string, approved bool) (domain.Run, error) {
	if f.resumed == nil {
		f.resumed = map[string]bool{}
	}
	f.resumed[runID] = approved
	run := domain.Run{ID: runID, State: domain.StateRejected, Outcome: domain.OutcomeRejected}
	if approved {
		run = domain.Run{ID: runID, State: domain.StateDone, Outcome: domain.OutcomePublished,
			Publication: domain.Publication{LinkedInURL: "https://www.linkedin.com/feed/update/1/"}}
	}
	return run, nil
}

func (f *fakeAgent) Pending(context.Context) ([]domain.Run, error) { return f.pending, nil }

func (f *fakeAgent) Curate(context.Context) (usecase.CurationResult, error) { return f.curated, nil }

func (f *fakeAgent) CurateRecords(_ context.Context, articles []domain.ArticleRecord) (usecase.CurationResult, error) {
	f.batch = articles
	return usecase.CurationResult{Fetched: len(articles)}, nil
}

func (f *fakeAgent) Digest(context.Context) (usecase.DigestResult, error) { return f.digest, nil }

func (f *fakeAgent) Serve(context.Context) error {
	f.served = true
	return nil
}

func (f *fakeAgent) Close() error {
	f.closed = true
	return nil
}

func execute(t *testing.T, a *fakeAgent, args ...string) (string, error) {
	t.Helper()
	migrated := false
	root := newCLI(&cli{
		load: func() config.Config { return config.Config{} },
		open: func(context.Context, config.Config, *slog.Logger) (agent, error) { return a, nil },
		migrate: func(context.Context, config.Config, *slog.Logger) error {
			migrated = true
			return nil
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if len(args) > 0 && args[0] == "migrate" {
		assert.True(t, migrated)
	}
	return out.String(), err
}

func TestRunCommand_PrintsPreview(t *testing.T) {
	a := &fakeAgent{run: domain.Run{
		ID:    "run-1",
		State: domain.StateAwaitingApproval,
		Approval: domain.ApprovalDecision{Payload: domain.ApprovalPayload{
			Title: "New Transformer Model",
			URL:   "https://arxiv.org/abs/1",
		}},
	}}

	out, err := execute(t, a, "run")

	require.NoError(t, err)
	assert.Contains(t, out, "New Transformer Model")
	assert.Contains(t, out, "ainewsagent resume --run run-1 --approve")
	assert.True(t, a.closed)
}

func TestRunCommand_NoCandidateIsNotAnError(t *testing.T) {
	a := &fakeAgent{run: domain.Run{ID: "run-2", Fetched: 7}, runErr: apperr.ErrNoCandidate}

	out, err := execute(t, a, "run")

	require.NoError(t, err)
	assert.Contains(t, out, "run run-2: no candidate (fetched 7, relevant 0)")
}

func TestResumeCommand(t *testing.T) {
	a := &fakeAgent{}

	out, err := execute(t, a, "resume", "--run", "r1", "--approve")
	require.NoError(t, err)
	assert.Contains(t, out, "run r1: done (published)")
	assert.Contains(t, out, "linkedin: https://www.linkedin.com/feed/update/1/")

	out, err = execute(t, a, "resume", "--run", "r2", "--reject")
	require.NoError(t, err)
	assert.Contains(t, out, "run r2: rejected (rejected)")
	assert.Equal(t, map[string]bool{"r1": true, "r2": false}, a.resumed)
}

func TestResumeCommand_FlagValidation(t *testing.T) {
	tests := [][]string{
		{"resume", "--run", "r1"},
		{"resume", "--run", "r1", "--approve", "--reject"},
		{"resume", "--approve"},
	}

	for _, args := range tests {
		a := &fakeAgent{}
		_, err := execute(t, a, args...)
		assert.Error(t, err, args)
		assert.Empty(t, a.resumed)
	}
}

func TestPendingCommand(t *testing.T) {
	a := &fakeAgent{}
	out, err := execute(t, a, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs awaiting approval")

	a.pending = []domain.Run{{
		ID:        "r9",
		UpdatedAt: time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC),
		Approval:  domain.ApprovalDecision{Payload: domain.ApprovalPayload{Title: "LLM agents", URL: "https://x"}},
	}}
	out, err = execute(t, a, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "r9")
	assert.Contains(t, out, "2026-01-04 06:00")
	assert.Contains(t, out, "LLM agents")
}

func TestCurateCommand_PrintsJSON(t *testing.T) {
	top := domain.ScoredArticle{ArticleRecord: domain.ArticleRecord{Link: "https://arxiv.org/abs/1"}, FinalScore: 25}
	a := &fakeAgent{curated: usecase.CurationResult{
		Fetched:    3,
		Candidates: 1,
		Ranking:    curation.Ranking{Articles: []domain.ScoredArticle{top}, Top: &top},
	}}

	out, err := execute(t, a, "curate")

	require.NoError(t, err)
	var decoded curateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "success", decoded.Status)
	assert.Equal(t, 3, decoded.Fetched)
	require.NotNil(t, decoded.Top)
	assert.Equal(t, 25.0, decoded.Top.FinalScore)
}

func TestCurateCommand_EmptyRankingIsAnArray(t *testing.T) {
	out, err := execute(t, &fakeAgent{}, "curate")

	require.NoError(t, err)
	assert.Contains(t, out, `"ranked_articles": []`)
	assert.Contains(t, out, `"top_article": null`)
}

func TestCurateCommand_RanksInputBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	batch := `{"articles": [
		{"title": "New Transformer Model", "link": "https://arxiv.org/abs/1", "published": "2026-01-04T05:00:00Z", "source": "ArXiv AI"},
		{"title": "Undated", "link": "https://example.com/2", "published": "last tuesday"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(batch), 0o600))
	a := &fakeAgent{}

	out, err := execute(t, a, "curate", "--input", path)

	require.NoError(t, err)
	require.Len(t, a.batch, 2)
	assert.True(t, a.batch[0].PublishedAt.Equal(time.Date(2026, 1, 4, 5, 0, 0, 0, time.UTC)))
	assert.True(t, a.batch[1].PublishedAt.IsZero())
	assert.Contains(t, out, `"fetched": 2`)
}

func TestCurateCommand_MalformedInputFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": "nope"}`), 0o600))
	a := &fakeAgent{}

	_, err := execute(t, a, "curate", "--input", path)

	var malformed *apperr.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Nil(t, a.batch)
	assert.False(t, a.closed)
}

func TestDigestServeMigrateCommands(t *testing.T) {
	a := &fakeAgent{digest: usecase.DigestResult{Content: "brief", Locations: []string{"drafts/latest_draft.md"}}}

	out, err := execute(t, a, "digest")
	require.NoError(t, err)
	assert.Contains(t, out, "brief")
	assert.Contains(t, out, "saved drafts/latest_draft.md")

	_, err = execute(t, a, "serve")
	require.NoError(t, err)
	assert.True(t, a.served)

	_, err = execute(t, a, "migrate")
	require.NoError(t, err)
}
