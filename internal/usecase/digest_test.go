package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsAgent/internal/curation"
	"AINewsAgent/internal/domain"
)

type fakeCurator struct {
	result CurationResult
	err    error
}

func (f fakeCurator) Curate(context.Context) (CurationResult, error) {
	return f.result, f.err
}

type fakeArchive struct {
	saved map[string]string
	err   error
}

func (f *fakeArchive) Save(_ context.Context, name string, content []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[name] = string(content)
	return "mem://" + name, nil
}

func ranked(n int) []domain.ScoredArticle {
	out := make([]domain.ScoredArticle, 0, n)
	for i := 0; i < n; i++ {
		link := fmt.Sprintf("https://example.com/%d", i)
		out = append(out, domain.ScoredArticle{ArticleRecord: domain.ArticleRecord{Title: link, Link: link}})
	}
	return out
}

func TestDigest_TopArticlesAreArchivedTwice(t *testing.T) {
	drafter := &fakeDrafter{digest: "brief"}
	archive := &fakeArchive{}
	day := time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)
	digest := NewDigest(DigestDeps{
		Curator: fakeCurator{result: CurationResult{Ranking: curation.Ranking{Articles: ranked(8)}}},
		Drafter: drafter,
		Archive: archive,
		Now:     func() time.Time { return day },
	})

	result, err := digest.Generate(context.Background())

	require.NoError(t, err)
	require.Len(t, drafter.digests, 1)
	assert.Len(t, drafter.digests[0], defaultDigestSize)
	assert.Equal(t, "https://example.com/0", result.Articles[0].Link)
	assert.Equal(t, "brief", result.Content)
	assert.Equal(t, map[string]string{
		"latest_draft.md":     "brief",
		"draft_2026-03-09.md": "brief",
	}, archive.saved)
	assert.Equal(t, []string{"mem://latest_draft.md", "mem://draft_2026-03-09.md"}, result.Locations)
}

func TestDigest_NoArticlesStillDrafts(t *testing.T) {
	drafter := &fakeDrafter{digest: "No new AI news articles found for today."}
	archive := &fakeArchive{}
	digest := NewDigest(DigestDeps{Curator: fakeCurator{}, Drafter: drafter, Archive: archive, Size: 3})

	result, err := digest.Generate(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Articles)
	assert.Equal(t, drafter.digest, archive.saved["latest_draft.md"])
}

func TestDigest_Errors(t *testing.T) {
	t.Run("curate", func(t *testing.T) {
		digest := NewDigest(DigestDeps{Curator: fakeCurator{err: errors.New("boom")}, Drafter: &fakeDrafter{}})

		_, err := digest.Generate(context.Background())

		assert.ErrorContains(t, err, "curate")
	})

	t.Run("archive", func(t *testing.T) {
		digest := NewDigest(DigestDeps{
			Curator: fakeCurator{},
			Drafter: &fakeDrafter{digest: "x"},
			Archive: &fakeArchive{err: errors.New("bucket gone")},
		})

		result, err := digest.Generate(context.Background())

		assert.ErrorContains(t, err, "archive latest_draft.md")
		assert.Equal(t, "x", result.Content)
	})
}

func TestDatedDraftName(t *testing.T) {
	assert.Equal(t, "draft_2026-01-04.md", DatedDraftName(testNow))
}
