package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsAgent/internal/domain"
)

type stubScanner string

func (s stubScanner) Name() string { return string(s) }

func (s stubScanner) Scan(context.Context, Request) ([]domain.ArticleRecord, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(stubScanner("rss"), stubScanner("arxiv"))

	got, err := reg.Resolve("rss")
	require.NoError(t, err)
	assert.Equal(t, "rss", got.Name())
	assert.Equal(t, []string{"arxiv", "rss"}, reg.Names())

	_, err = reg.Resolve("atom")
	assert.EqualError(t, err, "scanner atom is not registered")
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 1, 3, 6, 0, 0, 0, time.UTC), Window(now, 24))
}
