package runstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
	pgtesting "AINewsAgent/pkg/testing"
)

func awaitingRun(id string, created time.Time) domain.Run {
	run := domain.NewRun(id, created)
	for _, next := range []domain.RunState{
		domain.StateFetching, domain.StateCurating, domain.StateDrafting, domain.StateAwaitingApproval,
	} {
		if err := run.Advance(next, created); err != nil {
			panic(err)
		}
	}
	run.Candidate = &domain.ScoredArticle{
		ArticleRecord:  domain.ArticleRecord{Title: "New Transformer Model", Link: "https://arxiv.org/abs/1", Source: "arxiv"},
		RelevanceScore: 1,
		FinalScore:     25,
	}
	run.Drafts = domain.Drafts{LinkedIn: "post", Twitter: []string{"1/2", "2/2"}}
	run.Approval = domain.ApprovalDecision{Status: domain.ApprovalPending}
	return run
}

// exerciseRunStore checks the behaviour every RunStore must share.
func exerciseRunStore(t *testing.T, store ports.RunStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC)

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrRunNotFound)

	second := awaitingRun("run-b", base.Add(time.Minute))
	first := awaitingRun("run-a", base)
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, first))

	loaded, err := store.Load(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingApproval, loaded.State)
	require.NotNil(t, loaded.Candidate)
	assert.Equal(t, "https://arxiv.org/abs/1", loaded.Candidate.Link)
	assert.Equal(t, []string{"1/2", "2/2"}, loaded.Drafts.Twitter)
	assert.Len(t, loaded.History, 4)
	assert.True(t, base.Equal(loaded.CreatedAt))

	pending, err := store.ListByState(ctx, domain.StateAwaitingApproval)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "run-a", pending[0].ID)
	assert.Equal(t, "run-b", pending[1].ID)

	require.NoError(t, first.Advance(domain.StateRejected, base.Add(time.Hour)))
	first.Outcome = domain.OutcomeRejected
	require.NoError(t, store.Save(ctx, first))

	pending, err = store.ListByState(ctx, domain.StateAwaitingApproval)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "run-b", pending[0].ID)

	rejected, err := store.ListByState(ctx, domain.StateRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, domain.OutcomeRejected, rejected[0].Outcome)

	none, err := store.ListByState(ctx, domain.StatePublishing)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	exerciseRunStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	run := awaitingRun("r", time.Now())
	require.NoError(t, store.Save(ctx, run))

	run.Candidate.Title = "mutated"

	loaded, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "New Transformer Model", loaded.Candidate.Title)
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container skipped in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	exerciseRunStore(t, NewRedisStore(client, "test"))
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	pg := pgtesting.NewPGContainerWithCleanup(ctx, t)

	pool, err := NewPool(ctx, pg.ConnString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	exerciseRunStore(t, NewPostgresStore(pool))
}

func TestRedisStore_Keys(t *testing.T) {
	s := NewRedisStore(nil, "")

	assert.Equal(t, "ainews:run:abc", s.runKey("abc"))
	assert.Equal(t, "ainews:runs:new", s.stateKey(domain.StateNew))
	assert.Equal(t, "ainews:runs:awaiting_approval", s.stateKey(domain.StateAwaitingApproval))
}
