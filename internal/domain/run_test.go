package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AINewsAgent/internal/apperr"
)

func TestRunAdvance_HappyPath(t *testing.T) {
	now := time.Date(2026, 1, 4, 6, 0, 0, 0, time.UTC)
	run := NewRun("run-1", now)

	path := []RunState{StateFetching, StateCurating, StateDrafting, StateAwaitingApproval, StatePublishing, StateDone}
	for i, next := range path {
		require.NoError(t, run.Advance(next, now.Add(time.Duration(i)*time.Minute)))
	}

	assert.Equal(t, StateDone, run.State)
	assert.True(t, run.State.Terminal())
	assert.Len(t, run.History, len(path))
	assert.Equal(t, StateNew, run.History[0].From)
	assert.Equal(t, now.Add(5*time.Minute), run.UpdatedAt)
}

func TestRunAdvance_RejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from RunState
		to   RunState
	}{
		{name: "skip approval", from: StateDrafting, to: StatePublishing},
		{name: "publish without approval", from: StateCurating, to: StatePublishing},
		{name: "resume rejected run", from: StateRejected, to: StatePublishing},
		{name: "resume done run", from: StateDone, to: StatePublishing},
		{name: "reject while publishing", from: StatePublishing, to: StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := Run{ID: "r", State: tt.from}
			err := run.Advance(tt.to, time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
			assert.Equal(t, tt.from, run.State)
			assert.Empty(t, run.History)
		})
	}
}

func TestApprovalDecision_EchoesPayload(t *testing.T) {
	pending := ApprovalDecision{
		Status: ApprovalPending,
		Payload: ApprovalPayload{
			Title:  "New Transformer Model",
			URL:    "https://arxiv.org/abs/1",
			Drafts: Drafts{LinkedIn: "post", Twitter: []string{"tweet"}},
		},
	}

	approved := pending.Decide(true)
	rejected := pending.Decide(false)

	assert.Equal(t, ApprovalApproved, approved.Status)
	assert.Equal(t, ApprovalRejected, rejected.Status)
	assert.Equal(t, pending.Payload, approved.Payload)
	assert.Equal(t, pending.Payload, rejected.Payload)
}

func TestDrafts_Thread(t *testing.T) {
	single := Drafts{Twitter: []string{"one"}}
	thread := Drafts{Twitter: []string{"one (1/2)", "two (2/2)"}}

	assert.False(t, single.IsThread())
	assert.True(t, thread.IsThread())
	assert.Equal(t, "one (1/2)\n\ntwo (2/2)", thread.TwitterText())
}

func TestParseRunState(t *testing.T) {
	state, ok := ParseRunState("awaiting_approval")
	assert.True(t, ok)
	assert.Equal(t, StateAwaitingApproval, state)

	state, ok = ParseRunState("new")
	assert.True(t, ok)
	assert.Equal(t, StateNew, state)

	_, ok = ParseRunState("")
	assert.False(t, ok)
	_, ok = ParseRunState("paused")
	assert.False(t, ok)
}
