package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"AINewsAgent/internal/apperr"
)

// RunState enumerates coordinator milestones.
type RunState string

const (
	StateNew              RunState = ""
	StateFetching         RunState = "fetching"
	StateCurating         RunState = "curating"
	StateDrafting         RunState = "drafting"
	StateAwaitingApproval RunState = "awaiting_approval"
	StatePublishing       RunState = "publishing"
	StateDone             RunState = "done"
	StateRejected         RunState = "rejected"
	StateFailed           RunState = "failed"
)

var transitions = map[RunState][]RunState{
	StateNew:              {StateFetching},
	StateFetching:         {StateCurating, StateFailed},
	StateCurating:         {StateDrafting, StateDone, StateFailed},
	StateDrafting:         {StateAwaitingApproval, StateFailed},
	StateAwaitingApproval: {StatePublishing, StateRejected},
	StatePublishing:       {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateRejected || s == StateFailed
}

// CanTransition reports whether the coordinator may move from s to next.
func (s RunState) CanTransition(next RunState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Outcome summarises how a terminal run ended.
type Outcome string

const (
	OutcomeNone               Outcome = ""
	OutcomePublished          Outcome = "published"
	OutcomePartiallyPublished Outcome = "partially_published"
	OutcomeNoCandidate        Outcome = "no_candidate"
	OutcomeRejected           Outcome = "rejected"
	OutcomeFailed             Outcome = "failed"
)

// Publication carries per-platform results; an empty URL means that platform failed.
type Publication struct {
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	TwitterURL    string `json:"twitter_url,omitempty"`
	LinkedInError string `json:"linkedin_error,omitempty"`
	TwitterError  string `json:"twitter_error,omitempty"`
}

// AnySucceeded is true when at least one platform accepted the post.
func (p Publication) AnySucceeded() bool {
	return p.LinkedInURL != "" || p.TwitterURL != ""
}

// Transition is one entry of a run's audit trail.
type Transition struct {
	From RunState  `json:"from"`
	To   RunState  `json:"to"`
	At   time.Time `json:"at"`
}

// Run is the durable checkpoint of one pipeline execution, keyed by ID.
type Run struct {
	ID          string           `json:"id"`
	State       RunState         `json:"state"`
	Outcome     Outcome          `json:"outcome,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Fetched     int              `json:"fetched"`
	Candidates  int              `json:"candidates"`
	Candidate   *ScoredArticle   `json:"candidate,omitempty"`
	Drafts      Drafts           `json:"drafts"`
	Approval    ApprovalDecision `json:"approval"`
	Publication Publication      `json:"publication"`
	Error       string           `json:"error,omitempty"`
	History     []Transition     `json:"history,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewRun starts a run in the zero state.
func NewRun(id string, now time.Time) Run {
	return Run{ID: id, State: StateNew, CreatedAt: now, UpdatedAt: now}
}

// Advance moves the run to next, recording the transition.
func (r *Run) Advance(next RunState, at time.Time) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("run %s: %s -> %s: %w", r.ID, r.State, next, apperr.ErrInvalidTransition)
	}
	r.History = append(r.History, Transition{From: r.State, To: next, At: at})
	r.State = next
	r.UpdatedAt = at
	return nil
}

func (s RunState) String() string {
	if s == StateNew {
		return "new"
	}
	return string(s)
}

// ParseRunState maps a state name, including "new", back to a RunState.
func ParseRunState(name string) (RunState, bool) {
	for _, state := range []RunState{
		StateNew, StateFetching, StateCurating, StateDrafting, StateAwaitingApproval,
		StatePublishing, StateDone, StateRejected, StateFailed,
	} {
		if state.String() == name {
			return state, true
		}
	}
	return StateNew, false
}
