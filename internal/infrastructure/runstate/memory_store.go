package runstate

import (
	"context"
	"sync"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

// MemoryStore keeps checkpoints in process. Runs do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

var _ ports.RunStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[string][]byte{}}
}

func (m *MemoryStore) Save(_ context.Context, run domain.Run) error {
	raw, err := encode(run)
	if err != nil {
		return apperr.NewStorage("encode run", err)
	}
	m.mu.Lock()
	m.runs[run.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, runID string) (domain.Run, error) {
	m.mu.RLock()
	raw, ok := m.runs[runID]
	m.mu.RUnlock()
	if !ok {
		return domain.Run{}, apperr.ErrRunNotFound
	}
	run, err := decode(raw)
	if err != nil {
		return domain.Run{}, apperr.NewStorage("decode run", err)
	}
	return run, nil
}

func (m *MemoryStore) ListByState(_ context.Context, state domain.RunState) ([]domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := []domain.Run{}
	for _, raw := range m.runs {
		run, err := decode(raw)
		if err != nil {
			return nil, apperr.NewStorage("decode run", err)
		}
		if run.State == state {
			runs = append(runs, run)
		}
	}
	sortByCreation(runs)
	return runs, nil
}
