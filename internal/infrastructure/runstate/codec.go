// Package runstate persists coordinator checkpoints so a run can resume after
// a restart.
package runstate

import (
	"encoding/json"
	"slices"

	"AINewsAgent/internal/domain"
)

func encode(run domain.Run) ([]byte, error) {
	return json.Marshal(run)
}

func decode(raw []byte) (domain.Run, error) {
	var run domain.Run
	err := json.Unmarshal(raw, &run)
	return run, err
}

// sortByCreation orders runs oldest first, breaking ties by id.
func sortByCreation(runs []domain.Run) {
	slices.SortFunc(runs, func(a, b domain.Run) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
