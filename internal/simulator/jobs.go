package simulator

import (
	"sync"

	"github.com/google/uuid"
)

// jobTable holds completed async job results keyed by job id. Every
// mutation in the simulator completes synchronously, so a job is queryable
// the moment its id is handed out.
type jobTable struct {
	mu      sync.Mutex
	results map[string]any
}

func newJobTable() *jobTable {
	return &jobTable{results: make(map[string]any)}
}

func (t *jobTable) add(result any) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uuid.New().String()
	t.results[id] = result
	return id
}

func (t *jobTable) get(id string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	result, ok := t.results[id]
	return result, ok
}
