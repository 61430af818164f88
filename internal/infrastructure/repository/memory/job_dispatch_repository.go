package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
)

type JobDispatchRepository struct {
	s *Store
}

func NewJobDispatchRepository(s *Store) *JobDispatchRepository {
	return &JobDispatchRepository{s: s}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobdispatch.Event) error {
	id := strings.TrimSpace(event.DispatchID)
	if id == "" {
		return fmt.Errorf("dispatch id is required")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dispatches[id] = event
	return nil
}

// Get returns the latest recorded state of a dispatch.
func (r *JobDispatchRepository) Get(dispatchID string) (jobdispatch.Event, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	event, ok := r.s.dispatches[dispatchID]
	return event, ok
}
