package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/planweave/store"
)

// MemoryPlanStore implements store.PlanStore with an in-process map.
type MemoryPlanStore struct {
	mu      sync.RWMutex
	records map[string]*store.PlanRecord
}

var _ store.PlanStore = (*MemoryPlanStore)(nil)

// NewMemoryPlanStore creates an empty in-memory plan store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{
		records: make(map[string]*store.PlanRecord),
	}
}

// Save stores a plan record, replacing any previous snapshot.
func (s *MemoryPlanStore) Save(ctx context.Context, record *store.PlanRecord) error {
	if record.PlanID == "" {
		return fmt.Errorf("plan record has no plan ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[record.PlanID] = &copied
	return nil
}

// Load retrieves the latest snapshot of a plan.
func (s *MemoryPlanStore) Load(ctx context.Context, planID string) (*store.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[planID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, planID)
	}
	copied := *record
	return &copied, nil
}

// List returns the IDs of all stored plans.
func (s *MemoryPlanStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes a plan's snapshot.
func (s *MemoryPlanStore) Delete(ctx context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, planID)
	return nil
}
