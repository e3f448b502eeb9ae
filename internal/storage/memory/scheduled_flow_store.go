package memory

import (
	"context"
	"sort"
	"sync"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// ScheduledFlowStore is an in-memory implementation of storage.ScheduledFlowStore.
type ScheduledFlowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScheduledFlow // keyed by flow_id
}

// NewScheduledFlowStore creates a new in-memory scheduled flow store.
func NewScheduledFlowStore() *ScheduledFlowStore {
	return &ScheduledFlowStore{
		data: make(map[string]*domain.ScheduledFlow),
	}
}

// copyFlow returns a deep copy, including the optional end date.
func copyFlow(f *domain.ScheduledFlow) *domain.ScheduledFlow {
	flowCopy := *f
	if f.EndDate != nil {
		end := *f.EndDate
		flowCopy.EndDate = &end
	}
	return &flowCopy
}

// Insert adds a new flow. Returns ErrDuplicateKey if flow_id exists.
func (s *ScheduledFlowStore) Insert(_ context.Context, f *domain.ScheduledFlow) error {
	if f == nil || f.FlowID == "" || f.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.FlowID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[f.FlowID] = copyFlow(f)
	return nil
}

// InsertBulk adds multiple flows. Fails entire batch on duplicate.
func (s *ScheduledFlowStore) InsertBulk(_ context.Context, flows []*domain.ScheduledFlow) error {
	if len(flows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(flows))

	// First pass: validate and check for duplicates (existing + intra-batch)
	for _, f := range flows {
		if f == nil || f.FlowID == "" || f.AccountID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[f.FlowID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[f.FlowID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[f.FlowID] = struct{}{}
	}

	// Second pass: insert all
	for _, f := range flows {
		s.data[f.FlowID] = copyFlow(f)
	}

	return nil
}

// Delete removes a flow. Returns ErrNotFound if not exists.
func (s *ScheduledFlowStore) Delete(_ context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[flowID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, flowID)
	return nil
}

// GetByAccount retrieves flows of an account, ordered by start_date ASC, flow_id ASC.
func (s *ScheduledFlowStore) GetByAccount(_ context.Context, accountID string) ([]*domain.ScheduledFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScheduledFlow
	for _, f := range s.data {
		if f.AccountID == accountID {
			result = append(result, copyFlow(f))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate != result[j].StartDate {
			return result[i].StartDate < result[j].StartDate
		}
		return result[i].FlowID < result[j].FlowID
	})

	return result, nil
}

var _ storage.ScheduledFlowStore = (*ScheduledFlowStore)(nil)
