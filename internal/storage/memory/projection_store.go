package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// ProjectionStore is an in-memory implementation of storage.ProjectionStore.
type ProjectionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProjectionPoint // keyed by (account_id, scenario_id, as_of, date)
}

// NewProjectionStore creates a new in-memory projection store.
func NewProjectionStore() *ProjectionStore {
	return &ProjectionStore{
		data: make(map[string]*domain.ProjectionPoint),
	}
}

// projectionKey generates a unique key for a projection point.
func projectionKey(p *domain.ProjectionPoint) string {
	return fmt.Sprintf("%s|%s|%s|%s", p.AccountID, p.ScenarioID, p.AsOf, p.Date)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *ProjectionStore) InsertBulk(_ context.Context, points []*domain.ProjectionPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.AccountID == "" || p.ScenarioID == "" || p.AsOf == "" || p.Date == "" {
			return storage.ErrInvalidInput
		}
		key := projectionKey(p)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[projectionKey(p)] = &pointCopy
	}

	return nil
}

// GetRun retrieves one projection run, ordered by date ASC.
func (s *ProjectionStore) GetRun(_ context.Context, accountID, scenarioID, asOf string) ([]*domain.ProjectionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.ProjectionPoint{}
	for _, p := range s.data {
		if p.AccountID == accountID && p.ScenarioID == scenarioID && p.AsOf == asOf {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result, nil
}

// GetLatestAsOf returns the most recent as_of for (account_id, scenario_id).
func (s *ProjectionStore) GetLatestAsOf(_ context.Context, accountID, scenarioID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := ""
	for _, p := range s.data {
		if p.AccountID == accountID && p.ScenarioID == scenarioID && p.AsOf > latest {
			latest = p.AsOf
		}
	}

	if latest == "" {
		return "", storage.ErrNotFound
	}
	return latest, nil
}

var _ storage.ProjectionStore = (*ProjectionStore)(nil)
