package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// MetricsSnapshotStore is an in-memory implementation of storage.MetricsSnapshotStore.
type MetricsSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MetricsSnapshot // keyed by (account_id, scenario_id, as_of)
}

// NewMetricsSnapshotStore creates a new in-memory snapshot store.
func NewMetricsSnapshotStore() *MetricsSnapshotStore {
	return &MetricsSnapshotStore{
		data: make(map[string]*domain.MetricsSnapshot),
	}
}

func snapshotKey(accountID, scenarioID, asOf string) string {
	return fmt.Sprintf("%s|%s|%s", accountID, scenarioID, asOf)
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if key exists.
func (s *MetricsSnapshotStore) Insert(_ context.Context, snap *domain.MetricsSnapshot) error {
	if snap == nil || snap.AccountID == "" || snap.ScenarioID == "" || snap.AsOf == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey(snap.AccountID, snap.ScenarioID, snap.AsOf)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	snapCopy := *snap
	s.data[key] = &snapCopy
	return nil
}

// Get retrieves a snapshot by its key. Returns ErrNotFound if not exists.
func (s *MetricsSnapshotStore) Get(_ context.Context, accountID, scenarioID, asOf string) (*domain.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[snapshotKey(accountID, scenarioID, asOf)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	snapCopy := *snap
	return &snapCopy, nil
}

// GetLatest retrieves the snapshot with the greatest as_of.
func (s *MetricsSnapshotStore) GetLatest(_ context.Context, accountID, scenarioID string) (*domain.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.MetricsSnapshot
	for _, snap := range s.data {
		if snap.AccountID != accountID || snap.ScenarioID != scenarioID {
			continue
		}
		if latest == nil || snap.AsOf > latest.AsOf {
			latest = snap
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// GetHistory retrieves snapshots with as_of within [from, to] (inclusive), ordered by as_of ASC.
func (s *MetricsSnapshotStore) GetHistory(_ context.Context, accountID, scenarioID, from, to string) ([]*domain.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MetricsSnapshot
	for _, snap := range s.data {
		if snap.AccountID == accountID && snap.ScenarioID == scenarioID && snap.AsOf >= from && snap.AsOf <= to {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AsOf < result[j].AsOf
	})

	return result, nil
}

var _ storage.MetricsSnapshotStore = (*MetricsSnapshotStore)(nil)
