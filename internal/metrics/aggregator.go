package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/idhash"
	"finance-dashboard/internal/storage"
)

// ErrNoProjection is returned when no projection run is available for aggregation.
var ErrNoProjection = errors.New("no projection available for aggregation")

// Aggregator computes metrics snapshots from stored projection runs.
type Aggregator struct {
	projectionStore storage.ProjectionStore
	snapshotStore   storage.MetricsSnapshotStore
	engine          Engine
	now             func() time.Time
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(projStore storage.ProjectionStore, snapStore storage.MetricsSnapshotStore, engine Engine) *Aggregator {
	return &Aggregator{
		projectionStore: projStore,
		snapshotStore:   snapStore,
		engine:          engine,
		now:             time.Now,
	}
}

// Engine returns the engine used for computations.
func (a *Aggregator) Engine() Engine {
	return a.engine
}

// ComputeSnapshot computes the snapshot for one (account_id, scenario_id, as_of) run.
// Returns ErrNoProjection if the run has no points.
func (a *Aggregator) ComputeSnapshot(ctx context.Context, accountID, scenarioID, asOf string) (*domain.MetricsSnapshot, error) {
	run, err := a.projectionStore.GetRun(ctx, accountID, scenarioID, asOf)
	if err != nil {
		return nil, fmt.Errorf("load projection run: %w", err)
	}
	if len(run) == 0 {
		return nil, ErrNoProjection
	}

	return a.snapshotFromPoints(accountID, scenarioID, asOf, run), nil
}

// ComputeLatest computes the snapshot for the most recent run.
func (a *Aggregator) ComputeLatest(ctx context.Context, accountID, scenarioID string) (*domain.MetricsSnapshot, error) {
	asOf, err := a.projectionStore.GetLatestAsOf(ctx, accountID, scenarioID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoProjection
		}
		return nil, err
	}
	return a.ComputeSnapshot(ctx, accountID, scenarioID, asOf)
}

// ComputeAndStore computes the snapshot for a run and persists it.
// Returns storage.ErrDuplicateKey if the snapshot already exists.
func (a *Aggregator) ComputeAndStore(ctx context.Context, accountID, scenarioID, asOf string) (*domain.MetricsSnapshot, error) {
	snap, err := a.ComputeSnapshot(ctx, accountID, scenarioID, asOf)
	if err != nil {
		return nil, err
	}

	if err := a.snapshotStore.Insert(ctx, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

// SnapshotFromPoints builds a snapshot from an in-memory run without touching storage.
func (a *Aggregator) SnapshotFromPoints(points domain.ProjectionPoints) (*domain.MetricsSnapshot, error) {
	if len(points) == 0 {
		return nil, ErrNoProjection
	}
	first := points[0]
	return a.snapshotFromPoints(first.AccountID, first.ScenarioID, first.AsOf, points), nil
}

func (a *Aggregator) snapshotFromPoints(accountID, scenarioID, asOf string, run domain.ProjectionPoints) *domain.MetricsSnapshot {
	return &domain.MetricsSnapshot{
		SnapshotID:  idhash.ComputeSnapshotID(accountID, scenarioID, asOf),
		AccountID:   accountID,
		ScenarioID:  scenarioID,
		AsOf:        asOf,
		HorizonDays: len(run),
		Metrics:     a.engine.Compute(run.Series()),
		CreatedAt:   a.now().UnixMilli(),
	}
}
