package storage

import (
	"context"

	"finance-dashboard/internal/domain"
)

// AccountStore provides access to accounts storage.
type AccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if account_id exists.
	Insert(ctx context.Context, a *domain.Account) error

	// Update replaces name, kind, currency and balance. Returns ErrNotFound if not exists.
	Update(ctx context.Context, a *domain.Account) error

	// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)

	// List retrieves all accounts, ordered by account_id ASC.
	List(ctx context.Context) ([]*domain.Account, error)
}

// ScheduledFlowStore provides access to scheduled_flows storage.
type ScheduledFlowStore interface {
	// Insert adds a new flow. Returns ErrDuplicateKey if flow_id exists.
	Insert(ctx context.Context, f *domain.ScheduledFlow) error

	// InsertBulk adds multiple flows atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, flows []*domain.ScheduledFlow) error

	// Delete removes a flow. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, flowID string) error

	// GetByAccount retrieves flows of an account, ordered by start_date ASC, flow_id ASC.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.ScheduledFlow, error)
}

// ProjectionStore provides access to balance_projections storage.
// Runs are append-only: a (account_id, scenario_id, as_of) run is written once.
type ProjectionStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate
	// (account_id, scenario_id, as_of, date).
	InsertBulk(ctx context.Context, points []*domain.ProjectionPoint) error

	// GetRun retrieves one projection run, ordered by date ASC.
	// Returns an empty slice if the run does not exist.
	GetRun(ctx context.Context, accountID, scenarioID, asOf string) ([]*domain.ProjectionPoint, error)

	// GetLatestAsOf returns the most recent as_of for (account_id, scenario_id).
	// Returns ErrNotFound if no run exists.
	GetLatestAsOf(ctx context.Context, accountID, scenarioID string) (string, error)
}

// MetricsSnapshotStore provides access to metrics_snapshots storage.
type MetricsSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if
	// (account_id, scenario_id, as_of) exists.
	Insert(ctx context.Context, s *domain.MetricsSnapshot) error

	// Get retrieves a snapshot by its key. Returns ErrNotFound if not exists.
	Get(ctx context.Context, accountID, scenarioID, asOf string) (*domain.MetricsSnapshot, error)

	// GetLatest retrieves the snapshot with the greatest as_of.
	// Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context, accountID, scenarioID string) (*domain.MetricsSnapshot, error)

	// GetHistory retrieves snapshots with as_of within [from, to] (inclusive), ordered by as_of ASC.
	GetHistory(ctx context.Context, accountID, scenarioID, from, to string) ([]*domain.MetricsSnapshot, error)
}
