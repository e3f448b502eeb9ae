package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// MetricsSnapshotStore implements storage.MetricsSnapshotStore using PostgreSQL.
type MetricsSnapshotStore struct {
	pool *Pool
}

// NewMetricsSnapshotStore creates a new MetricsSnapshotStore.
func NewMetricsSnapshotStore(pool *Pool) *MetricsSnapshotStore {
	return &MetricsSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MetricsSnapshotStore = (*MetricsSnapshotStore)(nil)

const snapshotSelect = `
	SELECT snapshot_id, account_id, scenario_id, as_of::text, horizon_days,
	       liquidity_now, worst_day_balance, worst_day_date, days_below_zero,
	       average_balance, volatility, trend_direction, risk_score,
	       projected_end_balance, created_at
	FROM metrics_snapshots
`

// Insert adds a new snapshot. Returns ErrDuplicateKey if (account_id, scenario_id, as_of) exists.
func (s *MetricsSnapshotStore) Insert(ctx context.Context, snap *domain.MetricsSnapshot) error {
	if snap == nil || snap.AccountID == "" || snap.ScenarioID == "" || snap.AsOf == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO metrics_snapshots (
			snapshot_id, account_id, scenario_id, as_of, horizon_days,
			liquidity_now, worst_day_balance, worst_day_date, days_below_zero,
			average_balance, volatility, trend_direction, risk_score,
			projected_end_balance, created_at
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	m := snap.Metrics
	_, err := s.pool.Exec(ctx, query,
		snap.SnapshotID,
		snap.AccountID,
		snap.ScenarioID,
		snap.AsOf,
		snap.HorizonDays,
		m.LiquidityNow,
		m.WorstDayBalance,
		m.WorstDayDate,
		m.DaysBelowZero,
		m.AverageBalance,
		m.Volatility,
		string(m.TrendDirection),
		string(m.RiskScore),
		m.ProjectedEndBalance,
		snap.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert metrics snapshot: %w", err)
	}
	return nil
}

// Get retrieves a snapshot by its key. Returns ErrNotFound if not exists.
func (s *MetricsSnapshotStore) Get(ctx context.Context, accountID, scenarioID, asOf string) (*domain.MetricsSnapshot, error) {
	query := snapshotSelect + `WHERE account_id = $1 AND scenario_id = $2 AND as_of = $3::date`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, accountID, scenarioID, asOf))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get metrics snapshot: %w", err)
	}
	return snap, nil
}

// GetLatest retrieves the snapshot with the greatest as_of. Returns ErrNotFound if none exists.
func (s *MetricsSnapshotStore) GetLatest(ctx context.Context, accountID, scenarioID string) (*domain.MetricsSnapshot, error) {
	query := snapshotSelect + `
		WHERE account_id = $1 AND scenario_id = $2
		ORDER BY as_of DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, accountID, scenarioID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest metrics snapshot: %w", err)
	}
	return snap, nil
}

// GetHistory retrieves snapshots with as_of within [from, to] (inclusive), ordered by as_of ASC.
func (s *MetricsSnapshotStore) GetHistory(ctx context.Context, accountID, scenarioID, from, to string) ([]*domain.MetricsSnapshot, error) {
	query := snapshotSelect + `
		WHERE account_id = $1 AND scenario_id = $2
		  AND as_of >= $3::date AND as_of <= $4::date
		ORDER BY as_of ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID, scenarioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get metrics history: %w", err)
	}
	defer rows.Close()

	var result []*domain.MetricsSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metrics snapshot row: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics snapshot rows: %w", err)
	}

	return result, nil
}

// scanSnapshot scans a single row into a MetricsSnapshot.
func scanSnapshot(row pgx.Row) (*domain.MetricsSnapshot, error) {
	var snap domain.MetricsSnapshot
	var trend, risk string
	m := &snap.Metrics

	err := row.Scan(
		&snap.SnapshotID,
		&snap.AccountID,
		&snap.ScenarioID,
		&snap.AsOf,
		&snap.HorizonDays,
		&m.LiquidityNow,
		&m.WorstDayBalance,
		&m.WorstDayDate,
		&m.DaysBelowZero,
		&m.AverageBalance,
		&m.Volatility,
		&trend,
		&risk,
		&m.ProjectedEndBalance,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.TrendDirection = domain.TrendDirection(trend)
	m.RiskScore = domain.RiskScore(risk)
	return &snap, nil
}
