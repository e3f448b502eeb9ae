package clickhouse

import (
	"context"
	"fmt"
	"time"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// ProjectionStore implements storage.ProjectionStore using ClickHouse.
type ProjectionStore struct {
	conn *Conn
}

// NewProjectionStore creates a new ProjectionStore.
func NewProjectionStore(conn *Conn) *ProjectionStore {
	return &ProjectionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ProjectionStore = (*ProjectionStore)(nil)

type runKey struct {
	accountID, scenarioID, asOf string
}

// InsertBulk adds multiple points. Fails entire batch on duplicate
// (account_id, scenario_id, as_of, date).
// MergeTree does not enforce keys, so duplicates are checked per run before insert.
func (s *ProjectionStore) InsertBulk(ctx context.Context, points []*domain.ProjectionPoint) error {
	if len(points) == 0 {
		return nil
	}

	type pointKey struct {
		run  runKey
		date string
	}
	type parsedDates struct {
		asOf, date time.Time
	}
	seen := make(map[pointKey]struct{}, len(points))
	runs := make(map[runKey]struct{})
	parsed := make([]parsedDates, len(points))
	for i, p := range points {
		if p == nil || p.AccountID == "" || p.ScenarioID == "" || p.AsOf == "" || p.Date == "" {
			return storage.ErrInvalidInput
		}
		asOf, err := time.Parse(domain.DateLayout, p.AsOf)
		if err != nil {
			return fmt.Errorf("%w: as_of %q", storage.ErrInvalidInput, p.AsOf)
		}
		date, err := time.Parse(domain.DateLayout, p.Date)
		if err != nil {
			return fmt.Errorf("%w: date %q", storage.ErrInvalidInput, p.Date)
		}
		parsed[i] = parsedDates{asOf: asOf, date: date}
		k := pointKey{runKey{p.AccountID, p.ScenarioID, p.AsOf}, p.Date}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[k.run] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for run := range runs {
		existing, err := s.existingDates(ctx, run)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, d := range existing {
			if _, clash := seen[pointKey{run, d}]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO balance_projections (
			account_id, scenario_id, as_of, date, total, inflow, outflow
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, p := range points {
		err = batch.Append(p.AccountID, p.ScenarioID, parsed[i].asOf, parsed[i].date, p.Total, p.Inflow, p.Outflow)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetRun retrieves one projection run, ordered by date ASC.
func (s *ProjectionStore) GetRun(ctx context.Context, accountID, scenarioID, asOf string) ([]*domain.ProjectionPoint, error) {
	query := `
		SELECT account_id, scenario_id, as_of, date, total, inflow, outflow
		FROM balance_projections
		WHERE account_id = ? AND scenario_id = ? AND as_of = toDate(?)
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID, scenarioID, asOf)
	if err != nil {
		return nil, fmt.Errorf("query projection run: %w", err)
	}
	defer rows.Close()

	return scanProjections(rows)
}

// GetLatestAsOf returns the most recent as_of for (account_id, scenario_id).
func (s *ProjectionStore) GetLatestAsOf(ctx context.Context, accountID, scenarioID string) (string, error) {
	query := `
		SELECT max(as_of), count(*)
		FROM balance_projections
		WHERE account_id = ? AND scenario_id = ?
	`

	var latest time.Time
	var count uint64
	if err := s.conn.QueryRow(ctx, query, accountID, scenarioID).Scan(&latest, &count); err != nil {
		return "", fmt.Errorf("query latest as_of: %w", err)
	}
	if count == 0 {
		return "", storage.ErrNotFound
	}
	return latest.Format(domain.DateLayout), nil
}

// existingDates returns the dates already stored for a run.
func (s *ProjectionStore) existingDates(ctx context.Context, run runKey) ([]string, error) {
	query := `
		SELECT date FROM balance_projections
		WHERE account_id = ? AND scenario_id = ? AND as_of = toDate(?)
	`

	rows, err := s.conn.Query(ctx, query, run.accountID, run.scenarioID, run.asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d.Format(domain.DateLayout))
	}
	return dates, rows.Err()
}

// scanProjections scans multiple rows.
func scanProjections(rows chRows) ([]*domain.ProjectionPoint, error) {
	points := []*domain.ProjectionPoint{}

	for rows.Next() {
		var p domain.ProjectionPoint
		var asOf, date time.Time

		err := rows.Scan(&p.AccountID, &p.ScenarioID, &asOf, &date, &p.Total, &p.Inflow, &p.Outflow)
		if err != nil {
			return nil, fmt.Errorf("scan projection row: %w", err)
		}

		p.AsOf = asOf.Format(domain.DateLayout)
		p.Date = date.Format(domain.DateLayout)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection rows: %w", err)
	}

	return points, nil
}
