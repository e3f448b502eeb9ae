package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// ScheduledFlowStore implements storage.ScheduledFlowStore using PostgreSQL.
type ScheduledFlowStore struct {
	pool *Pool
}

// NewScheduledFlowStore creates a new ScheduledFlowStore.
func NewScheduledFlowStore(pool *Pool) *ScheduledFlowStore {
	return &ScheduledFlowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScheduledFlowStore = (*ScheduledFlowStore)(nil)

const insertFlowQuery = `
	INSERT INTO scheduled_flows (
		flow_id, account_id, description, amount, currency, frequency, start_date, end_date
	) VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8::date)
`

// Insert adds a new flow. Returns ErrDuplicateKey if flow_id exists.
// Returns ErrInvalidInput if the account does not exist.
func (s *ScheduledFlowStore) Insert(ctx context.Context, f *domain.ScheduledFlow) error {
	if f == nil || f.FlowID == "" || f.AccountID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertFlowQuery, flowArgs(f)...)
	if err != nil {
		return translateFlowError(err)
	}
	return nil
}

// InsertBulk adds multiple flows atomically. Fails entire batch on any duplicate.
func (s *ScheduledFlowStore) InsertBulk(ctx context.Context, flows []*domain.ScheduledFlow) error {
	if len(flows) == 0 {
		return nil
	}
	for _, f := range flows {
		if f == nil || f.FlowID == "" || f.AccountID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range flows {
		if _, err := tx.Exec(ctx, insertFlowQuery, flowArgs(f)...); err != nil {
			return translateFlowError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a flow. Returns ErrNotFound if not exists.
func (s *ScheduledFlowStore) Delete(ctx context.Context, flowID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scheduled_flows WHERE flow_id = $1`, flowID)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByAccount retrieves flows of an account, ordered by start_date ASC, flow_id ASC.
func (s *ScheduledFlowStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.ScheduledFlow, error) {
	query := `
		SELECT flow_id, account_id, description, amount, currency, frequency,
		       start_date::text, end_date::text
		FROM scheduled_flows
		WHERE account_id = $1
		ORDER BY start_date ASC, flow_id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get flows by account: %w", err)
	}
	defer rows.Close()

	return scanFlows(rows)
}

func flowArgs(f *domain.ScheduledFlow) []any {
	return []any{
		f.FlowID,
		f.AccountID,
		f.Description,
		f.Amount,
		f.Currency,
		string(f.Frequency),
		f.StartDate,
		f.EndDate,
	}
}

func translateFlowError(err error) error {
	switch {
	case isDuplicateKeyError(err):
		return storage.ErrDuplicateKey
	case isForeignKeyError(err):
		return fmt.Errorf("%w: unknown account", storage.ErrInvalidInput)
	}
	return fmt.Errorf("insert flow: %w", err)
}

// scanFlows scans multiple rows into a slice.
func scanFlows(rows pgx.Rows) ([]*domain.ScheduledFlow, error) {
	var flows []*domain.ScheduledFlow

	for rows.Next() {
		var f domain.ScheduledFlow
		var freq string

		err := rows.Scan(
			&f.FlowID,
			&f.AccountID,
			&f.Description,
			&f.Amount,
			&f.Currency,
			&freq,
			&f.StartDate,
			&f.EndDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flow row: %w", err)
		}

		f.Frequency = domain.Frequency(freq)
		flows = append(flows, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow rows: %w", err)
	}

	return flows, nil
}
