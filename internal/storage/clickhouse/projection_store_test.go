package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

func makeRun(accountID, asOf string, dates ...string) []*domain.ProjectionPoint {
	points := make([]*domain.ProjectionPoint, len(dates))
	for i, d := range dates {
		points[i] = &domain.ProjectionPoint{
			AccountID:  accountID,
			ScenarioID: domain.ScenarioBaseline,
			AsOf:       asOf,
			Date:       d,
			Total:      1000 - float64(i)*125.5,
			Inflow:     0,
			Outflow:    125.5,
		}
	}
	return points
}

func TestProjectionStore_InsertBulkAndGetRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectionStore(conn)

	points := makeRun("acc-1", "2024-01-01", "2024-01-01", "2024-01-02", "2024-01-03")
	require.NoError(t, store.InsertBulk(ctx, points))

	run, err := store.GetRun(ctx, "acc-1", domain.ScenarioBaseline, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, run, 3)

	for i, p := range run {
		assert.Equal(t, points[i].Date, p.Date)
		assert.Equal(t, "2024-01-01", p.AsOf)
		assert.InDelta(t, points[i].Total, p.Total, 0.0001)
		assert.InDelta(t, 125.5, p.Outflow, 0.0001)
	}
}

func TestProjectionStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectionStore(conn)

	points := makeRun("acc-1", "2024-01-01", "2024-01-01", "2024-01-02")
	require.NoError(t, store.InsertBulk(ctx, points))

	err := store.InsertBulk(ctx, makeRun("acc-1", "2024-01-01", "2024-01-02"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, makeRun("acc-2", "2024-01-01", "2024-01-05", "2024-01-05"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	run, err := store.GetRun(ctx, "acc-2", domain.ScenarioBaseline, "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, run)
}

func TestProjectionStore_GetLatestAsOf(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProjectionStore(conn)

	_, err := store.GetLatestAsOf(ctx, "acc-1", domain.ScenarioBaseline)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.InsertBulk(ctx, makeRun("acc-1", "2024-01-01", "2024-01-01")))
	require.NoError(t, store.InsertBulk(ctx, makeRun("acc-1", "2024-01-08", "2024-01-08")))

	latest, err := store.GetLatestAsOf(ctx, "acc-1", domain.ScenarioBaseline)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", latest)
}

func TestProjectionStore_InsertBulkRejectsBadDatesBeforeBatch(t *testing.T) {
	// nil connection: validation must fail before any query is prepared
	store := NewProjectionStore(nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		points []*domain.ProjectionPoint
	}{
		{"bad date", makeRun("acc-1", "2024-01-01", "2024-01-01", "01/02/2024")},
		{"bad as_of", makeRun("acc-1", "2024-13-01", "2024-01-01")},
		{"missing account", makeRun("", "2024-01-01", "2024-01-01")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.InsertBulk(ctx, tt.points)
			assert.ErrorIs(t, err, storage.ErrInvalidInput)
		})
	}
}
