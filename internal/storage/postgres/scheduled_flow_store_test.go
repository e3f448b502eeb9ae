package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

func TestScheduledFlowStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	accountID := createTestAccount(t, ctx, pool, "flow-acc-1")
	store := NewScheduledFlowStore(pool)

	flows := []*domain.ScheduledFlow{
		{FlowID: "salary", AccountID: accountID, Description: "Salary", Amount: 3200, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-25"},
		{FlowID: "rent", AccountID: accountID, Description: "Rent", Amount: -1400, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-01"},
		{FlowID: "trip", AccountID: accountID, Description: "Trip", Amount: -600, Currency: "EUR", Frequency: domain.FrequencyOnce, StartDate: "2024-03-10", EndDate: ptr("2024-03-10")},
	}
	require.NoError(t, store.InsertBulk(ctx, flows))

	result, err := store.GetByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "rent", result[0].FlowID)
	assert.Equal(t, "salary", result[1].FlowID)
	assert.Equal(t, "trip", result[2].FlowID)

	assert.Equal(t, "2024-01-01", result[0].StartDate)
	assert.Nil(t, result[0].EndDate)
	require.NotNil(t, result[2].EndDate)
	assert.Equal(t, "2024-03-10", *result[2].EndDate)
	assert.Equal(t, "EUR", result[2].Currency)
	assert.Equal(t, domain.FrequencyOnce, result[2].Frequency)
	assert.InDelta(t, -600.0, result[2].Amount, 0.0001)
}

func TestScheduledFlowStore_BulkRollbackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	accountID := createTestAccount(t, ctx, pool, "flow-acc-2")
	store := NewScheduledFlowStore(pool)

	flows := []*domain.ScheduledFlow{
		{FlowID: "f1", AccountID: accountID, Amount: 1, Frequency: domain.FrequencyDaily, StartDate: "2024-01-01"},
		{FlowID: "f1", AccountID: accountID, Amount: 2, Frequency: domain.FrequencyDaily, StartDate: "2024-01-01"},
	}

	err := store.InsertBulk(ctx, flows)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestScheduledFlowStore_UnknownAccount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScheduledFlowStore(pool)
	err := store.Insert(context.Background(), &domain.ScheduledFlow{
		FlowID: "orphan", AccountID: "nobody", Amount: 1, Frequency: domain.FrequencyOnce, StartDate: "2024-01-01",
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestScheduledFlowStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	accountID := createTestAccount(t, ctx, pool, "flow-acc-3")
	store := NewScheduledFlowStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.ScheduledFlow{
		FlowID: "gone", AccountID: accountID, Amount: -9.99, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-15",
	}))

	require.NoError(t, store.Delete(ctx, "gone"))
	assert.ErrorIs(t, store.Delete(ctx, "gone"), storage.ErrNotFound)
}
