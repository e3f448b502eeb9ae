package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

func createTestSnapshot(accountID, asOf string, risk domain.RiskScore) *domain.MetricsSnapshot {
	return &domain.MetricsSnapshot{
		SnapshotID:  "snap-" + accountID + "-" + asOf,
		AccountID:   accountID,
		ScenarioID:  domain.ScenarioBaseline,
		AsOf:        asOf,
		HorizonDays: 90,
		Metrics: domain.CashFlowMetrics{
			LiquidityNow:        1500,
			WorstDayBalance:     -20.5,
			WorstDayDate:        "2024-02-03",
			DaysBelowZero:       2,
			AverageBalance:      980.25,
			Volatility:          310.4,
			TrendDirection:      domain.TrendDown,
			RiskScore:           risk,
			ProjectedEndBalance: 700,
		},
		CreatedAt: 1704067200000,
	}
}

func TestMetricsSnapshotStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMetricsSnapshotStore(pool)

	snap := createTestSnapshot("acc-1", "2024-01-01", domain.RiskHigh)
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.Get(ctx, "acc-1", domain.ScenarioBaseline, "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, snap.SnapshotID, got.SnapshotID)
	assert.Equal(t, snap.AsOf, got.AsOf)
	assert.Equal(t, snap.HorizonDays, got.HorizonDays)
	assert.Equal(t, snap.CreatedAt, got.CreatedAt)
	assert.InDelta(t, snap.Metrics.LiquidityNow, got.Metrics.LiquidityNow, 0.0001)
	assert.InDelta(t, snap.Metrics.WorstDayBalance, got.Metrics.WorstDayBalance, 0.0001)
	assert.Equal(t, snap.Metrics.WorstDayDate, got.Metrics.WorstDayDate)
	assert.Equal(t, snap.Metrics.DaysBelowZero, got.Metrics.DaysBelowZero)
	assert.InDelta(t, snap.Metrics.AverageBalance, got.Metrics.AverageBalance, 0.0001)
	assert.InDelta(t, snap.Metrics.Volatility, got.Metrics.Volatility, 0.0001)
	assert.Equal(t, domain.TrendDown, got.Metrics.TrendDirection)
	assert.Equal(t, domain.RiskHigh, got.Metrics.RiskScore)
	assert.InDelta(t, snap.Metrics.ProjectedEndBalance, got.Metrics.ProjectedEndBalance, 0.0001)

	assert.ErrorIs(t, store.Insert(ctx, snap), storage.ErrDuplicateKey)

	_, err = store.Get(ctx, "acc-1", domain.ScenarioBaseline, "2030-01-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMetricsSnapshotStore_LatestAndHistory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMetricsSnapshotStore(pool)

	_, err := store.GetLatest(ctx, "acc-1", domain.ScenarioBaseline)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, asOf := range []string{"2024-01-03", "2024-01-01", "2024-01-02", "2024-01-10"} {
		require.NoError(t, store.Insert(ctx, createTestSnapshot("acc-1", asOf, domain.RiskMedium)))
	}

	latest, err := store.GetLatest(ctx, "acc-1", domain.ScenarioBaseline)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", latest.AsOf)

	history, err := store.GetHistory(ctx, "acc-1", domain.ScenarioBaseline, "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-01-01", history[0].AsOf)
	assert.Equal(t, "2024-01-02", history[1].AsOf)
	assert.Equal(t, "2024-01-03", history[2].AsOf)
}
