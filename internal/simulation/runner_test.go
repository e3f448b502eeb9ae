package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
	"finance-dashboard/internal/storage/memory"
)

type testStores struct {
	accounts    *memory.AccountStore
	flows       *memory.ScheduledFlowStore
	projections *memory.ProjectionStore
}

func newTestStores(t *testing.T) testStores {
	t.Helper()
	ctx := context.Background()
	s := testStores{
		accounts:    memory.NewAccountStore(),
		flows:       memory.NewScheduledFlowStore(),
		projections: memory.NewProjectionStore(),
	}

	require.NoError(t, s.accounts.Insert(ctx, &domain.Account{AccountID: "acc-1", Currency: "EUR", Balance: 100}))
	require.NoError(t, s.flows.InsertBulk(ctx, []*domain.ScheduledFlow{
		{FlowID: "f1", AccountID: "acc-1", Amount: -10, Frequency: domain.FrequencyDaily, StartDate: "2024-01-01"},
	}))
	return s
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	s := newTestStores(t)

	runner := NewRunner(RunnerOptions{
		AccountStore:    s.accounts,
		FlowStore:       s.flows,
		ProjectionStore: s.projections,
		Rates:           NewStaticRates("USD", map[string]float64{"EUR": 2}),
		BaseCurrency:    "USD",
	})

	points, err := runner.Run(ctx, "acc-1", domain.ScenarioConfigBaseline, "2024-01-01", 5)
	require.NoError(t, err)
	require.Len(t, points, 5)

	// 100 EUR = 200 USD, -20 USD per day
	assert.Equal(t, 180.0, points[0].Total)
	assert.Equal(t, 100.0, points[4].Total)

	stored, err := s.projections.GetRun(ctx, "acc-1", domain.ScenarioBaseline, "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	// Second run for the same day is rejected
	_, err = runner.Run(ctx, "acc-1", domain.ScenarioConfigBaseline, "2024-01-01", 5)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)
}

func TestRunner_Preview_DoesNotPersist(t *testing.T) {
	ctx := context.Background()
	s := newTestStores(t)

	runner := NewRunner(RunnerOptions{
		AccountStore:    s.accounts,
		FlowStore:       s.flows,
		ProjectionStore: s.projections,
		Rates:           NewStaticRates("EUR", nil),
		BaseCurrency:    "EUR",
	})

	points, err := runner.Preview(ctx, "acc-1", domain.ScenarioConfigBaseline, "2024-01-01", 3)
	require.NoError(t, err)
	assert.Len(t, points, 3)

	_, err = s.projections.GetLatestAsOf(ctx, "acc-1", domain.ScenarioBaseline)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunner_AccountNotFound(t *testing.T) {
	s := newTestStores(t)
	runner := NewRunner(RunnerOptions{AccountStore: s.accounts, FlowStore: s.flows, ProjectionStore: s.projections})

	_, err := runner.Preview(context.Background(), "missing", domain.ScenarioConfigBaseline, "2024-01-01", 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunner_MissingRateProvider(t *testing.T) {
	s := newTestStores(t)
	runner := NewRunner(RunnerOptions{
		AccountStore:    s.accounts,
		FlowStore:       s.flows,
		ProjectionStore: s.projections,
		BaseCurrency:    "USD",
	})

	_, err := runner.Preview(context.Background(), "acc-1", domain.ScenarioConfigBaseline, "2024-01-01", 3)
	assert.ErrorIs(t, err, ErrMissingRate)
}
