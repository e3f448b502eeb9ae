package main

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/fixtures"
	"finance-dashboard/internal/logging"
	"finance-dashboard/internal/orchestrator"
	"finance-dashboard/internal/simulation"
	"finance-dashboard/internal/storage/memory"
)

func TestServer_RunForecastUpdatesStatus(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	flows := memory.NewScheduledFlowStore()
	require.NoError(t, fixtures.Load(ctx, accounts, flows))

	orch := orchestrator.New(orchestrator.Options{
		AccountStore:    accounts,
		FlowStore:       flows,
		ProjectionStore: memory.NewProjectionStore(),
		SnapshotStore:   memory.NewMetricsSnapshotStore(),
		Rates:           simulation.NewStaticRates(fixtures.BaseCurrency, fixtures.Rates()),
		BaseCurrency:    fixtures.BaseCurrency,
		HorizonDays:     30,
		Logger:          logging.Discard(),
		Now:             func() time.Time { return time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC) },
	})
	s := &Server{orch: orch, log: logging.Discard(), started: time.Now()}

	before := s.status()
	assert.Equal(t, 0, before.ForecastRuns)
	assert.Empty(t, before.LastAsOf)

	s.runForecast(ctx)

	st := s.status()
	assert.Equal(t, "running", st.Status)
	assert.Equal(t, 1, st.ForecastRuns)
	assert.False(t, st.ForecastRunning)
	assert.Empty(t, st.LastError)
	assert.Equal(t, "2024-03-01", st.LastAsOf)
	assert.Equal(t, len(fixtures.Accounts()), st.LastSnapshots)
}

func TestKVFields(t *testing.T) {
	f := kvFields([]interface{}{"entry", 3, "next", "soon", 42, "skipped", "dangling"})
	assert.Equal(t, logrus.Fields{"entry": 3, "next": "soon"}, f)
}
