package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/lookup"
	"finance-dashboard/internal/storage"
)

// Generator produces reports from stored forecasts.
type Generator struct {
	accountStore    storage.AccountStore
	projectionStore storage.ProjectionStore
	snapshotStore   storage.MetricsSnapshotStore
	offsets         []int
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	accountStore storage.AccountStore,
	projStore storage.ProjectionStore,
	snapStore storage.MetricsSnapshotStore,
) *Generator {
	return &Generator{
		accountStore:    accountStore,
		projectionStore: projStore,
		snapshotStore:   snapStore,
		offsets:         lookup.DefaultCheckpointOffsets,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithCheckpoints overrides the checkpoint day offsets.
func (g *Generator) WithCheckpoints(offsets []int) *Generator {
	g.offsets = offsets
	return g
}

// Generate builds the report for a scenario from each account's latest snapshot.
func (g *Generator) Generate(ctx context.Context, scenarioID string) (*Report, error) {
	accounts, err := g.accountStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		ScenarioID:  scenarioID,
	}

	for _, acc := range accounts {
		snap, err := g.snapshotStore.GetLatest(ctx, acc.AccountID, scenarioID)
		if errors.Is(err, storage.ErrNotFound) {
			report.MissingForecasts = append(report.MissingForecasts, acc.AccountID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest snapshot %s: %w", acc.AccountID, err)
		}

		row := AccountRow{
			AccountID:   acc.AccountID,
			Name:        acc.Name,
			AsOf:        snap.AsOf,
			HorizonDays: snap.HorizonDays,
			Metrics:     snap.Metrics,
		}

		run, err := g.projectionStore.GetRun(ctx, acc.AccountID, scenarioID, snap.AsOf)
		if err != nil {
			return nil, fmt.Errorf("projection run %s: %w", acc.AccountID, err)
		}
		if len(run) > 0 {
			row.Checkpoints, err = lookup.Checkpoints(domain.ProjectionPoints(run).Series(), g.offsets)
			if err != nil {
				return nil, fmt.Errorf("checkpoints %s: %w", acc.AccountID, err)
			}
		}

		report.Rows = append(report.Rows, row)
	}

	sortRows(report.Rows)
	report.Summary = summarize(report.Rows)
	return report, nil
}

func summarize(rows []AccountRow) Summary {
	s := Summary{Accounts: len(rows)}
	for _, r := range rows {
		switch r.Metrics.RiskScore {
		case domain.RiskHigh:
			s.HighRisk++
		case domain.RiskMedium:
			s.MediumRisk++
		default:
			s.LowRisk++
		}
		if r.Metrics.DaysBelowZero > 0 {
			s.AccountsBelowZero++
		}
		s.TotalLiquidity += r.Metrics.LiquidityNow
		s.TotalProjectedEnd += r.Metrics.ProjectedEndBalance
	}
	return s
}

// sortRows orders by risk (high first), then account_id.
func sortRows(rows []AccountRow) {
	rank := map[domain.RiskScore]int{domain.RiskHigh: 0, domain.RiskMedium: 1, domain.RiskLow: 2}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank[rows[i].Metrics.RiskScore], rank[rows[j].Metrics.RiskScore]
		if ri != rj {
			return ri < rj
		}
		return rows[i].AccountID < rows[j].AccountID
	})
}
