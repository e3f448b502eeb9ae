// Package orchestrator runs the daily forecast for every tracked account.
// It coordinates: simulation → metrics aggregation → risk alerts
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/logging"
	"finance-dashboard/internal/metrics"
	"finance-dashboard/internal/notify"
	"finance-dashboard/internal/observability"
	"finance-dashboard/internal/simulation"
	"finance-dashboard/internal/storage"
)

// Orchestrator coordinates forecast execution.
// Flow: projection run → metrics snapshot → alert on transition to high risk
type Orchestrator struct {
	accountStore  storage.AccountStore
	snapshotStore storage.MetricsSnapshotStore

	runner     *simulation.Runner
	aggregator *metrics.Aggregator

	scenarioConfigs []domain.ScenarioConfig
	horizonDays     int

	notifier   notify.Notifier
	onSnapshot func(*domain.MetricsSnapshot)
	metrics    *observability.Metrics
	tracer     trace.Tracer
	log        logrus.FieldLogger
	now        func() time.Time

	mu     sync.Mutex // serializes runs
	lastMu sync.RWMutex
	last   *RunResult
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	AccountStore    storage.AccountStore
	FlowStore       storage.ScheduledFlowStore
	ProjectionStore storage.ProjectionStore
	SnapshotStore   storage.MetricsSnapshotStore

	// Currency conversion; Rates may be nil when all accounts use BaseCurrency
	Rates        simulation.RateProvider
	BaseCurrency string

	Engine          metrics.Engine // zero value means DefaultThresholds
	ScenarioConfigs []domain.ScenarioConfig
	HorizonDays     int

	// Optional
	Notifier   notify.Notifier               // nil disables alerts
	OnSnapshot func(*domain.MetricsSnapshot) // called for every new snapshot
	Metrics    *observability.Metrics
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Engine == (metrics.Engine{}) {
		opts.Engine = metrics.NewEngine(metrics.DefaultThresholds())
	}
	o := &Orchestrator{
		accountStore:  opts.AccountStore,
		snapshotStore: opts.SnapshotStore,
		runner: simulation.NewRunner(simulation.RunnerOptions{
			AccountStore:    opts.AccountStore,
			FlowStore:       opts.FlowStore,
			ProjectionStore: opts.ProjectionStore,
			Rates:           opts.Rates,
			BaseCurrency:    opts.BaseCurrency,
		}),
		aggregator:      metrics.NewAggregator(opts.ProjectionStore, opts.SnapshotStore, opts.Engine),
		scenarioConfigs: opts.ScenarioConfigs,
		horizonDays:     opts.HorizonDays,
		notifier:        opts.Notifier,
		onSnapshot:      opts.OnSnapshot,
		metrics:         opts.Metrics,
		tracer:          observability.Tracer(),
		log:             opts.Logger,
		now:             opts.Now,
	}

	if o.metrics == nil {
		o.metrics = observability.DefaultMetrics
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if len(o.scenarioConfigs) == 0 {
		o.scenarioConfigs = []domain.ScenarioConfig{domain.ScenarioConfigBaseline}
	}
	if o.horizonDays <= 0 {
		o.horizonDays = 90
	}
	return o
}

// Runner exposes the simulation runner for live previews.
func (o *Orchestrator) Runner() *simulation.Runner {
	return o.runner
}

// Aggregator exposes the metrics aggregator.
func (o *Orchestrator) Aggregator() *metrics.Aggregator {
	return o.aggregator
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	AsOf               string
	StartedAt          time.Time
	Duration           time.Duration
	AccountsProcessed  int
	ProjectionsCreated int
	ProjectionsReused  int
	SnapshotsCreated   int
	AlertsSent         int
	Snapshots          []*domain.MetricsSnapshot
	Errors             []string
}

// Run forecasts every account under every configured scenario.
// Per-account failures are collected in RunResult.Errors. Cancellation
// stops the run between accounts and returns the partial result.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := o.newResult()
	log := o.log.WithField("as_of", result.AsOf)

	accounts, err := o.accountStore.List(ctx)
	if err != nil {
		o.finish(result, err)
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	log.WithField("accounts", len(accounts)).Info("forecast run started")

	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			o.finish(result, err)
			return result, err
		}
		o.runAccount(ctx, acc, result)
	}

	o.finish(result, nil)
	log.WithFields(logrus.Fields{
		"accounts":  result.AccountsProcessed,
		"snapshots": result.SnapshotsCreated,
		"alerts":    result.AlertsSent,
		"errors":    len(result.Errors),
		"duration":  result.Duration.String(),
	}).Info("forecast run completed")

	return result, nil
}

// RunAccount forecasts a single account.
// Returns storage.ErrNotFound if the account does not exist.
func (o *Orchestrator) RunAccount(ctx context.Context, accountID string) (*RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	acc, err := o.accountStore.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := o.newResult()
	o.runAccount(ctx, acc, result)
	result.Duration = time.Since(result.StartedAt)
	return result, nil
}

// LastResult returns the result of the most recent full run, or nil.
func (o *Orchestrator) LastResult() *RunResult {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	return o.last
}

func (o *Orchestrator) newResult() *RunResult {
	now := o.now()
	return &RunResult{
		AsOf:      now.UTC().Format(domain.DateLayout),
		StartedAt: now,
	}
}

func (o *Orchestrator) finish(result *RunResult, err error) {
	result.Duration = time.Since(result.StartedAt)

	status := "success"
	switch {
	case err != nil:
		status = "failed"
	case len(result.Errors) > 0:
		status = "partial"
	}
	o.metrics.RecordForecastRun(status, result.Duration)

	o.lastMu.Lock()
	o.last = result
	o.lastMu.Unlock()
}

// runAccount processes all scenarios of one account inside a span.
func (o *Orchestrator) runAccount(ctx context.Context, acc *domain.Account, result *RunResult) {
	ctx, span := o.tracer.Start(ctx, "forecast.account", trace.WithAttributes(
		attribute.String("account.id", acc.AccountID),
		attribute.String("forecast.as_of", result.AsOf),
		attribute.Int("forecast.horizon_days", o.horizonDays),
	))
	defer span.End()

	result.AccountsProcessed++
	failed := 0

	for _, sc := range o.scenarioConfigs {
		if err := o.runScenario(ctx, acc, sc, result); err != nil {
			failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", acc.AccountID, sc.ScenarioID, err))
			span.RecordError(err)
			o.log.WithError(err).WithFields(logrus.Fields{
				"account_id":  acc.AccountID,
				"scenario_id": sc.ScenarioID,
			}).Error("forecast failed")
		}
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d scenario(s) failed", failed))
	}
}

// runScenario executes one (account, scenario) forecast.
// Steps:
//  1. Remember previous snapshot risk
//  2. Simulate and store projection (existing run for as_of is reused)
//  3. Compute and store snapshot
//  4. Alert when risk turns high
func (o *Orchestrator) runScenario(ctx context.Context, acc *domain.Account, sc domain.ScenarioConfig, result *RunResult) error {
	asOf := result.AsOf

	var prevRisk domain.RiskScore
	prev, err := o.snapshotStore.GetLatest(ctx, acc.AccountID, sc.ScenarioID)
	switch {
	case err == nil:
		prevRisk = prev.Metrics.RiskScore
	case !errors.Is(err, storage.ErrNotFound):
		o.metrics.RecordAccountError("load_snapshot")
		return fmt.Errorf("load previous snapshot: %w", err)
	}

	points, err := o.runner.Run(ctx, acc.AccountID, sc, asOf, o.horizonDays)
	switch {
	case err == nil:
		result.ProjectionsCreated++
		o.metrics.ProjectionPoints.Add(float64(len(points)))
	case errors.Is(err, storage.ErrDuplicateKey):
		result.ProjectionsReused++
	default:
		o.metrics.RecordAccountError("simulate")
		return fmt.Errorf("simulate: %w", err)
	}

	snap, err := o.aggregator.ComputeAndStore(ctx, acc.AccountID, sc.ScenarioID, asOf)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Already computed for as_of; nothing changed.
			return nil
		}
		o.metrics.RecordAccountError("aggregate")
		return fmt.Errorf("aggregate: %w", err)
	}

	result.SnapshotsCreated++
	result.Snapshots = append(result.Snapshots, snap)
	o.metrics.RecordSnapshot(string(snap.Metrics.RiskScore))
	if o.onSnapshot != nil {
		o.onSnapshot(snap)
	}

	if snap.Metrics.RiskScore == domain.RiskHigh && prevRisk != domain.RiskHigh {
		o.alert(ctx, acc, snap, prevRisk, result)
	}
	return nil
}

// alert notifies about a transition to high risk. Delivery failures are
// logged and counted but do not fail the forecast.
func (o *Orchestrator) alert(ctx context.Context, acc *domain.Account, snap *domain.MetricsSnapshot, prevRisk domain.RiskScore, result *RunResult) {
	if o.notifier == nil {
		return
	}

	err := o.notifier.NotifyRisk(ctx, notify.Alert{
		AccountID:    acc.AccountID,
		AccountName:  acc.Name,
		ScenarioID:   snap.ScenarioID,
		AsOf:         snap.AsOf,
		PreviousRisk: prevRisk,
		Metrics:      snap.Metrics,
	})
	if err != nil {
		o.metrics.RecordAlert("failed")
		o.log.WithError(err).WithField("account_id", acc.AccountID).Warn("risk alert not delivered")
		return
	}

	o.metrics.RecordAlert("sent")
	result.AlertsSent++
}
