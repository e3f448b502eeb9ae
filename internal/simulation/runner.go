package simulation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// Runner builds projections for stored accounts.
type Runner struct {
	accountStore    storage.AccountStore
	flowStore       storage.ScheduledFlowStore
	projectionStore storage.ProjectionStore
	rates           RateProvider
	baseCurrency    string
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	AccountStore    storage.AccountStore
	FlowStore       storage.ScheduledFlowStore
	ProjectionStore storage.ProjectionStore
	Rates           RateProvider // nil when every account uses BaseCurrency
	BaseCurrency    string
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		accountStore:    opts.AccountStore,
		flowStore:       opts.FlowStore,
		projectionStore: opts.ProjectionStore,
		rates:           opts.Rates,
		baseCurrency:    strings.ToUpper(opts.BaseCurrency),
	}
}

// Preview projects an account without persisting anything.
// Steps:
//  1. Load account and its scheduled flows
//  2. Resolve conversion rates to base currency
//  3. Simulate
func (r *Runner) Preview(ctx context.Context, accountID string, scenario domain.ScenarioConfig, asOf string, horizonDays int) (domain.ProjectionPoints, error) {
	account, err := r.accountStore.GetByID(ctx, accountID)
	if err != nil {
		return nil, err // propagates storage.ErrNotFound
	}

	flows, err := r.flowStore.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load flows for %s: %w", accountID, err)
	}

	toBase, err := r.resolveRates(ctx, account, flows)
	if err != nil {
		return nil, err
	}

	return Simulate(Input{
		Account:     account,
		Flows:       flows,
		Scenario:    scenario,
		AsOf:        asOf,
		HorizonDays: horizonDays,
		ToBase:      toBase,
	})
}

// Run projects an account and persists the run.
// Returns storage.ErrDuplicateKey (wrapped) if the run already exists.
func (r *Runner) Run(ctx context.Context, accountID string, scenario domain.ScenarioConfig, asOf string, horizonDays int) (domain.ProjectionPoints, error) {
	points, err := r.Preview(ctx, accountID, scenario, asOf, horizonDays)
	if err != nil {
		return nil, err
	}

	if err := r.projectionStore.InsertBulk(ctx, points); err != nil {
		return nil, fmt.Errorf("store projection %s/%s/%s: %w", accountID, scenario.ScenarioID, asOf, err)
	}

	return points, nil
}

// resolveRates returns a ToBase table covering the account and flow currencies.
// Returns nil when everything is already in base currency.
func (r *Runner) resolveRates(ctx context.Context, account *domain.Account, flows []*domain.ScheduledFlow) (map[string]decimal.Decimal, error) {
	currencies := map[string]struct{}{}
	add := func(c string) {
		c = strings.ToUpper(c)
		if c != "" && c != r.baseCurrency {
			currencies[c] = struct{}{}
		}
	}
	add(account.Currency)
	for _, f := range flows {
		add(f.Currency)
	}

	if len(currencies) == 0 {
		return nil, nil
	}
	if r.rates == nil {
		return nil, fmt.Errorf("%w: no rate provider for account %s", ErrMissingRate, account.AccountID)
	}

	toBase := map[string]decimal.Decimal{}
	if r.baseCurrency != "" {
		toBase[r.baseCurrency] = decimal.NewFromInt(1)
	}
	for c := range currencies {
		rate, err := r.rates.Rate(ctx, c, r.baseCurrency)
		if err != nil {
			return nil, fmt.Errorf("rate %s->%s: %w", c, r.baseCurrency, err)
		}
		toBase[c] = rate
	}
	return toBase, nil
}
