package simulation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finance-dashboard/internal/domain"
)

// MaxHorizonDays caps the projection length.
const MaxHorizonDays = 366

// Simulation errors
var (
	ErrInvalidHorizon = errors.New("invalid projection horizon")
	ErrInvalidDate    = errors.New("invalid date")
	ErrMissingRate    = errors.New("missing conversion rate")
	ErrNoAccount      = errors.New("account is required")
	ErrInvalidFlow    = errors.New("invalid scheduled flow")
)

// Input is everything a projection needs.
type Input struct {
	Account     *domain.Account
	Flows       []*domain.ScheduledFlow
	Scenario    domain.ScenarioConfig
	AsOf        string // day 0, the current balance day
	HorizonDays int    // number of points produced, including day 0

	// ToBase maps currency code to units of base currency per one unit.
	// Nil means every amount is already in base currency.
	ToBase map[string]decimal.Decimal
}

// Simulate projects end-of-day balances for Input.HorizonDays days.
// Point 0 is AsOf and carries the opening balance plus that day's flows.
// Balances accumulate in decimal and are rounded to cents on output.
func Simulate(in Input) (domain.ProjectionPoints, error) {
	if in.Account == nil {
		return nil, ErrNoAccount
	}
	if in.HorizonDays <= 0 || in.HorizonDays > MaxHorizonDays {
		return nil, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidHorizon, in.HorizonDays, MaxHorizonDays)
	}

	start, err := parseDate(in.AsOf)
	if err != nil {
		return nil, err
	}

	schedules := make([]schedule, 0, len(in.Flows))
	for _, f := range in.Flows {
		s, err := newSchedule(f)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	accountRate, err := rateFor(in.ToBase, in.Account.Currency)
	if err != nil {
		return nil, err
	}
	incomeFactor := decimal.NewFromFloat(in.Scenario.IncomeFactor)
	expenseFactor := decimal.NewFromFloat(in.Scenario.ExpenseFactor)

	balance := decimal.NewFromFloat(in.Account.Balance).Mul(accountRate)
	points := make(domain.ProjectionPoints, 0, in.HorizonDays)

	for i := 0; i < in.HorizonDays; i++ {
		day := start.AddDate(0, 0, i)
		inflow := decimal.Zero
		outflow := decimal.Zero

		for _, s := range schedules {
			if !s.occurs(day) {
				continue
			}
			cur := s.flow.Currency
			if cur == "" {
				cur = in.Account.Currency
			}
			rate, err := rateFor(in.ToBase, cur)
			if err != nil {
				return nil, err
			}

			amount := decimal.NewFromFloat(s.flow.Amount).Mul(rate)
			if amount.IsPositive() {
				inflow = inflow.Add(amount.Mul(incomeFactor))
			} else {
				outflow = outflow.Add(amount.Neg().Mul(expenseFactor))
			}
		}

		balance = balance.Add(inflow).Sub(outflow)
		points = append(points, &domain.ProjectionPoint{
			AccountID:  in.Account.AccountID,
			ScenarioID: in.Scenario.ScenarioID,
			AsOf:       in.AsOf,
			Date:       day.Format(domain.DateLayout),
			Total:      balance.Round(2).InexactFloat64(),
			Inflow:     inflow.Round(2).InexactFloat64(),
			Outflow:    outflow.Round(2).InexactFloat64(),
		})
	}

	return points, nil
}

func rateFor(toBase map[string]decimal.Decimal, currency string) (decimal.Decimal, error) {
	if toBase == nil || currency == "" {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := toBase[strings.ToUpper(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingRate, currency)
	}
	return rate, nil
}
