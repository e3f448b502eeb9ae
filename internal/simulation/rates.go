package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate exists for a currency.
var ErrUnknownCurrency = errors.New("unknown currency")

// RateProvider converts between currencies.
// Rate returns how many units of to one unit of from is worth.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// StaticRates is a fixed rate table expressed against a base currency.
type StaticRates struct {
	base  string
	rates map[string]decimal.Decimal // units of base per one unit of currency
}

// NewStaticRates creates a rate table. rates maps currency code to
// units of base per one unit; base itself is implied at 1.
func NewStaticRates(base string, rates map[string]float64) *StaticRates {
	s := &StaticRates{
		base:  strings.ToUpper(base),
		rates: make(map[string]decimal.Decimal, len(rates)+1),
	}
	for code, v := range rates {
		s.rates[strings.ToUpper(code)] = decimal.NewFromFloat(v)
	}
	s.rates[s.base] = decimal.NewFromInt(1)
	return s
}

// Rate returns the conversion factor from one currency to another.
func (s *StaticRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rf, ok := s.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	rt, ok := s.rates[to]
	if !ok || rt.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return rf.Div(rt), nil
}

var _ RateProvider = (*StaticRates)(nil)
