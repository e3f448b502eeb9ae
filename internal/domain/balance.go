package domain

// DateLayout is the calendar date format used for balance points and projections.
const DateLayout = "2006-01-02"

// BalancePoint is one projected daily balance.
// Total is signed and expressed in the base currency.
type BalancePoint struct {
	Date  string  `json:"date"`  // ISO date (YYYY-MM-DD)
	Total float64 `json:"total"` // projected balance at end of day
}

// BalanceSeries is an ordered run of daily balances.
//
// Contract: a non-empty series is sorted by date ascending and element 0 is
// the current balance ("today"). Consumers trust this ordering; nothing here
// sorts or validates it.
type BalanceSeries []BalancePoint

// Current returns the point that represents today's balance.
func (s BalanceSeries) Current() (BalancePoint, bool) {
	if len(s) == 0 {
		return BalancePoint{}, false
	}
	return s[0], true
}

// End returns the last projected point.
func (s BalanceSeries) End() (BalancePoint, bool) {
	if len(s) == 0 {
		return BalancePoint{}, false
	}
	return s[len(s)-1], true
}
