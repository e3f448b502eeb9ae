package domain

// ProjectionPoint is one projected day of an account under a scenario.
// Corresponds to balance_projections table in ClickHouse.
type ProjectionPoint struct {
	AccountID  string  // account identifier
	ScenarioID string  // scenario identifier
	AsOf       string  // day 0 of the projection run (YYYY-MM-DD)
	Date       string  // projected day (YYYY-MM-DD)
	Total      float64 // end-of-day balance in base currency
	Inflow     float64 // sum of incoming flows on this day
	Outflow    float64 // sum of outgoing flows on this day (positive number)
}

// ProjectionPoints is one projection run ordered by date.
type ProjectionPoints []*ProjectionPoint

// Series converts a run into the balance series consumed by the metrics engine.
func (p ProjectionPoints) Series() BalanceSeries {
	series := make(BalanceSeries, 0, len(p))
	for _, pt := range p {
		series = append(series, BalancePoint{Date: pt.Date, Total: pt.Total})
	}
	return series
}
