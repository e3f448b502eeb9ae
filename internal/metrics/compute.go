package metrics

import (
	"math"

	"finance-dashboard/internal/domain"
)

// Thresholds are the risk and trend policy values, in base currency units
// and decimal ratios (0.1 means 10%).
type Thresholds struct {
	HighRiskFloor   float64 // worst day below this is high risk
	MediumRiskFloor float64 // worst day below this is medium risk
	VolatilityRatio float64 // volatility above ratio*average is medium risk
	TrendRatio      float64 // |change| above ratio*average is a trend
}

// DefaultThresholds returns the standard dashboard policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighRiskFloor:   -1000,
		MediumRiskFloor: 500,
		VolatilityRatio: 0.5,
		TrendRatio:      0.1,
	}
}

// Engine derives cash-flow metrics using a fixed set of thresholds.
// The zero value is not useful; use NewEngine.
type Engine struct {
	th Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(th Thresholds) Engine {
	return Engine{th: th}
}

// Thresholds returns the policy the engine applies.
func (e Engine) Thresholds() Thresholds {
	return e.th
}

// ComputeMetrics computes metrics with DefaultThresholds.
func ComputeMetrics(points domain.BalanceSeries) domain.CashFlowMetrics {
	return NewEngine(DefaultThresholds()).Compute(points)
}

// Compute summarizes a balance projection.
//
// Precondition: points is sorted by date ascending and points[0] is today's
// balance. The order is trusted, not checked. Empty input yields the zero
// record with a stable trend and low risk. Non-finite totals propagate.
// The input is never modified.
func (e Engine) Compute(points domain.BalanceSeries) domain.CashFlowMetrics {
	if len(points) == 0 {
		return domain.CashFlowMetrics{
			TrendDirection: domain.TrendStable,
			RiskScore:      domain.RiskLow,
		}
	}

	now := points[0].Total
	end := points[len(points)-1].Total

	// First pass: worst day, below-zero count, sum
	worst := points[0]
	below := 0
	sum := 0.0
	for _, p := range points {
		if p.Total < worst.Total {
			worst = p
		}
		if p.Total < 0 {
			below++
		}
		sum += p.Total
	}
	avg := sum / float64(len(points))

	// Second pass: population variance
	vol := computeVolatility(points, avg)

	return domain.CashFlowMetrics{
		LiquidityNow:        now,
		WorstDayBalance:     worst.Total,
		WorstDayDate:        worst.Date,
		DaysBelowZero:       below,
		AverageBalance:      avg,
		Volatility:          vol,
		TrendDirection:      e.classifyTrend(end-now, avg),
		RiskScore:           e.classifyRisk(below, worst.Total, vol, avg),
		ProjectedEndBalance: end,
	}
}

// computeVolatility returns the population standard deviation (divides by N).
func computeVolatility(points domain.BalanceSeries, mean float64) float64 {
	sumSq := 0.0
	for _, p := range points {
		d := p.Total - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(points)))
}

// classifyTrend compares the change against TrendRatio*avg.
// The threshold keeps its sign: with avg <= 0 any nonzero change is a trend.
func (e Engine) classifyTrend(change, avg float64) domain.TrendDirection {
	if math.Abs(change) > e.th.TrendRatio*avg {
		if change > 0 {
			return domain.TrendUp
		}
		return domain.TrendDown
	}
	return domain.TrendStable
}

// classifyRisk applies the rules in priority order; the first match wins.
func (e Engine) classifyRisk(daysBelowZero int, worst, vol, avg float64) domain.RiskScore {
	if daysBelowZero > 0 || worst < e.th.HighRiskFloor {
		return domain.RiskHigh
	}
	if worst < e.th.MediumRiskFloor || vol > e.th.VolatilityRatio*avg {
		return domain.RiskMedium
	}
	return domain.RiskLow
}
