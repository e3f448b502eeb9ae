package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-dashboard/internal/domain"
)

func series(totals ...float64) domain.BalanceSeries {
	s := make(domain.BalanceSeries, len(totals))
	for i, v := range totals {
		s[i] = domain.BalancePoint{Date: dayString(i), Total: v}
	}
	return s
}

func dayString(i int) string {
	return "2024-01-" + string(rune('0'+(i+1)/10)) + string(rune('0'+(i+1)%10))
}

func TestComputeMetrics_Empty(t *testing.T) {
	got := ComputeMetrics(nil)

	want := domain.CashFlowMetrics{
		TrendDirection: domain.TrendStable,
		RiskScore:      domain.RiskLow,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Empty non-nil slice behaves the same
	if got := ComputeMetrics(domain.BalanceSeries{}); got != want {
		t.Errorf("expected %+v for empty slice, got %+v", want, got)
	}
}

func TestComputeMetrics_SinglePoint(t *testing.T) {
	got := ComputeMetrics(domain.BalanceSeries{{Date: "2024-01-01", Total: 500}})

	assert.Equal(t, 500.0, got.LiquidityNow)
	assert.Equal(t, 500.0, got.ProjectedEndBalance)
	assert.Equal(t, 500.0, got.WorstDayBalance)
	assert.Equal(t, "2024-01-01", got.WorstDayDate)
	assert.Equal(t, 0, got.DaysBelowZero)
	assert.Equal(t, 500.0, got.AverageBalance)
	assert.Equal(t, 0.0, got.Volatility)
	assert.Equal(t, domain.TrendStable, got.TrendDirection)
	// 500 is not < 500 and 0 is not > 250
	assert.Equal(t, domain.RiskLow, got.RiskScore)
}

func TestComputeMetrics_WorstDayTieKeepsFirst(t *testing.T) {
	got := ComputeMetrics(domain.BalanceSeries{
		{Date: "a", Total: -10},
		{Date: "b", Total: -10},
	})

	if got.WorstDayDate != "a" {
		t.Errorf("expected worst day 'a', got %q", got.WorstDayDate)
	}
	if got.WorstDayBalance != -10 {
		t.Errorf("expected worst balance -10, got %f", got.WorstDayBalance)
	}
}

func TestComputeMetrics_WorstDayLaterMinimum(t *testing.T) {
	got := ComputeMetrics(domain.BalanceSeries{
		{Date: "a", Total: 100},
		{Date: "b", Total: 50},
		{Date: "c", Total: 20},
		{Date: "d", Total: 20},
		{Date: "e", Total: 80},
	})

	assert.Equal(t, "c", got.WorstDayDate)
	assert.Equal(t, 20.0, got.WorstDayBalance)
}

func TestComputeMetrics_ZeroIsNotBelowZero(t *testing.T) {
	got := ComputeMetrics(domain.BalanceSeries{
		{Date: "a", Total: 0},
		{Date: "b", Total: -1},
	})

	if got.DaysBelowZero != 1 {
		t.Errorf("expected 1 day below zero, got %d", got.DaysBelowZero)
	}
}

func TestComputeMetrics_AnyNegativeIsHighRisk(t *testing.T) {
	tests := []struct {
		name   string
		points domain.BalanceSeries
	}{
		{"single small negative", domain.BalanceSeries{{Date: "a", Total: -1}}},
		{"negative dip in large balances", series(100000, 100000, -0.01, 100000)},
		{"negative then recovery", series(-5, 2000, 2000, 2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetrics(tt.points)
			assert.Equal(t, domain.RiskHigh, got.RiskScore)
		})
	}
}

func TestComputeMetrics_PopulationStddev(t *testing.T) {
	got := ComputeMetrics(series(2, 4, 4, 4, 5, 5, 7, 9))

	if got.AverageBalance != 5 {
		t.Errorf("expected average 5, got %f", got.AverageBalance)
	}
	// Sample stddev would be ~2.138
	if got.Volatility != 2 {
		t.Errorf("expected volatility 2, got %f", got.Volatility)
	}
}

func TestComputeMetrics_Idempotent(t *testing.T) {
	input := series(1200, 900.5, -30.25, 450, 1800)
	snapshot := make(domain.BalanceSeries, len(input))
	copy(snapshot, input)

	first := ComputeMetrics(input)
	second := ComputeMetrics(input)

	deepCopy := make(domain.BalanceSeries, len(input))
	copy(deepCopy, input)
	third := ComputeMetrics(deepCopy)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, math.Float64bits(first.Volatility), math.Float64bits(second.Volatility))
	assert.Equal(t, math.Float64bits(first.AverageBalance), math.Float64bits(third.AverageBalance))
	assert.Equal(t, snapshot, input, "input must not be mutated")
}

func TestComputeMetrics_Trend(t *testing.T) {
	tests := []struct {
		name   string
		totals []float64
		want   domain.TrendDirection
	}{
		// avg 1050, threshold 105, change 100
		{"small rise is stable", []float64{1000, 1100}, domain.TrendStable},
		// avg 1100, threshold 110, change 200
		{"large rise is up", []float64{1000, 1200}, domain.TrendUp},
		// avg 900, threshold 90, change -200
		{"large fall is down", []float64{1000, 800}, domain.TrendDown},
		// avg 0, threshold 0, change 0
		{"flat at zero is stable", []float64{0, 0}, domain.TrendStable},
		// avg -50, threshold -5, any nonzero change passes
		{"negative average classifies tiny rise", []float64{-51, -49}, domain.TrendUp},
		// avg -10, threshold -1, |0| > -1 holds and change is not > 0
		{"negative average flat reads as down", []float64{-10, -10}, domain.TrendDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetrics(series(tt.totals...))
			assert.Equal(t, tt.want, got.TrendDirection)
		})
	}
}

func TestComputeMetrics_RiskPriority(t *testing.T) {
	tests := []struct {
		name   string
		totals []float64
		want   domain.RiskScore
	}{
		{"comfortable and steady", []float64{2000, 2100, 2050}, domain.RiskLow},
		{"worst day under medium floor", []float64{2000, 499, 2000}, domain.RiskMedium},
		// avg 1700, vol ~1905 > 850, worst 600 stays above the floor
		{"volatile balance", []float64{600, 600, 600, 5000}, domain.RiskMedium},
		{"negative day wins over everything", []float64{5000, -1, 5000}, domain.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMetrics(series(tt.totals...))
			assert.Equal(t, tt.want, got.RiskScore)
		})
	}
}

func TestEngine_CustomThresholds(t *testing.T) {
	engine := NewEngine(Thresholds{
		HighRiskFloor:   5000,
		MediumRiskFloor: 10000,
		VolatilityRatio: 0.5,
		TrendRatio:      0.5,
	})

	got := engine.Compute(series(4000, 6000))
	require.Equal(t, domain.RiskHigh, got.RiskScore, "worst 4000 < high floor 5000")
	// avg 5000, threshold 2500, change 2000
	assert.Equal(t, domain.TrendStable, got.TrendDirection)

	got = engine.Compute(series(8000, 9000))
	assert.Equal(t, domain.RiskMedium, got.RiskScore)

	assert.Equal(t, 5000.0, engine.Thresholds().HighRiskFloor)
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, -1000.0, th.HighRiskFloor)
	assert.Equal(t, 500.0, th.MediumRiskFloor)
	assert.Equal(t, 0.5, th.VolatilityRatio)
	assert.Equal(t, 0.1, th.TrendRatio)
}

func TestComputeMetrics_HighRiskFloorWithoutNegativeDays(t *testing.T) {
	engine := NewEngine(Thresholds{HighRiskFloor: 100, MediumRiskFloor: 500, VolatilityRatio: 0.5, TrendRatio: 0.1})

	got := engine.Compute(series(1000, 50, 1000))
	assert.Equal(t, 0, got.DaysBelowZero)
	assert.Equal(t, domain.RiskHigh, got.RiskScore)
}
