package domain

// TrendDirection describes how the balance moves over the projection window.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// String returns the string representation of TrendDirection.
func (t TrendDirection) String() string {
	return string(t)
}

// RiskScore is the cash-flow risk classification.
type RiskScore string

const (
	RiskLow    RiskScore = "low"
	RiskMedium RiskScore = "medium"
	RiskHigh   RiskScore = "high"
)

// String returns the string representation of RiskScore.
func (r RiskScore) String() string {
	return string(r)
}

// IsValid checks if the risk score is a known value.
func (r RiskScore) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// CashFlowMetrics summarizes a balance projection.
// Built fresh per computation and owned by the caller.
type CashFlowMetrics struct {
	LiquidityNow        float64        `json:"liquidityNow"`
	WorstDayBalance     float64        `json:"worstDayBalance"`
	WorstDayDate        string         `json:"worstDayDate"`
	DaysBelowZero       int            `json:"daysBelowZero"`
	AverageBalance      float64        `json:"averageBalance"`
	Volatility          float64        `json:"volatility"` // population stddev
	TrendDirection      TrendDirection `json:"trendDirection"`
	RiskScore           RiskScore      `json:"riskScore"`
	ProjectedEndBalance float64        `json:"projectedEndBalance"`
}

// MetricsSnapshot is a persisted metrics computation for one projection run.
// Corresponds to metrics_snapshots table in PostgreSQL.
type MetricsSnapshot struct {
	SnapshotID  string // deterministic hash of (account, scenario, as_of)
	AccountID   string
	ScenarioID  string
	AsOf        string // date of the projection run (day 0)
	HorizonDays int    // number of projected days
	Metrics     CashFlowMetrics
	CreatedAt   int64 // Unix timestamp in milliseconds
}
