package reporting

import (
	"time"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/lookup"
)

// Report is the cash-flow overview for one scenario.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	ScenarioID  string

	Summary Summary

	// Accounts with a forecast, highest risk first, then by account_id
	Rows []AccountRow

	// Account IDs without any snapshot for the scenario
	MissingForecasts []string
}

// Summary aggregates all rows.
type Summary struct {
	Accounts          int
	HighRisk          int
	MediumRisk        int
	LowRisk           int
	AccountsBelowZero int // accounts with at least one projected day below zero
	TotalLiquidity    float64
	TotalProjectedEnd float64
}

// AccountRow is the latest forecast of one account.
type AccountRow struct {
	AccountID   string
	Name        string
	AsOf        string
	HorizonDays int
	Metrics     domain.CashFlowMetrics
	Checkpoints []lookup.Checkpoint
}
