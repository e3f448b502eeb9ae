package domain

// Frequency is the recurrence of a scheduled flow.
type Frequency string

const (
	FrequencyOnce     Frequency = "once"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// IsValid checks if the frequency is a known value.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// ScheduledFlow is a planned income (positive Amount) or expense (negative Amount).
// Corresponds to scheduled_flows table in PostgreSQL.
type ScheduledFlow struct {
	FlowID      string    `json:"flowId"`
	AccountID   string    `json:"accountId"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"` // empty means account currency
	Frequency   Frequency `json:"frequency"`
	StartDate   string    `json:"startDate"`         // first occurrence (YYYY-MM-DD)
	EndDate     *string   `json:"endDate,omitempty"` // last possible occurrence, inclusive
}

// IsIncome reports whether the flow adds money to the account.
func (f *ScheduledFlow) IsIncome() bool {
	return f.Amount > 0
}
