// Package fixtures seeds stores with demonstration accounts for memory mode.
package fixtures

import (
	"context"
	"fmt"

	"finance-dashboard/internal/domain"
	"finance-dashboard/internal/storage"
)

// BaseCurrency is the currency fixture projections are expressed in.
const BaseCurrency = "USD"

// Rates returns units of BaseCurrency per one unit of each fixture currency.
func Rates() map[string]float64 {
	return map[string]float64{
		"EUR": 1.08,
		"GBP": 1.27,
		"RUB": 0.011,
	}
}

// Load populates stores with fixture accounts and their scheduled flows.
// Returns storage.ErrDuplicateKey if fixtures were already loaded.
func Load(ctx context.Context, accountStore storage.AccountStore, flowStore storage.ScheduledFlowStore) error {
	for _, a := range Accounts() {
		if err := accountStore.Insert(ctx, a); err != nil {
			return fmt.Errorf("insert account %s: %w", a.AccountID, err)
		}
	}

	if err := flowStore.InsertBulk(ctx, Flows()); err != nil {
		return fmt.Errorf("insert flows: %w", err)
	}
	return nil
}

// Accounts returns the fixture accounts.
func Accounts() []*domain.Account {
	return []*domain.Account{
		{
			AccountID: "acc_checking",
			Name:      "Everyday checking",
			Kind:      domain.AccountChecking,
			Currency:  "USD",
			Balance:   2400,
			CreatedAt: 1704067200000, // 2024-01-01 00:00:00 UTC
		},
		{
			AccountID: "acc_credit",
			Name:      "Credit card",
			Kind:      domain.AccountCredit,
			Currency:  "USD",
			Balance:   -450,
			CreatedAt: 1704067200000,
		},
		{
			AccountID: "acc_savings",
			Name:      "Emergency fund",
			Kind:      domain.AccountSavings,
			Currency:  "USD",
			Balance:   15000,
			CreatedAt: 1704067200000,
		},
		{
			AccountID: "acc_travel",
			Name:      "Travel wallet",
			Kind:      domain.AccountCash,
			Currency:  "EUR",
			Balance:   800,
			CreatedAt: 1704153600000, // 2024-01-02 00:00:00 UTC
		},
	}
}

// Flows returns the fixture scheduled flows.
func Flows() []*domain.ScheduledFlow {
	return []*domain.ScheduledFlow{
		// Checking: salary in, rent and bills out
		{FlowID: "flow_salary", AccountID: "acc_checking", Description: "Salary", Amount: 3200, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-25"},
		{FlowID: "flow_rent", AccountID: "acc_checking", Description: "Rent", Amount: -1800, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-01"},
		{FlowID: "flow_groceries", AccountID: "acc_checking", Description: "Groceries", Amount: -95, Frequency: domain.FrequencyWeekly, StartDate: "2024-01-06"},
		{FlowID: "flow_utilities", AccountID: "acc_checking", Description: "Utilities", Amount: -160, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-15"},
		{FlowID: "flow_streaming", AccountID: "acc_checking", Description: "Streaming", Amount: -15, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-31"},
		{FlowID: "flow_uk_royalty", AccountID: "acc_checking", Description: "Royalty", Amount: 120, Currency: "GBP", Frequency: domain.FrequencyMonthly, StartDate: "2024-01-10"},

		// Credit card: daily spending, biweekly payment
		{FlowID: "flow_card_spend", AccountID: "acc_credit", Description: "Card spending", Amount: -40, Frequency: domain.FrequencyDaily, StartDate: "2024-01-01"},
		{FlowID: "flow_card_payment", AccountID: "acc_credit", Description: "Card payment", Amount: 450, Frequency: domain.FrequencyBiweekly, StartDate: "2024-01-12"},

		// Savings: monthly transfer in
		{FlowID: "flow_savings_in", AccountID: "acc_savings", Description: "Savings transfer", Amount: 300, Frequency: domain.FrequencyMonthly, StartDate: "2024-01-26"},

		// Travel: biweekly spending, one trip
		{FlowID: "flow_travel_spend", AccountID: "acc_travel", Description: "Transit and coffee", Amount: -60, Frequency: domain.FrequencyBiweekly, StartDate: "2024-01-05"},
		{FlowID: "flow_travel_topup", AccountID: "acc_travel", Description: "Top-up", Amount: 250, Currency: "USD", Frequency: domain.FrequencyMonthly, StartDate: "2024-01-20", EndDate: strPtr("2026-12-31")},
	}
}

func strPtr(s string) *string {
	return &s
}
