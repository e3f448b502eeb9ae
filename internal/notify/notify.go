// Package notify delivers risk alerts raised by the forecast orchestrator.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"finance-dashboard/internal/domain"
)

// Alert describes an account whose forecast risk turned high.
type Alert struct {
	AccountID    string
	AccountName  string
	ScenarioID   string
	AsOf         string
	PreviousRisk domain.RiskScore // empty when there was no earlier snapshot
	Metrics      domain.CashFlowMetrics
}

// Subject returns a one-line summary.
func (a Alert) Subject() string {
	return fmt.Sprintf("Cash-flow risk is %s for %s (%s)", a.Metrics.RiskScore, a.name(), a.ScenarioID)
}

// Body returns the plain-text message.
func (a Alert) Body() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Account: %s\n", a.name()))
	sb.WriteString(fmt.Sprintf("Scenario: %s\n", a.ScenarioID))
	sb.WriteString(fmt.Sprintf("Forecast date: %s\n\n", a.AsOf))

	m := a.Metrics
	sb.WriteString(fmt.Sprintf("Current balance: %.2f\n", m.LiquidityNow))
	sb.WriteString(fmt.Sprintf("Projected end balance: %.2f\n", m.ProjectedEndBalance))
	sb.WriteString(fmt.Sprintf("Lowest balance: %.2f on %s\n", m.WorstDayBalance, m.WorstDayDate))
	sb.WriteString(fmt.Sprintf("Days below zero: %d\n", m.DaysBelowZero))
	sb.WriteString(fmt.Sprintf("Trend: %s\n", m.TrendDirection))

	if a.PreviousRisk != "" {
		sb.WriteString(fmt.Sprintf("\nRisk changed from %s to %s.\n", a.PreviousRisk, m.RiskScore))
	}
	return sb.String()
}

func (a Alert) name() string {
	if a.AccountName != "" {
		return a.AccountName
	}
	return a.AccountID
}

// Notifier delivers alerts.
type Notifier interface {
	NotifyRisk(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts as warnings.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyRisk(_ context.Context, a Alert) error {
	n.log.WithFields(logrus.Fields{
		"account_id":      a.AccountID,
		"scenario_id":     a.ScenarioID,
		"as_of":           a.AsOf,
		"risk":            a.Metrics.RiskScore,
		"previous_risk":   a.PreviousRisk,
		"worst_day":       a.Metrics.WorstDayDate,
		"days_below_zero": a.Metrics.DaysBelowZero,
	}).Warn("cash-flow risk alert")
	return nil
}

// Multi fans an alert out to every notifier.
type Multi []Notifier

func (m Multi) NotifyRisk(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyRisk(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Multi(nil)
)
