package reporting

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RenderMarkdown renders report as Markdown string.
// Amounts are grouped by thousands.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	p := message.NewPrinter(language.English)

	// Header
	sb.WriteString("# Cash-Flow Forecast Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Scenario: %s\n\n", r.ScenarioID))

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Accounts | %d |\n", s.Accounts))
	sb.WriteString(fmt.Sprintf("| High Risk | %d |\n", s.HighRisk))
	sb.WriteString(fmt.Sprintf("| Medium Risk | %d |\n", s.MediumRisk))
	sb.WriteString(fmt.Sprintf("| Low Risk | %d |\n", s.LowRisk))
	sb.WriteString(fmt.Sprintf("| Accounts Going Negative | %d |\n", s.AccountsBelowZero))
	sb.WriteString(p.Sprintf("| Total Liquidity Now | %.2f |\n", s.TotalLiquidity))
	sb.WriteString(p.Sprintf("| Total Projected End | %.2f |\n", s.TotalProjectedEnd))
	sb.WriteString("\n")

	// Accounts
	sb.WriteString("## Accounts\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Account | As Of | Now | End | Worst | Worst Day | Days < 0 | Avg | Volatility | Trend | Risk |\n")
		sb.WriteString("|---------|-------|-----|-----|-------|-----------|----------|-----|------------|-------|------|\n")
		for _, row := range r.Rows {
			m := row.Metrics
			sb.WriteString(p.Sprintf("| %s | %s | %.2f | %.2f | %.2f | %s | %d | %.2f | %.2f | %s | %s |\n",
				rowName(row), row.AsOf,
				m.LiquidityNow, m.ProjectedEndBalance, m.WorstDayBalance, m.WorstDayDate,
				m.DaysBelowZero, m.AverageBalance, m.Volatility,
				string(m.TrendDirection), strings.ToUpper(string(m.RiskScore))))
		}
	} else {
		sb.WriteString("No forecasts available.\n")
	}
	sb.WriteString("\n")

	// Checkpoints
	sb.WriteString("## Checkpoints\n\n")
	if hasCheckpoints(r.Rows) {
		for _, row := range r.Rows {
			if len(row.Checkpoints) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", rowName(row)))
			sb.WriteString("| Day | Date | Balance |\n")
			sb.WriteString("|-----|------|---------|\n")
			for _, cp := range row.Checkpoints {
				balance := "n/a"
				if cp.Found {
					balance = p.Sprintf("%.2f", cp.Total)
				}
				sb.WriteString(fmt.Sprintf("| +%d | %s | %s |\n", cp.OffsetDays, cp.Date, balance))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No checkpoints available.\n\n")
	}

	// Missing
	if len(r.MissingForecasts) > 0 {
		sb.WriteString("## Accounts Without Forecast\n\n")
		for _, id := range r.MissingForecasts {
			sb.WriteString(fmt.Sprintf("- %s\n", id))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func rowName(row AccountRow) string {
	if row.Name == "" {
		return row.AccountID
	}
	return fmt.Sprintf("%s (%s)", row.Name, row.AccountID)
}

func hasCheckpoints(rows []AccountRow) bool {
	for _, r := range rows {
		if len(r.Checkpoints) > 0 {
			return true
		}
	}
	return false
}
