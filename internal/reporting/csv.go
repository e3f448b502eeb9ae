package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"account_id", "name", "scenario_id", "as_of", "horizon_days",
	"liquidity_now", "projected_end_balance", "worst_day_balance", "worst_day_date",
	"days_below_zero", "average_balance", "volatility", "trend_direction", "risk_score",
}

// RenderCSV renders report rows as CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(csvHeader)
	for _, row := range r.Rows {
		m := row.Metrics
		_ = w.Write([]string{
			row.AccountID,
			row.Name,
			r.ScenarioID,
			row.AsOf,
			strconv.Itoa(row.HorizonDays),
			formatFloat(m.LiquidityNow),
			formatFloat(m.ProjectedEndBalance),
			formatFloat(m.WorstDayBalance),
			m.WorstDayDate,
			strconv.Itoa(m.DaysBelowZero),
			formatFloat(m.AverageBalance),
			formatFloat(m.Volatility),
			string(m.TrendDirection),
			string(m.RiskScore),
		})
	}
	w.Flush()

	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
