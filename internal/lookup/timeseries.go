package lookup

import (
	"errors"
	"fmt"
	"time"

	"finance-dashboard/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoBalanceData = errors.New("no balance data available")
	ErrNoPointBefore = errors.New("no balance point at or before target date")
)

// DefaultCheckpointOffsets are the day offsets shown in reports.
var DefaultCheckpointOffsets = []int{7, 30, 90}

// BalanceAt returns the point at or before the target date.
// Points must be ordered by date ASC. Dates compare lexically (YYYY-MM-DD).
// Returns ErrNoBalanceData if the series is empty and ErrNoPointBefore
// if every point is after target.
func BalanceAt(target string, points domain.BalanceSeries) (domain.BalancePoint, error) {
	if len(points) == 0 {
		return domain.BalancePoint{}, ErrNoBalanceData
	}

	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Date <= target {
			return points[i], nil
		}
	}

	return domain.BalancePoint{}, ErrNoPointBefore
}

// Checkpoint is the projected balance a fixed number of days after today.
type Checkpoint struct {
	OffsetDays int
	Date       string
	Total      float64
	Found      bool // false when the projection does not reach this date
}

// Checkpoints resolves balances at day offsets from the first point (today).
// A checkpoint past the last projected day is reported with Found=false.
func Checkpoints(points domain.BalanceSeries, offsets []int) ([]Checkpoint, error) {
	today, ok := points.Current()
	if !ok {
		return nil, ErrNoBalanceData
	}
	last, _ := points.End()

	start, err := time.Parse(domain.DateLayout, today.Date)
	if err != nil {
		return nil, fmt.Errorf("parse first point date: %w", err)
	}

	result := make([]Checkpoint, 0, len(offsets))
	for _, off := range offsets {
		date := start.AddDate(0, 0, off).Format(domain.DateLayout)
		cp := Checkpoint{OffsetDays: off, Date: date}
		if date <= last.Date {
			p, err := BalanceAt(date, points)
			if err != nil {
				return nil, err
			}
			cp.Total = p.Total
			cp.Found = true
		}
		result = append(result, cp)
	}

	return result, nil
}
