package simulation

import (
	"fmt"
	"time"

	"finance-dashboard/internal/domain"
)

// schedule is a flow with its dates parsed once.
type schedule struct {
	flow  *domain.ScheduledFlow
	start time.Time
	end   *time.Time
}

func newSchedule(f *domain.ScheduledFlow) (schedule, error) {
	if !f.Frequency.IsValid() {
		return schedule{}, fmt.Errorf("%w: flow %s: unknown frequency %q", ErrInvalidFlow, f.FlowID, f.Frequency)
	}
	start, err := parseDate(f.StartDate)
	if err != nil {
		return schedule{}, fmt.Errorf("flow %s start: %w", f.FlowID, err)
	}
	s := schedule{flow: f, start: start}
	if f.EndDate != nil {
		end, err := parseDate(*f.EndDate)
		if err != nil {
			return schedule{}, fmt.Errorf("flow %s end: %w", f.FlowID, err)
		}
		s.end = &end
	}
	return s, nil
}

// occurs reports whether the flow fires on day. day must be a UTC midnight.
func (s schedule) occurs(day time.Time) bool {
	if day.Before(s.start) {
		return false
	}
	if s.end != nil && day.After(*s.end) {
		return false
	}

	switch s.flow.Frequency {
	case domain.FrequencyOnce:
		return day.Equal(s.start)
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		return daysBetween(s.start, day)%7 == 0
	case domain.FrequencyBiweekly:
		return daysBetween(s.start, day)%14 == 0
	case domain.FrequencyMonthly:
		// Day 29-31 clamps to the last day of shorter months
		target := s.start.Day()
		if last := lastDayOfMonth(day); target > last {
			target = last
		}
		return day.Day() == target
	}
	return false
}

// Occurs reports whether flow has an occurrence on date (YYYY-MM-DD).
func Occurs(f *domain.ScheduledFlow, date string) (bool, error) {
	s, err := newSchedule(f)
	if err != nil {
		return false, err
	}
	day, err := parseDate(date)
	if err != nil {
		return false, err
	}
	return s.occurs(day), nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
