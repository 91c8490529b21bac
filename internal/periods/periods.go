// Package periods provides calendar arithmetic for budget periods: end-date
// derivation, inclusive range overlap, and day counting. All calculations
// work on day-truncated UTC dates; no timezone conversion is performed.
package periods

import (
	"time"

	"budgetly/internal/models"
)

// Truncate strips the time-of-day component, normalizing to midnight UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndDateFor derives the inclusive end date of a budget period starting at
// start: weekly is start+6 days, monthly is start+1 month-1 day, yearly is
// start+1 year-1 day. Unknown periods fall back to monthly.
func EndDateFor(start time.Time, period models.BudgetPeriod) time.Time {
	start = Truncate(start)
	switch period {
	case models.BudgetPeriodWeekly:
		return start.AddDate(0, 0, 6)
	case models.BudgetPeriodYearly:
		return start.AddDate(1, 0, -1)
	default:
		return start.AddDate(0, 1, -1)
	}
}

// Overlaps reports whether two inclusive date ranges share at least one day.
// Adjacent ranges that touch on a single day count as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// DaysRemaining returns the number of whole days from now until end,
// rounded up, never negative.
func DaysRemaining(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TotalDays returns the number of days covered by [start, end], rounded up
// and never less than one.
func TotalDays(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}
