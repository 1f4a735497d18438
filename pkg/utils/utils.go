package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (ISO, date only).
const DateLayout = "2006-01-02"

// AddMonthsClamped advances a date by n calendar months, clamping the
// day-of-month to the length of the target month instead of letting it
// roll over (Jan 31 + 1 month = Feb 28/29, not Mar 2/3).
func AddMonthsClamped(date time.Time, n int) time.Time {
	year, month, day := date.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, date.Location())
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, date.Location())
}

// DaysInMonth returns the number of days in the month of the given date.
func DaysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// MonthKey returns the YYYY-MM calendar-month key for a date. Payments are
// attributed to schedule buckets by matching month keys.
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}

// PeriodLabel renders the human month/year label for a due date.
func PeriodLabel(dueDate time.Time) string {
	return dueDate.Format("Jan 2006")
}

// ParseDate parses an ISO calendar date, tolerating a trailing time
// component (timestamp prefixes like "2024-01-20T00:00:00Z").
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateOnly truncates a timestamp to midnight in its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsDateOverdue checks if a due date is strictly before the reference date.
func IsDateOverdue(dueDate, today time.Time) bool {
	return dueDate.Before(DateOnly(today))
}

// FormatAmount renders a monetary value with two decimal places for notes
// and alerts.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
