package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{"plain advance", date(2024, time.January, 15), 1, date(2024, time.February, 15)},
		{"zero months", date(2024, time.January, 15), 0, date(2024, time.January, 15)},
		{"clamp to leap february", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"clamp to short february", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"clamp to thirty day month", date(2024, time.March, 31), 1, date(2024, time.April, 30)},
		{"no drift across clamped month", date(2024, time.January, 31), 2, date(2024, time.March, 31)},
		{"year rollover", date(2024, time.December, 10), 1, date(2025, time.January, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonthsClamped(tt.start, tt.months))
		})
	}
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-01", MonthKey(date(2024, time.January, 31)))
	assert.Equal(t, "2024-12", MonthKey(date(2024, time.December, 1)))
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "Jan 2024", PeriodLabel(date(2024, time.January, 15)))
	assert.Equal(t, "Oct 2025", PeriodLabel(date(2025, time.October, 1)))
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2024-01-20")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 20), parsed)

	// Timestamp prefixes are tolerated.
	parsed, err = ParseDate("2024-01-20T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 20), parsed)

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestIsDateOverdue(t *testing.T) {
	today := date(2024, time.March, 20)

	assert.True(t, IsDateOverdue(date(2024, time.March, 19), today))
	assert.False(t, IsDateOverdue(date(2024, time.March, 20), today))
	assert.False(t, IsDateOverdue(date(2024, time.March, 21), today))

	// Time-of-day on the reference date is ignored.
	assert.False(t, IsDateOverdue(date(2024, time.March, 20), time.Date(2024, time.March, 20, 23, 59, 0, 0, time.UTC)))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1000.00", FormatAmount(decimal.NewFromInt(1000)))
	assert.Equal(t, "999.99", FormatAmount(decimal.RequireFromString("999.99")))
}
