package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartAndEndOfMonth(t *testing.T) {
	in := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
	assert.Equal(t, time.Date(2026, 8, 31, 23, 59, 59, 999999999, time.UTC), EndOfMonth(in))
}

func TestEndOfMonthHandlesFebruary(t *testing.T) {
	assert.Equal(t, 29, EndOfMonth(time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC)).Day())
	assert.Equal(t, 28, EndOfMonth(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)).Day())
}

func TestPreviousMonthCrossesYear(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		PreviousMonth(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodStart(t *testing.T) {
	// 2026-08-20 is a Thursday.
	in := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PeriodStart("monthly", in))
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), PeriodStart("weekly", in))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), PeriodStart("yearly", in))
	// Unknown periods fall back to monthly.
	assert.Equal(t, PeriodStart("monthly", in), PeriodStart("fortnightly", in))
}

func TestPeriodStartWeeklyOnSunday(t *testing.T) {
	// 2026-08-23 is a Sunday; the week still starts the previous Monday.
	sunday := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), PeriodStart("weekly", sunday))
}
