package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
		ok   bool
	}{
		{"2024-03-10", "2024-03-10", 0, true},
		{"2024-03-09", "2024-03-10", 1, true},
		{"2024-03-07", "2024-03-10", 3, true},
		{"2024-02-28", "2024-03-01", 2, true},
		{"2023-12-31", "2024-01-01", 1, true},
		{"2024-03-11", "2024-03-10", -1, true},
		{"garbage", "2024-03-10", 0, false},
	}
	for _, tt := range tests {
		got, ok := DaysBetween(tt.a, tt.b)
		assert.Equal(t, tt.ok, ok, "%s..%s", tt.a, tt.b)
		assert.Equal(t, tt.want, got, "%s..%s", tt.a, tt.b)
	}
}

func TestLongestRun(t *testing.T) {
	assert.Equal(t, 0, LongestRun(nil))
	assert.Equal(t, 1, LongestRun([]string{"2024-03-01"}))
	assert.Equal(t, 3, LongestRun([]string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-05"}))
	assert.Equal(t, 2, LongestRun([]string{"2024-03-01", "2024-03-01", "2024-03-02"}))
	assert.Equal(t, 1, LongestRun([]string{"2024-03-01", "2024-03-03", "2024-03-05"}))
}

func TestCalendarTodayUsesLocation(t *testing.T) {
	instant := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	assert.Equal(t, "2024-03-10", newCalendar(func() time.Time { return instant }, nil).today())
	assert.Equal(t, "2024-03-11", newCalendar(func() time.Time { return instant }, tokyo).today())
}
