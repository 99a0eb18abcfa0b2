package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"zero months", date(2024, 1, 1), 0, date(2024, 1, 1)},
		{"simple step", date(2024, 1, 1), 9, date(2024, 10, 1)},
		{"crosses year boundary", date(2024, 11, 15), 3, date(2025, 2, 15)},
		{"clamps to end of february in leap year", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"clamps to end of february", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"clamps to thirty day month", date(2024, 3, 31), 1, date(2024, 4, 30)},
		{"day restored after short month", date(2024, 1, 31), 2, date(2024, 3, 31)},
		{"negative months", date(2024, 3, 31), -1, date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.n))
		})
	}
}

func TestAddMonths_KeepsTimeOfDay(t *testing.T) {
	start := time.Date(2024, 5, 10, 13, 45, 30, 0, time.UTC)
	got := AddMonths(start, 1)
	assert.Equal(t, time.Date(2024, 6, 10, 13, 45, 30, 0, time.UTC), got)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2100, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 10, DaysBetween(date(2024, 1, 1), date(2024, 1, 11)))
	assert.Equal(t, -1, DaysBetween(date(2024, 1, 2), date(2024, 1, 1)))
}
