package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarAt(t *testing.T) {
	tests := []struct {
		name      string
		startYear int
		offset    int
		wantYear  int
		wantMonth time.Month
	}{
		{"first month", 2025, 0, 2025, time.January},
		{"last month of first year", 2025, 11, 2025, time.December},
		{"rolls into next year", 2025, 12, 2026, time.January},
		{"thirty years out", 2025, 360 + 5, 2055, time.June},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month := CalendarAt(tt.startYear, tt.offset)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantMonth, month)
		})
	}
}

func TestAgeInMonths(t *testing.T) {
	tests := []struct {
		name       string
		birthYear  int
		birthMonth time.Month
		startYear  int
		offset     int
		want       int
		wantYears  int
	}{
		{"born in january", 1970, time.January, 2025, 0, 55 * 12, 55},
		{"birthday later in year", 1970, time.June, 2025, 0, 55*12 - 5, 54},
		{"birthday reached", 1970, time.June, 2025, 5, 55 * 12, 55},
		{"invalid month treated as january", 1970, 0, 2025, 0, 55 * 12, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeInMonths(tt.birthYear, tt.birthMonth, tt.startYear, tt.offset))
			assert.Equal(t, tt.wantYears, AgeInYears(tt.birthYear, tt.birthMonth, tt.startYear, tt.offset))
		})
	}
}

func TestMonthBoundaries(t *testing.T) {
	assert.True(t, IsJanuary(0))
	assert.True(t, IsJanuary(24))
	assert.False(t, IsJanuary(13))
	assert.True(t, IsDecember(11))
	assert.False(t, IsDecember(12))
	assert.Equal(t, 0, YearsElapsed(5, 16))
	assert.Equal(t, 1, YearsElapsed(5, 17))
	assert.Equal(t, 0, YearsElapsed(10, 3))
}

func TestGetRMDAge(t *testing.T) {
	assert.Equal(t, 72, GetRMDAge(1950))
	assert.Equal(t, 73, GetRMDAge(1955))
	assert.Equal(t, 75, GetRMDAge(1965))
}
