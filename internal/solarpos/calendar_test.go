package solarpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeapYearRule(t *testing.T) {
	assert.True(t, IsLeapYear(2024))
	assert.False(t, IsLeapYear(2023))
	assert.False(t, IsLeapYear(1900)) // century not divisible by 400
	assert.True(t, IsLeapYear(2000))  // century divisible by 400

	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2023))
	assert.Equal(t, 365, DaysInYear(1900))
	assert.Equal(t, 366, DaysInYear(2000))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 28, DaysInMonth(2023, 2))
	assert.Equal(t, 31, DaysInMonth(2025, 1))
	assert.Equal(t, 30, DaysInMonth(2025, 4))
	assert.Equal(t, 31, DaysInMonth(2025, 12))
}

func TestForEachDayContiguous(t *testing.T) {
	for _, year := range []int{2023, 2024} {
		expected := 1
		lastMonth := 1
		ForEachDay(year, func(doy, month, day int) {
			assert.Equal(t, expected, doy)
			assert.GreaterOrEqual(t, month, lastMonth)
			lastMonth = month
			expected++
		})
		assert.Equal(t, DaysInYear(year), expected-1)
	}
}

func TestForEachDayLeapBoundary(t *testing.T) {
	var lastMonth, lastDay, lastDoy int
	ForEachDay(2024, func(doy, month, day int) {
		lastMonth, lastDay, lastDoy = month, day, doy
	})

	assert.Equal(t, 12, lastMonth)
	assert.Equal(t, 31, lastDay)
	assert.Equal(t, 366, lastDoy)
}
