package solarpos

// monthDays holds the day count per month for a non-leap year.
var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInYear returns 366 for leap years, 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the number of days in the given month (1-12),
// accounting for leap-year February.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// ForEachDay calls fn for every calendar day of year in order, passing
// the 1-based day of year along with its month and day of month.
func ForEachDay(year int, fn func(dayOfYear, month, day int)) {
	doy := 0
	for m := 1; m <= 12; m++ {
		for d := 1; d <= DaysInMonth(year, m); d++ {
			doy++
			fn(doy, m, d)
		}
	}
}
