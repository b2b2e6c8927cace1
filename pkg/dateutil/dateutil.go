package dateutil

import (
	"time"
)

// MonthsPerYear is the number of simulated steps in a calendar year.
const MonthsPerYear = 12

// MedicareAgeMonths is the age (in months) at which Medicare premiums start.
const MedicareAgeMonths = 65 * MonthsPerYear

// AbsoluteMonth returns a running month count for year/month, so that
// consecutive calendar months differ by exactly one.
func AbsoluteMonth(year int, month time.Month) int {
	return year*MonthsPerYear + int(month) - 1
}

// CalendarAt resolves a simulation month offset (offset 0 is January of startYear)
// to its calendar year and month.
func CalendarAt(startYear, offset int) (int, time.Month) {
	abs := AbsoluteMonth(startYear, time.January) + offset
	return abs / MonthsPerYear, time.Month(abs%MonthsPerYear + 1)
}

// IsJanuary reports whether the month offset falls in January.
func IsJanuary(offset int) bool {
	return offset%MonthsPerYear == 0
}

// IsDecember reports whether the month offset falls in December.
func IsDecember(offset int) bool {
	return offset%MonthsPerYear == MonthsPerYear-1
}

// AgeInMonths returns the completed months of age at a simulation month offset.
func AgeInMonths(birthYear int, birthMonth time.Month, startYear, offset int) int {
	if birthMonth < time.January || birthMonth > time.December {
		birthMonth = time.January
	}
	return AbsoluteMonth(startYear, time.January) + offset - AbsoluteMonth(birthYear, birthMonth)
}

// AgeInYears returns the completed years of age at a simulation month offset.
func AgeInYears(birthYear int, birthMonth time.Month, startYear, offset int) int {
	months := AgeInMonths(birthYear, birthMonth, startYear, offset)
	if months < 0 {
		return 0
	}
	return months / MonthsPerYear
}

// YearsElapsed returns whole years between two month offsets (zero if to precedes from).
func YearsElapsed(from, to int) int {
	if to <= from {
		return 0
	}
	return (to - from) / MonthsPerYear
}

// GetRMDAge returns the age when RMDs start for a given birth year (SECURE 2.0)
func GetRMDAge(birthYear int) int {
	switch {
	case birthYear <= 1950:
		return 72
	case birthYear >= 1951 && birthYear <= 1959:
		return 73
	default: // 1960 and later
		return 75
	}
}
