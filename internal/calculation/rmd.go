package calculation

import (
	"github.com/rpgo/projection-engine/internal/config"
	"github.com/shopspring/decimal"
)

// RMDDivisor returns the Uniform Lifetime divisor for an age. Ages past the
// end of the table use its last row; ages before the first row have none.
func RMDDivisor(age int, divisors []config.RMDDivisor) (decimal.Decimal, bool) {
	if len(divisors) == 0 || age < divisors[0].Age {
		return decimal.Zero, false
	}
	found := divisors[0].Divisor
	for _, d := range divisors {
		if d.Age > age {
			break
		}
		found = d.Divisor
	}
	return found, true
}

// RMDAmount is the required distribution for a year: the prior year-end
// tax-deferred balance divided by the divisor for the person's age.
func RMDAmount(priorYearEndBalance decimal.Decimal, age int, divisors []config.RMDDivisor) decimal.Decimal {
	if !priorYearEndBalance.IsPositive() {
		return decimal.Zero
	}
	div, ok := RMDDivisor(age, divisors)
	if !ok || !div.IsPositive() {
		return decimal.Zero
	}
	return priorYearEndBalance.Div(div).Round(2)
}
