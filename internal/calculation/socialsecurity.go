package calculation

import (
	"github.com/shopspring/decimal"
)

var (
	half          = decimal.NewFromFloat(0.5)
	eightyFivePct = decimal.NewFromFloat(0.85)
)

// ProvisionalIncome is other income plus half of Social Security benefits.
func ProvisionalIncome(otherIncome, ssBenefits decimal.Decimal) decimal.Decimal {
	return otherIncome.Add(ssBenefits.Mul(half))
}

// TaxableSocialSecurity determines the federally taxable portion of annual
// Social Security benefits from provisional income and the filing status's
// two thresholds:
//   - provisional income <= base1: nothing is taxable
//   - base1 < provisional income <= base2: up to 50% of benefits
//   - provisional income > base2: up to 85% of benefits
func TaxableSocialSecurity(benefits, provisionalIncome, base1, base2 decimal.Decimal) decimal.Decimal {
	if !benefits.IsPositive() || provisionalIncome.LessThanOrEqual(base1) {
		return decimal.Zero
	}
	if provisionalIncome.LessThanOrEqual(base2) {
		// Lesser of 50% of the excess over base1 and 50% of benefits
		return decimal.Min(provisionalIncome.Sub(base1).Mul(half), benefits.Mul(half))
	}
	// Lesser of 85% of benefits and 85% of the excess over base2 plus the
	// 50% band between the thresholds (itself capped at half the benefits)
	band := decimal.Min(base2.Sub(base1).Mul(half), benefits.Mul(half))
	return decimal.Min(benefits.Mul(eightyFivePct), provisionalIncome.Sub(base2).Mul(eightyFivePct).Add(band))
}
