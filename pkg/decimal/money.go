package decimal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNonFinite is returned when a float cannot be represented as a decimal amount.
var ErrNonFinite = errors.New("non-finite amount")

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ParseAmount parses a ledger amount such as "120000" or "1.5e4".
// NaN, infinities and empty strings are rejected.
func ParseAmount(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d, nil
}

// FromFinite converts a float into a decimal, reporting false for NaN or ±Inf
// instead of panicking.
func FromFinite(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// MustFinite converts a float known to be finite (configuration constants).
func MustFinite(f float64) decimal.Decimal {
	d, ok := FromFinite(f)
	if !ok {
		panic(fmt.Sprintf("decimal: %v: %v", ErrNonFinite, f))
	}
	return d
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// RoundCents rounds to two places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents converts an amount to integer cents, the unit go-money works in.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// Monthly converts an annual amount to a monthly amount.
func Monthly(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// Annual converts a monthly amount to an annual amount.
func Annual(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}

// Percent renders a ratio (0.153) as a percentage string ("15.30%").
func Percent(ratio decimal.Decimal) string {
	return ratio.Mul(hundred).StringFixed(2) + "%"
}
