package output

import (
	"strconv"

	"github.com/Rhymond/go-money"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// FormatCurrency formats a decimal as USD with thousands separators, e.g.
// "$1,234.56" or "-$12.00".
func FormatCurrency(amount decimal.Decimal) string {
	return money.New(pkgdecimal.Cents(amount), money.USD).Display()
}

// FormatRate formats a ratio (0.95) as a percentage ("95.00%").
func FormatRate(ratio decimal.Decimal) string { return pkgdecimal.Percent(ratio) }

// FormatPercentage formats a value already in percent with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

func intToString(i int) string { return strconv.Itoa(i) }

func formatInt64(i int64) string { return strconv.FormatInt(i, 10) }

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
