package calculation

import (
	"testing"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testTable is a single-filer table with no standard deduction so bracket
// arithmetic can be checked by hand.
func testTable() domain.TaxTable {
	return domain.TaxTable{
		Year:         2024,
		FilingStatus: domain.FilingSingle,
		Ordinary: []domain.TaxBracket{
			{Min: dec("0"), Max: dec("11600"), Rate: dec("0.10")},
			{Min: dec("11600"), Max: dec("47150"), Rate: dec("0.12")},
			{Min: dec("47150"), Rate: dec("0.22")},
		},
		LongTermGains: []domain.TaxBracket{
			{Min: dec("0"), Max: dec("47025"), Rate: dec("0")},
			{Min: dec("47025"), Rate: dec("0.15")},
		},
		SocialSecurityBase1: dec("25000"),
		SocialSecurityBase2: dec("34000"),
	}
}

func TestProgressiveTax(t *testing.T) {
	brackets := testTable().Ordinary
	tests := []struct {
		name   string
		income string
		want   string
	}{
		{"zero income", "0", "0"},
		{"negative income", "-100", "0"},
		{"inside first bracket", "10000", "1000"},
		{"two brackets", "20000", "2168"}, // 11600*0.10 + 8400*0.12
		{"exactly at boundary", "11600", "1160"},
		{"top bracket", "100000", "17053"}, // 1160 + 4266 + 52850*0.22
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressiveTax(dec(tt.income), brackets)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestStackedTax(t *testing.T) {
	brackets := testTable().LongTermGains
	// 7,025 of the gain fits under the 0% ceiling, the rest is taxed at 15%.
	got := StackedTax(dec("40000"), dec("20000"), brackets)
	assert.True(t, got.Equal(dec("1946.25")), "got %s", got)

	assert.True(t, StackedTax(dec("0"), dec("40000"), brackets).IsZero())
	assert.True(t, StackedTax(dec("50000"), dec("-1"), brackets).IsZero())
	// A negative base is treated as zero.
	assert.True(t, StackedTax(dec("-5000"), dec("47025"), brackets).IsZero())
}

func TestComputeAnnualTax(t *testing.T) {
	one := decimal.NewFromInt(1)
	tests := []struct {
		name      string
		income    domain.TaxAccumulators
		carry     string
		filers65  int
		deduction string
		check     func(t *testing.T, r TaxResult)
	}{
		{
			name:   "ordinary only",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("20000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.OrdinaryTax.Equal(dec("2168")))
				assert.True(t, r.Total.Equal(dec("2168")))
				assert.True(t, r.AGI.Equal(dec("20000")))
			},
		},
		{
			name:   "long-term gains stack on ordinary income",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("40000"), LongTermGains: dec("20000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.OrdinaryTax.Equal(dec("4568")))
				assert.True(t, r.CapitalGainsTax.Equal(dec("1946.25")))
				assert.True(t, r.Total.Equal(dec("6514.25")))
			},
		},
		{
			name:   "depreciation recapture at 25%",
			income: domain.TaxAccumulators{DepreciationRecapture: dec("10000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.RecaptureTax.Equal(dec("2500")))
				assert.True(t, r.Total.Equal(dec("2500")))
			},
		},
		{
			name: "unused deduction shelters gains then recapture",
			income: domain.TaxAccumulators{
				OrdinaryIncome:        dec("5000"),
				LongTermGains:         dec("8000"),
				DepreciationRecapture: dec("10000"),
			},
			deduction: "15000",
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.OrdinaryTax.IsZero())
				assert.True(t, r.CapitalGainsTax.IsZero())
				assert.True(t, r.RecaptureTax.Equal(dec("2000")))
			},
		},
		{
			name:   "capital loss limited to 3000 with carryover",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("50000"), LongTermGains: dec("-10000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.CapitalLossDeduction.Equal(dec("3000")))
				assert.True(t, r.CarryoverOut.Equal(dec("7000")))
				assert.True(t, r.OrdinaryTax.Equal(dec("5408")))
			},
		},
		{
			name:   "carryover absorbs gains",
			income: domain.TaxAccumulators{LongTermGains: dec("8000")},
			carry:  "5000",
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.NetLongTermGain.Equal(dec("3000")))
				assert.True(t, r.CarryoverOut.IsZero())
			},
		},
		{
			name:   "early withdrawal penalty",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("20000"), EarlyWithdrawals: dec("20000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.EarlyWithdrawalPenalty.Equal(dec("2000")))
				assert.True(t, r.Total.Equal(dec("4168")))
			},
		},
		{
			name:   "self-employment tax with half deducted",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("10000"), SelfEmploymentIncome: dec("10000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.SelfEmploymentTax.Equal(dec("1412.96")), "se tax %s", r.SelfEmploymentTax)
				assert.True(t, r.OrdinaryTax.Equal(dec("929.35")), "ordinary tax %s", r.OrdinaryTax)
			},
		},
		{
			name:      "additional deduction for filers over 65",
			income:    domain.TaxAccumulators{OrdinaryIncome: dec("20000")},
			deduction: "15000",
			filers65:  1,
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.TaxableIncome.Equal(dec("3000")))
				assert.True(t, r.OrdinaryTax.Equal(dec("300")))
			},
		},
		{
			name:   "negative income clamps to zero",
			income: domain.TaxAccumulators{OrdinaryIncome: dec("-5000")},
			check: func(t *testing.T, r TaxResult) {
				assert.True(t, r.Total.IsZero())
				assert.True(t, r.AGI.IsZero())
				assert.True(t, r.TaxableIncome.IsZero())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := testTable()
			if tt.deduction != "" {
				table.StandardDeduction = dec(tt.deduction)
				table.AdditionalDeduction65 = dec("2000")
			}
			carry := decimal.Zero
			if tt.carry != "" {
				carry = dec(tt.carry)
			}
			r := ComputeAnnualTax(TaxInput{Income: tt.income, CapitalLossCarryover: carry, Filers65: tt.filers65}, table, one)
			tt.check(t, r)
			for _, part := range []decimal.Decimal{r.OrdinaryTax, r.CapitalGainsTax, r.RecaptureTax, r.SelfEmploymentTax, r.EarlyWithdrawalPenalty} {
				assert.False(t, part.IsNegative())
			}
		})
	}
}

func TestIndexTable(t *testing.T) {
	table := testTable()
	table.StandardDeduction = dec("15000")
	indexed := IndexTable(table, dec("2"))

	assert.True(t, indexed.Ordinary[0].Max.Equal(dec("23200")))
	assert.True(t, indexed.Ordinary[2].Unbounded())
	assert.True(t, indexed.StandardDeduction.Equal(dec("30000")))
	assert.True(t, indexed.SocialSecurityBase1.Equal(dec("25000")), "SS thresholds are not indexed")
	assert.True(t, table.Ordinary[0].Max.Equal(dec("11600")), "input table unchanged")

	r := ComputeAnnualTax(TaxInput{Income: domain.TaxAccumulators{OrdinaryIncome: dec("20000")}}, testTable(), dec("2"))
	assert.True(t, r.OrdinaryTax.Equal(dec("2000")))
}
