package calculation

import (
	"github.com/rpgo/projection-engine/internal/domain"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Federal only. Brackets come from the configured table for the filing
//    status and are scaled by the path's inflation index when indexing is on.
// 2. Short-term gains are ordinary income. Long-term gains and qualified
//    dividends stack on top of ordinary taxable income in the LTCG brackets.
// 3. Net capital losses offset up to $3,000 of ordinary income per year; the
//    rest carries forward indefinitely.
// 4. Unrecaptured depreciation is taxed at a flat 25%.
// 5. Self-employment tax is 15.3% of 92.35% of net SE income, half of which
//    is deductible from AGI. No wage-base cap is applied.
// 6. Tax-deferred withdrawals before 59½ carry a 10% additional tax.

var (
	capitalLossOrdinaryLimit = decimal.NewFromInt(3000)
	recaptureRate            = decimal.NewFromFloat(0.25)
	seTaxRate                = decimal.NewFromFloat(0.153)
	seEarningsFactor         = decimal.NewFromFloat(0.9235)
	earlyWithdrawalRate      = decimal.NewFromFloat(0.10)
)

// ProgressiveTax applies each bracket's rate to the slice of income inside it.
func ProgressiveTax(income decimal.Decimal, brackets []domain.TaxBracket) decimal.Decimal {
	total := decimal.Zero
	if !income.IsPositive() {
		return total
	}
	for _, b := range brackets {
		if income.LessThanOrEqual(b.Min) {
			break
		}
		top := income
		if !b.Unbounded() && b.Max.LessThan(top) {
			top = b.Max
		}
		total = total.Add(top.Sub(b.Min).Mul(b.Rate))
	}
	return total
}

// StackedTax is the tax on amount when it sits on top of base, e.g. long-term
// gains above ordinary taxable income in the capital-gains brackets.
func StackedTax(base, amount decimal.Decimal, brackets []domain.TaxBracket) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	base = pkgdecimal.ClampZero(base)
	return ProgressiveTax(base.Add(amount), brackets).Sub(ProgressiveTax(base, brackets))
}

// TaxInput is one calendar year of tax-relevant amounts.
type TaxInput struct {
	Income               domain.TaxAccumulators
	CapitalLossCarryover decimal.Decimal
	// Filers65 is how many filers are 65 or older at year end.
	Filers65 int
}

// TaxResult is the settled liability for a year and its parts.
type TaxResult struct {
	AGI                    decimal.Decimal `json:"agi"`
	MAGI                   decimal.Decimal `json:"magi"`
	TaxableIncome          decimal.Decimal `json:"taxable_income"`
	TaxableSocialSecurity  decimal.Decimal `json:"taxable_social_security"`
	NetShortTermGain       decimal.Decimal `json:"net_short_term_gain"`
	NetLongTermGain        decimal.Decimal `json:"net_long_term_gain"`
	CapitalLossDeduction   decimal.Decimal `json:"capital_loss_deduction"`
	CarryoverOut           decimal.Decimal `json:"carryover_out"`
	OrdinaryTax            decimal.Decimal `json:"ordinary_tax"`
	CapitalGainsTax        decimal.Decimal `json:"capital_gains_tax"`
	RecaptureTax           decimal.Decimal `json:"recapture_tax"`
	SelfEmploymentTax      decimal.Decimal `json:"self_employment_tax"`
	EarlyWithdrawalPenalty decimal.Decimal `json:"early_withdrawal_penalty"`
	Total                  decimal.Decimal `json:"total"`
}

// IndexTable scales bracket thresholds and deductions by factor. Rates and
// the Social Security thresholds, which are not indexed by statute, are kept.
func IndexTable(t domain.TaxTable, factor decimal.Decimal) domain.TaxTable {
	if !factor.IsPositive() || factor.Equal(decimal.NewFromInt(1)) {
		return t
	}
	scale := func(in []domain.TaxBracket) []domain.TaxBracket {
		out := make([]domain.TaxBracket, len(in))
		for i, b := range in {
			out[i] = domain.TaxBracket{Min: b.Min.Mul(factor), Max: b.Max.Mul(factor), Rate: b.Rate}
		}
		return out
	}
	t.Ordinary = scale(t.Ordinary)
	t.LongTermGains = scale(t.LongTermGains)
	t.StandardDeduction = t.StandardDeduction.Mul(factor)
	t.AdditionalDeduction65 = t.AdditionalDeduction65.Mul(factor)
	return t
}

// netCapital nets short- and long-term results against each other and the
// incoming carryover. Net gains keep their character; a net loss offsets up
// to $3,000 of ordinary income and the rest carries forward.
func netCapital(st, lt, carry decimal.Decimal) (netST, netLT, deduction, carryOut decimal.Decimal) {
	carry = pkgdecimal.ClampZero(carry)
	total := st.Add(lt).Sub(carry)
	if !total.IsPositive() {
		loss := total.Neg()
		deduction = decimal.Min(loss, capitalLossOrdinaryLimit)
		return decimal.Zero, decimal.Zero, deduction, loss.Sub(deduction)
	}
	switch {
	case st.IsNegative() && lt.IsPositive():
		lt, st = lt.Add(st), decimal.Zero
	case lt.IsNegative() && st.IsPositive():
		st, lt = st.Add(lt), decimal.Zero
	}
	used := decimal.Min(st, carry)
	if used.IsPositive() {
		st = st.Sub(used)
		carry = carry.Sub(used)
	}
	lt = lt.Sub(carry)
	return st, lt, decimal.Zero, decimal.Zero
}

// ComputeAnnualTax settles a year's federal liability. The table should
// already be the one for the year; indexFactor scales its thresholds.
// Every component is clamped at zero.
func ComputeAnnualTax(in TaxInput, table domain.TaxTable, indexFactor decimal.Decimal) TaxResult {
	t := IndexTable(table, indexFactor)
	inc := in.Income
	var r TaxResult

	r.NetShortTermGain, r.NetLongTermGain, r.CapitalLossDeduction, r.CarryoverOut =
		netCapital(inc.ShortTermGains, inc.LongTermGains, in.CapitalLossCarryover)

	seEarnings := pkgdecimal.ClampZero(inc.SelfEmploymentIncome).Mul(seEarningsFactor)
	r.SelfEmploymentTax = seEarnings.Mul(seTaxRate).Round(2)
	seDeduction := r.SelfEmploymentTax.Mul(half)

	ordinary := inc.OrdinaryIncome.Sub(inc.PreTaxContributions).Add(r.NetShortTermGain)
	preferential := r.NetLongTermGain.Add(pkgdecimal.ClampZero(inc.QualifiedDividends))
	recapture := pkgdecimal.ClampZero(inc.DepreciationRecapture)

	other := ordinary.Add(preferential).Add(recapture).Sub(seDeduction).Sub(r.CapitalLossDeduction)
	r.TaxableSocialSecurity = TaxableSocialSecurity(inc.SocialSecurity,
		ProvisionalIncome(other, inc.SocialSecurity), t.SocialSecurityBase1, t.SocialSecurityBase2)

	r.AGI = pkgdecimal.ClampZero(other.Add(r.TaxableSocialSecurity))
	r.MAGI = r.AGI

	deduction := t.StandardDeduction
	if in.Filers65 > 0 {
		deduction = deduction.Add(t.AdditionalDeduction65.Mul(decimal.NewFromInt(int64(in.Filers65))))
	}

	ordinaryTaxable := ordinary.Add(r.TaxableSocialSecurity).Sub(seDeduction).Sub(r.CapitalLossDeduction).Sub(deduction)
	// Unused deduction shelters preferential income before recapture.
	remainingDeduction := pkgdecimal.ClampZero(ordinaryTaxable.Neg())
	ordinaryTaxable = pkgdecimal.ClampZero(ordinaryTaxable)
	prefTaxable := pkgdecimal.ClampZero(preferential.Sub(remainingDeduction))
	remainingDeduction = pkgdecimal.ClampZero(remainingDeduction.Sub(preferential))
	recaptureTaxable := pkgdecimal.ClampZero(recapture.Sub(remainingDeduction))

	r.TaxableIncome = ordinaryTaxable.Add(prefTaxable).Add(recaptureTaxable)
	r.OrdinaryTax = pkgdecimal.ClampZero(ProgressiveTax(ordinaryTaxable, t.Ordinary)).Round(2)
	r.CapitalGainsTax = pkgdecimal.ClampZero(StackedTax(ordinaryTaxable, prefTaxable, t.LongTermGains)).Round(2)
	r.RecaptureTax = recaptureTaxable.Mul(recaptureRate).Round(2)
	r.EarlyWithdrawalPenalty = pkgdecimal.ClampZero(inc.EarlyWithdrawals).Mul(earlyWithdrawalRate).Round(2)

	r.Total = r.OrdinaryTax.
		Add(r.CapitalGainsTax).
		Add(r.RecaptureTax).
		Add(r.SelfEmploymentTax).
		Add(r.EarlyWithdrawalPenalty)
	return r
}
