package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
)

// AccountType identifies a tax treatment bucket
type AccountType string

const (
	AccountCash        AccountType = "cash"
	AccountTaxable     AccountType = "taxable"
	AccountTaxDeferred AccountType = "tax_deferred"
	AccountRoth        AccountType = "roth"
	AccountEducation   AccountType = "education"
)

// InvestmentAccounts lists the invested account types in a stable order.
var InvestmentAccounts = []AccountType{AccountTaxable, AccountTaxDeferred, AccountRoth, AccountEducation}

// IsTaxAdvantaged reports whether withdrawals are subject to age protection.
func (a AccountType) IsTaxAdvantaged() bool {
	return a == AccountTaxDeferred || a == AccountRoth
}

// FilingStatus selects the tax table
type FilingStatus string

const (
	FilingSingle            FilingStatus = "single"
	FilingMarriedJointly    FilingStatus = "married_filing_jointly"
	FilingHeadOfHousehold   FilingStatus = "head_of_household"
	FilingMarriedSeparately FilingStatus = "married_filing_separately"
)

// residential rental recovery period
const rentalDepreciationYears = 27.5

// AllocationIn maps asset class names to target weights as written in YAML.
type AllocationIn map[string]float64

// Holding is one asset-class position inside an account
type Holding struct {
	Value     decimal.Decimal `json:"value"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// UnrealizedGain returns value minus cost basis (negative for a loss).
func (h Holding) UnrealizedGain() decimal.Decimal {
	return h.Value.Sub(h.CostBasis)
}

// Account holds positions aligned index-for-index with the compiled asset model.
type Account struct {
	Type     AccountType       `json:"type"`
	Holdings []Holding         `json:"holdings"`
	Target   []decimal.Decimal `json:"target"`
}

// NewAccount creates an empty account sized for n asset classes.
func NewAccount(t AccountType, target []decimal.Decimal) *Account {
	return &Account{
		Type:     t,
		Holdings: make([]Holding, len(target)),
		Target:   append([]decimal.Decimal(nil), target...),
	}
}

// TotalValue sums holding values.
func (a *Account) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range a.Holdings {
		total = total.Add(h.Value)
	}
	return total
}

// TotalCostBasis sums holding cost basis.
func (a *Account) TotalCostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, h := range a.Holdings {
		total = total.Add(h.CostBasis)
	}
	return total
}

// UnrealizedGain is total value minus total cost basis.
func (a *Account) UnrealizedGain() decimal.Decimal {
	return a.TotalValue().Sub(a.TotalCostBasis())
}

// Deposit buys positions at the target weights. The full amount becomes basis.
func (a *Account) Deposit(amount decimal.Decimal) {
	if !amount.IsPositive() || len(a.Holdings) == 0 {
		return
	}
	remaining := amount
	last := -1
	for i, w := range a.Target {
		if w.IsPositive() {
			last = i
		}
	}
	if last < 0 {
		last = 0
	}
	for i, w := range a.Target {
		if !w.IsPositive() && i != last {
			continue
		}
		share := amount.Mul(w)
		if i == last {
			share = remaining
		}
		a.Holdings[i].Value = a.Holdings[i].Value.Add(share)
		a.Holdings[i].CostBasis = a.Holdings[i].CostBasis.Add(share)
		remaining = remaining.Sub(share)
	}
}

// Withdraw sells proportionally across holdings. It returns the amount actually
// raised and the gain realized (value sold minus basis relieved).
func (a *Account) Withdraw(amount decimal.Decimal) (raised, realizedGain decimal.Decimal) {
	total := a.TotalValue()
	if !amount.IsPositive() || !total.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	if amount.GreaterThanOrEqual(total) {
		gain := a.UnrealizedGain()
		for i := range a.Holdings {
			a.Holdings[i] = Holding{Value: decimal.Zero, CostBasis: decimal.Zero}
		}
		return total, gain
	}
	fraction := amount.Div(total)
	raised = decimal.Zero
	realizedGain = decimal.Zero
	for i, h := range a.Holdings {
		if !h.Value.IsPositive() {
			continue
		}
		sold := pkgdecimal.RoundCents(h.Value.Mul(fraction))
		basis := pkgdecimal.RoundCents(h.CostBasis.Mul(fraction))
		a.Holdings[i].Value = h.Value.Sub(sold)
		a.Holdings[i].CostBasis = h.CostBasis.Sub(basis)
		raised = raised.Add(sold)
		realizedGain = realizedGain.Add(sold.Sub(basis))
	}
	return raised, realizedGain
}

// Rebalance moves every holding to its target weight, returning the realized gain.
func (a *Account) Rebalance() decimal.Decimal {
	total := a.TotalValue()
	if !total.IsPositive() {
		return decimal.Zero
	}
	realized := decimal.Zero
	for i, h := range a.Holdings {
		want := total.Mul(a.Target[i])
		switch {
		case h.Value.GreaterThan(want):
			sold := h.Value.Sub(want)
			basis := h.CostBasis.Mul(sold).Div(h.Value)
			realized = realized.Add(sold.Sub(basis))
			a.Holdings[i].Value = want
			a.Holdings[i].CostBasis = h.CostBasis.Sub(basis)
		case h.Value.LessThan(want):
			bought := want.Sub(h.Value)
			a.Holdings[i].Value = want
			a.Holdings[i].CostBasis = h.CostBasis.Add(bought)
		}
	}
	return realized
}

// HarvestLosses realizes unrealized losses up to limit (a positive amount) and
// resets the basis of harvested positions. The returned loss is negative.
func (a *Account) HarvestLosses(limit decimal.Decimal) decimal.Decimal {
	harvested := decimal.Zero
	for i, h := range a.Holdings {
		if !limit.IsPositive() {
			break
		}
		loss := h.CostBasis.Sub(h.Value)
		if !loss.IsPositive() {
			continue
		}
		take := decimal.Min(loss, limit)
		a.Holdings[i].CostBasis = h.CostBasis.Sub(take)
		harvested = harvested.Sub(take)
		limit = limit.Sub(take)
	}
	return harvested
}

// RealizeGains sells and rebuys enough of each appreciated position to realize
// up to limit of gain, stepping up basis.
func (a *Account) RealizeGains(limit decimal.Decimal) decimal.Decimal {
	realized := decimal.Zero
	for i, h := range a.Holdings {
		if !limit.IsPositive() {
			break
		}
		gain := h.UnrealizedGain()
		if !gain.IsPositive() {
			continue
		}
		take := decimal.Min(gain, limit)
		a.Holdings[i].CostBasis = h.CostBasis.Add(take)
		realized = realized.Add(take)
		limit = limit.Sub(take)
	}
	return realized
}

// SetTarget replaces target weights.
func (a *Account) SetTarget(target []decimal.Decimal) {
	a.Target = append(a.Target[:0:0], target...)
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	return &Account{
		Type:     a.Type,
		Holdings: append([]Holding(nil), a.Holdings...),
		Target:   append([]decimal.Decimal(nil), a.Target...),
	}
}

// Liability is an amortizing loan
type Liability struct {
	ID              string          `json:"id"`
	Principal       decimal.Decimal `json:"principal"`
	AnnualRate      decimal.Decimal `json:"annual_rate"`
	RemainingMonths int             `json:"remaining_months"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	PropertyID      string          `json:"property_id,omitempty"`
}

// Property is a real-estate position. Rental properties accrue depreciation.
type Property struct {
	ID                      string          `json:"id"`
	Value                   decimal.Decimal `json:"value"`
	CostBasis               decimal.Decimal `json:"cost_basis"`
	DepreciableBasis        decimal.Decimal `json:"depreciable_basis"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	MonthlyRent             decimal.Decimal `json:"monthly_rent"`
	MonthlyExpenses         decimal.Decimal `json:"monthly_expenses"`
	Rental                  bool            `json:"rental"`
	Sold                    bool            `json:"sold"`
}

// MonthlyDepreciation is straight-line residential depreciation until the basis is exhausted.
func (p *Property) MonthlyDepreciation() decimal.Decimal {
	if !p.Rental || p.Sold || !p.DepreciableBasis.IsPositive() {
		return decimal.Zero
	}
	monthly := p.DepreciableBasis.Div(decimal.NewFromFloat(rentalDepreciationYears * 12))
	left := p.DepreciableBasis.Sub(p.AccumulatedDepreciation)
	if left.LessThan(monthly) {
		monthly = left
	}
	if monthly.IsNegative() {
		return decimal.Zero
	}
	return monthly
}

// TaxAccumulators are year-to-date tax-relevant amounts.
type TaxAccumulators struct {
	OrdinaryIncome        decimal.Decimal `json:"ordinary_income"`
	ShortTermGains        decimal.Decimal `json:"short_term_gains"`
	LongTermGains         decimal.Decimal `json:"long_term_gains"`
	QualifiedDividends    decimal.Decimal `json:"qualified_dividends"`
	PreTaxContributions   decimal.Decimal `json:"pre_tax_contributions"`
	Withholding           decimal.Decimal `json:"withholding"`
	EstimatedPayments     decimal.Decimal `json:"estimated_payments"`
	DepreciationRecapture decimal.Decimal `json:"depreciation_recapture"`
	SocialSecurity        decimal.Decimal `json:"social_security"`
	SelfEmploymentIncome  decimal.Decimal `json:"self_employment_income"`
	EarlyWithdrawals      decimal.Decimal `json:"early_withdrawals"`
}

// Sub subtracts o field by field.
func (t TaxAccumulators) Sub(o TaxAccumulators) TaxAccumulators {
	return TaxAccumulators{
		OrdinaryIncome:        t.OrdinaryIncome.Sub(o.OrdinaryIncome),
		ShortTermGains:        t.ShortTermGains.Sub(o.ShortTermGains),
		LongTermGains:         t.LongTermGains.Sub(o.LongTermGains),
		QualifiedDividends:    t.QualifiedDividends.Sub(o.QualifiedDividends),
		PreTaxContributions:   t.PreTaxContributions.Sub(o.PreTaxContributions),
		Withholding:           t.Withholding.Sub(o.Withholding),
		EstimatedPayments:     t.EstimatedPayments.Sub(o.EstimatedPayments),
		DepreciationRecapture: t.DepreciationRecapture.Sub(o.DepreciationRecapture),
		SocialSecurity:        t.SocialSecurity.Sub(o.SocialSecurity),
		SelfEmploymentIncome:  t.SelfEmploymentIncome.Sub(o.SelfEmploymentIncome),
		EarlyWithdrawals:      t.EarlyWithdrawals.Sub(o.EarlyWithdrawals),
	}
}

// TaxPrepaid is withholding plus estimated payments.
func (t TaxAccumulators) TaxPrepaid() decimal.Decimal {
	return t.Withholding.Add(t.EstimatedPayments)
}

// SimulationState is the balance sheet of one path at one month. It is owned
// by a single stepper and never shared between paths.
type SimulationState struct {
	Month         int          `json:"month"`
	Year          int          `json:"year"`
	CalendarMonth time.Month   `json:"calendar_month"`
	AgeMonths     int          `json:"age_months"`
	FilingStatus  FilingStatus `json:"filing_status"`

	Cash        decimal.Decimal          `json:"cash"`
	Accounts    map[AccountType]*Account `json:"accounts"`
	Liabilities []*Liability             `json:"liabilities"`
	Properties  []*Property              `json:"properties"`

	YTD                     TaxAccumulators         `json:"ytd"`
	SettledYTD              TaxAccumulators         `json:"-"`
	TaxesPaidYTD            decimal.Decimal         `json:"taxes_paid_ytd"`
	CapitalLossCarryover    decimal.Decimal         `json:"capital_loss_carryover"`
	PriorYearEndTaxDeferred decimal.Decimal         `json:"prior_year_end_tax_deferred"`
	MAGIHistory             map[int]decimal.Decimal `json:"magi_history"`
	MedicarePremium         decimal.Decimal         `json:"medicare_premium"`
	InflationIndex          decimal.Decimal         `json:"inflation_index"`
}

// Account returns the account of the given type, or nil.
func (s *SimulationState) Account(t AccountType) *Account {
	return s.Accounts[t]
}

// AccountValue returns the total value of an account type (zero when absent).
func (s *SimulationState) AccountValue(t AccountType) decimal.Decimal {
	if a := s.Accounts[t]; a != nil {
		return a.TotalValue()
	}
	return decimal.Zero
}

// InvestedAssets sums every investment account.
func (s *SimulationState) InvestedAssets() decimal.Decimal {
	total := decimal.Zero
	for _, t := range InvestmentAccounts {
		total = total.Add(s.AccountValue(t))
	}
	return total
}

// RealEstateValue sums unsold property values.
func (s *SimulationState) RealEstateValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Properties {
		if !p.Sold {
			total = total.Add(p.Value)
		}
	}
	return total
}

// TotalDebt sums outstanding principal.
func (s *SimulationState) TotalDebt() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Liabilities {
		total = total.Add(l.Principal)
	}
	return total
}

// TotalAssets is cash (when positive) plus invested assets plus real estate.
func (s *SimulationState) TotalAssets() decimal.Decimal {
	cash := s.Cash
	if cash.IsNegative() {
		cash = decimal.Zero
	}
	return cash.Add(s.InvestedAssets()).Add(s.RealEstateValue())
}

// NetWorth is assets minus debt. Negative cash counts against net worth.
func (s *SimulationState) NetWorth() decimal.Decimal {
	return s.Cash.Add(s.InvestedAssets()).Add(s.RealEstateValue()).Sub(s.TotalDebt())
}

// Clone returns a deep copy suitable for a new path.
func (s *SimulationState) Clone() *SimulationState {
	c := *s
	c.Accounts = make(map[AccountType]*Account, len(s.Accounts))
	for t, a := range s.Accounts {
		c.Accounts[t] = a.Clone()
	}
	c.Liabilities = make([]*Liability, len(s.Liabilities))
	for i, l := range s.Liabilities {
		cp := *l
		c.Liabilities[i] = &cp
	}
	c.Properties = make([]*Property, len(s.Properties))
	for i, p := range s.Properties {
		cp := *p
		c.Properties[i] = &cp
	}
	c.MAGIHistory = make(map[int]decimal.Decimal, len(s.MAGIHistory))
	for y, v := range s.MAGIHistory {
		c.MAGIHistory[y] = v
	}
	return &c
}
