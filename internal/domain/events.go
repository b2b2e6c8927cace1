package domain

import (
	"github.com/shopspring/decimal"
)

// Category tags a financial event with the variant of its payload
type Category string

const (
	CategoryIncome                Category = "income"
	CategoryRecurringExpense      Category = "recurring_expense"
	CategoryScheduledContribution Category = "scheduled_contribution"
	CategoryOneTime               Category = "one_time"
	CategoryLiabilityAdd          Category = "liability_add"
	CategoryLiabilityPayment      Category = "liability_payment"
	CategoryRetirementIncome      Category = "retirement_income"
	CategoryTaxStrategy           Category = "tax_strategy"
	CategoryEquityVesting         Category = "equity_vesting"
	CategoryInsurancePremium      Category = "insurance_premium"
	CategoryInsurancePayout       Category = "insurance_payout"
	CategoryEducationContribution Category = "education_contribution"
	CategoryEducationWithdrawal   Category = "education_withdrawal"
	CategoryBusinessIncome        Category = "business_income"
	CategoryPortfolioStrategy     Category = "portfolio_strategy"
	CategoryRealEstateSale        Category = "real_estate_sale"
	CategoryMilestone             Category = "milestone"

	// CategoryRMD is synthesized by the normalizer and never accepted from a ledger.
	CategoryRMD Category = "rmd"
)

// Priority orders same-month events. Lower values apply first.
type Priority int

const (
	PriorityObligation Priority = iota
	PriorityCashFlow
	PriorityDiscretionary
	PriorityInformational
)

// Priority returns the application class for the category.
func (c Category) Priority() Priority {
	switch c {
	case CategoryLiabilityPayment, CategoryRMD:
		return PriorityObligation
	case CategoryScheduledContribution, CategoryEducationContribution,
		CategoryTaxStrategy, CategoryPortfolioStrategy, CategoryRealEstateSale:
		return PriorityDiscretionary
	case CategoryMilestone:
		return PriorityInformational
	default:
		return PriorityCashFlow
	}
}

// Cadence is how often a ledger entry recurs
type Cadence string

const (
	CadenceOneTime   Cadence = "one_time"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
)

// OccurrencesPerYear returns how many instances a cadence produces per calendar year.
func (c Cadence) OccurrencesPerYear() int {
	switch c {
	case CadenceMonthly:
		return 12
	case CadenceQuarterly:
		return 4
	case CadenceAnnual, CadenceOneTime:
		return 1
	default:
		return 0
	}
}

// AmountBasis declares whether a recurring amount is stated per month or per year
type AmountBasis string

const (
	PerMonth AmountBasis = "per_month"
	PerYear  AmountBasis = "per_year"
)

// RawEvent is a ledger entry as supplied by the caller. Category-specific
// fields are flattened; the normalizer turns them into a typed Payload.
type RawEvent struct {
	ID               string       `yaml:"id" json:"id"`
	Category         Category     `yaml:"category" json:"category"`
	Amount           string       `yaml:"amount" json:"amount"`
	Cadence          Cadence      `yaml:"cadence,omitempty" json:"cadence,omitempty"`
	Basis            AmountBasis  `yaml:"basis,omitempty" json:"basis,omitempty"`
	StartMonth       int          `yaml:"start_month" json:"start_month"`
	EndMonth         *int         `yaml:"end_month,omitempty" json:"end_month,omitempty"`
	GrowthRate       *float64     `yaml:"growth_rate,omitempty" json:"growth_rate,omitempty"`
	InflationIndexed bool         `yaml:"inflation_indexed,omitempty" json:"inflation_indexed,omitempty"`
	Account          AccountType  `yaml:"account,omitempty" json:"account,omitempty"`
	Rate             float64      `yaml:"rate,omitempty" json:"rate,omitempty"`
	TermMonths       int          `yaml:"term_months,omitempty" json:"term_months,omitempty"`
	Target           string       `yaml:"target,omitempty" json:"target,omitempty"`
	PropertyID       string       `yaml:"property_id,omitempty" json:"property_id,omitempty"`
	Action           string       `yaml:"action,omitempty" json:"action,omitempty"`
	Kind             string       `yaml:"kind,omitempty" json:"kind,omitempty"`
	Taxable          *bool        `yaml:"taxable,omitempty" json:"taxable,omitempty"`
	SellOnVest       bool         `yaml:"sell_on_vest,omitempty" json:"sell_on_vest,omitempty"`
	FundsToCash      bool         `yaml:"funds_to_cash,omitempty" json:"funds_to_cash,omitempty"`
	SelfEmployed     bool         `yaml:"self_employed,omitempty" json:"self_employed,omitempty"`
	Allocation       AllocationIn `yaml:"allocation,omitempty" json:"allocation,omitempty"`
}

// MonthlyEvent is a normalized primitive: one concrete month, one finite amount.
type MonthlyEvent struct {
	EventID  string          `json:"event_id"`
	Month    int             `json:"month"`
	Amount   decimal.Decimal `json:"amount"`
	Sequence int             `json:"sequence"`
	Payload  Payload         `json:"-"`
}

// Category returns the payload's category tag.
func (e MonthlyEvent) Category() Category {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Category()
}
