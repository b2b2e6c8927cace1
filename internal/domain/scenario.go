package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile describes the person being projected.
type Profile struct {
	Name              string       `yaml:"name,omitempty" json:"name,omitempty"`
	BirthYear         int          `yaml:"birth_year" json:"birth_year"`
	BirthMonth        time.Month   `yaml:"birth_month" json:"birth_month"`
	FilingStatus      FilingStatus `yaml:"filing_status" json:"filing_status"`
	RMDStartAge       int          `yaml:"rmd_start_age,omitempty" json:"rmd_start_age,omitempty"`
	MedicareEnrollees int          `yaml:"medicare_enrollees,omitempty" json:"medicare_enrollees,omitempty"`
}

// AccountInput is an opening account balance. A nil CostBasis means basis equals balance.
type AccountInput struct {
	Balance    decimal.Decimal  `yaml:"balance" json:"balance"`
	CostBasis  *decimal.Decimal `yaml:"cost_basis,omitempty" json:"cost_basis,omitempty"`
	Allocation AllocationIn     `yaml:"allocation,omitempty" json:"allocation,omitempty"`
}

// LiabilityInput is an opening loan.
type LiabilityInput struct {
	ID         string          `yaml:"id" json:"id"`
	Principal  decimal.Decimal `yaml:"principal" json:"principal"`
	AnnualRate decimal.Decimal `yaml:"annual_rate" json:"annual_rate"`
	TermMonths int             `yaml:"term_months" json:"term_months"`
	PropertyID string          `yaml:"property_id,omitempty" json:"property_id,omitempty"`
}

// PropertyInput is an opening real-estate position.
type PropertyInput struct {
	ID                      string          `yaml:"id" json:"id"`
	Value                   decimal.Decimal `yaml:"value" json:"value"`
	CostBasis               decimal.Decimal `yaml:"cost_basis" json:"cost_basis"`
	DepreciableBasis        decimal.Decimal `yaml:"depreciable_basis,omitempty" json:"depreciable_basis,omitempty"`
	AccumulatedDepreciation decimal.Decimal `yaml:"accumulated_depreciation,omitempty" json:"accumulated_depreciation,omitempty"`
	MonthlyRent             decimal.Decimal `yaml:"monthly_rent,omitempty" json:"monthly_rent,omitempty"`
	MonthlyExpenses         decimal.Decimal `yaml:"monthly_expenses,omitempty" json:"monthly_expenses,omitempty"`
	Rental                  bool            `yaml:"rental,omitempty" json:"rental,omitempty"`
}

// WithdrawalPolicy governs cash shortfalls and excess cash. A nil
// ProtectRetirementUntilAgeMonths takes the loader default (59½).
type WithdrawalPolicy struct {
	Sequence                        []AccountType   `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	ProtectRetirementUntilAgeMonths *int            `yaml:"protect_retirement_until_age_months,omitempty" json:"protect_retirement_until_age_months,omitempty"`
	CashFloor                       decimal.Decimal `yaml:"cash_floor" json:"cash_floor"`
	TargetReserve                   decimal.Decimal `yaml:"target_reserve" json:"target_reserve"`
	SweepThreshold                  decimal.Decimal `yaml:"sweep_threshold,omitempty" json:"sweep_threshold,omitempty"`
	NoAutoLiquidate                 bool            `yaml:"no_auto_liquidate,omitempty" json:"no_auto_liquidate,omitempty"`
	MaxDebtToAssets                 decimal.Decimal `yaml:"max_debt_to_assets,omitempty" json:"max_debt_to_assets,omitempty"`
}

// YearAmount pairs a calendar year with an amount.
type YearAmount struct {
	Year   int             `yaml:"year" json:"year"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// Scenario is the confirmed household picture a run starts from. Account keys
// are canonical account types; legacy aliases are resolved by the loader.
type Scenario struct {
	Name                 string                  `yaml:"name,omitempty" json:"name,omitempty"`
	Profile              Profile                 `yaml:"profile" json:"profile"`
	Cash                 decimal.Decimal         `yaml:"cash" json:"cash"`
	Accounts             map[string]AccountInput `yaml:"accounts" json:"accounts"`
	DefaultAllocation    AllocationIn            `yaml:"default_allocation,omitempty" json:"default_allocation,omitempty"`
	Liabilities          []LiabilityInput        `yaml:"liabilities,omitempty" json:"liabilities,omitempty"`
	Properties           []PropertyInput         `yaml:"properties,omitempty" json:"properties,omitempty"`
	Events               []RawEvent              `yaml:"events,omitempty" json:"events,omitempty"`
	Policy               WithdrawalPolicy        `yaml:"policy" json:"policy"`
	PriorMAGI            []YearAmount            `yaml:"prior_magi,omitempty" json:"prior_magi,omitempty"`
	CapitalLossCarryover decimal.Decimal         `yaml:"capital_loss_carryover,omitempty" json:"capital_loss_carryover,omitempty"`
	InflationAssumption  float64                 `yaml:"inflation_assumption" json:"inflation_assumption"`
}
