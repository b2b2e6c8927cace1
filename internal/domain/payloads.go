package domain

import "github.com/shopspring/decimal"

// Payload is the closed set of event variants. The unexported marker keeps
// other packages from adding variants; PayloadVisitor must handle every one.
type Payload interface {
	Category() Category
	Accept(v PayloadVisitor, ev *MonthlyEvent) error
	isPayload()
}

// PayloadVisitor has one method per Payload variant. Adding a variant without
// a matching method breaks the build of every visitor.
type PayloadVisitor interface {
	VisitIncome(ev *MonthlyEvent, p IncomePayload) error
	VisitRecurringExpense(ev *MonthlyEvent, p RecurringExpensePayload) error
	VisitScheduledContribution(ev *MonthlyEvent, p ScheduledContributionPayload) error
	VisitOneTime(ev *MonthlyEvent, p OneTimePayload) error
	VisitLiabilityAdd(ev *MonthlyEvent, p LiabilityAddPayload) error
	VisitLiabilityPayment(ev *MonthlyEvent, p LiabilityPaymentPayload) error
	VisitRetirementIncome(ev *MonthlyEvent, p RetirementIncomePayload) error
	VisitTaxStrategy(ev *MonthlyEvent, p TaxStrategyPayload) error
	VisitEquityVesting(ev *MonthlyEvent, p EquityVestingPayload) error
	VisitInsurancePremium(ev *MonthlyEvent, p InsurancePremiumPayload) error
	VisitInsurancePayout(ev *MonthlyEvent, p InsurancePayoutPayload) error
	VisitEducationContribution(ev *MonthlyEvent, p EducationContributionPayload) error
	VisitEducationWithdrawal(ev *MonthlyEvent, p EducationWithdrawalPayload) error
	VisitBusinessIncome(ev *MonthlyEvent, p BusinessIncomePayload) error
	VisitPortfolioStrategy(ev *MonthlyEvent, p PortfolioStrategyPayload) error
	VisitRealEstateSale(ev *MonthlyEvent, p RealEstateSalePayload) error
	VisitMilestone(ev *MonthlyEvent, p MilestonePayload) error
	VisitRMD(ev *MonthlyEvent, p RMDPayload) error
}

// IncomePayload is wage income. Withholding is taken at the stated rate.
type IncomePayload struct {
	WithholdingRate decimal.Decimal
	Taxable         bool
}

type RecurringExpensePayload struct{}

// ScheduledContributionPayload moves cash into an investment account.
type ScheduledContributionPayload struct {
	Account AccountType
}

// OneTimePayload is a signed lump sum: positive is an inflow, negative an outflow.
type OneTimePayload struct {
	Taxable bool
}

// LiabilityAddPayload opens an amortizing loan with Amount as principal.
type LiabilityAddPayload struct {
	LiabilityID string
	AnnualRate  decimal.Decimal
	TermMonths  int
	PropertyID  string
	FundsToCash bool
}

// LiabilityPaymentPayload is an extra principal payment.
type LiabilityPaymentPayload struct {
	LiabilityID string
}

// RetirementIncomeKind distinguishes taxation of retirement income streams
type RetirementIncomeKind string

const (
	RetirementPension        RetirementIncomeKind = "pension"
	RetirementSocialSecurity RetirementIncomeKind = "social_security"
	RetirementAnnuity        RetirementIncomeKind = "annuity"
)

type RetirementIncomePayload struct {
	Kind RetirementIncomeKind
}

// TaxAction is the action carried by a tax-strategy event
type TaxAction string

const (
	TaxActionRothConversion    TaxAction = "roth_conversion"
	TaxActionLossHarvest       TaxAction = "tax_loss_harvest"
	TaxActionEstimatedPayment  TaxAction = "estimated_payment"
	TaxActionRealizeGains      TaxAction = "realize_gains"
	TaxActionShortTermRealized TaxAction = "realize_short_term_gains"
)

type TaxStrategyPayload struct {
	Action TaxAction
}

// EquityVestingPayload treats the vest value as ordinary income.
type EquityVestingPayload struct {
	WithholdingRate decimal.Decimal
	SellOnVest      bool
}

type InsurancePremiumPayload struct{}

type InsurancePayoutPayload struct {
	Taxable bool
}

type EducationContributionPayload struct{}

type EducationWithdrawalPayload struct{}

type BusinessIncomePayload struct {
	SelfEmployed bool
}

// PortfolioAction is the action carried by a portfolio-strategy event
type PortfolioAction string

const (
	PortfolioRebalance     PortfolioAction = "rebalance"
	PortfolioSetAllocation PortfolioAction = "set_allocation"
)

type PortfolioStrategyPayload struct {
	Action     PortfolioAction
	Account    AccountType
	Allocation AllocationIn
}

// RealEstateSalePayload sells a property by ID. Amount is the selling cost.
type RealEstateSalePayload struct {
	PropertyID string
}

// MilestonePayload records whether net worth reached Amount at its month.
type MilestonePayload struct {
	Name string
}

// RMDPayload is synthesized every January once the RMD age is reached.
type RMDPayload struct{}

func (IncomePayload) Category() Category                { return CategoryIncome }
func (RecurringExpensePayload) Category() Category      { return CategoryRecurringExpense }
func (ScheduledContributionPayload) Category() Category { return CategoryScheduledContribution }
func (OneTimePayload) Category() Category               { return CategoryOneTime }
func (LiabilityAddPayload) Category() Category          { return CategoryLiabilityAdd }
func (LiabilityPaymentPayload) Category() Category      { return CategoryLiabilityPayment }
func (RetirementIncomePayload) Category() Category      { return CategoryRetirementIncome }
func (TaxStrategyPayload) Category() Category           { return CategoryTaxStrategy }
func (EquityVestingPayload) Category() Category         { return CategoryEquityVesting }
func (InsurancePremiumPayload) Category() Category      { return CategoryInsurancePremium }
func (InsurancePayoutPayload) Category() Category       { return CategoryInsurancePayout }
func (EducationContributionPayload) Category() Category { return CategoryEducationContribution }
func (EducationWithdrawalPayload) Category() Category   { return CategoryEducationWithdrawal }
func (BusinessIncomePayload) Category() Category        { return CategoryBusinessIncome }
func (PortfolioStrategyPayload) Category() Category     { return CategoryPortfolioStrategy }
func (RealEstateSalePayload) Category() Category        { return CategoryRealEstateSale }
func (MilestonePayload) Category() Category             { return CategoryMilestone }
func (RMDPayload) Category() Category                   { return CategoryRMD }

func (p IncomePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitIncome(ev, p)
}
func (p RecurringExpensePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitRecurringExpense(ev, p)
}
func (p ScheduledContributionPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitScheduledContribution(ev, p)
}
func (p OneTimePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitOneTime(ev, p)
}
func (p LiabilityAddPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitLiabilityAdd(ev, p)
}
func (p LiabilityPaymentPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitLiabilityPayment(ev, p)
}
func (p RetirementIncomePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitRetirementIncome(ev, p)
}
func (p TaxStrategyPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitTaxStrategy(ev, p)
}
func (p EquityVestingPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitEquityVesting(ev, p)
}
func (p InsurancePremiumPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitInsurancePremium(ev, p)
}
func (p InsurancePayoutPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitInsurancePayout(ev, p)
}
func (p EducationContributionPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitEducationContribution(ev, p)
}
func (p EducationWithdrawalPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitEducationWithdrawal(ev, p)
}
func (p BusinessIncomePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitBusinessIncome(ev, p)
}
func (p PortfolioStrategyPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitPortfolioStrategy(ev, p)
}
func (p RealEstateSalePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitRealEstateSale(ev, p)
}
func (p MilestonePayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitMilestone(ev, p)
}
func (p RMDPayload) Accept(v PayloadVisitor, ev *MonthlyEvent) error {
	return v.VisitRMD(ev, p)
}

func (IncomePayload) isPayload()                {}
func (RecurringExpensePayload) isPayload()      {}
func (ScheduledContributionPayload) isPayload() {}
func (OneTimePayload) isPayload()               {}
func (LiabilityAddPayload) isPayload()          {}
func (LiabilityPaymentPayload) isPayload()      {}
func (RetirementIncomePayload) isPayload()      {}
func (TaxStrategyPayload) isPayload()           {}
func (EquityVestingPayload) isPayload()         {}
func (InsurancePremiumPayload) isPayload()      {}
func (InsurancePayoutPayload) isPayload()       {}
func (EducationContributionPayload) isPayload() {}
func (EducationWithdrawalPayload) isPayload()   {}
func (BusinessIncomePayload) isPayload()        {}
func (PortfolioStrategyPayload) isPayload()     {}
func (RealEstateSalePayload) isPayload()        {}
func (MilestonePayload) isPayload()             {}
func (RMDPayload) isPayload()                   {}
