package calculation

import (
	"fmt"

	"github.com/rpgo/projection-engine/internal/domain"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

var (
	homeSaleExclusionSingle = decimal.NewFromInt(250000)
	homeSaleExclusionJoint  = decimal.NewFromInt(500000)
)

var _ domain.PayloadVisitor = (*pathStepper)(nil)

// discretionary is the part of amount that cash above the floor can fund.
func (s *pathStepper) discretionary(amount decimal.Decimal) decimal.Decimal {
	room := s.state.Cash.Sub(s.plan.Policy.CashFloor)
	if !room.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(amount, room)
}

// fund returns the discretionary part of amount and flags the month when
// the cash floor cuts it short.
func (s *pathStepper) fund(amount decimal.Decimal) decimal.Decimal {
	funded := s.discretionary(amount)
	if funded.LessThan(amount) {
		s.flag(domain.FlagUnfundedEvent)
	}
	return funded
}

func (s *pathStepper) withhold(amount, rate decimal.Decimal) decimal.Decimal {
	w := pkgdecimal.RoundCents(amount.Mul(rate))
	s.state.YTD.Withholding = s.state.YTD.Withholding.Add(w)
	return w
}

func (s *pathStepper) VisitIncome(ev *domain.MonthlyEvent, p domain.IncomePayload) error {
	st := s.state
	w := s.withhold(ev.Amount, p.WithholdingRate)
	st.Cash = st.Cash.Add(ev.Amount).Sub(w)
	if p.Taxable {
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	}
	return nil
}

func (s *pathStepper) VisitRecurringExpense(ev *domain.MonthlyEvent, _ domain.RecurringExpensePayload) error {
	s.state.Cash = s.state.Cash.Sub(ev.Amount)
	return nil
}

func (s *pathStepper) VisitScheduledContribution(ev *domain.MonthlyEvent, p domain.ScheduledContributionPayload) error {
	st := s.state
	acct := st.Account(p.Account)
	if acct == nil {
		return fmt.Errorf("no %s account", p.Account)
	}
	amount := s.fund(ev.Amount)
	if !amount.IsPositive() {
		return nil
	}
	st.Cash = st.Cash.Sub(amount)
	acct.Deposit(amount)
	if p.Account == domain.AccountTaxDeferred {
		st.YTD.PreTaxContributions = st.YTD.PreTaxContributions.Add(amount)
	}
	return nil
}

func (s *pathStepper) VisitOneTime(ev *domain.MonthlyEvent, p domain.OneTimePayload) error {
	st := s.state
	st.Cash = st.Cash.Add(ev.Amount)
	if p.Taxable && ev.Amount.IsPositive() {
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	}
	return nil
}

func (s *pathStepper) VisitLiabilityAdd(ev *domain.MonthlyEvent, p domain.LiabilityAddPayload) error {
	st := s.state
	if !ev.Amount.IsPositive() {
		return nil
	}
	st.Liabilities = append(st.Liabilities, newLiability(p.LiabilityID, ev.Amount, p.AnnualRate, p.TermMonths, p.PropertyID))
	switch {
	case p.FundsToCash:
		st.Cash = st.Cash.Add(ev.Amount)
	case p.PropertyID != "" && findProperty(st, p.PropertyID) == nil:
		// The loan finances a purchase of the linked property.
		st.Properties = append(st.Properties, &domain.Property{
			ID:        p.PropertyID,
			Value:     ev.Amount,
			CostBasis: ev.Amount,
		})
	}
	s.checkLeverage()
	return nil
}

// checkLeverage flags the month when debt exceeds the allowed share of assets.
func (s *pathStepper) checkLeverage() {
	limit := s.plan.Policy.MaxDebtToAssets
	if !limit.IsPositive() {
		return
	}
	assets := s.state.TotalAssets()
	debt := s.state.TotalDebt()
	if !assets.IsPositive() {
		if debt.IsPositive() {
			s.flag(domain.FlagLeverageBreach)
		}
		return
	}
	if debt.Div(assets).GreaterThan(limit) {
		s.flag(domain.FlagLeverageBreach)
	}
}

func (s *pathStepper) VisitLiabilityPayment(ev *domain.MonthlyEvent, p domain.LiabilityPaymentPayload) error {
	st := s.state
	i, l := findLiability(st, p.LiabilityID)
	if l == nil {
		return fmt.Errorf("liability %q not found", p.LiabilityID)
	}
	pay := decimal.Min(ev.Amount, l.Principal)
	st.Cash = st.Cash.Sub(pay)
	l.Principal = l.Principal.Sub(pay)
	if !l.Principal.IsPositive() {
		removeLiability(st, i)
		return nil
	}
	l.MonthlyPayment = amortizedPayment(l.Principal, l.AnnualRate, l.RemainingMonths)
	return nil
}

func (s *pathStepper) VisitRetirementIncome(ev *domain.MonthlyEvent, p domain.RetirementIncomePayload) error {
	st := s.state
	st.Cash = st.Cash.Add(ev.Amount)
	if p.Kind == domain.RetirementSocialSecurity {
		st.YTD.SocialSecurity = st.YTD.SocialSecurity.Add(ev.Amount)
	} else {
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	}
	return nil
}

func (s *pathStepper) VisitTaxStrategy(ev *domain.MonthlyEvent, p domain.TaxStrategyPayload) error {
	st := s.state
	taxable := st.Account(domain.AccountTaxable)
	switch p.Action {
	case domain.TaxActionRothConversion:
		from, to := st.Account(domain.AccountTaxDeferred), st.Account(domain.AccountRoth)
		if from == nil || to == nil {
			return fmt.Errorf("roth conversion needs tax_deferred and roth accounts")
		}
		moved, _ := from.Withdraw(ev.Amount)
		to.Deposit(moved)
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(moved)
		s.pendingTax = s.pendingTax || moved.IsPositive()
	case domain.TaxActionLossHarvest:
		if taxable == nil {
			return nil
		}
		limit := ev.Amount
		if limit.IsZero() {
			limit = taxable.TotalCostBasis()
		}
		loss := taxable.HarvestLosses(limit)
		st.YTD.LongTermGains = st.YTD.LongTermGains.Add(loss)
	case domain.TaxActionEstimatedPayment:
		st.YTD.EstimatedPayments = st.YTD.EstimatedPayments.Add(ev.Amount)
		s.payTax(ev.Amount)
	case domain.TaxActionRealizeGains, domain.TaxActionShortTermRealized:
		if taxable == nil {
			return nil
		}
		gain := taxable.RealizeGains(ev.Amount)
		if p.Action == domain.TaxActionShortTermRealized {
			st.YTD.ShortTermGains = st.YTD.ShortTermGains.Add(gain)
		} else {
			st.YTD.LongTermGains = st.YTD.LongTermGains.Add(gain)
		}
		s.pendingTax = s.pendingTax || gain.IsPositive()
	default:
		return fmt.Errorf("unhandled tax action %q", p.Action)
	}
	return nil
}

func (s *pathStepper) VisitEquityVesting(ev *domain.MonthlyEvent, p domain.EquityVestingPayload) error {
	st := s.state
	st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	net := ev.Amount.Sub(s.withhold(ev.Amount, p.WithholdingRate))
	if acct := st.Account(domain.AccountTaxable); acct != nil && !p.SellOnVest {
		acct.Deposit(net)
		return nil
	}
	st.Cash = st.Cash.Add(net)
	return nil
}

func (s *pathStepper) VisitInsurancePremium(ev *domain.MonthlyEvent, _ domain.InsurancePremiumPayload) error {
	s.state.Cash = s.state.Cash.Sub(ev.Amount)
	return nil
}

func (s *pathStepper) VisitInsurancePayout(ev *domain.MonthlyEvent, p domain.InsurancePayoutPayload) error {
	st := s.state
	st.Cash = st.Cash.Add(ev.Amount)
	if p.Taxable {
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	}
	return nil
}

func (s *pathStepper) VisitEducationContribution(ev *domain.MonthlyEvent, _ domain.EducationContributionPayload) error {
	st := s.state
	acct := st.Account(domain.AccountEducation)
	if acct == nil {
		return fmt.Errorf("no education account")
	}
	amount := s.fund(ev.Amount)
	st.Cash = st.Cash.Sub(amount)
	acct.Deposit(amount)
	return nil
}

// VisitEducationWithdrawal pays a qualified expense from the education
// account first and from cash for any remainder.
func (s *pathStepper) VisitEducationWithdrawal(ev *domain.MonthlyEvent, _ domain.EducationWithdrawalPayload) error {
	st := s.state
	raised := decimal.Zero
	if acct := st.Account(domain.AccountEducation); acct != nil {
		raised, _ = acct.Withdraw(ev.Amount)
	}
	st.Cash = st.Cash.Add(raised).Sub(ev.Amount)
	return nil
}

func (s *pathStepper) VisitBusinessIncome(ev *domain.MonthlyEvent, p domain.BusinessIncomePayload) error {
	st := s.state
	st.Cash = st.Cash.Add(ev.Amount)
	st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(ev.Amount)
	if p.SelfEmployed {
		st.YTD.SelfEmploymentIncome = st.YTD.SelfEmploymentIncome.Add(ev.Amount)
	}
	return nil
}

func (s *pathStepper) VisitPortfolioStrategy(_ *domain.MonthlyEvent, p domain.PortfolioStrategyPayload) error {
	st := s.state
	acct := st.Account(p.Account)
	if acct == nil {
		return fmt.Errorf("no %s account", p.Account)
	}
	if p.Action == domain.PortfolioSetAllocation {
		weights, err := s.plan.Model.TargetWeights(p.Allocation)
		if err != nil {
			return err
		}
		acct.SetTarget(weights)
	}
	realized := acct.Rebalance()
	if p.Account == domain.AccountTaxable && !realized.IsZero() {
		st.YTD.LongTermGains = st.YTD.LongTermGains.Add(realized)
		s.pendingTax = s.pendingTax || realized.IsPositive()
	}
	return nil
}

// VisitRealEstateSale sells a property. Amount is the selling cost. Rental
// gain up to accumulated depreciation is recapture; a primary residence
// gets the home-sale exclusion. Linked loans are paid off from proceeds.
func (s *pathStepper) VisitRealEstateSale(ev *domain.MonthlyEvent, p domain.RealEstateSalePayload) error {
	st := s.state
	prop := findProperty(st, p.PropertyID)
	if prop == nil || prop.Sold {
		return fmt.Errorf("property %q not held", p.PropertyID)
	}
	proceeds := prop.Value.Sub(ev.Amount)
	adjusted := prop.CostBasis.Sub(prop.AccumulatedDepreciation)
	gain := proceeds.Sub(adjusted)

	if gain.IsPositive() {
		if prop.Rental {
			recapture := decimal.Min(prop.AccumulatedDepreciation, gain)
			st.YTD.DepreciationRecapture = st.YTD.DepreciationRecapture.Add(recapture)
			st.YTD.LongTermGains = st.YTD.LongTermGains.Add(gain.Sub(recapture))
		} else {
			exclusion := homeSaleExclusionSingle
			if st.FilingStatus == domain.FilingMarriedJointly {
				exclusion = homeSaleExclusionJoint
			}
			st.YTD.LongTermGains = st.YTD.LongTermGains.Add(pkgdecimal.ClampZero(gain.Sub(exclusion)))
		}
		s.pendingTax = true
	} else if prop.Rental {
		st.YTD.LongTermGains = st.YTD.LongTermGains.Add(gain)
	}

	st.Cash = st.Cash.Add(proceeds)
	for i := len(st.Liabilities) - 1; i >= 0; i-- {
		if l := st.Liabilities[i]; l.PropertyID == prop.ID {
			st.Cash = st.Cash.Sub(l.Principal)
			removeLiability(st, i)
		}
	}
	prop.Sold = true
	prop.Value = decimal.Zero
	prop.MonthlyRent = decimal.Zero
	prop.MonthlyExpenses = decimal.Zero
	return nil
}

// VisitMilestone records the milestone when net worth has reached Amount.
func (s *pathStepper) VisitMilestone(ev *domain.MonthlyEvent, p domain.MilestonePayload) error {
	if s.state.NetWorth().GreaterThanOrEqual(ev.Amount) {
		s.reached[p.Name] = true
	}
	return nil
}

// VisitRMD withdraws the required distribution, computed from the prior
// year-end tax-deferred balance, into cash. The divisor is looked up by the
// age reached on December 31 of the distribution year.
func (s *pathStepper) VisitRMD(_ *domain.MonthlyEvent, _ domain.RMDPayload) error {
	st := s.state
	acct := st.Account(domain.AccountTaxDeferred)
	if acct == nil {
		return nil
	}
	age := st.Year - s.plan.Profile.BirthYear
	required := RMDAmount(st.PriorYearEndTaxDeferred, age, s.plan.Config.RMD.Divisors)
	if !required.IsPositive() {
		return nil
	}
	raised, _ := acct.Withdraw(required)
	st.Cash = st.Cash.Add(raised)
	st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(raised)
	s.yearRMD = s.yearRMD.Add(raised)
	s.pendingTax = s.pendingTax || raised.IsPositive()
	return nil
}
