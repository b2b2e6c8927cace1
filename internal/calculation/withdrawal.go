package calculation

import (
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// penaltyFreeAgeMonths is 59½.
const penaltyFreeAgeMonths = 714

// coverShortfall refills cash up to the target reserve by selling from the
// policy's account sequence. Tax-advantaged accounts are skipped until the
// protection age.
func (s *pathStepper) coverShortfall() {
	st := s.state
	policy := s.plan.Policy
	if policy.NoAutoLiquidate {
		return
	}
	need := policy.TargetReserve.Sub(st.Cash)
	if !need.IsPositive() {
		return
	}
	protectAge := s.plan.protectAgeMonths()
	for _, t := range policy.Sequence {
		if !need.IsPositive() {
			break
		}
		if t.IsTaxAdvantaged() && st.AgeMonths < protectAge {
			continue
		}
		acct := st.Account(t)
		if acct == nil {
			continue
		}
		raised, gain := acct.Withdraw(need)
		if !raised.IsPositive() {
			continue
		}
		s.recognizeWithdrawal(t, raised, gain)
		st.Cash = st.Cash.Add(raised)
		need = need.Sub(raised)
		s.yearWith = s.yearWith.Add(raised)
	}
}

// recognizeWithdrawal books the tax consequences of a sale from account t.
func (s *pathStepper) recognizeWithdrawal(t domain.AccountType, raised, gain decimal.Decimal) {
	ytd := &s.state.YTD
	switch t {
	case domain.AccountTaxable:
		ytd.LongTermGains = ytd.LongTermGains.Add(gain)
		s.pendingTax = s.pendingTax || gain.IsPositive()
	case domain.AccountTaxDeferred:
		ytd.OrdinaryIncome = ytd.OrdinaryIncome.Add(raised)
		if s.state.AgeMonths < penaltyFreeAgeMonths {
			ytd.EarlyWithdrawals = ytd.EarlyWithdrawals.Add(raised)
		}
		s.pendingTax = true
	}
}

// sweepExcess invests cash above the sweep threshold, down to the target
// reserve, into the taxable account.
func (s *pathStepper) sweepExcess() {
	st := s.state
	policy := s.plan.Policy
	if !policy.SweepThreshold.IsPositive() || !st.Cash.GreaterThan(policy.SweepThreshold) {
		return
	}
	acct := st.Account(domain.AccountTaxable)
	if acct == nil {
		return
	}
	excess := st.Cash.Sub(policy.TargetReserve)
	if !excess.IsPositive() {
		return
	}
	acct.Deposit(excess)
	st.Cash = st.Cash.Sub(excess)
}
