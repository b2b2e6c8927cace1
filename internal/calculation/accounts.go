package calculation

import (
	"fmt"
	"math"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/pkg/dateutil"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// BuildInitialState turns a normalized scenario into the template state every
// path clones. Accounts without an allocation of their own use the
// scenario's default allocation, or the first investable class.
func BuildInitialState(s *domain.Scenario, model *CompiledModel, startYear, startMonth int) (*domain.SimulationState, []string, error) {
	var warnings []string
	defaultWeights, err := defaultTarget(s.DefaultAllocation, model)
	if err != nil {
		return nil, nil, fmt.Errorf("default_allocation: %w", err)
	}

	year, month := dateutil.CalendarAt(startYear, startMonth)
	st := &domain.SimulationState{
		Month:                startMonth,
		Year:                 year,
		CalendarMonth:        month,
		AgeMonths:            dateutil.AgeInMonths(s.Profile.BirthYear, s.Profile.BirthMonth, startYear, startMonth),
		FilingStatus:         s.Profile.FilingStatus,
		Cash:                 s.Cash,
		Accounts:             make(map[domain.AccountType]*domain.Account, len(domain.InvestmentAccounts)),
		CapitalLossCarryover: pkgdecimal.ClampZero(s.CapitalLossCarryover),
		MAGIHistory:          make(map[int]decimal.Decimal, len(s.PriorMAGI)),
		InflationIndex:       decimal.NewFromInt(1),
	}

	for _, t := range domain.InvestmentAccounts {
		in, ok := s.Accounts[string(t)]
		weights := defaultWeights
		if ok && len(in.Allocation) > 0 {
			weights, err = model.TargetWeights(in.Allocation)
			if err != nil {
				return nil, nil, fmt.Errorf("accounts.%s.allocation: %w", t, err)
			}
		}
		acct := domain.NewAccount(t, weights)
		if ok {
			openAccount(acct, in)
		}
		st.Accounts[t] = acct
	}
	st.PriorYearEndTaxDeferred = st.AccountValue(domain.AccountTaxDeferred)

	for _, p := range s.Properties {
		st.Properties = append(st.Properties, &domain.Property{
			ID:                      p.ID,
			Value:                   p.Value,
			CostBasis:               p.CostBasis,
			DepreciableBasis:        p.DepreciableBasis,
			AccumulatedDepreciation: p.AccumulatedDepreciation,
			MonthlyRent:             p.MonthlyRent,
			MonthlyExpenses:         p.MonthlyExpenses,
			Rental:                  p.Rental,
		})
	}
	for _, l := range s.Liabilities {
		if l.PropertyID != "" && findProperty(st, l.PropertyID) == nil {
			warnings = append(warnings, fmt.Sprintf("liability %s: property %q not found", l.ID, l.PropertyID))
		}
		st.Liabilities = append(st.Liabilities, newLiability(l.ID, l.Principal, l.AnnualRate, l.TermMonths, l.PropertyID))
	}
	for _, m := range s.PriorMAGI {
		st.MAGIHistory[m.Year] = m.Amount
	}
	return st, warnings, nil
}

func defaultTarget(alloc domain.AllocationIn, model *CompiledModel) ([]decimal.Decimal, error) {
	if len(alloc) > 0 {
		return model.TargetWeights(alloc)
	}
	for _, name := range model.Names() {
		if !domain.IsDriverAsset(name) {
			return model.TargetWeights(domain.AllocationIn{name: 1})
		}
	}
	return nil, fmt.Errorf("model has no investable asset class")
}

// openAccount buys the opening balance at target weights and spreads the
// stated cost basis pro rata.
func openAccount(acct *domain.Account, in domain.AccountInput) {
	acct.Deposit(in.Balance)
	if in.CostBasis == nil || !in.Balance.IsPositive() {
		return
	}
	ratio := in.CostBasis.Div(in.Balance)
	for i, h := range acct.Holdings {
		acct.Holdings[i].CostBasis = pkgdecimal.RoundCents(h.Value.Mul(ratio))
	}
}

func newLiability(id string, principal, annualRate decimal.Decimal, term int, propertyID string) *domain.Liability {
	return &domain.Liability{
		ID:              id,
		Principal:       principal,
		AnnualRate:      annualRate,
		RemainingMonths: term,
		MonthlyPayment:  amortizedPayment(principal, annualRate, term),
		PropertyID:      propertyID,
	}
}

// amortizedPayment is the level monthly payment P·r / (1 − (1+r)^−n).
func amortizedPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	r := annualRate.InexactFloat64() / 12
	if r == 0 {
		return pkgdecimal.RoundCents(principal.Div(decimal.NewFromInt(int64(months))))
	}
	p := principal.InexactFloat64()
	payment, ok := pkgdecimal.FromFinite(p * r / (1 - math.Pow(1+r, -float64(months))))
	if !ok {
		return pkgdecimal.RoundCents(principal.Div(decimal.NewFromInt(int64(months))))
	}
	return pkgdecimal.RoundCents(payment)
}

func findProperty(st *domain.SimulationState, id string) *domain.Property {
	for _, p := range st.Properties {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func findLiability(st *domain.SimulationState, id string) (int, *domain.Liability) {
	for i, l := range st.Liabilities {
		if l.ID == id {
			return i, l
		}
	}
	return -1, nil
}

func removeLiability(st *domain.SimulationState, i int) {
	st.Liabilities = append(st.Liabilities[:i], st.Liabilities[i+1:]...)
}
