package calculation

import (
	"context"
	"fmt"
	"sort"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/pkg/dateutil"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// PathPlan is everything a path needs that does not change between paths.
// It is built once per run and read concurrently by every worker.
type PathPlan struct {
	Config    *config.EngineConfig
	Model     *CompiledModel
	Schedule  *Schedule
	Template  *domain.SimulationState
	Profile   domain.Profile
	Policy    domain.WithdrawalPolicy
	Seed      int64
	StartYear int
	Start     int
	End       int
	Verbosity domain.Verbosity
	Logger    Logger

	inflationAssumption float64
	inflationIdx        int
	homeIdx             int
	rentalIdx           int
	cashIdx             int
}

func (p *PathPlan) resolveDrivers() {
	p.inflationIdx = p.Model.Index(domain.AssetInflation)
	p.homeIdx = p.Model.Index(domain.AssetHomeValue)
	p.rentalIdx = p.Model.Index(domain.AssetRentalGrowth)
	p.cashIdx = p.Model.Index(domain.AssetCash)
	if p.Logger == nil {
		p.Logger = NopLogger{}
	}
}

// protectAgeMonths is the age below which tax-advantaged accounts are not
// tapped for shortfalls.
func (p *PathPlan) protectAgeMonths() int {
	if p.Policy.ProtectRetirementUntilAgeMonths != nil {
		return *p.Policy.ProtectRetirementUntilAgeMonths
	}
	return config.DefaultProtectRetirementAgeMonths
}

// pathStepper advances one path's state month by month. It implements
// domain.PayloadVisitor so every event variant has a handler.
type pathStepper struct {
	plan  *PathPlan
	state *domain.SimulationState
	gen   *ReturnGenerator
	table domain.TaxTable

	monthFlags  domain.Flags
	yearFlags   domain.Flags
	pendingTax  bool
	yearMinCash decimal.Decimal
	yearTaxes   decimal.Decimal
	yearWith    decimal.Decimal
	yearRMD     decimal.Decimal
	yearOpen    bool

	summary domain.PathSummary
	years   []domain.AnnualRollup
	months  []domain.MonthSnapshot
	reached map[string]bool
}

// RunPath simulates one path. The draws depend only on the plan's seed and
// pathIndex. Cancellation is honoured between months; a cancelled path
// returns ErrRunIncomplete.
func RunPath(ctx context.Context, plan *PathPlan, pathIndex int) (domain.PathResult, error) {
	s := newPathStepper(plan, pathIndex)
	for k := plan.Start; k < plan.End; k++ {
		if err := ctx.Err(); err != nil {
			return domain.PathResult{}, fmt.Errorf("%w: path %d stopped at month %d: %w", ErrRunIncomplete, pathIndex, k, err)
		}
		s.step(k)
	}
	return s.finish(), nil
}

func newPathStepper(plan *PathPlan, pathIndex int) *pathStepper {
	s := &pathStepper{
		plan:    plan,
		state:   plan.Template.Clone(),
		gen:     NewReturnGenerator(plan.Model, NewPathRand(plan.Seed, pathIndex)),
		reached: map[string]bool{},
	}
	s.summary = domain.PathSummary{
		PathIndex:        pathIndex,
		MinimumCash:      s.state.Cash,
		FirstBreachMonth: -1,
	}
	s.table, _ = plan.Config.TaxTables.Lookup(s.state.FilingStatus, s.state.Year)
	return s
}

func (s *pathStepper) step(k int) {
	st := s.state
	p := s.plan
	st.Month = k
	st.Year, st.CalendarMonth = dateutil.CalendarAt(p.StartYear, k)
	st.AgeMonths = dateutil.AgeInMonths(p.Profile.BirthYear, p.Profile.BirthMonth, p.StartYear, k)
	s.monthFlags = 0

	if !s.yearOpen || dateutil.IsJanuary(k) {
		s.openYear()
	}

	// 1. obligations, events and property cash flow
	s.amortizeLiabilities()
	s.payMedicare()
	events := p.Schedule.At(k)
	for i := range events {
		ev := events[i]
		if err := ev.Payload.Accept(s, &ev); err != nil {
			s.flag(domain.FlagUnfundedEvent)
			p.Logger.Debugf("path %d month %d: event %s rejected: %v", s.summary.PathIndex, k, ev.EventID, err)
		}
	}
	s.rentalCashFlow()

	// 2. growth
	if returns, ok := s.gen.Next(); ok {
		s.applyGrowth(returns)
	} else {
		s.flag(domain.FlagNumericDefect)
	}

	// 3. taxes
	if s.pendingTax {
		s.payInterimTax()
	}
	if dateutil.IsDecember(k) || k == p.End-1 {
		s.settleYear()
	}

	// 4. shortfall and excess cash
	s.coverShortfall()
	s.sweepExcess()
	if st.Cash.LessThan(p.Policy.CashFloor) {
		s.flag(domain.FlagCashFloorBreach)
	}

	// 5. record
	s.record(k)
}

// openYear resets year-to-date figures. Income recognised after December's
// settlement stays in the accumulators and counts toward the new year.
func (s *pathStepper) openYear() {
	st := s.state
	if s.yearOpen {
		st.YTD = st.YTD.Sub(st.SettledYTD)
		st.SettledYTD = domain.TaxAccumulators{}
		st.TaxesPaidYTD = decimal.Zero
	}
	s.yearOpen = true
	s.yearFlags = 0
	s.yearMinCash = st.Cash
	s.yearTaxes = decimal.Zero
	s.yearWith = decimal.Zero
	s.yearRMD = decimal.Zero
	s.table, _ = s.plan.Config.TaxTables.Lookup(st.FilingStatus, st.Year)
	s.refreshMedicare()
}

func (s *pathStepper) indexFactor() decimal.Decimal {
	if s.plan.Config.Engine.IndexesBrackets() {
		return s.state.InflationIndex
	}
	return decimal.NewFromInt(1)
}

func (s *pathStepper) refreshMedicare() {
	st := s.state
	if st.AgeMonths < dateutil.MedicareAgeMonths {
		st.MedicarePremium = decimal.Zero
		return
	}
	magi := st.MAGIHistory[st.Year-IRMAALookbackYears]
	st.MedicarePremium = MonthlyMedicarePremium(magi, s.table, s.plan.Config.Medicare, s.plan.Profile.MedicareEnrollees, s.indexFactor())
}

func (s *pathStepper) payMedicare() {
	st := s.state
	if st.AgeMonths < dateutil.MedicareAgeMonths {
		return
	}
	if st.MedicarePremium.IsZero() {
		s.refreshMedicare()
	}
	st.Cash = st.Cash.Sub(st.MedicarePremium)
}

// amortizeLiabilities takes each loan's scheduled payment. The final
// payment clears whatever principal is left.
func (s *pathStepper) amortizeLiabilities() {
	st := s.state
	twelve := decimal.NewFromInt(12)
	kept := st.Liabilities[:0]
	for _, l := range st.Liabilities {
		if l.RemainingMonths <= 0 || !l.Principal.IsPositive() {
			continue
		}
		interest := pkgdecimal.RoundCents(l.Principal.Mul(l.AnnualRate).Div(twelve))
		owed := l.Principal.Add(interest)
		payment := decimal.Min(l.MonthlyPayment, owed)
		l.RemainingMonths--
		if l.RemainingMonths == 0 {
			payment = owed
		}
		l.Principal = owed.Sub(payment)
		st.Cash = st.Cash.Sub(payment)
		if l.Principal.IsPositive() {
			kept = append(kept, l)
		}
	}
	st.Liabilities = kept
}

// rentalCashFlow books net rent to cash and net rental income, after
// depreciation, to ordinary income.
func (s *pathStepper) rentalCashFlow() {
	st := s.state
	for _, p := range st.Properties {
		if !p.Rental || p.Sold {
			continue
		}
		net := p.MonthlyRent.Sub(p.MonthlyExpenses)
		dep := pkgdecimal.RoundCents(p.MonthlyDepreciation())
		p.AccumulatedDepreciation = p.AccumulatedDepreciation.Add(dep)
		st.Cash = st.Cash.Add(net)
		st.YTD.OrdinaryIncome = st.YTD.OrdinaryIncome.Add(net.Sub(dep))
	}
}

func growthFactor(r float64) decimal.Decimal {
	return decimal.NewFromFloat(1 + r)
}

func (s *pathStepper) applyGrowth(returns []float64) {
	st := s.state
	p := s.plan
	m := p.Model

	for _, t := range domain.InvestmentAccounts {
		acct := st.Accounts[t]
		if acct == nil {
			continue
		}
		for i, h := range acct.Holdings {
			if h.Value.IsZero() {
				continue
			}
			value := pkgdecimal.RoundCents(h.Value.Mul(growthFactor(returns[i])))
			basis := h.CostBasis
			if t == domain.AccountTaxable && value.IsPositive() {
				if y := m.MonthlyDividendYield(i); y > 0 {
					div := pkgdecimal.RoundCents(value.Mul(decimal.NewFromFloat(y)))
					st.YTD.QualifiedDividends = st.YTD.QualifiedDividends.Add(div)
					basis = basis.Add(div)
				}
			}
			acct.Holdings[i] = domain.Holding{Value: value, CostBasis: basis}
		}
	}

	if p.cashIdx >= 0 && st.Cash.IsPositive() {
		st.Cash = pkgdecimal.RoundCents(st.Cash.Mul(growthFactor(returns[p.cashIdx])))
	}

	inflation := p.inflationAssumption / 12
	if p.inflationIdx >= 0 {
		inflation = returns[p.inflationIdx]
	}
	st.InflationIndex = st.InflationIndex.Mul(growthFactor(inflation)).Round(10)

	for _, prop := range st.Properties {
		if prop.Sold {
			continue
		}
		if p.homeIdx >= 0 {
			prop.Value = pkgdecimal.RoundCents(prop.Value.Mul(growthFactor(returns[p.homeIdx])))
		}
		if prop.Rental {
			if p.rentalIdx >= 0 {
				prop.MonthlyRent = pkgdecimal.RoundCents(prop.MonthlyRent.Mul(growthFactor(returns[p.rentalIdx])))
			}
			prop.MonthlyExpenses = pkgdecimal.RoundCents(prop.MonthlyExpenses.Mul(growthFactor(inflation)))
		}
	}
}

func (s *pathStepper) filers65() int {
	if s.state.AgeMonths < dateutil.MedicareAgeMonths {
		return 0
	}
	if s.state.FilingStatus == domain.FilingMarriedJointly && s.plan.Profile.MedicareEnrollees > 1 {
		return 2
	}
	return 1
}

func (s *pathStepper) yearTax() TaxResult {
	st := s.state
	return ComputeAnnualTax(TaxInput{
		Income:               st.YTD,
		CapitalLossCarryover: st.CapitalLossCarryover,
		Filers65:             s.filers65(),
	}, s.table, s.indexFactor())
}

func (s *pathStepper) payTax(amount decimal.Decimal) {
	st := s.state
	st.Cash = st.Cash.Sub(amount)
	st.TaxesPaidYTD = st.TaxesPaidYTD.Add(amount)
	s.yearTaxes = s.yearTaxes.Add(amount)
}

// payInterimTax pays the part of the year-to-date liability not already
// covered by withholding and earlier payments.
func (s *pathStepper) payInterimTax() {
	s.pendingTax = false
	st := s.state
	due := s.yearTax().Total.Sub(st.YTD.TaxPrepaid())
	if !due.IsPositive() {
		return
	}
	due = pkgdecimal.RoundCents(due)
	st.YTD.EstimatedPayments = st.YTD.EstimatedPayments.Add(due)
	s.payTax(due)
}

// settleYear computes the final liability for the year, pays the balance or
// takes the refund, and records MAGI for the IRMAA lookback. A horizon that
// ends mid-year settles its partial year in the last month.
func (s *pathStepper) settleYear() {
	st := s.state
	res := s.yearTax()
	balance := pkgdecimal.RoundCents(res.Total.Sub(st.YTD.TaxPrepaid()))
	s.payTax(balance)
	st.MAGIHistory[st.Year] = res.MAGI
	st.CapitalLossCarryover = res.CarryoverOut
	st.SettledYTD = st.YTD
	s.pendingTax = false
}

func (s *pathStepper) flag(f domain.Flags) {
	s.monthFlags |= f
	s.yearFlags |= f
	if f.Has(domain.FlagCashFloorBreach) && s.summary.FirstBreachMonth < 0 {
		s.summary.FirstBreachMonth = s.state.Month
	}
	s.summary.Flags |= f
}

func (s *pathStepper) record(k int) {
	st := s.state
	p := s.plan
	netWorth := st.NetWorth()

	if st.Cash.LessThan(s.summary.MinimumCash) {
		s.summary.MinimumCash = st.Cash
	}
	if st.Cash.LessThan(s.yearMinCash) {
		s.yearMinCash = st.Cash
	}

	if p.Verbosity.KeepsMonthly() {
		s.months = append(s.months, domain.MonthSnapshot{
			Month:         k,
			Year:          st.Year,
			CalendarMonth: st.CalendarMonth,
			AgeMonths:     st.AgeMonths,
			Cash:          st.Cash,
			Taxable:       st.AccountValue(domain.AccountTaxable),
			TaxDeferred:   st.AccountValue(domain.AccountTaxDeferred),
			Roth:          st.AccountValue(domain.AccountRoth),
			Education:     st.AccountValue(domain.AccountEducation),
			RealEstate:    st.RealEstateValue(),
			Debt:          st.TotalDebt(),
			NetWorth:      netWorth,
			TaxesPaid:     st.TaxesPaidYTD,
			Flags:         s.monthFlags,
		})
	}

	yearEnd := dateutil.IsDecember(k) || k == p.End-1
	if dateutil.IsDecember(k) {
		st.PriorYearEndTaxDeferred = st.AccountValue(domain.AccountTaxDeferred)
	}
	if !yearEnd {
		return
	}
	s.summary.Years = append(s.summary.Years, st.Year)
	s.summary.YearEndNetWorth = append(s.summary.YearEndNetWorth, netWorth)
	s.summary.YearEndCash = append(s.summary.YearEndCash, st.Cash)
	if p.Verbosity.KeepsAnnual() {
		s.years = append(s.years, domain.AnnualRollup{
			Year:        st.Year,
			AgeYears:    st.AgeMonths / dateutil.MonthsPerYear,
			EndNetWorth: netWorth,
			EndCash:     st.Cash,
			MinCash:     s.yearMinCash,
			TaxesPaid:   s.yearTaxes,
			Withdrawals: s.yearWith,
			RMD:         s.yearRMD,
			Flags:       s.yearFlags,
		})
	}
}

func (s *pathStepper) finish() domain.PathResult {
	s.summary.FinalNetWorth = s.state.NetWorth()
	for name := range s.reached {
		s.summary.Milestones = append(s.summary.Milestones, name)
	}
	sort.Strings(s.summary.Milestones)
	return domain.PathResult{Summary: s.summary, Years: s.years, Months: s.months}
}
