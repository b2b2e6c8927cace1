package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/pkg/dateutil"
	pkgdecimal "github.com/rpgo/projection-engine/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultMaxEventMonths caps how long a single ledger entry may recur.
const DefaultMaxEventMonths = 1200

// quarterlyMonths are the calendar months quarterly events fire in
// (the estimated-tax due months).
var quarterlyMonths = map[time.Month]bool{
	time.January:   true,
	time.April:     true,
	time.June:      true,
	time.September: true,
}

// NormalizeOptions fixes the calendar and horizon the ledger is expanded against.
// Month offsets are counted from January of StartYear; EndMonth is exclusive.
type NormalizeOptions struct {
	StartYear           int
	StartMonth          int
	EndMonth            int
	InflationAssumption float64
	MaxEventMonths      int

	BirthYear   int
	BirthMonth  time.Month
	RMDStartAge int
}

// NormalizeResult is the expanded ledger plus everything that was dropped or
// truncated on the way.
type NormalizeResult struct {
	Events   []domain.MonthlyEvent
	Warnings []string
}

// NormalizeLedger expands raw ledger entries into one MonthlyEvent per
// concrete month inside the horizon. Malformed entries are skipped with a
// warning, never fatal.
func NormalizeLedger(raw []domain.RawEvent, opts NormalizeOptions) NormalizeResult {
	if opts.MaxEventMonths <= 0 {
		opts.MaxEventMonths = DefaultMaxEventMonths
	}
	var res NormalizeResult
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	for seq, ev := range raw {
		label := ev.ID
		if label == "" {
			label = fmt.Sprintf("events[%d]", seq)
		}
		expanded, err := expandEvent(ev, seq, opts, func(msg string) { warn("%s: %s", label, msg) })
		if err != nil {
			warn("%s: skipped: %v", label, err)
			continue
		}
		res.Events = append(res.Events, expanded...)
	}

	res.Events = append(res.Events, rmdTriggers(opts, len(raw))...)
	sortEvents(res.Events)
	return res
}

func expandEvent(ev domain.RawEvent, seq int, opts NormalizeOptions, warn func(string)) ([]domain.MonthlyEvent, error) {
	if ev.Category == domain.CategoryRMD {
		return nil, fmt.Errorf("category %q is synthesized and cannot be supplied", ev.Category)
	}
	payload, err := buildPayload(ev)
	if err != nil {
		return nil, err
	}
	amount, err := pkgdecimal.ParseAmount(ev.Amount)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() && ev.Category != domain.CategoryOneTime {
		return nil, fmt.Errorf("negative amount %s only allowed for one_time events", amount)
	}

	cadence := ev.Cadence
	if cadence == "" {
		cadence = domain.CadenceOneTime
	}
	perYear := cadence.OccurrencesPerYear()
	if perYear == 0 {
		return nil, fmt.Errorf("unknown cadence %q", ev.Cadence)
	}
	basis := ev.Basis
	switch basis {
	case "":
		basis = domain.PerYear
		if cadence == domain.CadenceMonthly {
			basis = domain.PerMonth
		}
	case domain.PerMonth, domain.PerYear:
	default:
		return nil, fmt.Errorf("unknown amount basis %q", ev.Basis)
	}

	growth := 0.0
	switch {
	case ev.InflationIndexed:
		growth = opts.InflationAssumption
	case ev.GrowthRate != nil:
		growth = *ev.GrowthRate
	}
	onePlusG, ok := pkgdecimal.FromFinite(1 + growth)
	if !ok || !onePlusG.IsPositive() {
		return nil, fmt.Errorf("growth rate %v is not usable", growth)
	}

	start := ev.StartMonth
	var end int
	if cadence == domain.CadenceOneTime {
		end = start + 1
		amount = occurrenceAmount(amount, domain.PerYear, 1)
	} else {
		end = opts.EndMonth
		if ev.EndMonth != nil {
			end = *ev.EndMonth
		}
		if end <= start {
			return nil, fmt.Errorf("end_month %d is not after start_month %d", end, start)
		}
		if end-start > opts.MaxEventMonths {
			warn(fmt.Sprintf("duration %d months truncated to %d", end-start, opts.MaxEventMonths))
			end = start + opts.MaxEventMonths
		}
		amount = occurrenceAmount(amount, basis, perYear)
	}

	from := max(start, opts.StartMonth)
	to := min(end, opts.EndMonth)
	if from >= to {
		warn("no occurrences inside the horizon")
		return nil, nil
	}

	var out []domain.MonthlyEvent
	for m := from; m < to; m++ {
		if !fires(cadence, start, m) {
			continue
		}
		amt := pkgdecimal.RoundCents(amount)
		if years := dateutil.YearsElapsed(start, m); years > 0 && growth != 0 {
			amt = pkgdecimal.RoundCents(amt.Mul(onePlusG.Pow(decimal.NewFromInt(int64(years)))))
		}
		out = append(out, domain.MonthlyEvent{
			EventID:  ev.ID,
			Month:    m,
			Amount:   amt,
			Sequence: seq,
			Payload:  payload,
		})
	}
	return out, nil
}

// occurrenceAmount converts a stated amount to the amount of one occurrence.
// It is the only place an AmountBasis is interpreted.
func occurrenceAmount(amount decimal.Decimal, basis domain.AmountBasis, perYear int) decimal.Decimal {
	switch {
	case basis == domain.PerMonth && perYear == 12:
		return amount
	case basis == domain.PerMonth:
		return amount.Mul(decimal.NewFromInt(12)).Div(decimal.NewFromInt(int64(perYear)))
	case perYear <= 1:
		return amount
	default:
		return amount.Div(decimal.NewFromInt(int64(perYear)))
	}
}

func fires(c domain.Cadence, start, month int) bool {
	switch c {
	case domain.CadenceOneTime:
		return month == start
	case domain.CadenceMonthly:
		return true
	case domain.CadenceQuarterly:
		return quarterlyMonths[time.Month(month%dateutil.MonthsPerYear+1)]
	case domain.CadenceAnnual:
		return (month-start)%dateutil.MonthsPerYear == 0
	}
	return false
}

func buildPayload(ev domain.RawEvent) (domain.Payload, error) {
	boolOr := func(p *bool, def bool) bool {
		if p == nil {
			return def
		}
		return *p
	}
	rate := func() (decimal.Decimal, error) {
		r, ok := pkgdecimal.FromFinite(ev.Rate)
		if !ok || r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return decimal.Zero, fmt.Errorf("withholding rate %v must be within [0, 1]", ev.Rate)
		}
		return r, nil
	}

	switch ev.Category {
	case domain.CategoryIncome:
		r, err := rate()
		if err != nil {
			return nil, err
		}
		return domain.IncomePayload{WithholdingRate: r, Taxable: boolOr(ev.Taxable, true)}, nil
	case domain.CategoryRecurringExpense:
		return domain.RecurringExpensePayload{}, nil
	case domain.CategoryScheduledContribution:
		acct := ev.Account
		if acct == "" {
			acct = domain.AccountTaxable
		}
		switch acct {
		case domain.AccountTaxable, domain.AccountTaxDeferred, domain.AccountRoth, domain.AccountEducation:
		default:
			return nil, fmt.Errorf("contribution account %q is not an investment account", ev.Account)
		}
		return domain.ScheduledContributionPayload{Account: acct}, nil
	case domain.CategoryOneTime:
		return domain.OneTimePayload{Taxable: boolOr(ev.Taxable, false)}, nil
	case domain.CategoryLiabilityAdd:
		if ev.TermMonths <= 0 {
			return nil, fmt.Errorf("liability term_months must be positive")
		}
		r, ok := pkgdecimal.FromFinite(ev.Rate)
		if !ok || r.IsNegative() {
			return nil, fmt.Errorf("liability rate %v is not usable", ev.Rate)
		}
		id := ev.Target
		if id == "" {
			id = ev.ID
		}
		return domain.LiabilityAddPayload{
			LiabilityID: id,
			AnnualRate:  r,
			TermMonths:  ev.TermMonths,
			PropertyID:  ev.PropertyID,
			FundsToCash: ev.FundsToCash,
		}, nil
	case domain.CategoryLiabilityPayment:
		if ev.Target == "" {
			return nil, fmt.Errorf("liability_payment requires a target liability")
		}
		return domain.LiabilityPaymentPayload{LiabilityID: ev.Target}, nil
	case domain.CategoryRetirementIncome:
		kind := domain.RetirementIncomeKind(ev.Kind)
		switch kind {
		case "":
			kind = domain.RetirementPension
		case domain.RetirementPension, domain.RetirementSocialSecurity, domain.RetirementAnnuity:
		default:
			return nil, fmt.Errorf("unknown retirement income kind %q", ev.Kind)
		}
		return domain.RetirementIncomePayload{Kind: kind}, nil
	case domain.CategoryTaxStrategy:
		action := domain.TaxAction(ev.Action)
		switch action {
		case domain.TaxActionRothConversion, domain.TaxActionLossHarvest, domain.TaxActionEstimatedPayment,
			domain.TaxActionRealizeGains, domain.TaxActionShortTermRealized:
		default:
			return nil, fmt.Errorf("unknown tax strategy action %q", ev.Action)
		}
		return domain.TaxStrategyPayload{Action: action}, nil
	case domain.CategoryEquityVesting:
		r, err := rate()
		if err != nil {
			return nil, err
		}
		return domain.EquityVestingPayload{WithholdingRate: r, SellOnVest: ev.SellOnVest}, nil
	case domain.CategoryInsurancePremium:
		return domain.InsurancePremiumPayload{}, nil
	case domain.CategoryInsurancePayout:
		return domain.InsurancePayoutPayload{Taxable: boolOr(ev.Taxable, false)}, nil
	case domain.CategoryEducationContribution:
		return domain.EducationContributionPayload{}, nil
	case domain.CategoryEducationWithdrawal:
		return domain.EducationWithdrawalPayload{}, nil
	case domain.CategoryBusinessIncome:
		return domain.BusinessIncomePayload{SelfEmployed: ev.SelfEmployed}, nil
	case domain.CategoryPortfolioStrategy:
		action := domain.PortfolioAction(ev.Action)
		switch action {
		case "":
			action = domain.PortfolioRebalance
		case domain.PortfolioRebalance:
		case domain.PortfolioSetAllocation:
			if len(ev.Allocation) == 0 {
				return nil, fmt.Errorf("set_allocation requires an allocation")
			}
		default:
			return nil, fmt.Errorf("unknown portfolio action %q", ev.Action)
		}
		acct := ev.Account
		if acct == "" {
			acct = domain.AccountTaxable
		}
		return domain.PortfolioStrategyPayload{Action: action, Account: acct, Allocation: ev.Allocation}, nil
	case domain.CategoryRealEstateSale:
		id := ev.PropertyID
		if id == "" {
			id = ev.Target
		}
		if id == "" {
			return nil, fmt.Errorf("real_estate_sale requires a property_id")
		}
		return domain.RealEstateSalePayload{PropertyID: id}, nil
	case domain.CategoryMilestone:
		name := ev.Target
		if name == "" {
			name = ev.ID
		}
		return domain.MilestonePayload{Name: name}, nil
	}
	return nil, fmt.Errorf("unknown category %q", ev.Category)
}

// rmdTriggers synthesizes one zero-amount RMD event for every January inside
// the horizon at which the person has reached the RMD start age.
func rmdTriggers(opts NormalizeOptions, seq int) []domain.MonthlyEvent {
	if opts.RMDStartAge <= 0 || opts.BirthYear <= 0 {
		return nil
	}
	var out []domain.MonthlyEvent
	for m := opts.StartMonth; m < opts.EndMonth; m++ {
		if !dateutil.IsJanuary(m) {
			continue
		}
		if dateutil.AgeInYears(opts.BirthYear, opts.BirthMonth, opts.StartYear, m) < opts.RMDStartAge {
			continue
		}
		year, _ := dateutil.CalendarAt(opts.StartYear, m)
		out = append(out, domain.MonthlyEvent{
			EventID:  fmt.Sprintf("rmd-%d", year),
			Month:    m,
			Amount:   decimal.Zero,
			Sequence: seq,
			Payload:  domain.RMDPayload{},
		})
	}
	return out
}

func sortEvents(events []domain.MonthlyEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		pa, pb := a.Category().Priority(), b.Category().Priority()
		if pa != pb {
			return pa < pb
		}
		return a.Sequence < b.Sequence
	})
}

// Schedule is the normalized ledger bucketed by month. It is immutable once
// built and shared by every path of a run.
type Schedule struct {
	startMonth int
	months     [][]domain.MonthlyEvent
	milestones []string
}

// BuildSchedule buckets events by month in [startMonth, endMonth), each bucket
// ordered by (priority, sequence).
func BuildSchedule(events []domain.MonthlyEvent, startMonth, endMonth int) *Schedule {
	n := endMonth - startMonth
	if n < 0 {
		n = 0
	}
	s := &Schedule{startMonth: startMonth, months: make([][]domain.MonthlyEvent, n)}
	seen := map[string]bool{}
	for _, ev := range events {
		idx := ev.Month - startMonth
		if idx < 0 || idx >= n {
			continue
		}
		s.months[idx] = append(s.months[idx], ev)
		if p, ok := ev.Payload.(domain.MilestonePayload); ok && !seen[p.Name] {
			seen[p.Name] = true
			s.milestones = append(s.milestones, p.Name)
		}
	}
	for _, bucket := range s.months {
		sortEvents(bucket)
	}
	sort.Strings(s.milestones)
	return s
}

// At returns the events due at an absolute month offset.
func (s *Schedule) At(month int) []domain.MonthlyEvent {
	idx := month - s.startMonth
	if idx < 0 || idx >= len(s.months) {
		return nil
	}
	return s.months[idx]
}

// Len is the number of months covered.
func (s *Schedule) Len() int { return len(s.months) }

// Milestones lists the distinct milestone names in the schedule, sorted.
func (s *Schedule) Milestones() []string { return s.milestones }
