package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Flags marks constraint breaches and numeric defects on a month or path.
type Flags uint8

const (
	FlagCashFloorBreach Flags = 1 << iota
	FlagLeverageBreach
	FlagNumericDefect
	// FlagUnfundedEvent marks an event that was rejected or only partly
	// carried out, such as a contribution cut short by the cash floor.
	FlagUnfundedEvent
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagCashFloorBreach, "cash_floor_breach"},
	{FlagLeverageBreach, "leverage_breach"},
	{FlagNumericDefect, "numeric_defect"},
	{FlagUnfundedEvent, "unfunded_event"},
}

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Names lists the set flags.
func (f Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f Flags) MarshalJSON() ([]byte, error) {
	names := f.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// MonthSnapshot is the recorded state after one month.
type MonthSnapshot struct {
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	CalendarMonth time.Month      `json:"calendar_month"`
	AgeMonths     int             `json:"age_months"`
	Cash          decimal.Decimal `json:"cash"`
	Taxable       decimal.Decimal `json:"taxable"`
	TaxDeferred   decimal.Decimal `json:"tax_deferred"`
	Roth          decimal.Decimal `json:"roth"`
	Education     decimal.Decimal `json:"education"`
	RealEstate    decimal.Decimal `json:"real_estate"`
	Debt          decimal.Decimal `json:"debt"`
	NetWorth      decimal.Decimal `json:"net_worth"`
	TaxesPaid     decimal.Decimal `json:"taxes_paid"`
	Flags         Flags           `json:"flags"`
}

// AnnualRollup summarizes one calendar year (or the partial final year) of a path.
type AnnualRollup struct {
	Year        int             `json:"year"`
	AgeYears    int             `json:"age_years"`
	EndNetWorth decimal.Decimal `json:"end_net_worth"`
	EndCash     decimal.Decimal `json:"end_cash"`
	MinCash     decimal.Decimal `json:"min_cash"`
	TaxesPaid   decimal.Decimal `json:"taxes_paid"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	RMD         decimal.Decimal `json:"rmd"`
	Flags       Flags           `json:"flags"`
}

// PathSummary is always retained regardless of verbosity; it is what the
// aggregator consumes.
type PathSummary struct {
	PathIndex        int               `json:"path_index"`
	FinalNetWorth    decimal.Decimal   `json:"final_net_worth"`
	MinimumCash      decimal.Decimal   `json:"minimum_cash"`
	Flags            Flags             `json:"flags"`
	FirstBreachMonth int               `json:"first_breach_month"`
	Milestones       []string          `json:"milestones,omitempty"`
	YearEndNetWorth  []decimal.Decimal `json:"-"`
	YearEndCash      []decimal.Decimal `json:"-"`
	Years            []int             `json:"-"`
}

// Breached reports whether the path ever fell below its cash floor.
func (p PathSummary) Breached() bool { return p.Flags.Has(FlagCashFloorBreach) }

// PathResult is the append-only output of one path.
type PathResult struct {
	Summary PathSummary     `json:"summary"`
	Years   []AnnualRollup  `json:"years,omitempty"`
	Months  []MonthSnapshot `json:"months,omitempty"`
}

// PercentileBand is a P5/P50/P95 triple.
type PercentileBand struct {
	P5  decimal.Decimal `json:"p5"`
	P50 decimal.Decimal `json:"p50"`
	P95 decimal.Decimal `json:"p95"`
}

// SeriesPoint is a percentile band at a year end.
type SeriesPoint struct {
	Year int            `json:"year"`
	Band PercentileBand `json:"band"`
}

// MilestoneRate is the fraction of paths that reached a milestone.
type MilestoneRate struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// AggregateResult is the cross-sectional summary of all paths.
type AggregateResult struct {
	PathCount          int             `json:"path_count"`
	SuccessRate        decimal.Decimal `json:"success_rate"`
	BreachProbability  decimal.Decimal `json:"breach_probability"`
	LeverageBreachRate decimal.Decimal `json:"leverage_breach_rate"`
	DefectPaths        int             `json:"defect_paths"`
	UnfundedEventRate  decimal.Decimal `json:"unfunded_event_rate"`
	FinalNetWorth      PercentileBand  `json:"final_net_worth"`
	MinimumCash        PercentileBand  `json:"minimum_cash"`
	NetWorthSeries     []SeriesPoint   `json:"net_worth_series"`
	CashSeries         []SeriesPoint   `json:"cash_series"`
	Milestones         []MilestoneRate `json:"milestones,omitempty"`
}

// RunStatus distinguishes complete runs from cancelled or failed ones.
type RunStatus string

const (
	RunComplete   RunStatus = "complete"
	RunIncomplete RunStatus = "incomplete"
	RunFailed     RunStatus = "failed"
)

// SimulationResponse answers a SimulationRequest.
type SimulationResponse struct {
	RunID     string           `json:"run_id"`
	Success   bool             `json:"success"`
	Status    RunStatus        `json:"status"`
	Seed      int64            `json:"seed"`
	InputHash string           `json:"input_hash"`
	Warnings  []string         `json:"warnings,omitempty"`
	Error     string           `json:"error,omitempty"`
	Aggregate *AggregateResult `json:"aggregate,omitempty"`
	Paths     []PathResult     `json:"paths,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
}
