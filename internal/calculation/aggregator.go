package calculation

import (
	"sort"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Percentiles reported for every distribution.
const (
	PercentileLow  = 5
	PercentileMid  = 50
	PercentileHigh = 95
)

// PartialAggregate collects path summaries from one worker. Partials merge
// associatively and the final statistics do not depend on arrival order.
type PartialAggregate struct {
	milestones []string
	summaries  []domain.PathSummary
}

// NewPartialAggregate creates an empty partial that tracks the given
// milestone names.
func NewPartialAggregate(milestones []string) *PartialAggregate {
	return &PartialAggregate{milestones: append([]string(nil), milestones...)}
}

// Add records one completed path.
func (a *PartialAggregate) Add(s domain.PathSummary) {
	a.summaries = append(a.summaries, s)
}

// Merge folds other into a.
func (a *PartialAggregate) Merge(other *PartialAggregate) {
	if other == nil {
		return
	}
	a.summaries = append(a.summaries, other.summaries...)
	seen := make(map[string]bool, len(a.milestones))
	for _, m := range a.milestones {
		seen[m] = true
	}
	for _, m := range other.milestones {
		if !seen[m] {
			seen[m] = true
			a.milestones = append(a.milestones, m)
		}
	}
}

// Count is the number of paths recorded.
func (a *PartialAggregate) Count() int { return len(a.summaries) }

// PercentileIndex is floor(p·n/100), clamped to the last element.
func PercentileIndex(p, n int) int {
	if n <= 0 {
		return 0
	}
	idx := p * n / 100
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Band sorts values in place and returns their P5/P50/P95.
func Band(values []decimal.Decimal) domain.PercentileBand {
	if len(values) == 0 {
		return domain.PercentileBand{}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
	n := len(values)
	return domain.PercentileBand{
		P5:  values[PercentileIndex(PercentileLow, n)],
		P50: values[PercentileIndex(PercentileMid, n)],
		P95: values[PercentileIndex(PercentileHigh, n)],
	}
}

func rate(count, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).Div(decimal.NewFromInt(int64(n))).Round(6)
}

// Finalize computes the cross-sectional statistics. Paths are ordered by
// index first so ties resolve the same way for any merge order.
func (a *PartialAggregate) Finalize() domain.AggregateResult {
	paths := append([]domain.PathSummary(nil), a.summaries...)
	sort.Slice(paths, func(i, j int) bool { return paths[i].PathIndex < paths[j].PathIndex })
	n := len(paths)
	res := domain.AggregateResult{PathCount: n}
	if n == 0 {
		return res
	}

	finals := make([]decimal.Decimal, n)
	minCash := make([]decimal.Decimal, n)
	var breached, leveraged, defects, unfunded int
	reached := map[string]int{}
	for i, p := range paths {
		finals[i] = p.FinalNetWorth
		minCash[i] = p.MinimumCash
		if p.Breached() {
			breached++
		}
		if p.Flags.Has(domain.FlagLeverageBreach) {
			leveraged++
		}
		if p.Flags.Has(domain.FlagNumericDefect) {
			defects++
		}
		if p.Flags.Has(domain.FlagUnfundedEvent) {
			unfunded++
		}
		for _, m := range p.Milestones {
			reached[m]++
		}
	}

	res.FinalNetWorth = Band(finals)
	res.MinimumCash = Band(minCash)
	res.BreachProbability = rate(breached, n)
	res.SuccessRate = decimal.NewFromInt(1).Sub(res.BreachProbability)
	res.LeverageBreachRate = rate(leveraged, n)
	res.DefectPaths = defects
	res.UnfundedEventRate = rate(unfunded, n)
	res.NetWorthSeries = seriesBands(paths, func(p domain.PathSummary) []decimal.Decimal { return p.YearEndNetWorth })
	res.CashSeries = seriesBands(paths, func(p domain.PathSummary) []decimal.Decimal { return p.YearEndCash })

	names := append([]string(nil), a.milestones...)
	for m := range reached {
		names = append(names, m)
	}
	sort.Strings(names)
	for i, m := range names {
		if i > 0 && names[i-1] == m {
			continue
		}
		res.Milestones = append(res.Milestones, domain.MilestoneRate{Name: m, Rate: rate(reached[m], n)})
	}
	return res
}

// seriesBands takes percentile bands at each year end. Every path of a run
// shares the same horizon, so series positions line up.
func seriesBands(paths []domain.PathSummary, pick func(domain.PathSummary) []decimal.Decimal) []domain.SeriesPoint {
	years := paths[0].Years
	points := make([]domain.SeriesPoint, 0, len(years))
	for y, year := range years {
		column := make([]decimal.Decimal, 0, len(paths))
		for _, p := range paths {
			if vals := pick(p); y < len(vals) {
				column = append(column, vals[y])
			}
		}
		points = append(points, domain.SeriesPoint{Year: year, Band: Band(column)})
	}
	return points
}
