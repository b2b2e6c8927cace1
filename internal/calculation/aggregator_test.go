package calculation

import (
	"math/rand/v2"
	"testing"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(i int, final int64, flags domain.Flags, milestones ...string) domain.PathSummary {
	return domain.PathSummary{
		PathIndex:        i,
		FinalNetWorth:    decimal.NewFromInt(final),
		MinimumCash:      decimal.NewFromInt(final / 10),
		Flags:            flags,
		FirstBreachMonth: -1,
		Milestones:       milestones,
		Years:            []int{2025, 2026},
		YearEndNetWorth:  []decimal.Decimal{decimal.NewFromInt(final / 2), decimal.NewFromInt(final)},
		YearEndCash:      []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)},
	}
}

func TestPercentileIndex(t *testing.T) {
	tests := []struct {
		p, n, want int
	}{
		{5, 100, 5},
		{50, 100, 50},
		{95, 100, 95},
		{5, 10, 0},
		{50, 10, 5},
		{95, 10, 9},
		{95, 1, 0},
		{100, 10, 9},
		{50, 0, 0},
		{5, 19, 0},
		{5, 20, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentileIndex(tt.p, tt.n), "p=%d n=%d", tt.p, tt.n)
	}
}

func TestBand(t *testing.T) {
	var values []decimal.Decimal
	for i := 100; i >= 1; i-- {
		values = append(values, decimal.NewFromInt(int64(i)))
	}
	b := Band(values)
	assert.True(t, b.P5.Equal(decimal.NewFromInt(6)))
	assert.True(t, b.P50.Equal(decimal.NewFromInt(51)))
	assert.True(t, b.P95.Equal(decimal.NewFromInt(96)))
	assert.True(t, b.P5.LessThanOrEqual(b.P50) && b.P50.LessThanOrEqual(b.P95))

	empty := Band(nil)
	assert.True(t, empty.P50.IsZero())
}

func TestPartialAggregate_Finalize(t *testing.T) {
	agg := NewPartialAggregate([]string{"retire", "never"})
	agg.Add(summary(0, 100, 0, "retire"))
	agg.Add(summary(1, 200, domain.FlagCashFloorBreach))
	agg.Add(summary(2, 300, domain.FlagLeverageBreach|domain.FlagCashFloorBreach, "retire"))
	agg.Add(summary(3, 400, domain.FlagNumericDefect|domain.FlagUnfundedEvent, "retire"))

	res := agg.Finalize()
	assert.Equal(t, 4, res.PathCount)
	assert.True(t, res.BreachProbability.Equal(dec("0.5")))
	assert.True(t, res.SuccessRate.Equal(dec("0.5")))
	assert.True(t, res.LeverageBreachRate.Equal(dec("0.25")))
	assert.Equal(t, 1, res.DefectPaths)
	assert.True(t, res.UnfundedEventRate.Equal(dec("0.25")))
	assert.True(t, res.FinalNetWorth.P5.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.FinalNetWorth.P50.Equal(decimal.NewFromInt(300)))
	assert.True(t, res.FinalNetWorth.P95.Equal(decimal.NewFromInt(400)))

	require.Len(t, res.Milestones, 2)
	assert.Equal(t, "never", res.Milestones[0].Name)
	assert.True(t, res.Milestones[0].Rate.IsZero())
	assert.Equal(t, "retire", res.Milestones[1].Name)
	assert.True(t, res.Milestones[1].Rate.Equal(dec("0.75")))

	require.Len(t, res.NetWorthSeries, 2)
	assert.Equal(t, 2025, res.NetWorthSeries[0].Year)
	assert.True(t, res.NetWorthSeries[1].Band.P95.Equal(decimal.NewFromInt(400)))
}

func TestPartialAggregate_Empty(t *testing.T) {
	res := NewPartialAggregate(nil).Finalize()
	assert.Equal(t, 0, res.PathCount)
	assert.Empty(t, res.NetWorthSeries)
}

func TestPartialAggregate_MergeOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var all []domain.PathSummary
	for i := 0; i < 97; i++ {
		var flags domain.Flags
		if rng.IntN(4) == 0 {
			flags = domain.FlagCashFloorBreach
		}
		all = append(all, summary(i, rng.Int64N(1_000_000), flags))
	}

	whole := NewPartialAggregate(nil)
	for _, s := range all {
		whole.Add(s)
	}

	// Three partials with interleaved assignment, merged in two different orders.
	parts := []*PartialAggregate{NewPartialAggregate(nil), NewPartialAggregate(nil), NewPartialAggregate(nil)}
	for i, s := range all {
		parts[i%3].Add(s)
	}
	left := NewPartialAggregate(nil)
	left.Merge(parts[0])
	left.Merge(parts[1])
	left.Merge(parts[2])

	right := NewPartialAggregate(nil)
	tail := NewPartialAggregate(nil)
	tail.Merge(parts[1])
	tail.Merge(parts[0])
	right.Merge(parts[2])
	right.Merge(tail)
	right.Merge(nil)

	assert.Equal(t, whole.Count(), left.Count())
	assert.Equal(t, whole.Finalize(), left.Finalize())
	assert.Equal(t, whole.Finalize(), right.Finalize())
}
