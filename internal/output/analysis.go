package output

import (
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Rating buckets a plan by its breach probability.
type Rating string

const (
	RatingRobust   Rating = "robust"
	RatingModerate Rating = "moderate"
	RatingFragile  Rating = "fragile"
	RatingUnknown  Rating = "unknown"
)

var (
	robustLimit   = decimal.RequireFromString("0.05")
	moderateLimit = decimal.RequireFromString("0.20")
)

// Assessment condenses an aggregate into a headline judgement.
type Assessment struct {
	Rating        Rating
	SuccessRate   decimal.Decimal
	WeakestYear   int
	WeakestP5Cash decimal.Decimal
	// Spread is P95 minus P5 of final net worth.
	Spread decimal.Decimal
}

// Assess rates a response. Responses without an aggregate rate unknown.
func Assess(resp *domain.SimulationResponse) Assessment {
	if resp == nil || resp.Aggregate == nil || resp.Aggregate.PathCount == 0 {
		return Assessment{Rating: RatingUnknown}
	}
	agg := resp.Aggregate
	a := Assessment{
		SuccessRate: agg.SuccessRate,
		Spread:      agg.FinalNetWorth.P95.Sub(agg.FinalNetWorth.P5),
	}
	switch {
	case agg.BreachProbability.LessThanOrEqual(robustLimit):
		a.Rating = RatingRobust
	case agg.BreachProbability.LessThanOrEqual(moderateLimit):
		a.Rating = RatingModerate
	default:
		a.Rating = RatingFragile
	}
	for i, pt := range agg.CashSeries {
		if i == 0 || pt.Band.P5.LessThan(a.WeakestP5Cash) {
			a.WeakestYear = pt.Year
			a.WeakestP5Cash = pt.Band.P5
		}
	}
	return a
}
