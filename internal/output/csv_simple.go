package output

import (
	"bytes"
	"encoding/csv"

	"github.com/rpgo/projection-engine/internal/domain"
)

// CSVSummarizer writes one metric per row.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string      { return "csv" }
func (c CSVSummarizer) Extension() string { return "csv" }

func (c CSVSummarizer) Format(resp *domain.SimulationResponse) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	rows := [][]string{
		{"Metric", "Value"},
		{"RunID", resp.RunID},
		{"Status", string(resp.Status)},
		{"Success", boolToString(resp.Success)},
		{"Seed", formatInt64(resp.Seed)},
		{"InputHash", resp.InputHash},
	}
	if agg := resp.Aggregate; agg != nil {
		rows = append(rows,
			[]string{"PathCount", intToString(agg.PathCount)},
			[]string{"SuccessRate", agg.SuccessRate.StringFixed(6)},
			[]string{"BreachProbability", agg.BreachProbability.StringFixed(6)},
			[]string{"LeverageBreachRate", agg.LeverageBreachRate.StringFixed(6)},
			[]string{"DefectPaths", intToString(agg.DefectPaths)},
			[]string{"UnfundedEventRate", agg.UnfundedEventRate.StringFixed(6)},
			[]string{"FinalNetWorthP5", agg.FinalNetWorth.P5.StringFixed(2)},
			[]string{"FinalNetWorthP50", agg.FinalNetWorth.P50.StringFixed(2)},
			[]string{"FinalNetWorthP95", agg.FinalNetWorth.P95.StringFixed(2)},
			[]string{"MinimumCashP5", agg.MinimumCash.P5.StringFixed(2)},
			[]string{"MinimumCashP50", agg.MinimumCash.P50.StringFixed(2)},
			[]string{"MinimumCashP95", agg.MinimumCash.P95.StringFixed(2)},
		)
		for _, m := range agg.Milestones {
			rows = append(rows, []string{"Milestone:" + m.Name, m.Rate.StringFixed(6)})
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
