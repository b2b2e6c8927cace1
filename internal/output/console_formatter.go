package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rpgo/projection-engine/internal/domain"
)

// ConsoleFormatter provides a concise console style summary via the formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string      { return "console-lite" }
func (c ConsoleFormatter) Extension() string { return "txt" }

func (c ConsoleFormatter) Format(resp *domain.SimulationResponse) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "PROJECTION SUMMARY")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Run: %s  Status: %s  Seed: %d\n", resp.RunID, resp.Status, resp.Seed)
	if resp.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", resp.Error)
	}
	agg := resp.Aggregate
	if agg == nil {
		fmt.Fprintln(&buf, "No aggregate available.")
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "Paths: %d  Success: %s  Breach: %s\n",
		agg.PathCount, FormatRate(agg.SuccessRate), FormatRate(agg.BreachProbability))
	fmt.Fprintf(&buf, "Final net worth P5=%s P50=%s P95=%s\n",
		FormatCurrency(agg.FinalNetWorth.P5), FormatCurrency(agg.FinalNetWorth.P50), FormatCurrency(agg.FinalNetWorth.P95))
	fmt.Fprintf(&buf, "Minimum cash    P5=%s P50=%s P95=%s\n",
		FormatCurrency(agg.MinimumCash.P5), FormatCurrency(agg.MinimumCash.P50), FormatCurrency(agg.MinimumCash.P95))
	if len(agg.Milestones) > 0 {
		parts := make([]string, 0, len(agg.Milestones))
		for _, m := range agg.Milestones {
			parts = append(parts, m.Name+"="+FormatRate(m.Rate))
		}
		fmt.Fprintf(&buf, "Milestones: %s\n", strings.Join(parts, " "))
	}
	a := Assess(resp)
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "Rating: %s\n", a.Rating)
	return buf.Bytes(), nil
}
