package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rpgo/projection-engine/internal/domain"
)

// ConsoleVerboseFormatter renders the detailed console report. Assumptions
// fall back to DefaultAssumptions when empty.
type ConsoleVerboseFormatter struct {
	Assumptions []string
}

func (c ConsoleVerboseFormatter) Name() string      { return "console" }
func (c ConsoleVerboseFormatter) Extension() string { return "txt" }

func (c ConsoleVerboseFormatter) Format(resp *domain.SimulationResponse) ([]byte, error) {
	var buf bytes.Buffer
	rule := strings.Repeat("=", 81)

	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf, "MONTE CARLO NET WORTH PROJECTION")
	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "Run ID:     %s\n", resp.RunID)
	fmt.Fprintf(&buf, "Status:     %s\n", resp.Status)
	fmt.Fprintf(&buf, "Seed:       %d\n", resp.Seed)
	fmt.Fprintf(&buf, "Input hash: %s\n", resp.InputHash)
	fmt.Fprintf(&buf, "Elapsed:    %s\n", resp.Elapsed)
	if resp.Error != "" {
		fmt.Fprintf(&buf, "Error:      %s\n", resp.Error)
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "KEY ASSUMPTIONS:")
	assumptions := c.Assumptions
	if len(assumptions) == 0 {
		assumptions = DefaultAssumptions
	}
	for _, a := range assumptions {
		fmt.Fprintf(&buf, "• %s\n", a)
	}
	fmt.Fprintln(&buf)

	if len(resp.Warnings) > 0 {
		fmt.Fprintln(&buf, "WARNINGS:")
		for _, w := range resp.Warnings {
			fmt.Fprintf(&buf, "  - %s\n", w)
		}
		fmt.Fprintln(&buf)
	}

	agg := resp.Aggregate
	if agg == nil {
		fmt.Fprintln(&buf, "No aggregate available for this run.")
		return buf.Bytes(), nil
	}

	fmt.Fprintln(&buf, "OUTCOME")
	fmt.Fprintln(&buf, strings.Repeat("-", 40))
	fmt.Fprintf(&buf, "Paths simulated:        %d\n", agg.PathCount)
	fmt.Fprintf(&buf, "Success rate:           %s\n", FormatRate(agg.SuccessRate))
	fmt.Fprintf(&buf, "Cash floor breach:      %s\n", FormatRate(agg.BreachProbability))
	fmt.Fprintf(&buf, "Leverage breach:        %s\n", FormatRate(agg.LeverageBreachRate))
	if agg.UnfundedEventRate.IsPositive() {
		fmt.Fprintf(&buf, "Unfunded events:        %s\n", FormatRate(agg.UnfundedEventRate))
	}
	if agg.DefectPaths > 0 {
		fmt.Fprintf(&buf, "Paths with defects:     %d\n", agg.DefectPaths)
	}
	a := Assess(resp)
	fmt.Fprintf(&buf, "Rating:                 %s\n", a.Rating)
	if len(agg.CashSeries) > 0 {
		fmt.Fprintf(&buf, "Weakest year (P5 cash): %d at %s\n", a.WeakestYear, FormatCurrency(a.WeakestP5Cash))
	}
	fmt.Fprintln(&buf)

	fmt.Fprintf(&buf, "%-22s %18s %18s %18s\n", "", "P5", "P50", "P95")
	writeBandRow(&buf, "Final net worth", agg.FinalNetWorth)
	writeBandRow(&buf, "Minimum cash", agg.MinimumCash)
	fmt.Fprintln(&buf)

	if len(agg.Milestones) > 0 {
		fmt.Fprintln(&buf, "MILESTONES")
		fmt.Fprintln(&buf, strings.Repeat("-", 40))
		for _, m := range agg.Milestones {
			fmt.Fprintf(&buf, "  %-28s %s\n", m.Name, FormatRate(m.Rate))
		}
		fmt.Fprintln(&buf)
	}

	writeSeries(&buf, "YEAR-END NET WORTH", agg.NetWorthSeries)
	writeSeries(&buf, "YEAR-END CASH", agg.CashSeries)
	return buf.Bytes(), nil
}

func writeBandRow(buf *bytes.Buffer, label string, b domain.PercentileBand) {
	fmt.Fprintf(buf, "%-22s %18s %18s %18s\n", label, FormatCurrency(b.P5), FormatCurrency(b.P50), FormatCurrency(b.P95))
}

func writeSeries(buf *bytes.Buffer, title string, series []domain.SeriesPoint) {
	if len(series) == 0 {
		return
	}
	fmt.Fprintln(buf, title)
	fmt.Fprintln(buf, strings.Repeat("-", 81))
	fmt.Fprintf(buf, "%-22s %18s %18s %18s\n", "Year", "P5", "P50", "P95")
	for _, pt := range series {
		writeBandRow(buf, intToString(pt.Year), pt.Band)
	}
	fmt.Fprintln(buf)
}
