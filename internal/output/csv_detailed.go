package output

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// CSVDetailedExporter writes year-end rows. Percentile rows (Path "P5",
// "P50", "P95") come first, then one row per retained path and year.
// Percentile rows carry only the net worth and cash columns.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string      { return "detailed-csv" }
func (c CSVDetailedExporter) Extension() string { return "csv" }

func (c CSVDetailedExporter) Format(resp *domain.SimulationResponse) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Path", "Year", "AgeYears", "EndNetWorth", "EndCash", "MinCash", "TaxesPaid", "Withdrawals", "RMD", "Flags"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if agg := resp.Aggregate; agg != nil {
		pick := []struct {
			label string
			get   func(domain.PercentileBand) decimal.Decimal
		}{
			{"P5", func(b domain.PercentileBand) decimal.Decimal { return b.P5 }},
			{"P50", func(b domain.PercentileBand) decimal.Decimal { return b.P50 }},
			{"P95", func(b domain.PercentileBand) decimal.Decimal { return b.P95 }},
		}
		for _, p := range pick {
			for i, pt := range agg.NetWorthSeries {
				cash := ""
				if i < len(agg.CashSeries) {
					cash = p.get(agg.CashSeries[i].Band).StringFixed(2)
				}
				row := []string{p.label, intToString(pt.Year), "", p.get(pt.Band).StringFixed(2), cash, "", "", "", "", ""}
				if err := w.Write(row); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, path := range resp.Paths {
		for _, yr := range path.Years {
			row := []string{
				intToString(path.Summary.PathIndex),
				intToString(yr.Year),
				intToString(yr.AgeYears),
				yr.EndNetWorth.StringFixed(2),
				yr.EndCash.StringFixed(2),
				yr.MinCash.StringFixed(2),
				yr.TaxesPaid.StringFixed(2),
				yr.Withdrawals.StringFixed(2),
				yr.RMD.StringFixed(2),
				strings.Join(yr.Flags.Names(), "|"),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
