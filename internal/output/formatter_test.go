package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func band(p5, p50, p95 int64) domain.PercentileBand {
	return domain.PercentileBand{P5: decimal.NewFromInt(p5), P50: decimal.NewFromInt(p50), P95: decimal.NewFromInt(p95)}
}

func buildTestResponse() *domain.SimulationResponse {
	return &domain.SimulationResponse{
		RunID:     "run-1",
		Success:   true,
		Status:    domain.RunComplete,
		Seed:      42,
		InputHash: "abc123",
		Warnings:  []string{"event \"gift\": truncated to 1200 months"},
		StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Aggregate: &domain.AggregateResult{
			PathCount:          100,
			SuccessRate:        decimal.RequireFromString("0.97"),
			BreachProbability:  decimal.RequireFromString("0.03"),
			LeverageBreachRate: decimal.Zero,
			UnfundedEventRate:  decimal.RequireFromString("0.02"),
			FinalNetWorth:      band(250000, 1200000, 3400000),
			MinimumCash:        band(1000, 8000, 15000),
			NetWorthSeries: []domain.SeriesPoint{
				{Year: 2025, Band: band(900000, 1000000, 1100000)},
				{Year: 2026, Band: band(850000, 1050000, 1250000)},
			},
			CashSeries: []domain.SeriesPoint{
				{Year: 2025, Band: band(4000, 9000, 12000)},
				{Year: 2026, Band: band(2500, 8000, 14000)},
			},
			Milestones: []domain.MilestoneRate{{Name: "two-million", Rate: decimal.RequireFromString("0.41")}},
		},
		Paths: []domain.PathResult{{
			Summary: domain.PathSummary{PathIndex: 0},
			Years: []domain.AnnualRollup{
				{Year: 2025, AgeYears: 55, EndNetWorth: decimal.NewFromInt(990000), EndCash: decimal.NewFromInt(9000)},
				{Year: 2026, AgeYears: 56, EndNetWorth: decimal.NewFromInt(1010000), EndCash: decimal.NewFromInt(2000),
					Flags: domain.FlagCashFloorBreach},
			},
		}},
	}
}

func TestConsoleLiteFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestResponse())
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "Success: 97.00%")
	assert.Contains(t, content, "P50=$1,200,000.00")
	assert.Contains(t, content, "two-million=41.00%")
	assert.Contains(t, content, "Rating: robust")
}

func TestConsoleLiteFormatter_NoAggregate(t *testing.T) {
	resp := &domain.SimulationResponse{RunID: "x", Status: domain.RunIncomplete, Error: "simulation run incomplete"}
	out, err := ConsoleFormatter{}.Format(resp)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Status: incomplete")
	assert.Contains(t, string(out), "No aggregate available")
}

func TestConsoleVerboseFormatter(t *testing.T) {
	out, err := ConsoleVerboseFormatter{}.Format(buildTestResponse())
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "KEY ASSUMPTIONS:")
	assert.Contains(t, content, DefaultAssumptions[0])
	assert.Contains(t, content, "WARNINGS:")
	assert.Contains(t, content, "YEAR-END NET WORTH")
	assert.Contains(t, content, "Weakest year (P5 cash): 2026 at $2,500.00")
	assert.Contains(t, content, "Unfunded events:        2.00%")
}

func TestConsoleVerboseFormatter_CustomAssumptions(t *testing.T) {
	out, err := ConsoleVerboseFormatter{Assumptions: []string{"flat returns"}}.Format(buildTestResponse())
	require.NoError(t, err)
	assert.Contains(t, string(out), "• flat returns")
	assert.NotContains(t, string(out), DefaultAssumptions[0])
}

func TestCSVSummarizer(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildTestResponse())
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)

	values := map[string]string{}
	for _, r := range records[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, []string{"Metric", "Value"}, records[0])
	assert.Equal(t, "42", values["Seed"])
	assert.Equal(t, "100", values["PathCount"])
	assert.Equal(t, "0.970000", values["SuccessRate"])
	assert.Equal(t, "1200000.00", values["FinalNetWorthP50"])
	assert.Equal(t, "0.410000", values["Milestone:two-million"])
	assert.Equal(t, "0.020000", values["UnfundedEventRate"])
}

func TestCSVDetailedExporter(t *testing.T) {
	out, err := CSVDetailedExporter{}.Format(buildTestResponse())
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)

	// header + 3 percentiles x 2 years + 2 path years
	require.Len(t, records, 1+6+2)
	assert.Equal(t, "Path", records[0][0])
	assert.Equal(t, []string{"P5", "2026", "", "850000.00", "2500.00", "", "", "", "", ""}, records[2])
	last := records[len(records)-1]
	assert.Equal(t, "0", last[0])
	assert.Equal(t, "56", last[2])
	assert.Equal(t, "cash_floor_breach", last[9])
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestResponse())
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "complete", decoded["status"])
	agg := decoded["aggregate"].(map[string]any)
	assert.Equal(t, "0.97", agg["success_rate"])
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"console", "console"},
		{"VERBOSE", "console"},
		{"summary", "console-lite"},
		{"csv-detailed", "detailed-csv"},
		{" json ", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f := GetFormatterByName(tt.in)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Name())
		})
	}
	assert.Nil(t, GetFormatterByName("html"))
}

func TestAvailableFormatterNames(t *testing.T) {
	assert.Equal(t, []string{"console", "console-lite", "csv", "detailed-csv", "json"}, AvailableFormatterNames())
	assert.Contains(t, AvailableFormatAliases(), "verbose")
}

func TestWriteFormatted(t *testing.T) {
	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = orig })

	dir := t.TempDir()
	path, err := WriteFormatted(CSVSummarizer{}, buildTestResponse(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "projection_20250304_050607.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Metric,Value"))
}
