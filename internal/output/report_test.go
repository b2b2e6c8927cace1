package output_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/internal/output"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"currency", output.FormatCurrency(decimal.NewFromFloat(123.45)), "$123.45"},
		{"thousands", output.FormatCurrency(decimal.RequireFromString("1234567.891")), "$1,234,567.89"},
		{"negative", output.FormatCurrency(decimal.NewFromInt(-12)), "-$12.00"},
		{"rate", output.FormatRate(decimal.RequireFromString("0.153")), "15.30%"},
		{"percentage", output.FormatPercentage(decimal.NewFromFloat(12.34)), "12.34%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRender_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := output.Render(&buf, &domain.SimulationResponse{}, "html", output.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, output.ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "detailed-csv")
	assert.Zero(t, buf.Len())
}

func TestRender_CompactJSON(t *testing.T) {
	var buf bytes.Buffer
	resp := &domain.SimulationResponse{RunID: "r", Status: domain.RunFailed}
	require.NoError(t, output.Render(&buf, resp, "json", output.Options{Compact: true}))
	assert.NotContains(t, buf.String(), "\n  ")
	assert.Contains(t, buf.String(), `"status":"failed"`)
}

func TestRender_ConsoleUsesAssumptions(t *testing.T) {
	var buf bytes.Buffer
	assumptions := output.GenerateAssumptions(config.DefaultEngineConfig())
	require.NoError(t, output.Render(&buf, &domain.SimulationResponse{}, "verbose", output.Options{Assumptions: assumptions}))
	assert.Contains(t, buf.String(), "us_equity: 9.0% mean, 16.0% volatility")
	assert.Contains(t, buf.String(), "indexed to simulated inflation")
}

func TestGenerateReport_All(t *testing.T) {
	dir := t.TempDir()
	paths, err := output.GenerateReport(&domain.SimulationResponse{Status: domain.RunComplete}, "all", dir, output.Options{})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], ".txt")
	assert.Contains(t, paths[1], ".csv")
}

func TestGenerateAssumptions_NilConfig(t *testing.T) {
	assert.Equal(t, output.DefaultAssumptions, output.GenerateAssumptions(nil))
}

func TestAssess(t *testing.T) {
	mk := func(breach string) *domain.SimulationResponse {
		p := decimal.RequireFromString(breach)
		return &domain.SimulationResponse{Aggregate: &domain.AggregateResult{
			PathCount:         10,
			BreachProbability: p,
			SuccessRate:       decimal.NewFromInt(1).Sub(p),
		}}
	}
	tests := []struct {
		breach string
		want   output.Rating
	}{
		{"0", output.RatingRobust},
		{"0.05", output.RatingRobust},
		{"0.1", output.RatingModerate},
		{"0.2", output.RatingModerate},
		{"0.5", output.RatingFragile},
	}
	for _, tt := range tests {
		t.Run(tt.breach, func(t *testing.T) {
			assert.Equal(t, tt.want, output.Assess(mk(tt.breach)).Rating)
		})
	}
	assert.Equal(t, output.RatingUnknown, output.Assess(&domain.SimulationResponse{}).Rating)
	assert.Equal(t, output.RatingUnknown, output.Assess(nil).Rating)
}
