package calculation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgo/projection-engine/internal/domain"
)

const historyCSV = `year,us_equity,bonds,gold
2023,0.12,,0.01
2015,0.10,0.03,0.02
2016,-0.05,0.04,0.01
2017,0.20,0.02,0.00
2018,0.15,0.01,0.03
2020,-0.10,0.05,0.25
2021,0.25,0.00,-0.04
2022,0.05,0.03,0.02
`

func twoAssetModel() domain.StochasticModelConfig {
	return domain.StochasticModelConfig{
		DegreesOfFreedom: 8,
		Assets: []domain.AssetClassModel{
			{Name: "us_equity", Mean: 0.08, Volatility: 0.16, GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.90}},
			{Name: "bonds", Mean: 0.04, Volatility: 0.05, GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.90}},
		},
		Correlation: [][]float64{{1, 0}, {0, 1}},
	}
}

func TestParseHistoricalCSV(t *testing.T) {
	ds, err := ParseHistoricalCSV(strings.NewReader(historyCSV), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"us_equity", "bonds", "gold"}, ds.Columns)
	assert.Equal(t, []int{2015, 2016, 2017, 2018, 2020, 2021, 2022, 2023}, ds.Years)
	assert.InDelta(t, 0.12, ds.Values["us_equity"][7], 1e-12)
	assert.True(t, math.IsNaN(ds.Values["bonds"][7]))
}

func TestParseHistoricalCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no year column", "date,us_equity\n2020,0.1\n"},
		{"no data", "year,us_equity\n"},
		{"bad year", "year,us_equity\nabc,0.1\n"},
		{"duplicate year", "year,us_equity\n2020,0.1\n2020,0.2\n"},
		{"bad value", "year,us_equity\n2020,ten\n"},
		{"duplicate column", "year,bonds,bonds\n2020,0.1,0.1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHistoricalCSV(strings.NewReader(tt.in), "test")
			assert.Error(t, err)
		})
	}
}

func TestHistoricalStatistics(t *testing.T) {
	ds, err := ParseHistoricalCSV(strings.NewReader(historyCSV), "test")
	require.NoError(t, err)

	st, err := ds.Statistics("us_equity")
	require.NoError(t, err)
	assert.Equal(t, 8, st.Count)
	assert.InDelta(t, 0.09, st.Mean, 1e-12)
	assert.InDelta(t, -0.10, st.Min, 1e-12)
	assert.InDelta(t, 0.25, st.Max, 1e-12)
	assert.Equal(t, []int{2019}, st.MissingYears)

	var ss float64
	for _, v := range ds.Values["us_equity"] {
		ss += (v - 0.09) * (v - 0.09)
	}
	assert.InDelta(t, math.Sqrt(ss/7), st.StdDev, 1e-12)

	bonds, err := ds.Statistics("bonds")
	require.NoError(t, err)
	assert.Equal(t, 7, bonds.Count)
	assert.Equal(t, []int{2019, 2023}, bonds.MissingYears)

	_, err = ds.Statistics("reits")
	assert.Error(t, err)
}

func TestValidateDataQuality(t *testing.T) {
	ds, err := ParseHistoricalCSV(strings.NewReader("year,a\n2000,1.5\n2001,-0.6\n2003,0.1\n"), "test")
	require.NoError(t, err)
	issues := ds.ValidateDataQuality()
	require.Len(t, issues, 3)
	assert.Contains(t, issues[0], "missing years [2002]")
	assert.Contains(t, issues[1], "extreme positive")
	assert.Contains(t, issues[2], "extreme negative")
}

func TestCalibrate(t *testing.T) {
	ds, err := ParseHistoricalCSV(strings.NewReader(historyCSV), "test")
	require.NoError(t, err)
	base := twoAssetModel()

	model, warnings, err := ds.Calibrate(base)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"gold"`)

	assert.InDelta(t, 0.09, model.Assets[0].Mean, 1e-12)
	assert.InDelta(t, 0.18/7, model.Assets[1].Mean, 1e-12)
	rho := model.Correlation[0][1]
	assert.Equal(t, rho, model.Correlation[1][0])
	assert.Less(t, rho, 0.0, "bonds fell when equities rose in this sample")
	assert.Greater(t, rho, -1.0)

	assert.Equal(t, 0.08, base.Assets[0].Mean, "base model is not modified")
	assert.Equal(t, 0.0, base.Correlation[0][1])

	_, err = CompileModel(model)
	assert.NoError(t, err)
}

func TestCalibrate_InsufficientHistory(t *testing.T) {
	ds, err := ParseHistoricalCSV(strings.NewReader("year,bonds\n2020,0.01\n2021,0.02\n"), "test")
	require.NoError(t, err)
	_, _, err = ds.Calibrate(twoAssetModel())
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestCalibrate_RejectsIndefiniteCorrelation(t *testing.T) {
	base := domain.StochasticModelConfig{
		DegreesOfFreedom: 8,
		Assets: []domain.AssetClassModel{
			{Name: "a", Mean: 0.05, Volatility: 0.1},
			{Name: "b", Mean: 0.05, Volatility: 0.1},
			{Name: "c", Mean: 0.05, Volatility: 0.1},
		},
		Correlation: [][]float64{{1, 0, 0.6}, {0, 1, -0.6}, {0.6, -0.6, 1}},
	}
	var sb strings.Builder
	sb.WriteString("year,a,b\n")
	for i, v := range []string{"0.01", "0.05", "-0.02", "0.08", "0.03", "0.00"} {
		sb.WriteString(strings.Join([]string{strconv.Itoa(2000 + i), v, v}, ",") + "\n")
	}
	ds, err := ParseHistoricalCSV(strings.NewReader(sb.String()), "test")
	require.NoError(t, err)
	_, _, err = ds.Calibrate(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calibrated correlation rejected")
}

func TestLoadHistoricalData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(historyCSV), 0o644))
	ds, err := LoadHistoricalData(path)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)

	_, err = LoadHistoricalData(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
