package calculation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
)

// ErrInsufficientHistory is returned when a series has too few years to calibrate.
var ErrInsufficientHistory = errors.New("insufficient historical data")

// minCalibrationYears is the shortest series Calibrate will use.
const minCalibrationYears = 5

// HistoricalStatistics summarizes one series of annual returns.
type HistoricalStatistics struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Count        int     `json:"count"`
	MissingYears []int   `json:"missing_years,omitempty"`
}

// HistoricalDataSet holds annual returns by year for several asset classes.
// Missing cells are NaN.
type HistoricalDataSet struct {
	Source  string               `json:"source"`
	Years   []int                `json:"years"`
	Columns []string             `json:"columns"`
	Values  map[string][]float64 `json:"-"`
}

// LoadHistoricalData reads a CSV file, see ParseHistoricalCSV.
func LoadHistoricalData(path string) (*HistoricalDataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()
	return ParseHistoricalCSV(f, path)
}

// ParseHistoricalCSV reads a header row "year,<asset>,<asset>..." followed by
// one row per year of annual returns as ratios (0.12 for 12%). Empty cells
// mark missing data; rows with an unparseable year are rejected.
func ParseHistoricalCSV(r io.Reader, source string) (*HistoricalDataSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "year") {
		return nil, fmt.Errorf("invalid CSV format: want \"year\" followed by at least one asset column")
	}

	ds := &HistoricalDataSet{Source: source, Values: map[string][]float64{}}
	for _, h := range header[1:] {
		name := strings.TrimSpace(h)
		if _, dup := ds.Values[name]; dup || name == "" {
			return nil, fmt.Errorf("invalid CSV format: duplicate or empty column %q", name)
		}
		ds.Columns = append(ds.Columns, name)
		ds.Values[name] = nil
	}

	seen := map[int]bool{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year %q", line, record[0])
		}
		if seen[year] {
			return nil, fmt.Errorf("line %d: duplicate year %d", line, year)
		}
		seen[year] = true
		ds.Years = append(ds.Years, year)
		for i, name := range ds.Columns {
			v := math.NaN()
			if cell := strings.TrimSpace(record[i+1]); cell != "" {
				v, err = strconv.ParseFloat(cell, 64)
				if err != nil || math.IsInf(v, 0) {
					return nil, fmt.Errorf("line %d: invalid %s value %q", line, name, cell)
				}
			}
			ds.Values[name] = append(ds.Values[name], v)
		}
	}
	if len(ds.Years) == 0 {
		return nil, fmt.Errorf("no data rows found in %s", source)
	}
	ds.sortByYear()
	return ds, nil
}

func (ds *HistoricalDataSet) sortByYear() {
	idx := make([]int, len(ds.Years))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return ds.Years[idx[a]] < ds.Years[idx[b]] })
	years := make([]int, len(idx))
	for i, j := range idx {
		years[i] = ds.Years[j]
	}
	for name, vals := range ds.Values {
		sorted := make([]float64, len(idx))
		for i, j := range idx {
			sorted[i] = vals[j]
		}
		ds.Values[name] = sorted
	}
	ds.Years = years
}

// Statistics summarizes the named column. Years absent from the file
// between the first and last row count as missing too.
func (ds *HistoricalDataSet) Statistics(name string) (HistoricalStatistics, error) {
	vals, ok := ds.Values[name]
	if !ok {
		return HistoricalStatistics{}, fmt.Errorf("no column %q in %s", name, ds.Source)
	}
	var present []float64
	var st HistoricalStatistics
	for i, v := range vals {
		if math.IsNaN(v) {
			st.MissingYears = append(st.MissingYears, ds.Years[i])
			continue
		}
		present = append(present, v)
	}
	for i := 1; i < len(ds.Years); i++ {
		for y := ds.Years[i-1] + 1; y < ds.Years[i]; y++ {
			st.MissingYears = append(st.MissingYears, y)
		}
	}
	sort.Ints(st.MissingYears)
	st.Count = len(present)
	if st.Count == 0 {
		return st, nil
	}
	st.Mean, st.StdDev = stat.MeanStdDev(present, nil)
	if st.Count < 2 {
		st.StdDev = 0
	}
	st.Min, st.Max = present[0], present[0]
	for _, v := range present {
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	return st, nil
}

// ValidateDataQuality lists gaps and implausible returns. An annual return
// above 100% or below -50% is flagged as an outlier.
func (ds *HistoricalDataSet) ValidateDataQuality() []string {
	var issues []string
	for _, name := range ds.Columns {
		st, _ := ds.Statistics(name)
		if len(st.MissingYears) > 0 {
			issues = append(issues, fmt.Sprintf("%s: missing years %v", name, st.MissingYears))
		}
		for i, v := range ds.Values[name] {
			switch {
			case math.IsNaN(v):
			case v > 1:
				issues = append(issues, fmt.Sprintf("%s: extreme positive return %.4f in %d", name, v, ds.Years[i]))
			case v < -0.5:
				issues = append(issues, fmt.Sprintf("%s: extreme negative return %.4f in %d", name, v, ds.Years[i]))
			}
		}
	}
	return issues
}

// Calibrate returns a copy of base with mean, volatility and pairwise
// correlation estimated from the data for every asset class that has a
// column. Classes without a column keep their parameters. The calibrated
// correlation must still be positive semi-definite.
func (ds *HistoricalDataSet) Calibrate(base domain.StochasticModelConfig) (domain.StochasticModelConfig, []string, error) {
	out := base
	out.Assets = append([]domain.AssetClassModel(nil), base.Assets...)
	out.Correlation = make([][]float64, len(base.Correlation))
	for i, row := range base.Correlation {
		out.Correlation[i] = append([]float64(nil), row...)
	}

	var warnings []string
	calibrated := map[int]bool{}
	for i, a := range out.Assets {
		if _, ok := ds.Values[a.Name]; !ok {
			continue
		}
		st, err := ds.Statistics(a.Name)
		if err != nil {
			return base, warnings, err
		}
		if st.Count < minCalibrationYears {
			return base, warnings, fmt.Errorf("%w: %s has %d years, need %d", ErrInsufficientHistory, a.Name, st.Count, minCalibrationYears)
		}
		out.Assets[i].Mean = st.Mean
		out.Assets[i].Volatility = st.StdDev
		calibrated[i] = true
	}
	for _, name := range ds.Columns {
		if base.AssetIndex(name) < 0 {
			warnings = append(warnings, fmt.Sprintf("column %q matches no asset class; ignored", name))
		}
	}

	for i := range out.Assets {
		for j := i + 1; j < len(out.Assets); j++ {
			if !calibrated[i] || !calibrated[j] {
				continue
			}
			x, y := pairwise(ds.Values[out.Assets[i].Name], ds.Values[out.Assets[j].Name])
			if len(x) < minCalibrationYears {
				warnings = append(warnings, fmt.Sprintf("%s/%s: %d overlapping years; correlation kept",
					out.Assets[i].Name, out.Assets[j].Name, len(x)))
				continue
			}
			rho := stat.Correlation(x, y, nil)
			if math.IsNaN(rho) {
				continue
			}
			out.Correlation[i][j], out.Correlation[j][i] = rho, rho
		}
	}
	if err := config.ValidateCorrelation(out.Correlation, len(out.Assets)); err != nil {
		return base, warnings, fmt.Errorf("calibrated correlation rejected: %w", err)
	}
	return out, warnings, nil
}

// pairwise keeps the years where both series have data.
func pairwise(a, b []float64) (x, y []float64) {
	for i := range a {
		if i < len(b) && !math.IsNaN(a[i]) && !math.IsNaN(b[i]) {
			x = append(x, a[i])
			y = append(y, b[i])
		}
	}
	return x, y
}
