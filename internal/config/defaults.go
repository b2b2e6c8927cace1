package config

import (
	"runtime"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultEngineConfig returns a fresh configuration with 2025 federal tables,
// the Uniform Lifetime Table and a seven-class return model. Each call
// returns a new value; callers may modify it freely.
func DefaultEngineConfig() *EngineConfig {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &EngineConfig{
		Model:     DefaultModel(),
		TaxTables: DefaultTaxTables(),
		Medicare: MedicareConfig{
			PartBBase: decimal.RequireFromString("185.00"),
			PartDBase: decimal.RequireFromString("36.78"),
		},
		RMD: RMDConfig{Divisors: defaultRMDDivisors()},
		Engine: EngineSettings{
			Workers:                workers,
			QueueDepth:             256,
			MaxPaths:               10000,
			MaxHorizonMonths:       1200,
			MaxEventMonths:         1200,
			RequiredFilingStatuses: []domain.FilingStatus{domain.FilingSingle, domain.FilingMarriedJointly},
		},
	}
}

// DefaultModel is a long-run capital market assumption set. Correlations are
// strictly diagonally dominant apart from the equity pair, so the matrix is
// positive definite.
func DefaultModel() domain.StochasticModelConfig {
	return domain.StochasticModelConfig{
		DegreesOfFreedom: 6,
		Assets: []domain.AssetClassModel{
			{Name: "us_equity", Mean: 0.09, Volatility: 0.16, DividendYield: 0.015,
				GARCH: domain.GARCHParams{Alpha: 0.08, Beta: 0.90}},
			{Name: "intl_equity", Mean: 0.085, Volatility: 0.18, DividendYield: 0.025,
				GARCH: domain.GARCHParams{Alpha: 0.08, Beta: 0.89}},
			{Name: "bonds", Mean: 0.045, Volatility: 0.06,
				GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.90}},
			{Name: domain.AssetCash, Mean: 0.03, Volatility: 0.01,
				GARCH: domain.GARCHParams{Alpha: 0.02, Beta: 0.90},
				AR1:   &domain.AR1Params{Phi: 0.95}},
			{Name: domain.AssetInflation, Mean: 0.025, Volatility: 0.012,
				GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.85},
				AR1:   &domain.AR1Params{Phi: 0.6}},
			{Name: domain.AssetHomeValue, Mean: 0.04, Volatility: 0.06,
				GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.90},
				AR1:   &domain.AR1Params{Phi: 0.5}},
			{Name: domain.AssetRentalGrowth, Mean: 0.03, Volatility: 0.03,
				GARCH: domain.GARCHParams{Alpha: 0.05, Beta: 0.85},
				AR1:   &domain.AR1Params{Phi: 0.5}},
		},
		Correlation: [][]float64{
			{1.00, 0.70, 0.10, 0.00, -0.05, 0.10, 0.00},
			{0.70, 1.00, 0.10, 0.00, -0.05, 0.10, 0.00},
			{0.10, 0.10, 1.00, 0.20, -0.20, 0.05, 0.00},
			{0.00, 0.00, 0.20, 1.00, 0.30, 0.00, 0.05},
			{-0.05, -0.05, -0.20, 0.30, 1.00, 0.15, 0.20},
			{0.10, 0.10, 0.05, 0.00, 0.15, 1.00, 0.30},
			{0.00, 0.00, 0.00, 0.05, 0.20, 0.30, 1.00},
		},
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func brackets(rates []string, bounds ...string) []domain.TaxBracket {
	out := make([]domain.TaxBracket, len(rates))
	lower := decimal.Zero
	for i, r := range rates {
		b := domain.TaxBracket{Min: lower, Rate: d(r)}
		if i < len(bounds) {
			b.Max = d(bounds[i])
			lower = b.Max
		}
		out[i] = b
	}
	return out
}

func irmaa(bounds []string, partB, partD []string) []domain.IRMAABracket {
	out := make([]domain.IRMAABracket, len(partB))
	lower := decimal.Zero
	for i := range partB {
		b := domain.IRMAABracket{Min: lower, PartB: d(partB[i]), PartD: d(partD[i])}
		if i < len(bounds) {
			b.Max = d(bounds[i])
			lower = b.Max
		}
		out[i] = b
	}
	return out
}

var (
	ordinaryRates = []string{"0.10", "0.12", "0.22", "0.24", "0.32", "0.35", "0.37"}
	irmaaPartB    = []string{"0", "74.00", "185.00", "295.90", "406.90", "443.90"}
	irmaaPartD    = []string{"0", "13.70", "35.30", "57.00", "78.60", "85.80"}
)

// DefaultTaxTables returns the 2025 federal tables for single and joint filers.
func DefaultTaxTables() domain.TaxTables {
	return domain.TaxTables{
		{
			Year:                  2025,
			FilingStatus:          domain.FilingSingle,
			StandardDeduction:     d("15000"),
			AdditionalDeduction65: d("2000"),
			Ordinary:              brackets(ordinaryRates, "11925", "48475", "103350", "197300", "250525", "626350"),
			LongTermGains:         brackets([]string{"0", "0.15", "0.20"}, "48350", "533400"),
			IRMAA:                 irmaa([]string{"106000", "133000", "167000", "200000", "500000"}, irmaaPartB, irmaaPartD),
			SocialSecurityBase1:   d("25000"),
			SocialSecurityBase2:   d("34000"),
		},
		{
			Year:                  2025,
			FilingStatus:          domain.FilingMarriedJointly,
			StandardDeduction:     d("30000"),
			AdditionalDeduction65: d("1600"),
			Ordinary:              brackets(ordinaryRates, "23850", "96950", "206700", "394600", "501050", "751600"),
			LongTermGains:         brackets([]string{"0", "0.15", "0.20"}, "96700", "600050"),
			IRMAA:                 irmaa([]string{"212000", "266000", "334000", "400000", "750000"}, irmaaPartB, irmaaPartD),
			SocialSecurityBase1:   d("32000"),
			SocialSecurityBase2:   d("44000"),
		},
	}
}

// IRS Uniform Lifetime Table (2022+).
func defaultRMDDivisors() []RMDDivisor {
	table := []struct {
		age     int
		divisor string
	}{
		{72, "27.4"}, {73, "26.5"}, {74, "25.5"}, {75, "24.6"}, {76, "23.7"},
		{77, "22.9"}, {78, "22.0"}, {79, "21.1"}, {80, "20.2"}, {81, "19.4"},
		{82, "18.5"}, {83, "17.7"}, {84, "16.8"}, {85, "16.0"}, {86, "15.2"},
		{87, "14.4"}, {88, "13.7"}, {89, "12.9"}, {90, "12.2"}, {91, "11.5"},
		{92, "10.8"}, {93, "10.1"}, {94, "9.5"}, {95, "8.9"}, {96, "8.4"},
		{97, "7.8"}, {98, "7.3"}, {99, "6.8"}, {100, "6.4"}, {101, "6.0"},
		{102, "5.6"}, {103, "5.2"}, {104, "4.9"}, {105, "4.6"}, {106, "4.3"},
		{107, "4.1"}, {108, "3.9"}, {109, "3.7"}, {110, "3.5"}, {111, "3.4"},
		{112, "3.3"}, {113, "3.1"}, {114, "3.0"}, {115, "2.9"}, {116, "2.8"},
		{117, "2.7"}, {118, "2.5"}, {119, "2.3"}, {120, "2.0"},
	}
	out := make([]RMDDivisor, len(table))
	for i, row := range table {
		out[i] = RMDDivisor{Age: row.age, Divisor: d(row.divisor)}
	}
	return out
}
