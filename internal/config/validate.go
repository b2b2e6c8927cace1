package config

import (
	"fmt"
	"math"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

const correlationTolerance = 1e-9

func validateModel(m domain.StochasticModelConfig) []error {
	var errs []error
	n := len(m.Assets)
	if n == 0 {
		return []error{fmt.Errorf("model: at least one asset class is required")}
	}
	seen := map[string]bool{}
	for _, a := range m.Assets {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("model: asset class with empty name"))
			continue
		}
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("model: duplicate asset class %q", a.Name))
		}
		seen[a.Name] = true
		errs = append(errs, validateAsset(a)...)
	}
	if m.DegreesOfFreedom != 0 && !(m.DegreesOfFreedom > 2) {
		errs = append(errs, fmt.Errorf("model: degrees_of_freedom must be greater than 2 (or 0 for Gaussian), got %v", m.DegreesOfFreedom))
	}
	if err := ValidateCorrelation(m.Correlation, n); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateAsset(a domain.AssetClassModel) []error {
	var errs []error
	fields := []struct {
		name string
		v    float64
	}{
		{"mean", a.Mean}, {"volatility", a.Volatility}, {"dividend_yield", a.DividendYield},
		{"garch.omega", a.GARCH.Omega}, {"garch.alpha", a.GARCH.Alpha}, {"garch.beta", a.GARCH.Beta},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Errorf("model: %s.%s is not finite", a.Name, f.name))
		}
	}
	if a.Volatility < 0 {
		errs = append(errs, fmt.Errorf("model: %s volatility must be non-negative", a.Name))
	}
	g := a.GARCH
	if g.Omega < 0 || g.Alpha < 0 || g.Beta < 0 {
		errs = append(errs, fmt.Errorf("model: %s GARCH coefficients must be non-negative", a.Name))
	}
	if g.Alpha+g.Beta >= 1 {
		errs = append(errs, fmt.Errorf("model: %s GARCH is non-stationary (alpha+beta = %.4f >= 1)", a.Name, g.Alpha+g.Beta))
	}
	if a.AR1 != nil && math.Abs(a.AR1.Phi) >= 1 {
		errs = append(errs, fmt.Errorf("model: %s AR(1) phi must satisfy |phi| < 1", a.Name))
	}
	return errs
}

// ValidateCorrelation checks that c is an n×n symmetric matrix with unit
// diagonal, entries in [-1, 1], and no negative eigenvalues.
func ValidateCorrelation(c [][]float64, n int) error {
	if len(c) != n {
		return fmt.Errorf("model: correlation matrix has %d rows, want %d", len(c), n)
	}
	flat := make([]float64, 0, n*n)
	for i, row := range c {
		if len(row) != n {
			return fmt.Errorf("model: correlation row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < -1-correlationTolerance || v > 1+correlationTolerance {
				return fmt.Errorf("model: correlation[%d][%d] = %v is out of range", i, j, v)
			}
		}
		if math.Abs(row[i]-1) > correlationTolerance {
			return fmt.Errorf("model: correlation diagonal [%d][%d] = %v, want 1", i, i, row[i])
		}
		flat = append(flat, row...)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(c[i][j]-c[j][i]) > correlationTolerance {
				return fmt.Errorf("model: correlation matrix is not symmetric at [%d][%d]", i, j)
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(n, flat), false); !ok {
		return fmt.Errorf("model: correlation eigen decomposition failed")
	}
	for _, v := range eig.Values(nil) {
		if v < -correlationTolerance*float64(n) {
			return fmt.Errorf("model: correlation matrix is not positive semi-definite (eigenvalue %.6g)", v)
		}
	}
	return nil
}

type bracketRange struct {
	min, max decimal.Decimal
}

func checkContiguous(label string, ranges []bracketRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%s: no brackets", label)
	}
	if !ranges[0].min.IsZero() {
		return fmt.Errorf("%s: first bracket must start at 0", label)
	}
	for i, r := range ranges {
		last := i == len(ranges)-1
		if last {
			if !r.max.IsZero() {
				return fmt.Errorf("%s: last bracket must be unbounded", label)
			}
			break
		}
		if r.max.IsZero() || r.max.LessThanOrEqual(r.min) {
			return fmt.Errorf("%s: bracket %d must have max greater than min", label, i)
		}
		if !ranges[i+1].min.Equal(r.max) {
			return fmt.Errorf("%s: gap or overlap between bracket %d and %d", label, i, i+1)
		}
	}
	return nil
}

func validateTaxTables(tables domain.TaxTables, required []domain.FilingStatus) []error {
	var errs []error
	one := decimal.NewFromInt(1)
	for _, t := range tables {
		label := fmt.Sprintf("tax_tables[%s %d]", t.FilingStatus, t.Year)
		ordinary := make([]bracketRange, len(t.Ordinary))
		for i, b := range t.Ordinary {
			ordinary[i] = bracketRange{b.Min, b.Max}
			if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
				errs = append(errs, fmt.Errorf("%s: ordinary rate %s out of range", label, b.Rate))
			}
		}
		if err := checkContiguous(label+" ordinary", ordinary); err != nil {
			errs = append(errs, err)
		}
		gains := make([]bracketRange, len(t.LongTermGains))
		for i, b := range t.LongTermGains {
			gains[i] = bracketRange{b.Min, b.Max}
		}
		if err := checkContiguous(label+" long_term_gains", gains); err != nil {
			errs = append(errs, err)
		}
		irmaa := make([]bracketRange, len(t.IRMAA))
		for i, b := range t.IRMAA {
			irmaa[i] = bracketRange{b.Min, b.Max}
		}
		if err := checkContiguous(label+" irmaa", irmaa); err != nil {
			errs = append(errs, err)
		}
	}
	for _, status := range required {
		if _, ok := tables.Lookup(status, 0); !ok {
			errs = append(errs, fmt.Errorf("tax_tables: missing brackets for filing status %q", status))
		}
	}
	return errs
}

func validateRMD(r RMDConfig) []error {
	var errs []error
	prev := 0
	for _, d := range r.Divisors {
		if !d.Divisor.IsPositive() {
			errs = append(errs, fmt.Errorf("rmd: divisor for age %d must be positive", d.Age))
		}
		if d.Age <= prev {
			errs = append(errs, fmt.Errorf("rmd: divisor ages must be strictly ascending (age %d)", d.Age))
		}
		prev = d.Age
	}
	if r.StartAge != 0 && (r.StartAge < 70 || r.StartAge > 80) {
		errs = append(errs, fmt.Errorf("rmd: start_age %d is implausible", r.StartAge))
	}
	return errs
}
