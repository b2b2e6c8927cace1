package calculation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// ReturnFloor is the worst monthly return a holding can suffer.
const ReturnFloor = -0.99

// choleskyJitter is added to the diagonal when a valid but singular
// correlation matrix does not factor.
const choleskyJitter = 1e-10

// ErrInvalidModel wraps stochastic-model configuration errors.
var ErrInvalidModel = errors.New("invalid stochastic model")

// CompiledModel is a validated stochastic model in monthly units with its
// correlation matrix factored. It is immutable and shared by all paths.
type CompiledModel struct {
	names    []string
	index    map[string]int
	lower    [][]float64
	mean     []float64
	omega    []float64
	alpha    []float64
	beta     []float64
	initVar  []float64
	ar1      []*domain.AR1Params
	dividend []float64
	nu       float64
	tScale   float64
}

// CompileModel validates cfg and factors its correlation matrix.
func CompileModel(cfg domain.StochasticModelConfig) (*CompiledModel, error) {
	n := len(cfg.Assets)
	if n == 0 {
		return nil, fmt.Errorf("%w: no asset classes", ErrInvalidModel)
	}
	if err := config.ValidateCorrelation(cfg.Correlation, n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if cfg.DegreesOfFreedom != 0 && !(cfg.DegreesOfFreedom > 2) {
		return nil, fmt.Errorf("%w: degrees of freedom %v must exceed 2", ErrInvalidModel, cfg.DegreesOfFreedom)
	}

	m := &CompiledModel{
		names:    make([]string, n),
		index:    make(map[string]int, n),
		mean:     make([]float64, n),
		omega:    make([]float64, n),
		alpha:    make([]float64, n),
		beta:     make([]float64, n),
		initVar:  make([]float64, n),
		ar1:      make([]*domain.AR1Params, n),
		dividend: make([]float64, n),
		nu:       cfg.DegreesOfFreedom,
		tScale:   1,
	}
	if m.nu > 0 {
		m.tScale = math.Sqrt((m.nu - 2) / m.nu)
	}
	for i, a := range cfg.Assets {
		g := a.GARCH
		if g.Omega < 0 || g.Alpha < 0 || g.Beta < 0 {
			return nil, fmt.Errorf("%w: %s GARCH coefficients must be non-negative", ErrInvalidModel, a.Name)
		}
		if g.Alpha+g.Beta >= 1 {
			return nil, fmt.Errorf("%w: %s GARCH alpha+beta must be below 1", ErrInvalidModel, a.Name)
		}
		if a.AR1 != nil && math.Abs(a.AR1.Phi) >= 1 {
			return nil, fmt.Errorf("%w: %s AR(1) phi must satisfy |phi| < 1", ErrInvalidModel, a.Name)
		}
		if _, dup := m.index[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate asset class %q", ErrInvalidModel, a.Name)
		}
		monthlyVar := a.Volatility * a.Volatility / 12
		omega := g.Omega
		if omega == 0 {
			omega = monthlyVar * (1 - g.Alpha - g.Beta)
		}
		m.names[i] = a.Name
		m.index[a.Name] = i
		m.mean[i] = a.Mean / 12
		m.omega[i] = omega
		m.alpha[i] = g.Alpha
		m.beta[i] = g.Beta
		m.initVar[i] = monthlyVar
		m.ar1[i] = a.AR1
		m.dividend[i] = a.DividendYield / 12
	}

	lower, err := factorCorrelation(cfg.Correlation)
	if err != nil {
		return nil, err
	}
	m.lower = lower
	return m, nil
}

func factorCorrelation(c [][]float64) ([][]float64, error) {
	n := len(c)
	flat := make([]float64, 0, n*n)
	for _, row := range c {
		flat = append(flat, row...)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(n, flat)); !ok {
		jittered := append([]float64(nil), flat...)
		for i := 0; i < n; i++ {
			jittered[i*n+i] += choleskyJitter
		}
		if ok := chol.Factorize(mat.NewSymDense(n, jittered)); !ok {
			return nil, fmt.Errorf("%w: correlation matrix is not positive definite", ErrInvalidModel)
		}
	}
	var tri mat.TriDense
	chol.LTo(&tri)
	lower := make([][]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = make([]float64, i+1)
		for j := 0; j <= i; j++ {
			lower[i][j] = tri.At(i, j)
		}
	}
	return lower, nil
}

// Size is the number of asset classes.
func (m *CompiledModel) Size() int { return len(m.names) }

// Names returns asset class names in model order.
func (m *CompiledModel) Names() []string { return append([]string(nil), m.names...) }

// Index returns the position of the named class, or -1.
func (m *CompiledModel) Index(name string) int {
	if i, ok := m.index[name]; ok {
		return i
	}
	return -1
}

// MonthlyDividendYield is the annual dividend yield of class i over 12.
func (m *CompiledModel) MonthlyDividendYield(i int) float64 { return m.dividend[i] }

// TargetWeights resolves an allocation by class name into weights aligned
// with the model, normalized to sum to one. Driver classes cannot be held.
func (m *CompiledModel) TargetWeights(alloc domain.AllocationIn) ([]decimal.Decimal, error) {
	weights := make([]decimal.Decimal, len(m.names))
	for i := range weights {
		weights[i] = decimal.Zero
	}
	if len(alloc) == 0 {
		return nil, fmt.Errorf("allocation is empty")
	}
	total := 0.0
	for name, w := range alloc {
		i := m.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("allocation names unknown asset class %q", name)
		}
		if domain.IsDriverAsset(name) {
			return nil, fmt.Errorf("asset class %q cannot be held in an account", name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("allocation weight for %q must be a non-negative number", name)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("allocation weights sum to zero")
	}
	for name, w := range alloc {
		weights[m.index[name]] = decimal.NewFromFloat(w / total)
	}
	return weights, nil
}

// ReturnGenerator produces one month of correlated asset returns per call.
// It owns its random stream and is never shared between paths.
type ReturnGenerator struct {
	model    *CompiledModel
	rng      *rand.Rand
	variance []float64
	shock    []float64
	prev     []float64
	z        []float64
	out      []float64
	started  bool
}

// NewReturnGenerator creates a generator positioned at the model's
// unconditional variance and long-run mean.
func NewReturnGenerator(model *CompiledModel, rng *rand.Rand) *ReturnGenerator {
	n := model.Size()
	g := &ReturnGenerator{
		model:    model,
		rng:      rng,
		variance: append([]float64(nil), model.initVar...),
		shock:    make([]float64, n),
		prev:     append([]float64(nil), model.mean...),
		z:        make([]float64, n),
		out:      make([]float64, n),
	}
	return g
}

// Next returns the monthly returns for every asset class in model order. The
// slice is reused by the following call. ok is false when any value is
// non-finite; the caller flags the path rather than aborting.
func (g *ReturnGenerator) Next() ([]float64, bool) {
	m := g.model
	n := m.Size()

	for i := 0; i < n; i++ {
		g.z[i] = g.standardDraw()
	}

	ok := true
	for i := 0; i < n; i++ {
		eps := 0.0
		for j, l := range m.lower[i] {
			eps += l * g.z[j]
		}

		if g.started {
			g.variance[i] = m.omega[i] + m.alpha[i]*g.shock[i]*g.shock[i] + m.beta[i]*g.variance[i]
		}

		mu := m.mean[i]
		if ar := m.ar1[i]; ar != nil {
			mu = ar.Constant + ar.Phi*(g.prev[i]-m.mean[i]) + m.mean[i]
		}

		shock := math.Sqrt(g.variance[i]) * eps
		r := mu + shock
		if r < ReturnFloor {
			r = ReturnFloor
		}
		if math.IsNaN(r) || math.IsInf(r, 0) || math.IsNaN(g.variance[i]) {
			ok = false
		}
		g.shock[i] = shock
		g.prev[i] = r
		g.out[i] = r
	}
	g.started = true
	return g.out, ok
}

// standardDraw is a unit-variance Student-t draw, or a standard normal when
// the model has no degrees of freedom.
func (g *ReturnGenerator) standardDraw() float64 {
	z := g.rng.NormFloat64()
	nu := g.model.nu
	if nu <= 0 {
		return z
	}
	chi2 := 2 * gammaDraw(g.rng, nu/2)
	return z / math.Sqrt(chi2/nu) * g.model.tScale
}

// gammaDraw samples Gamma(shape, 1) with the Marsaglia–Tsang method.
func gammaDraw(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return gammaDraw(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
