package calculation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/internal/metrics"
	"github.com/shopspring/decimal"
)

var (
	// ErrRunIncomplete is returned when a run is cancelled before every path finished.
	ErrRunIncomplete = errors.New("simulation run incomplete")
	// ErrInvalidRequest marks a request the engine refuses to start.
	ErrInvalidRequest = errors.New("invalid simulation request")
)

// Engine orchestrates Monte Carlo runs over a validated configuration.
// An Engine is safe for concurrent use; each Run builds its own plan.
type Engine struct {
	cfg     *config.EngineConfig
	model   *CompiledModel
	logger  Logger
	workers int
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. *logrus.Logger satisfies Logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWorkers overrides the configured worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine validates cfg and compiles the return model. Configuration
// problems are fatal here so that no run ever starts on a broken core.
func NewEngine(cfg *config.EngineConfig, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := CompileModel(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	e := &Engine{
		cfg:     cfg,
		model:   model,
		logger:  NopLogger{},
		workers: cfg.Engine.Workers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *config.EngineConfig { return e.cfg }

// Model returns the compiled return model.
func (e *Engine) Model() *CompiledModel { return e.model }

// ValidateRequest checks request limits against the engine settings.
func (e *Engine) ValidateRequest(req domain.SimulationRequest) error {
	var errs []error
	if req.PathCount < 1 || req.PathCount > e.cfg.Engine.MaxPaths {
		errs = append(errs, fmt.Errorf("path_count must be in [1, %d], got %d", e.cfg.Engine.MaxPaths, req.PathCount))
	}
	if req.StartYear < 1900 || req.StartYear > 2200 {
		errs = append(errs, fmt.Errorf("start_year %d out of range", req.StartYear))
	}
	if req.StartMonth < 0 {
		errs = append(errs, fmt.Errorf("start_month must not be negative"))
	}
	if h := req.Horizon(); h < 1 || h > e.cfg.Engine.MaxHorizonMonths {
		errs = append(errs, fmt.Errorf("horizon must be in [1, %d] months, got %d", e.cfg.Engine.MaxHorizonMonths, h))
	}
	if _, err := domain.ParseVerbosity(string(req.Verbosity)); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

// Plan derives the scenario from the change ledger and builds everything a
// path needs. The returned warnings cover the change ledger, the scenario
// and the normalized event ledger.
func (e *Engine) Plan(scenario *domain.Scenario, req domain.SimulationRequest) (*PathPlan, []string, error) {
	if scenario == nil {
		return nil, nil, fmt.Errorf("%w: nil scenario", ErrInvalidRequest)
	}
	if err := e.ValidateRequest(req); err != nil {
		return nil, nil, err
	}
	verbosity, _ := domain.ParseVerbosity(string(req.Verbosity))

	s, warnings, err := config.ApplyChanges(scenario, req.Changes)
	if err != nil {
		return nil, warnings, err
	}
	if _, ok := e.cfg.TaxTables.Lookup(s.Profile.FilingStatus, req.StartYear); !ok {
		return nil, warnings, fmt.Errorf("%w: no tax table for filing status %q", ErrInvalidRequest, s.Profile.FilingStatus)
	}

	rmdAge := s.Profile.RMDStartAge
	if e.cfg.RMD.StartAge > 0 {
		rmdAge = e.cfg.RMD.StartAge
	}
	norm := NormalizeLedger(s.Events, NormalizeOptions{
		StartYear:           req.StartYear,
		StartMonth:          req.StartMonth,
		EndMonth:            req.EndMonth,
		InflationAssumption: s.InflationAssumption,
		MaxEventMonths:      e.cfg.Engine.MaxEventMonths,
		BirthYear:           s.Profile.BirthYear,
		BirthMonth:          s.Profile.BirthMonth,
		RMDStartAge:         rmdAge,
	})
	warnings = append(warnings, norm.Warnings...)
	metrics.NormalizerWarnings.Add(float64(len(norm.Warnings)))

	template, stateWarnings, err := BuildInitialState(s, e.model, req.StartYear, req.StartMonth)
	if err != nil {
		return nil, warnings, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	warnings = append(warnings, stateWarnings...)

	plan := &PathPlan{
		Config:              e.cfg,
		Model:               e.model,
		Schedule:            BuildSchedule(norm.Events, req.StartMonth, req.EndMonth),
		Template:            template,
		Profile:             s.Profile,
		Policy:              s.Policy,
		Seed:                req.Seed,
		StartYear:           req.StartYear,
		Start:               req.StartMonth,
		End:                 req.EndMonth,
		Verbosity:           verbosity,
		Logger:              e.logger,
		inflationAssumption: s.InflationAssumption,
	}
	plan.resolveDrivers()
	return plan, warnings, nil
}

// Run simulates req.PathCount paths of scenario. The response is always
// returned, also alongside an error, so callers can report the status. A
// cancelled run has status incomplete, no aggregate, and ErrRunIncomplete.
func (e *Engine) Run(ctx context.Context, scenario *domain.Scenario, req domain.SimulationRequest) (*domain.SimulationResponse, error) {
	started := nowFunc()
	resp := &domain.SimulationResponse{
		RunID:     uuid.NewString(),
		Status:    domain.RunFailed,
		Seed:      req.Seed,
		StartedAt: started,
	}
	logger := withRun(e.logger, resp.RunID)
	defer func() {
		resp.Elapsed = nowFunc().Sub(started)
		metrics.RunsTotal.WithLabelValues(string(resp.Status)).Inc()
		metrics.RunDuration.Observe(float64(resp.Elapsed.Milliseconds()))
	}()

	fail := func(err error) (*domain.SimulationResponse, error) {
		resp.Error = err.Error()
		logger.Errorf("run failed: %v", err)
		return resp, err
	}

	hash, err := InputHash(req, scenario, e.cfg)
	if err != nil {
		return fail(err)
	}
	resp.InputHash = hash

	plan, warnings, err := e.Plan(scenario, req)
	resp.Warnings = warnings
	for _, w := range warnings {
		logger.Warnf("%s", w)
	}
	if err != nil {
		return fail(err)
	}
	plan.Logger = logger

	logger.Infof("run started: %d paths, months [%d, %d), seed %d", req.PathCount, req.StartMonth, req.EndMonth, req.Seed)
	agg, paths, err := e.simulate(ctx, plan, req.PathCount)
	if err != nil {
		if errors.Is(err, ErrRunIncomplete) {
			resp.Status = domain.RunIncomplete
			resp.Error = err.Error()
			logger.Warnf("run incomplete: %d of %d paths finished", agg.Count(), req.PathCount)
			return resp, err
		}
		return fail(err)
	}

	result := agg.Finalize()
	resp.Aggregate = &result
	if plan.Verbosity.KeepsAnnual() {
		resp.Paths = paths
	}
	resp.Success = true
	resp.Status = domain.RunComplete
	logger.Infof("run complete: success rate %s", result.SuccessRate.StringFixed(4))
	return resp, nil
}

// RunPath simulates a single path of req. The same seed, index and inputs
// always produce identical results.
func (e *Engine) RunPath(ctx context.Context, scenario *domain.Scenario, req domain.SimulationRequest, pathIndex int) (domain.PathResult, error) {
	if req.PathCount < 1 {
		req.PathCount = 1
	}
	plan, _, err := e.Plan(scenario, req)
	if err != nil {
		return domain.PathResult{}, err
	}
	return RunPath(ctx, plan, pathIndex)
}

// InputHash is the SHA-256 of the canonical JSON encoding of everything a
// run depends on. Map keys are sorted by encoding/json, so equal inputs hash
// equally.
func InputHash(req domain.SimulationRequest, scenario *domain.Scenario, cfg *config.EngineConfig) (string, error) {
	payload := struct {
		Request  domain.SimulationRequest `json:"request"`
		Scenario *domain.Scenario         `json:"scenario"`
		Config   *config.EngineConfig     `json:"config"`
	}{req, scenario, cfg}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash inputs: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HealthCheck is the outcome of one smoke test.
type HealthCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// HealthStatus reports whether the numeric core is loaded and operational.
// It says nothing about whether any particular run succeeded.
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	Checks    []HealthCheck `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Health runs a small fixed computation through each part of the core.
func (e *Engine) Health() HealthStatus {
	status := HealthStatus{Healthy: true, CheckedAt: nowFunc()}
	check := func(name string, err error) {
		c := HealthCheck{Name: name, OK: err == nil}
		if err != nil {
			c.Detail = err.Error()
			status.Healthy = false
		}
		status.Checks = append(status.Checks, c)
	}

	check("return_model", func() error {
		gen := NewReturnGenerator(e.model, NewPathRand(1, 0))
		for i := 0; i < 12; i++ {
			r, ok := gen.Next()
			if !ok {
				return fmt.Errorf("non-finite draw at month %d", i)
			}
			for _, v := range r {
				if v < ReturnFloor || math.IsNaN(v) {
					return fmt.Errorf("draw %v below floor", v)
				}
			}
		}
		return nil
	}())

	check("tax_tables", func() error {
		income := domain.TaxAccumulators{OrdinaryIncome: decimal.NewFromInt(100000)}
		for _, fs := range e.cfg.Engine.RequiredFilingStatuses {
			table, ok := e.cfg.TaxTables.Lookup(fs, nowFunc().Year())
			if !ok {
				return fmt.Errorf("no table for %s", fs)
			}
			res := ComputeAnnualTax(TaxInput{Income: income}, table, decimal.NewFromInt(1))
			if !res.Total.IsPositive() {
				return fmt.Errorf("%s: tax on 100000 is %s", fs, res.Total)
			}
		}
		return nil
	}())

	check("rmd_table", func() error {
		if _, ok := RMDDivisor(75, e.cfg.RMD.Divisors); !ok {
			return fmt.Errorf("no divisor for age 75")
		}
		return nil
	}())

	if status.Healthy {
		metrics.HealthOK.Set(1)
	} else {
		metrics.HealthOK.Set(0)
	}
	return status
}
