package calculation

import (
	"context"
	"testing"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, model domain.StochasticModelConfig) *Engine {
	t.Helper()
	cfg := config.DefaultEngineConfig()
	cfg.Model = model
	cfg.Engine.Workers = 4
	cfg.Engine.QueueDepth = 8
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

// retireeScenario is a 55-year-old with $800k in a 60/40 taxable account
// spending a flat annual amount for thirty years.
func retireeScenario(annualSpending string) *domain.Scenario {
	return &domain.Scenario{
		Profile: domain.Profile{BirthYear: 1970, BirthMonth: 1, FilingStatus: domain.FilingSingle},
		Cash:    decimal.NewFromInt(10000),
		Accounts: map[string]domain.AccountInput{
			"taxable": {Balance: decimal.NewFromInt(800000), Allocation: domain.AllocationIn{"equity": 0.6, "bonds": 0.4}},
		},
		Events: []domain.RawEvent{{
			ID: "spending", Category: domain.CategoryRecurringExpense, Amount: annualSpending,
			Cadence: domain.CadenceMonthly, Basis: domain.PerYear, StartMonth: 0,
		}},
		Policy: domain.WithdrawalPolicy{
			CashFloor:     decimal.Zero,
			TargetReserve: decimal.NewFromInt(5000),
		},
		InflationAssumption: 0.02,
	}
}

func retireeRequest(seed int64, paths int) domain.SimulationRequest {
	return domain.SimulationRequest{
		Seed: seed, StartYear: 2025, PathCount: paths,
		StartMonth: 0, EndMonth: 360, Verbosity: domain.VerbositySummary,
	}
}

func TestEngine_SpendingFragility(t *testing.T) {
	e := testEngine(t, testModel())
	ctx := context.Background()

	lean, err := e.Run(ctx, retireeScenario("24000"), retireeRequest(11, 100))
	require.NoError(t, err)
	heavy, err := e.Run(ctx, retireeScenario("50000"), retireeRequest(11, 100))
	require.NoError(t, err)

	require.True(t, lean.Success)
	require.NotNil(t, lean.Aggregate)
	assert.Equal(t, domain.RunComplete, lean.Status)
	assert.Equal(t, 100, lean.Aggregate.PathCount)

	assert.True(t, lean.Aggregate.BreachProbability.LessThanOrEqual(dec("0.05")),
		"3%% withdrawal breach rate %s", lean.Aggregate.BreachProbability)
	assert.True(t, heavy.Aggregate.BreachProbability.GreaterThan(lean.Aggregate.BreachProbability),
		"6.25%% withdrawal breach rate %s", heavy.Aggregate.BreachProbability)
	assert.True(t, heavy.Aggregate.FinalNetWorth.P50.LessThan(lean.Aggregate.FinalNetWorth.P50))

	band := lean.Aggregate.FinalNetWorth
	assert.True(t, band.P5.LessThanOrEqual(band.P50) && band.P50.LessThanOrEqual(band.P95))
	assert.Len(t, lean.Aggregate.NetWorthSeries, 30)
}

func TestEngine_Deterministic(t *testing.T) {
	e := testEngine(t, testModel())
	ctx := context.Background()
	req := retireeRequest(7, 40)
	req.EndMonth = 120

	first, err := e.Run(ctx, retireeScenario("40000"), req)
	require.NoError(t, err)
	second, err := e.Run(ctx, retireeScenario("40000"), req)
	require.NoError(t, err)

	assert.Equal(t, first.InputHash, second.InputHash)
	assert.Equal(t, first.Aggregate, second.Aggregate)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, int64(7), first.Seed)

	// Worker count must not change the outcome.
	single := testEngine(t, testModel())
	single.workers = 1
	third, err := single.Run(ctx, retireeScenario("40000"), req)
	require.NoError(t, err)
	assert.Equal(t, first.Aggregate, third.Aggregate)

	req.Seed = 8
	other, err := e.Run(ctx, retireeScenario("40000"), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.InputHash, other.InputHash)
	assert.NotEqual(t, first.Aggregate.FinalNetWorth, other.Aggregate.FinalNetWorth)
}

func TestEngine_RunPathReproducible(t *testing.T) {
	e := testEngine(t, testModel())
	req := retireeRequest(99, 1)
	req.EndMonth = 60
	req.Verbosity = domain.VerbosityMonthly

	a, err := e.RunPath(context.Background(), retireeScenario("30000"), req, 3)
	require.NoError(t, err)
	b, err := e.RunPath(context.Background(), retireeScenario("30000"), req, 3)
	require.NoError(t, err)

	require.Len(t, a.Months, 60)
	require.Len(t, a.Years, 5)
	assert.Equal(t, a, b)
}

func TestEngine_Cancelled(t *testing.T) {
	e := testEngine(t, testModel())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := e.Run(ctx, retireeScenario("24000"), retireeRequest(1, 50))
	require.ErrorIs(t, err, ErrRunIncomplete)
	require.NotNil(t, resp)
	assert.Equal(t, domain.RunIncomplete, resp.Status)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Aggregate)
	assert.NotEmpty(t, resp.InputHash)
}

func TestEngine_Verbosity(t *testing.T) {
	e := testEngine(t, testModel())
	req := retireeRequest(3, 5)
	req.EndMonth = 30

	resp, err := e.Run(context.Background(), retireeScenario("24000"), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Paths)

	req.Verbosity = domain.VerbosityAnnual
	resp, err = e.Run(context.Background(), retireeScenario("24000"), req)
	require.NoError(t, err)
	require.Len(t, resp.Paths, 5)
	for i, p := range resp.Paths {
		assert.Equal(t, i, p.Summary.PathIndex)
		assert.Len(t, p.Years, 3, "two full years and the partial third")
		assert.Empty(t, p.Months)
	}
}

func TestEngine_InvalidRequest(t *testing.T) {
	e := testEngine(t, testModel())
	tests := []struct {
		name   string
		mutate func(*domain.SimulationRequest)
	}{
		{"zero paths", func(r *domain.SimulationRequest) { r.PathCount = 0 }},
		{"too many paths", func(r *domain.SimulationRequest) { r.PathCount = 1_000_000 }},
		{"empty horizon", func(r *domain.SimulationRequest) { r.EndMonth = r.StartMonth }},
		{"horizon too long", func(r *domain.SimulationRequest) { r.EndMonth = 5000 }},
		{"bad verbosity", func(r *domain.SimulationRequest) { r.Verbosity = "chatty" }},
		{"bad start year", func(r *domain.SimulationRequest) { r.StartYear = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := retireeRequest(1, 10)
			tt.mutate(&req)
			resp, err := e.Run(context.Background(), retireeScenario("24000"), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, domain.RunFailed, resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestEngine_ChangeLedger(t *testing.T) {
	e := testEngine(t, testModel())
	req := retireeRequest(5, 10)
	req.EndMonth = 24
	req.Changes = []domain.FieldChange{
		{Path: "accounts.taxable.balance", Value: "0"},
		{Path: "cash", Value: "0"},
	}
	base := retireeScenario("24000")

	resp, err := e.Run(context.Background(), base, req)
	require.NoError(t, err)
	assert.True(t, resp.Aggregate.BreachProbability.Equal(decimal.NewFromInt(1)), "no money left to spend")
	assert.True(t, base.Accounts["taxable"].Balance.Equal(decimal.NewFromInt(800000)), "base scenario untouched")

	req.Changes = []domain.FieldChange{{Path: "accounts.nope.balance", Value: "1"}}
	_, err = e.Run(context.Background(), base, req)
	assert.ErrorIs(t, err, config.ErrInvalidScenario)
}

func TestEngine_TaxSettlement(t *testing.T) {
	flat := domain.StochasticModelConfig{
		Assets:      []domain.AssetClassModel{{Name: "flat"}},
		Correlation: [][]float64{{1}},
	}
	e := testEngine(t, flat)
	scenario := &domain.Scenario{
		Profile: domain.Profile{BirthYear: 1980, FilingStatus: domain.FilingSingle},
		Events: []domain.RawEvent{{
			ID: "salary", Category: domain.CategoryIncome, Amount: "120000",
			Cadence: domain.CadenceMonthly, Basis: domain.PerYear,
		}},
	}
	req := domain.SimulationRequest{Seed: 1, StartYear: 2025, PathCount: 1, EndMonth: 12, Verbosity: domain.VerbosityAnnual}

	res, err := e.RunPath(context.Background(), scenario, req, 0)
	require.NoError(t, err)
	require.Len(t, res.Years, 1)

	// 105,000 taxable after the 15,000 deduction:
	// 1,192.50 + 4,386 + 12,072.50 + 396
	assert.True(t, res.Years[0].TaxesPaid.Equal(dec("18047")), "taxes %s", res.Years[0].TaxesPaid)
	assert.True(t, res.Summary.FinalNetWorth.Equal(dec("101953")), "net worth %s", res.Summary.FinalNetWorth)
	assert.Zero(t, res.Summary.Flags)
}

func TestEngine_ExampleScenario(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Engine.Workers = 2
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	scenario := config.NewInputParser().CreateExampleScenario()
	req := domain.SimulationRequest{Seed: 2025, StartYear: 2025, PathCount: 20, EndMonth: 360, Verbosity: domain.VerbositySummary}
	resp, err := e.Run(context.Background(), scenario, req)
	require.NoError(t, err)
	require.NotNil(t, resp.Aggregate)

	require.Len(t, resp.Aggregate.Milestones, 1)
	assert.Equal(t, "two-million", resp.Aggregate.Milestones[0].Name)
	assert.Zero(t, resp.Aggregate.DefectPaths)
	assert.Len(t, resp.InputHash, 64)
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Model.Assets[0].GARCH.Beta = 0.99
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = NewEngine(nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEngine_Health(t *testing.T) {
	e := testEngine(t, config.DefaultModel())
	h := e.Health()
	assert.True(t, h.Healthy)
	assert.Len(t, h.Checks, 3)
	for _, c := range h.Checks {
		assert.True(t, c.OK, c.Name)
	}

	broken := testEngine(t, config.DefaultModel())
	broken.cfg = &config.EngineConfig{Model: broken.cfg.Model, Engine: broken.cfg.Engine}
	h = broken.Health()
	assert.False(t, h.Healthy)
}

func TestInputHash(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	req := retireeRequest(1, 10)
	a, err := InputHash(req, retireeScenario("1000"), cfg)
	require.NoError(t, err)
	b, err := InputHash(req, retireeScenario("1000"), cfg)
	require.NoError(t, err)
	c, err := InputHash(req, retireeScenario("1001"), cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
