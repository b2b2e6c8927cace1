package config

import (
	"os"
	"testing"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestDefaultEngineConfig_Validates(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Engine.IndexesBrackets())
	assert.GreaterOrEqual(t, cfg.Engine.Workers, 1)
}

func TestLoadEngineConfig_Success(t *testing.T) {
	testConfig := "engine:\n" +
		"  workers: 2\n" +
		"  max_paths: 500\n" +
		"medicare:\n" +
		"  part_b_base: 200.00\n" +
		"  part_d_base: 40\n"

	tmpfile, err := os.CreateTemp("", "engine_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.Write([]byte(testConfig))
	require.NoError(t, err)
	tmpfile.Close()

	parser := NewInputParser()
	cfg, err := parser.LoadEngineConfig(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 500, cfg.Engine.MaxPaths)
	assert.Equal(t, "200", cfg.Medicare.PartBBase.String())
	// Omitted sections fall back to defaults.
	assert.Len(t, cfg.Model.Assets, len(DefaultModel().Assets))
	assert.NotEmpty(t, cfg.TaxTables)
	assert.Equal(t, 1200, cfg.Engine.MaxHorizonMonths)
}

func TestLoadEngineConfig_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	cfg, err := parser.LoadEngineConfig("nonexistent_file.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParseEngineConfig_InvalidYAML(t *testing.T) {
	parser := NewInputParser()
	cfg, err := parser.ParseEngineConfig([]byte("engine: [unclosed"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_RejectsNonStationaryGARCH(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Model.Assets[0].GARCH.Alpha = 0.2
	cfg.Model.Assets[0].GARCH.Beta = 0.8

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "non-stationary")
}

func TestValidate_RejectsBadDegreesOfFreedom(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Model.DegreesOfFreedom = 2
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_RejectsMissingFilingStatus(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TaxTables = cfg.TaxTables[:1]

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), string(domain.FilingMarriedJointly))
}

func TestValidate_RejectsBracketGap(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TaxTables[0].Ordinary[2].Min = cfg.TaxTables[0].Ordinary[2].Min.Add(d("1"))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap or overlap")
}

func TestValidate_RejectsNegativeRate(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TaxTables[1].Ordinary[0].Rate = d("-0.10")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestValidateCorrelation(t *testing.T) {
	tests := []struct {
		name    string
		matrix  [][]float64
		n       int
		wantErr string
	}{
		{
			name:   "identity",
			matrix: [][]float64{{1, 0}, {0, 1}},
			n:      2,
		},
		{
			name:    "wrong dimension",
			matrix:  [][]float64{{1, 0}, {0, 1}},
			n:       3,
			wantErr: "rows",
		},
		{
			name:    "not symmetric",
			matrix:  [][]float64{{1, 0.5}, {0.2, 1}},
			n:       2,
			wantErr: "not symmetric",
		},
		{
			name:    "non unit diagonal",
			matrix:  [][]float64{{0.9, 0}, {0, 1}},
			n:       2,
			wantErr: "diagonal",
		},
		{
			name:    "out of range",
			matrix:  [][]float64{{1, 1.5}, {1.5, 1}},
			n:       2,
			wantErr: "out of range",
		},
		{
			name: "not positive semi-definite",
			matrix: [][]float64{
				{1, 0.9, -0.9},
				{0.9, 1, 0.9},
				{-0.9, 0.9, 1},
			},
			n:       3,
			wantErr: "positive semi-definite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCorrelation(tt.matrix, tt.n)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := DefaultEngineConfig()
	clone, err := cfg.Clone()
	require.NoError(t, err)

	clone.Model.Assets[0].Mean = 0.5
	clone.TaxTables[0].Ordinary[0].Rate = d("0.5")

	assert.NotEqual(t, 0.5, cfg.Model.Assets[0].Mean)
	assert.Equal(t, "0.1", cfg.TaxTables[0].Ordinary[0].Rate.String())
	assert.NoError(t, clone.Validate())
}
