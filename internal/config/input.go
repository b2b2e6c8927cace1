package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration that cannot be numerically trusted.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// MedicareConfig holds base monthly premiums before IRMAA surcharges.
type MedicareConfig struct {
	PartBBase decimal.Decimal `yaml:"part_b_base" json:"part_b_base"`
	PartDBase decimal.Decimal `yaml:"part_d_base" json:"part_d_base"`
}

// RMDDivisor is one row of the Uniform Lifetime Table.
type RMDDivisor struct {
	Age     int             `yaml:"age" json:"age"`
	Divisor decimal.Decimal `yaml:"divisor" json:"divisor"`
}

// RMDConfig configures required minimum distributions. A zero StartAge uses
// the SECURE 2.0 age for the person's birth year.
type RMDConfig struct {
	StartAge int          `yaml:"start_age,omitempty" json:"start_age,omitempty"`
	Divisors []RMDDivisor `yaml:"divisors" json:"divisors"`
}

// EngineSettings are execution limits for a run.
type EngineSettings struct {
	Workers                  int                   `yaml:"workers" json:"workers"`
	QueueDepth               int                   `yaml:"queue_depth" json:"queue_depth"`
	MaxPaths                 int                   `yaml:"max_paths" json:"max_paths"`
	MaxHorizonMonths         int                   `yaml:"max_horizon_months" json:"max_horizon_months"`
	MaxEventMonths           int                   `yaml:"max_event_months" json:"max_event_months"`
	RequiredFilingStatuses   []domain.FilingStatus `yaml:"required_filing_statuses" json:"required_filing_statuses"`
	IndexBracketsToInflation *bool                 `yaml:"index_brackets_to_inflation,omitempty" json:"index_brackets_to_inflation,omitempty"`
}

// IndexesBrackets reports whether bracket thresholds follow simulated inflation.
func (s EngineSettings) IndexesBrackets() bool {
	return s.IndexBracketsToInflation == nil || *s.IndexBracketsToInflation
}

// EngineConfig is the immutable configuration of the numeric core. It is
// built once, validated, and passed by pointer to every run.
type EngineConfig struct {
	Model     domain.StochasticModelConfig `yaml:"model" json:"model"`
	TaxTables domain.TaxTables             `yaml:"tax_tables" json:"tax_tables"`
	Medicare  MedicareConfig               `yaml:"medicare" json:"medicare"`
	RMD       RMDConfig                    `yaml:"rmd" json:"rmd"`
	Engine    EngineSettings               `yaml:"engine" json:"engine"`
}

// InputParser handles parsing of engine configuration and scenario files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadEngineConfig loads engine configuration from a YAML file, fills
// defaults for omitted sections and validates the result.
func (ip *InputParser) LoadEngineConfig(filename string) (*EngineConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseEngineConfig(data)
}

// ParseEngineConfig parses engine configuration from YAML bytes.
func (ip *InputParser) ParseEngineConfig(data []byte) (*EngineConfig, error) {
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills every omitted section from DefaultEngineConfig.
func (c *EngineConfig) applyDefaults() {
	def := DefaultEngineConfig()
	if len(c.Model.Assets) == 0 {
		c.Model = def.Model
	}
	if len(c.TaxTables) == 0 {
		c.TaxTables = def.TaxTables
	}
	if c.Medicare.PartBBase.IsZero() && c.Medicare.PartDBase.IsZero() {
		c.Medicare = def.Medicare
	}
	if len(c.RMD.Divisors) == 0 {
		c.RMD.Divisors = def.RMD.Divisors
	}
	if c.Engine.Workers <= 0 {
		c.Engine.Workers = def.Engine.Workers
	}
	if c.Engine.QueueDepth <= 0 {
		c.Engine.QueueDepth = def.Engine.QueueDepth
	}
	if c.Engine.MaxPaths <= 0 {
		c.Engine.MaxPaths = def.Engine.MaxPaths
	}
	if c.Engine.MaxHorizonMonths <= 0 {
		c.Engine.MaxHorizonMonths = def.Engine.MaxHorizonMonths
	}
	if c.Engine.MaxEventMonths <= 0 {
		c.Engine.MaxEventMonths = def.Engine.MaxEventMonths
	}
	if len(c.Engine.RequiredFilingStatuses) == 0 {
		c.Engine.RequiredFilingStatuses = def.Engine.RequiredFilingStatuses
	}
}

// Validate checks every fatal configuration condition. All problems are
// reported together, wrapped in ErrInvalidConfig.
func (c *EngineConfig) Validate() error {
	var errs []error
	errs = append(errs, validateModel(c.Model)...)
	errs = append(errs, validateTaxTables(c.TaxTables, c.Engine.RequiredFilingStatuses)...)
	errs = append(errs, validateRMD(c.RMD)...)
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("engine.workers must be at least 1"))
	}
	if c.Engine.MaxHorizonMonths < 1 || c.Engine.MaxHorizonMonths > 1200 {
		errs = append(errs, fmt.Errorf("engine.max_horizon_months must be in [1, 1200]"))
	}
	if c.Engine.MaxEventMonths < 1 {
		errs = append(errs, fmt.Errorf("engine.max_event_months must be positive"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Clone returns a deep copy via a YAML round trip.
func (c *EngineConfig) Clone() (*EngineConfig, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out EngineConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
