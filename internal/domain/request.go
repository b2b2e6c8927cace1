package domain

import (
	"fmt"
	"strings"
)

// Verbosity controls how much per-path detail a run retains.
type Verbosity string

const (
	VerbositySummary Verbosity = "summary"
	VerbosityAnnual  Verbosity = "annual"
	VerbosityMonthly Verbosity = "monthly"
)

// ParseVerbosity accepts the canonical names case-insensitively; empty means summary.
func ParseVerbosity(s string) (Verbosity, error) {
	switch Verbosity(strings.ToLower(strings.TrimSpace(s))) {
	case "", VerbositySummary:
		return VerbositySummary, nil
	case VerbosityAnnual:
		return VerbosityAnnual, nil
	case VerbosityMonthly:
		return VerbosityMonthly, nil
	}
	return "", fmt.Errorf("unknown verbosity %q", s)
}

// KeepsAnnual reports whether annual rollups are retained.
func (v Verbosity) KeepsAnnual() bool {
	return v == VerbosityAnnual || v == VerbosityMonthly
}

// KeepsMonthly reports whether every monthly snapshot is retained.
func (v Verbosity) KeepsMonthly() bool {
	return v == VerbosityMonthly
}

// FieldChange sets one value in the scenario document by dotted path,
// e.g. "accounts.taxable.balance" or "events.+" to append.
type FieldChange struct {
	Path  string `yaml:"path" json:"path"`
	Value any    `yaml:"value" json:"value"`
}

// SimulationRequest is a packet-build request.
type SimulationRequest struct {
	Seed       int64         `yaml:"seed" json:"seed"`
	StartYear  int           `yaml:"start_year" json:"start_year"`
	PathCount  int           `yaml:"path_count" json:"path_count"`
	StartMonth int           `yaml:"start_month" json:"start_month"`
	EndMonth   int           `yaml:"end_month" json:"end_month"`
	Changes    []FieldChange `yaml:"changes,omitempty" json:"changes,omitempty"`
	Verbosity  Verbosity     `yaml:"verbosity" json:"verbosity"`
}

// Horizon is the number of simulated months.
func (r SimulationRequest) Horizon() int {
	return r.EndMonth - r.StartMonth
}
