package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TaxBracket represents a marginal rate over [Min, Max). A zero Max on the
// last bracket means unbounded.
type TaxBracket struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// Unbounded reports whether the bracket extends to infinity.
func (b TaxBracket) Unbounded() bool {
	return b.Max.IsZero()
}

// IRMAABracket maps a MAGI range to monthly Part B and Part D surcharges.
type IRMAABracket struct {
	Min   decimal.Decimal `yaml:"min" json:"min"`
	Max   decimal.Decimal `yaml:"max,omitempty" json:"max,omitempty"`
	PartB decimal.Decimal `yaml:"part_b" json:"part_b"`
	PartD decimal.Decimal `yaml:"part_d" json:"part_d"`
}

// Unbounded reports whether the bracket extends to infinity.
func (b IRMAABracket) Unbounded() bool {
	return b.Max.IsZero()
}

// TaxTable is one filing status's rules for one tax year.
type TaxTable struct {
	Year                  int             `yaml:"year" json:"year"`
	FilingStatus          FilingStatus    `yaml:"filing_status" json:"filing_status"`
	StandardDeduction     decimal.Decimal `yaml:"standard_deduction" json:"standard_deduction"`
	AdditionalDeduction65 decimal.Decimal `yaml:"additional_deduction_65" json:"additional_deduction_65"`
	Ordinary              []TaxBracket    `yaml:"ordinary" json:"ordinary"`
	LongTermGains         []TaxBracket    `yaml:"long_term_gains" json:"long_term_gains"`
	IRMAA                 []IRMAABracket  `yaml:"irmaa" json:"irmaa"`
	// SocialSecurityBase1/2 are the provisional income thresholds for 50%/85% inclusion.
	SocialSecurityBase1 decimal.Decimal `yaml:"social_security_base1" json:"social_security_base1"`
	SocialSecurityBase2 decimal.Decimal `yaml:"social_security_base2" json:"social_security_base2"`
}

// TaxTables is a set of tables keyed implicitly by (filing status, year).
type TaxTables []TaxTable

// Lookup returns the table for status whose year is the latest not after year,
// or the earliest table for the status when year precedes them all.
func (tt TaxTables) Lookup(status FilingStatus, year int) (TaxTable, bool) {
	var candidates []TaxTable
	for _, t := range tt {
		if t.FilingStatus == status {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return TaxTable{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Year < candidates[j].Year })
	best := candidates[0]
	for _, c := range candidates {
		if c.Year <= year {
			best = c
		}
	}
	return best, true
}

// FilingStatuses returns the distinct statuses covered.
func (tt TaxTables) FilingStatuses() []FilingStatus {
	seen := map[FilingStatus]bool{}
	var out []FilingStatus
	for _, t := range tt {
		if !seen[t.FilingStatus] {
			seen[t.FilingStatus] = true
			out = append(out, t.FilingStatus)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
