package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/pkg/dateutil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidScenario marks a scenario that cannot seed a run.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrAmbiguousAccountAlias is returned when a legacy account key and its
	// canonical key are both present.
	ErrAmbiguousAccountAlias = errors.New("ambiguous account alias")
)

// DefaultProtectRetirementAgeMonths is 59½, the penalty-free withdrawal age.
const DefaultProtectRetirementAgeMonths = 714

// legacyAccountKeys maps legacy ledger keys onto canonical account types.
var legacyAccountKeys = map[string]domain.AccountType{
	"401k":    domain.AccountTaxDeferred,
	"rothIra": domain.AccountRoth,
}

// LoadScenario loads and normalizes a scenario file.
func (ip *InputParser) LoadScenario(filename string) (*domain.Scenario, []string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseScenario(data)
}

// ParseScenario parses scenario YAML and normalizes it.
func (ip *InputParser) ParseScenario(data []byte) (*domain.Scenario, []string, error) {
	var s domain.Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	warnings, err := NormalizeScenario(&s)
	if err != nil {
		return nil, warnings, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &s, warnings, nil
}

// NormalizeScenario resolves legacy account keys, fills policy defaults and
// validates the scenario in place.
func NormalizeScenario(s *domain.Scenario) ([]string, error) {
	var warnings []string
	accounts, aliasWarnings, err := canonicalAccounts(s.Accounts)
	warnings = append(warnings, aliasWarnings...)
	if err != nil {
		return warnings, err
	}
	s.Accounts = accounts

	if s.Profile.FilingStatus == "" {
		s.Profile.FilingStatus = domain.FilingSingle
	}
	if s.Profile.BirthMonth == 0 {
		s.Profile.BirthMonth = 1
	}
	if s.Profile.RMDStartAge == 0 && s.Profile.BirthYear > 0 {
		s.Profile.RMDStartAge = dateutil.GetRMDAge(s.Profile.BirthYear)
	}
	if s.Profile.MedicareEnrollees == 0 {
		s.Profile.MedicareEnrollees = 1
		if s.Profile.FilingStatus == domain.FilingMarriedJointly {
			s.Profile.MedicareEnrollees = 2
		}
	}

	p := &s.Policy
	if len(p.Sequence) == 0 {
		p.Sequence = []domain.AccountType{domain.AccountTaxable, domain.AccountTaxDeferred, domain.AccountRoth}
	}
	if p.ProtectRetirementUntilAgeMonths == nil {
		v := DefaultProtectRetirementAgeMonths
		p.ProtectRetirementUntilAgeMonths = &v
	}
	if p.TargetReserve.LessThan(p.CashFloor) {
		p.TargetReserve = p.CashFloor
	}

	var errs []error
	if s.Profile.BirthYear <= 0 {
		errs = append(errs, fmt.Errorf("profile.birth_year is required"))
	}
	if s.Profile.BirthMonth < 1 || s.Profile.BirthMonth > 12 {
		errs = append(errs, fmt.Errorf("profile.birth_month must be 1-12"))
	}
	for _, t := range p.Sequence {
		if !isInvestmentAccount(t) || t == domain.AccountEducation {
			errs = append(errs, fmt.Errorf("policy.sequence: %q cannot fund withdrawals", t))
		}
	}
	for key, a := range s.Accounts {
		if a.Balance.IsNegative() {
			errs = append(errs, fmt.Errorf("accounts.%s.balance must be non-negative", key))
		}
		if a.CostBasis != nil && a.CostBasis.IsNegative() {
			errs = append(errs, fmt.Errorf("accounts.%s.cost_basis must be non-negative", key))
		}
	}
	for i, l := range s.Liabilities {
		if l.Principal.IsNegative() || l.TermMonths <= 0 {
			errs = append(errs, fmt.Errorf("liabilities[%d]: principal must be non-negative and term positive", i))
		}
	}
	if p.MaxDebtToAssets.IsNegative() {
		errs = append(errs, fmt.Errorf("policy.max_debt_to_assets must be non-negative"))
	}
	if len(errs) > 0 {
		return warnings, fmt.Errorf("%w: %w", ErrInvalidScenario, errors.Join(errs...))
	}
	return warnings, nil
}

func isInvestmentAccount(t domain.AccountType) bool {
	for _, a := range domain.InvestmentAccounts {
		if a == t {
			return true
		}
	}
	return false
}

// canonicalAccounts rewrites legacy keys. When a legacy key and its canonical
// key are both present the scenario is rejected rather than picking a winner.
func canonicalAccounts(in map[string]domain.AccountInput) (map[string]domain.AccountInput, []string, error) {
	out := make(map[string]domain.AccountInput, len(in))
	var warnings []string
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		acct := in[key]
		if canonical, ok := legacyAccountKeys[key]; ok {
			if _, both := in[string(canonical)]; both {
				return nil, warnings, fmt.Errorf("%w: %q and %q are both present", ErrAmbiguousAccountAlias, key, canonical)
			}
			warnings = append(warnings, fmt.Sprintf("account key %q is deprecated; read as %q", key, canonical))
			out[string(canonical)] = acct
			continue
		}
		if !isInvestmentAccount(domain.AccountType(key)) {
			return nil, warnings, fmt.Errorf("%w: unknown account type %q", ErrInvalidScenario, key)
		}
		out[key] = acct
	}
	return out, warnings, nil
}

// ApplyChanges derives a new scenario by applying each field change in order
// to the YAML document form of base. base is never modified.
func ApplyChanges(base *domain.Scenario, changes []domain.FieldChange) (*domain.Scenario, []string, error) {
	raw, err := yaml.Marshal(base)
	if err != nil {
		return nil, nil, fmt.Errorf("encode scenario: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode scenario document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	for _, ch := range changes {
		parts := strings.Split(strings.TrimSpace(ch.Path), ".")
		if ch.Path == "" {
			return nil, nil, fmt.Errorf("%w: change with empty path", ErrInvalidScenario)
		}
		updated, err := setIn(doc, parts, ch.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: change %q: %w", ErrInvalidScenario, ch.Path, err)
		}
		doc = updated.(map[string]any)
	}
	raw, err = yaml.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode changed scenario: %w", err)
	}
	var out domain.Scenario
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("%w: changed scenario does not decode: %w", ErrInvalidScenario, err)
	}
	warnings, err := NormalizeScenario(&out)
	if err != nil {
		return nil, warnings, err
	}
	return &out, warnings, nil
}

// setIn sets value at parts below node, creating maps and lists as needed.
// A "+" segment appends to a list.
func setIn(node any, parts []string, value any) (any, error) {
	if len(parts) == 0 {
		return value, nil
	}
	key := parts[0]
	if key == "" {
		return nil, fmt.Errorf("empty path segment")
	}
	switch n := node.(type) {
	case nil:
		if key == "+" || isIndex(key) {
			return setIn([]any{}, parts, value)
		}
		return setIn(map[string]any{}, parts, value)
	case map[string]any:
		child, err := setIn(n[key], parts[1:], value)
		if err != nil {
			return nil, err
		}
		n[key] = child
		return n, nil
	case []any:
		if key == "+" {
			child, err := setIn(nil, parts[1:], value)
			if err != nil {
				return nil, err
			}
			return append(n, child), nil
		}
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, fmt.Errorf("list index %q out of range (len %d)", key, len(n))
		}
		child, err := setIn(n[idx], parts[1:], value)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	default:
		return nil, fmt.Errorf("cannot set %q inside a %T value", key, node)
	}
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// CreateExampleScenario returns a 55-year-old single filer with a taxable
// portfolio and inflation-indexed spending.
func (ip *InputParser) CreateExampleScenario() *domain.Scenario {
	end := 360
	growth := 0.025
	protect := DefaultProtectRetirementAgeMonths
	return &domain.Scenario{
		Name: "example",
		Profile: domain.Profile{
			Name:         "Example",
			BirthYear:    1970,
			BirthMonth:   1,
			FilingStatus: domain.FilingSingle,
		},
		Cash: decimal.NewFromInt(20000),
		Accounts: map[string]domain.AccountInput{
			string(domain.AccountTaxable):     {Balance: decimal.NewFromInt(500000)},
			string(domain.AccountTaxDeferred): {Balance: decimal.NewFromInt(300000)},
		},
		DefaultAllocation: domain.AllocationIn{"us_equity": 0.45, "intl_equity": 0.15, "bonds": 0.40},
		Events: []domain.RawEvent{
			{ID: "living", Category: domain.CategoryRecurringExpense, Amount: "50000",
				Cadence: domain.CadenceMonthly, Basis: domain.PerYear, EndMonth: &end, GrowthRate: &growth},
			{ID: "social-security", Category: domain.CategoryRetirementIncome, Amount: "2400",
				Cadence: domain.CadenceMonthly, Basis: domain.PerMonth, StartMonth: 144, Kind: string(domain.RetirementSocialSecurity),
				InflationIndexed: true},
			{ID: "two-million", Category: domain.CategoryMilestone, Amount: "2000000",
				Cadence: domain.CadenceOneTime, StartMonth: 359, Target: "two-million"},
		},
		Policy: domain.WithdrawalPolicy{
			ProtectRetirementUntilAgeMonths: &protect,
			CashFloor:                       decimal.Zero,
			TargetReserve:                   decimal.NewFromInt(10000),
			SweepThreshold:                  decimal.NewFromInt(50000),
		},
		InflationAssumption: 0.025,
	}
}
