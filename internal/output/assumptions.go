package output

import (
	"fmt"
	"sort"

	"github.com/rpgo/projection-engine/internal/config"
)

// DefaultAssumptions lists modeling assumptions rendered when no engine
// configuration is available to describe.
var DefaultAssumptions = []string{
	"Monthly returns: GARCH(1,1) volatility with Student-t shocks, correlated via Cholesky factor",
	"Inflation, cash yield, home value and rental growth follow AR(1) driver series",
	"Federal ordinary and long-term capital gains brackets, settled each December",
	"Medicare premiums include IRMAA surcharges from income two years earlier",
	"Required minimum distributions use the Uniform Lifetime Table",
}

// GenerateAssumptions describes the configuration a run used.
func GenerateAssumptions(cfg *config.EngineConfig) []string {
	if cfg == nil {
		return DefaultAssumptions
	}
	var out []string
	for _, a := range cfg.Model.Assets {
		out = append(out, fmt.Sprintf("%s: %.1f%% mean, %.1f%% volatility annually (GARCH alpha %.2f, beta %.2f)",
			a.Name, a.Mean*100, a.Volatility*100, a.GARCH.Alpha, a.GARCH.Beta))
	}
	out = append(out, fmt.Sprintf("Shock distribution: Student-t with %.0f degrees of freedom", cfg.Model.DegreesOfFreedom))

	years := map[int]bool{}
	for _, t := range cfg.TaxTables {
		years[t.Year] = true
	}
	var ys []int
	for y := range years {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	indexing := "held at table levels"
	if cfg.Engine.IndexesBrackets() {
		indexing = "indexed to simulated inflation"
	}
	out = append(out, fmt.Sprintf("Tax tables for years %v, brackets %s", ys, indexing))
	out = append(out, fmt.Sprintf("Medicare base premiums: Part B %s, Part D %s per month",
		FormatCurrency(cfg.Medicare.PartBBase), FormatCurrency(cfg.Medicare.PartDBase)))
	if cfg.RMD.StartAge > 0 {
		out = append(out, fmt.Sprintf("RMDs start at age %d", cfg.RMD.StartAge))
	} else {
		out = append(out, "RMDs start at the SECURE 2.0 age for the birth year")
	}
	return out
}
