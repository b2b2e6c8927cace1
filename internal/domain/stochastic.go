package domain

// Driver asset classes feed the simulation but cannot be held in an account.
const (
	AssetInflation    = "inflation"
	AssetHomeValue    = "home_value"
	AssetRentalGrowth = "rental_growth"
	AssetCash         = "cash"
)

// IsDriverAsset reports whether the class is a non-investable driver series.
func IsDriverAsset(name string) bool {
	switch name {
	case AssetInflation, AssetHomeValue, AssetRentalGrowth, AssetCash:
		return true
	}
	return false
}

// GARCHParams is the GARCH(1,1) triple in monthly variance units.
// A zero Omega is derived from the asset's long-run volatility.
type GARCHParams struct {
	Omega float64 `yaml:"omega" json:"omega"`
	Alpha float64 `yaml:"alpha" json:"alpha"`
	Beta  float64 `yaml:"beta" json:"beta"`
}

// AR1Params gives mean-reverting dynamics for driver series such as inflation.
type AR1Params struct {
	Phi      float64 `yaml:"phi" json:"phi"`
	Constant float64 `yaml:"constant" json:"constant"`
}

// AssetClassModel holds per-asset parameters. Mean, Volatility and DividendYield are annual.
type AssetClassModel struct {
	Name          string      `yaml:"name" json:"name"`
	Mean          float64     `yaml:"mean" json:"mean"`
	Volatility    float64     `yaml:"volatility" json:"volatility"`
	DividendYield float64     `yaml:"dividend_yield,omitempty" json:"dividend_yield,omitempty"`
	GARCH         GARCHParams `yaml:"garch" json:"garch"`
	AR1           *AR1Params  `yaml:"ar1,omitempty" json:"ar1,omitempty"`
}

// StochasticModelConfig describes the joint return process.
type StochasticModelConfig struct {
	Assets           []AssetClassModel `yaml:"assets" json:"assets"`
	Correlation      [][]float64       `yaml:"correlation" json:"correlation"`
	DegreesOfFreedom float64           `yaml:"degrees_of_freedom" json:"degrees_of_freedom"`
}

// AssetIndex returns the position of the named class, or -1.
func (c StochasticModelConfig) AssetIndex(name string) int {
	for i, a := range c.Assets {
		if a.Name == name {
			return i
		}
	}
	return -1
}
