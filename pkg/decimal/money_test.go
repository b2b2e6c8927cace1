package decimal

import (
	"math"
	"testing"

	stddec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"integer", "120000", "120000", false},
		{"padded", "  42.50 ", "42.5", false},
		{"scientific", "1.5e4", "15000", false},
		{"negative", "-250", "-250", false},
		{"empty", "", "", true},
		{"nan", "NaN", "", true},
		{"infinity", "Inf", "", true},
		{"garbage", "$1,000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(stddec.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestFromFinite(t *testing.T) {
	d, ok := FromFinite(0.25)
	assert.True(t, ok)
	assert.Equal(t, "0.25", d.String())

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, ok := FromFinite(f)
		assert.False(t, ok)
	}
	assert.Panics(t, func() { MustFinite(math.NaN()) })
}

func TestHelpers(t *testing.T) {
	assert.True(t, ClampZero(stddec.NewFromInt(-5)).IsZero())
	assert.Equal(t, "5", ClampZero(stddec.NewFromInt(5)).String())
	assert.Equal(t, "2.35", RoundCents(stddec.RequireFromString("2.345")).String())
	assert.Equal(t, int64(123456), Cents(stddec.RequireFromString("1234.555")))
	assert.Equal(t, "10000", Monthly(stddec.NewFromInt(120000)).String())
	assert.Equal(t, "1200", Annual(stddec.NewFromInt(100)).String())
	assert.Equal(t, "15.30%", Percent(stddec.RequireFromString("0.153")))
}
