package calculation

import (
	"testing"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRMDAmount(t *testing.T) {
	divisors := config.DefaultEngineConfig().RMD.Divisors

	tests := []struct {
		name    string
		balance string
		age     int
		want    string
	}{
		{"first year at 73", "265000", 73, "10000"},
		{"age 75", "246000", 75, "10000"},
		{"before table", "500000", 60, "0"},
		{"past table uses last row", "200000", 130, "100000"},
		{"empty account", "0", 80, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMDAmount(dec(tt.balance), tt.age, divisors)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestRMDDivisor(t *testing.T) {
	divisors := config.DefaultEngineConfig().RMD.Divisors
	d, ok := RMDDivisor(72, divisors)
	assert.True(t, ok)
	assert.True(t, d.Equal(dec("27.4")))

	_, ok = RMDDivisor(71, divisors)
	assert.False(t, ok)
	_, ok = RMDDivisor(80, nil)
	assert.False(t, ok)
}
