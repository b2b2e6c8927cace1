package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxableSocialSecurity(t *testing.T) {
	base1, base2 := dec("25000"), dec("34000")
	tests := []struct {
		name     string
		other    string
		benefits string
		want     string
	}{
		{"below first threshold", "10000", "20000", "0"},
		{"between thresholds", "20000", "20000", "2500"},
		{"above second threshold capped at 85%", "40000", "20000", "17000"},
		{"at second threshold", "24000", "20000", "4500"},
		{"no benefits", "90000", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			benefits := dec(tt.benefits)
			got := TaxableSocialSecurity(benefits, ProvisionalIncome(dec(tt.other), benefits), base1, base2)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestProvisionalIncome(t *testing.T) {
	assert.True(t, ProvisionalIncome(dec("30000"), dec("24000")).Equal(dec("42000")))
}
