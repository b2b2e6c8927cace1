package calculation

import (
	"testing"

	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRMAASurcharge(t *testing.T) {
	table, ok := config.DefaultTaxTables().Lookup(domain.FilingSingle, 2025)
	require.True(t, ok)

	tests := []struct {
		magi         string
		partB, partD string
	}{
		{"50000", "0", "0"},
		{"105999.99", "0", "0"},
		{"106000", "74.00", "13.70"},
		{"150000", "185.00", "35.30"},
		{"1000000", "443.90", "85.80"},
	}
	for _, tt := range tests {
		t.Run(tt.magi, func(t *testing.T) {
			b, d := IRMAASurcharge(dec(tt.magi), table.IRMAA)
			assert.True(t, b.Equal(dec(tt.partB)), "part B %s", b)
			assert.True(t, d.Equal(dec(tt.partD)), "part D %s", d)
		})
	}
}

func TestMonthlyMedicarePremium(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	table, _ := cfg.TaxTables.Lookup(domain.FilingSingle, 2025)
	one := decimal.NewFromInt(1)

	base := MonthlyMedicarePremium(dec("100000"), table, cfg.Medicare, 1, one)
	assert.True(t, base.Equal(dec("221.78")), "base premium %s", base)

	surcharged := MonthlyMedicarePremium(dec("150000"), table, cfg.Medicare, 1, one)
	assert.True(t, surcharged.Equal(dec("442.08")), "surcharged premium %s", surcharged)

	couple := MonthlyMedicarePremium(dec("100000"), table, cfg.Medicare, 2, one)
	assert.True(t, couple.Equal(dec("443.56")))

	// Indexing doubles the base premium and moves the thresholds out of reach.
	indexed := MonthlyMedicarePremium(dec("150000"), table, cfg.Medicare, 1, dec("2"))
	assert.True(t, indexed.Equal(dec("443.56")), "indexed premium %s", indexed)

	assert.True(t, MonthlyMedicarePremium(dec("100000"), table, cfg.Medicare, 0, one).IsZero())
}
