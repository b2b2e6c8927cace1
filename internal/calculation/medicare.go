package calculation

import (
	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// IRMAALookbackYears is how far back the MAGI that sets a year's premium lies.
const IRMAALookbackYears = 2

// IRMAASurcharge returns the monthly Part B and Part D surcharges for a MAGI.
// Brackets are [Min, Max); the last bracket is unbounded.
func IRMAASurcharge(magi decimal.Decimal, brackets []domain.IRMAABracket) (partB, partD decimal.Decimal) {
	for _, b := range brackets {
		if magi.LessThan(b.Min) {
			break
		}
		if b.Unbounded() || magi.LessThan(b.Max) {
			return b.PartB, b.PartD
		}
	}
	return decimal.Zero, decimal.Zero
}

// MonthlyMedicarePremium is the household's monthly Part B plus Part D cost
// for a year, using MAGI from IRMAALookbackYears earlier. Base premiums and
// IRMAA thresholds are scaled by indexFactor.
func MonthlyMedicarePremium(magi decimal.Decimal, table domain.TaxTable, m config.MedicareConfig, enrollees int, indexFactor decimal.Decimal) decimal.Decimal {
	if enrollees <= 0 {
		return decimal.Zero
	}
	if !indexFactor.IsPositive() {
		indexFactor = decimal.NewFromInt(1)
	}
	brackets := make([]domain.IRMAABracket, len(table.IRMAA))
	for i, b := range table.IRMAA {
		brackets[i] = domain.IRMAABracket{
			Min:   b.Min.Mul(indexFactor),
			Max:   b.Max.Mul(indexFactor),
			PartB: b.PartB.Mul(indexFactor),
			PartD: b.PartD.Mul(indexFactor),
		}
	}
	partB, partD := IRMAASurcharge(magi, brackets)
	perPerson := m.PartBBase.Add(m.PartDBase).Mul(indexFactor).Add(partB).Add(partD)
	return perPerson.Mul(decimal.NewFromInt(int64(enrollees))).Round(2)
}
