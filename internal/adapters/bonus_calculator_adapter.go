package adapters

import (
	cdrservice "callcenter_backend/internal/cdr/service"
)

// BonusCalculatorAdapter exposes the cdr bonus table to the declarations
// domain. It implements declarations/service.BonusCalculator.
type BonusCalculatorAdapter struct{}

// NewBonusCalculatorAdapter creates a new adapter over the cdr bonus table.
func NewBonusCalculatorAdapter() *BonusCalculatorAdapter {
	return &BonusCalculatorAdapter{}
}

func (a *BonusCalculatorAdapter) Calculate(callType string, durationSeconds int) (baseCents, overageCents, totalCents int64) {
	bonus := cdrservice.CalculateBonus(callType, durationSeconds)
	return bonus.BaseCents, bonus.OverageCents, bonus.TotalCents
}

func (a *BonusCalculatorAdapter) IsDeclarable(callType string) bool {
	return cdrservice.IsDeclarableType(callType)
}

func (a *BonusCalculatorAdapter) IsKnown(callType string) bool {
	return cdrservice.IsKnownType(callType)
}
