package prediction

import "github.com/mrcode/glucopredict/internal/models"

// Below this many grams of carbohydrate the order of eating has no effect
const negligibleCarbs = 5.0

// Order factor bounds
const (
	vegetablesFirstBase  = 0.75
	vegetablesFirstFloor = 0.60
	proteinFirstBase     = 0.85
	proteinFirstFloor    = 0.75
	carbsFirstBase       = 1.20
	carbsFirstCeiling    = 1.30
)

// OrderFactor returns the multiplier the meal order applies to the glucose rise
func OrderFactor(order models.MealOrder, macros models.Macronutrients) float64 {
	if macros.Carbs <= negligibleCarbs {
		return 1.0
	}

	switch order {
	case models.OrderVegetablesFirst:
		return vegetablesFirstFactor(macros)
	case models.OrderProteinFirst:
		return proteinFirstFactor(macros)
	case models.OrderCarbohydrateFirst:
		return carbsFirstFactor(macros)
	default:
		return 1.0
	}
}

// Fiber and protein eaten ahead of the carbohydrate both blunt the rise
func vegetablesFirstFactor(m models.Macronutrients) float64 {
	fiberBonus := min(0.15, m.FiberRatio()*0.3)
	proteinBonus := min(0.10, m.ProteinRatio()*0.2)
	return max(vegetablesFirstFloor, vegetablesFirstBase-fiberBonus-proteinBonus)
}

func proteinFirstFactor(m models.Macronutrients) float64 {
	factor := proteinFirstBase
	if m.ProteinRatio() > 0.3 {
		factor -= 0.05
	}
	// Small protein amounts give a diminished benefit
	if m.Protein < 10 {
		factor += 0.05
	}
	return max(proteinFirstFloor, factor)
}

func carbsFirstFactor(m models.Macronutrients) float64 {
	factor := carbsFirstBase
	// Refined carbohydrate
	if m.FiberRatio() < 0.05 {
		factor += 0.10
	}
	if m.ProteinRatio() > 0.4 {
		factor -= 0.05
	}
	return min(carbsFirstCeiling, factor)
}
