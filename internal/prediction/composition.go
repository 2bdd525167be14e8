package prediction

import "github.com/mrcode/glucopredict/internal/models"

// Composition is the macronutrient breakdown of a meal with the best order for it
type Composition struct {
	CarbPercent      float64          `json:"carbPercent"`
	ProteinPercent   float64          `json:"proteinPercent"`
	FatPercent       float64          `json:"fatPercent"`
	FiberRatio       float64          `json:"fiberRatio"`
	RecommendedOrder models.MealOrder `json:"recommendedOrder"`
	MaxBenefit       float64          `json:"maxBenefit"` // % peak reduction vs. eating everything together
	Tags             []Tag            `json:"tags"`
}

// AnalyzeComposition classifies a meal and picks the order with the most benefit.
// Percentages are zero when the meal has no carbohydrate, protein or fat.
func AnalyzeComposition(macros models.Macronutrients) Composition {
	c := Composition{
		FiberRatio:       macros.FiberRatio(),
		RecommendedOrder: RecommendedOrder(macros),
		MaxBenefit:       MaxBenefit(macros),
		Tags:             OrderTags(macros),
	}

	if total := macros.Carbs + macros.Protein + macros.Fat; total > 0 {
		c.CarbPercent = macros.Carbs / total * 100
		c.ProteinPercent = macros.Protein / total * 100
		c.FatPercent = macros.Fat / total * 100
	}

	return c
}

// RecommendedOrder picks the order expected to blunt the rise the most
func RecommendedOrder(macros models.Macronutrients) models.MealOrder {
	if macros.Carbs > 30 && macros.FiberRatio() < 0.10 {
		return models.OrderVegetablesFirst
	}
	if macros.ProteinRatio() > 0.5 {
		return models.OrderProteinFirst
	}
	return models.OrderVegetablesFirst
}

// MaxBenefit is the peak reduction in percent of the better of vegetables-first
// and protein-first. It is within [25, 40] and ignores the negligible-carbs gate
// of OrderFactor, so low-carb meals still report the benefit of their order.
func MaxBenefit(macros models.Macronutrients) float64 {
	best := min(vegetablesFirstFactor(macros), proteinFirstFactor(macros))
	return (1 - best) * 100
}
