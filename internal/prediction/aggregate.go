// Package prediction implements the postprandial glucose response engine.
// Every function in this package is pure: no I/O, no shared state.
package prediction

import (
	"github.com/samber/lo"

	"github.com/mrcode/glucopredict/internal/models"
)

// Aggregate sums the macronutrients of every portion. An empty list yields zero.
func Aggregate(portions []models.FoodPortion) models.Macronutrients {
	return models.NewMacronutrients(
		lo.SumBy(portions, models.FoodPortion.Carbs),
		lo.SumBy(portions, models.FoodPortion.Protein),
		lo.SumBy(portions, models.FoodPortion.Fat),
		lo.SumBy(portions, models.FoodPortion.Fiber),
	)
}

// GlycemicLoad returns the total glycemic load of the portions
func GlycemicLoad(portions []models.FoodPortion) float64 {
	return lo.SumBy(portions, models.FoodPortion.GlycemicLoad)
}
