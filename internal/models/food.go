// Package models contains data structures used throughout the application
package models

// Portion limits in grams. Callers clamp user input into this range.
const (
	MinPortionGrams = 1.0
	MaxPortionGrams = 500.0
)

// FoodCategory groups catalog entries
type FoodCategory string

const (
	CategoryVegetables    FoodCategory = "vegetables"
	CategoryFruits        FoodCategory = "fruits"
	CategoryProteins      FoodCategory = "proteins"
	CategoryCarbohydrates FoodCategory = "carbohydrates"
	CategoryDairy         FoodCategory = "dairy"
	CategoryFats          FoodCategory = "fats"
	CategoryBeverages     FoodCategory = "beverages"
	CategoryProcessed     FoodCategory = "processed"
)

// FoodCategories lists every known category in display order
var FoodCategories = []FoodCategory{
	CategoryVegetables,
	CategoryFruits,
	CategoryProteins,
	CategoryCarbohydrates,
	CategoryDairy,
	CategoryFats,
	CategoryBeverages,
	CategoryProcessed,
}

// IsValid reports whether c is one of the known categories
func (c FoodCategory) IsValid() bool {
	for _, known := range FoodCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Food is an immutable catalog entry. Nutrient values are grams per 100 g.
type Food struct {
	Name          string       `json:"name"`
	Carbs         float64      `json:"carbs"`
	Protein       float64      `json:"protein"`
	Fat           float64      `json:"fat"`
	Fiber         float64      `json:"fiber"`
	GlycemicIndex int          `json:"glycemicIndex"` // 0-100
	GlycemicLoad  float64      `json:"glycemicLoad"`  // GI x carbs / 100
	Category      FoodCategory `json:"category"`
	Subcategory   string       `json:"subcategory,omitempty"`
	Image         string       `json:"image,omitempty"`
}

// DeriveGlycemicLoad computes the glycemic load per 100 g from GI and carbs
func DeriveGlycemicLoad(glycemicIndex int, carbsPer100g float64) float64 {
	return float64(glycemicIndex) * carbsPer100g / 100
}

// FoodPortion is a food plus the quantity eaten
type FoodPortion struct {
	Food  Food    `json:"food"`
	Grams float64 `json:"grams"`
}

// NewFoodPortion creates a portion with grams clamped to the accepted range
func NewFoodPortion(food Food, grams float64) FoodPortion {
	return FoodPortion{Food: food, Grams: ClampGrams(grams)}
}

// ClampGrams limits a gram quantity to [MinPortionGrams, MaxPortionGrams]
func ClampGrams(grams float64) float64 {
	return max(MinPortionGrams, min(MaxPortionGrams, grams))
}

func (p FoodPortion) scale(per100g float64) float64 {
	return (p.Grams / 100.0) * per100g
}

// Carbs returns the carbohydrate grams in this portion
func (p FoodPortion) Carbs() float64 { return p.scale(p.Food.Carbs) }

// Protein returns the protein grams in this portion
func (p FoodPortion) Protein() float64 { return p.scale(p.Food.Protein) }

// Fat returns the fat grams in this portion
func (p FoodPortion) Fat() float64 { return p.scale(p.Food.Fat) }

// Fiber returns the fiber grams in this portion
func (p FoodPortion) Fiber() float64 { return p.scale(p.Food.Fiber) }

// GlycemicLoad returns the glycemic load contributed by this portion
func (p FoodPortion) GlycemicLoad() float64 { return p.scale(p.Food.GlycemicLoad) }

// Macronutrients is the aggregate of a list of portions
type Macronutrients struct {
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Calories float64 `json:"calories"`
}

// NewMacronutrients builds an aggregate and derives calories (4/4/9 kcal per gram)
func NewMacronutrients(carbs, protein, fat, fiber float64) Macronutrients {
	return Macronutrients{
		Carbs:    carbs,
		Protein:  protein,
		Fat:      fat,
		Fiber:    fiber,
		Calories: carbs*4 + protein*4 + fat*9,
	}
}

// CarbBase is the divisor used for all ratios relative to carbohydrate.
// It never drops below 1 g so near-zero carb meals cannot divide by zero.
func (m Macronutrients) CarbBase() float64 {
	return max(m.Carbs, 1.0)
}

// FiberRatio returns fiber grams per gram of carbohydrate
func (m Macronutrients) FiberRatio() float64 {
	return m.Fiber / m.CarbBase()
}

// ProteinRatio returns protein grams per gram of carbohydrate
func (m Macronutrients) ProteinRatio() float64 {
	return m.Protein / m.CarbBase()
}

// IsZero reports whether the aggregate carries no nutrients at all
func (m Macronutrients) IsZero() bool {
	return m.Carbs == 0 && m.Protein == 0 && m.Fat == 0 && m.Fiber == 0
}
