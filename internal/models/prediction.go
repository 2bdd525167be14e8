// Package models contains data structures used throughout the application
package models

import (
	"fmt"
	"strings"
	"time"
)

// Prediction horizon constants
const (
	CurveStepMinutes    = 15
	CurveHorizonMinutes = 180
	CurvePointCount     = CurveHorizonMinutes/CurveStepMinutes + 1
)

// MealOrder is the sequence in which macronutrient groups are eaten
type MealOrder string

const (
	OrderVegetablesFirst   MealOrder = "vegetables_first"
	OrderProteinFirst      MealOrder = "protein_first"
	OrderCarbohydrateFirst MealOrder = "carbohydrate_first"
	OrderSimultaneous      MealOrder = "simultaneous"
)

// AllMealOrders lists every meal order
var AllMealOrders = []MealOrder{
	OrderVegetablesFirst,
	OrderProteinFirst,
	OrderCarbohydrateFirst,
	OrderSimultaneous,
}

var mealOrderAliases = map[string]MealOrder{
	"vegetables_first":   OrderVegetablesFirst,
	"vegetables-first":   OrderVegetablesFirst,
	"veg-first":          OrderVegetablesFirst,
	"veg":                OrderVegetablesFirst,
	"protein_first":      OrderProteinFirst,
	"protein-first":      OrderProteinFirst,
	"protein":            OrderProteinFirst,
	"carbohydrate_first": OrderCarbohydrateFirst,
	"carbohydrate-first": OrderCarbohydrateFirst,
	"carbs-first":        OrderCarbohydrateFirst,
	"carbs":              OrderCarbohydrateFirst,
	"simultaneous":       OrderSimultaneous,
	"mixed":              OrderSimultaneous,
}

// ParseMealOrder resolves a meal order name. An empty string means simultaneous.
func ParseMealOrder(s string) (MealOrder, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return OrderSimultaneous, nil
	}
	if order, ok := mealOrderAliases[key]; ok {
		return order, nil
	}
	return "", fmt.Errorf("unknown meal order %q", s)
}

// OrDefault returns the order, or simultaneous when unset
func (o MealOrder) OrDefault() MealOrder {
	if o == "" {
		return OrderSimultaneous
	}
	return o
}

// GlucosePoint is a predicted glucose value at a minute offset after the meal
type GlucosePoint struct {
	Minute  int     `json:"minute"`
	Glucose float64 `json:"glucose"` // mg/dL
}

// Factors records every multiplier applied to the base rise
type Factors struct {
	Age           float64 `json:"age"`
	Circadian     float64 `json:"circadian"`
	BMI           float64 `json:"bmi"`
	Order         float64 `json:"order"`
	Sensitivity   float64 `json:"sensitivity"` // clinical BMI scale, reported only
	BaseRise      float64 `json:"baseRise"`
	PeakRise      float64 `json:"peakRise"`
	TimeToPeakMin int     `json:"timeToPeakMin"`
}

// Personal returns the combined age, circadian and BMI multiplier
func (f Factors) Personal() float64 {
	return f.Age * f.Circadian * f.BMI
}

// GlucosePrediction is the complete output of one prediction call
type GlucosePrediction struct {
	Points          []GlucosePoint `json:"points"`
	Peak            GlucosePoint   `json:"peak"`
	InitialGlucose  float64        `json:"initialGlucose"`
	GlycemicLoad    float64        `json:"glycemicLoad"`
	Dose            *float64       `json:"dose,omitempty"`
	DoseAdvice      *DoseAdvice    `json:"doseAdvice,omitempty"`
	PeakBand        RiskBand       `json:"peakBand"`
	Recommendations []string       `json:"recommendations"`
	Macros          Macronutrients `json:"macros"`
	Order           MealOrder      `json:"order"`
	PeakRise        float64        `json:"peakRise"`
	Factors         Factors        `json:"factors"`
	MealTime        time.Time      `json:"mealTime"`
}

// Values returns the glucose values of the curve in time order
func (p *GlucosePrediction) Values() []float64 {
	values := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		values[i] = pt.Glucose
	}
	return values
}

// DoseAdvice is an insulin dose together with its advisory safety verdict
type DoseAdvice struct {
	Units           float64 `json:"units"`
	Bolus           float64 `json:"bolus"`
	Correction      float64 `json:"correction"`
	WithinSafeRange bool    `json:"withinSafeRange"`
	MaxSafeUnits    float64 `json:"maxSafeUnits,omitempty"`
}

// MealType is the kind of meal recorded in history
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// IsValid reports whether t is a known meal type
func (t MealType) IsValid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// MealTypeAt guesses the meal type from the hour of day
func MealTypeAt(at time.Time) MealType {
	switch h := at.Hour(); {
	case h >= 5 && h < 11:
		return MealBreakfast
	case h >= 11 && h < 16:
		return MealLunch
	case h >= 18 && h < 22:
		return MealDinner
	default:
		return MealSnack
	}
}
