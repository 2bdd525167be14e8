// Package models contains data structures used throughout the application
package models

import (
	"math"
	"time"
)

// Treatment is a Nightscout treatment entry. Only the meal-related fields are modelled.
type Treatment struct {
	ID        string  `json:"_id,omitempty"`
	EventType string  `json:"eventType"`
	CreatedAt string  `json:"created_at"`
	Insulin   float64 `json:"insulin,omitempty"` // Units of insulin
	Carbs     float64 `json:"carbs,omitempty"`   // Grams of carbohydrates
	Protein   float64 `json:"protein,omitempty"` // Grams of protein
	Fat       float64 `json:"fat,omitempty"`     // Grams of fat
	Glucose   float64 `json:"glucose,omitempty"` // Blood glucose at time of meal
	Units     string  `json:"units,omitempty"`   // "mg/dl" or "mmol/l"
	Notes     string  `json:"notes,omitempty"`
	EnteredBy string  `json:"enteredBy"`
}

// Nightscout event types used for meals
const (
	EventMealBolus      = "Meal Bolus"
	EventCarbCorrection = "Carb Correction"
)

// NewMealTreatment builds a treatment for a meal. Meals with a dose are posted as a
// meal bolus, otherwise as a carb correction.
func NewMealTreatment(at time.Time, macros Macronutrients, dose *float64, glucose float64, notes string) Treatment {
	t := Treatment{
		EventType: EventCarbCorrection,
		CreatedAt: at.UTC().Format(time.RFC3339),
		Carbs:     round1(macros.Carbs),
		Protein:   round1(macros.Protein),
		Fat:       round1(macros.Fat),
		Glucose:   glucose,
		Units:     "mg/dl",
		Notes:     notes,
		EnteredBy: "glucopredict",
	}
	if dose != nil && *dose > 0 {
		t.EventType = EventMealBolus
		t.Insulin = *dose
	}
	return t
}

// Time returns the time of the treatment
func (t *Treatment) Time() time.Time {
	parsed, err := time.Parse(time.RFC3339, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// HasCarbs returns true if this treatment includes carbohydrates
func (t *Treatment) HasCarbs() bool {
	return t.Carbs > 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
