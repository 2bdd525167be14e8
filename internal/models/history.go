// Package models contains data structures used throughout the application
package models

import "time"

// Effectiveness scores how close a prediction came to the measured peak
type Effectiveness string

const (
	EffectivenessPending   Effectiveness = "pending"
	EffectivenessExcellent Effectiveness = "excellent" // within 10 mg/dL
	EffectivenessGood      Effectiveness = "good"      // within 20 mg/dL
	EffectivenessFair      Effectiveness = "fair"      // within 30 mg/dL
	EffectivenessPoor      Effectiveness = "poor"
)

// MealRecord is a meal stored in history together with its prediction
type MealRecord struct {
	ID             string        `json:"id"`
	Time           time.Time     `json:"time"`
	MealType       MealType      `json:"mealType"`
	Order          MealOrder     `json:"order"`
	Foods          []string      `json:"foods"`
	InitialGlucose float64       `json:"initialGlucose"`
	PredictedPeak  float64       `json:"predictedPeak"`
	GlycemicLoad   float64       `json:"glycemicLoad"`
	Carbs          float64       `json:"carbs"`
	Dose           *float64      `json:"dose,omitempty"`
	ActualPeak     *float64      `json:"actualPeak,omitempty"`
	Effectiveness  Effectiveness `json:"effectiveness"`
}

// PredictionError returns |actual - predicted| once the actual peak is known
func (m MealRecord) PredictionError() (float64, bool) {
	if m.ActualPeak == nil {
		return 0, false
	}
	diff := *m.ActualPeak - m.PredictedPeak
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

// DayStats summarizes the readings of one day
type DayStats struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	StdDev      float64 `json:"stdDev"`
	TimeInRange float64 `json:"timeInRange"` // % of readings within 70-180
	GMI         float64 `json:"gmi"`         // Glucose Management Indicator, estimated A1C %
	CV          float64 `json:"cv"`          // Coefficient of variation %
}
