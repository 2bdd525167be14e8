// Package insulin provides bolus dose calculation and glucose risk classification
package insulin

import (
	"math"

	"github.com/mrcode/glucopredict/internal/models"
)

// Units of insulin per kg of body weight above which a dose is flagged
const maxUnitsPerKg = 1.5

// Calculate returns the meal bolus plus correction. Units are rounded to the
// nearest 0.5 and never negative. Non-positive ratio or sensitivity fall back
// to the clinical defaults.
func Calculate(carbs, ratio, current, target, sensitivity float64) models.DoseAdvice {
	if ratio <= 0 {
		ratio = models.DefaultCarbRatio
	}
	if sensitivity <= 0 {
		sensitivity = models.DefaultSensitivity
	}

	bolus := max(0, carbs) / ratio
	correction := max(0, (current-target)/sensitivity)

	return models.DoseAdvice{
		Units:           max(0, math.Round((bolus+correction)*2)/2),
		Bolus:           bolus,
		Correction:      correction,
		WithinSafeRange: true,
	}
}

// RatioFromDailyInsulin applies the 500 rule
func RatioFromDailyInsulin(daily float64) float64 {
	if daily <= 0 {
		return models.DefaultCarbRatio
	}
	return models.CarbRatioRule / daily
}

// SensitivityFromDailyInsulin applies the 1800 rule
func SensitivityFromDailyInsulin(daily float64) float64 {
	if daily <= 0 {
		return models.DefaultSensitivity
	}
	return models.SensitivityRule / daily
}

// CheckDose marks a dose above 1.5 U/kg as outside the safe range.
// The verdict is advisory; an unknown weight never flags.
func CheckDose(advice models.DoseAdvice, weightKg float64) models.DoseAdvice {
	advice.WithinSafeRange = advice.Units >= 0
	if weightKg > 0 {
		advice.MaxSafeUnits = weightKg * maxUnitsPerKg
		if advice.Units > advice.MaxSafeUnits {
			advice.WithinSafeRange = false
		}
	}
	return advice
}

// ForContext computes and checks a dose for a normalized profile.
// It returns nil when the profile does not dose.
func ForContext(ctx models.PersonalizationContext, carbs, current float64) *models.DoseAdvice {
	if !ctx.CanDose() {
		return nil
	}
	advice := CheckDose(Calculate(carbs, *ctx.CarbRatio, current, ctx.Target, ctx.Sensitivity), ctx.WeightKg)
	return &advice
}
