// Package chart turns predictions into things people look at: labels, colors,
// PNG charts and text sparklines.
package chart

import "github.com/mrcode/glucopredict/internal/models"

// OrderLabel returns a human-readable meal order
func OrderLabel(order models.MealOrder) string {
	switch order.OrDefault() {
	case models.OrderVegetablesFirst:
		return "Vegetables first"
	case models.OrderProteinFirst:
		return "Protein first"
	case models.OrderCarbohydrateFirst:
		return "Carbs first"
	case models.OrderSimultaneous:
		return "All together"
	default:
		return string(order)
	}
}

// BandLabel returns a human-readable risk band
func BandLabel(band models.RiskBand) string {
	switch band {
	case models.BandSevereLow:
		return "Severe low"
	case models.BandMildLow:
		return "Low"
	case models.BandNormal:
		return "In range"
	case models.BandMildHigh:
		return "Slightly high"
	case models.BandModerateHigh:
		return "High"
	case models.BandSevereHigh:
		return "Very high"
	default:
		return string(band)
	}
}

// BandColor returns the hex color of a risk band, taken from the chart settings
func BandColor(band models.RiskBand, settings *models.Settings) string {
	switch band {
	case models.BandSevereLow, models.BandSevereHigh:
		return settings.ChartColorUrgent
	case models.BandMildLow:
		return settings.ChartColorLow
	case models.BandMildHigh, models.BandModerateHigh:
		return settings.ChartColorHigh
	default:
		return settings.ChartColorInRange
	}
}

// EffectivenessLabel returns a human-readable effectiveness grade
func EffectivenessLabel(e models.Effectiveness) string {
	switch e {
	case models.EffectivenessPending:
		return "Awaiting measurement"
	case models.EffectivenessExcellent:
		return "Excellent"
	case models.EffectivenessGood:
		return "Good"
	case models.EffectivenessFair:
		return "Fair"
	case models.EffectivenessPoor:
		return "Poor"
	default:
		return string(e)
	}
}

// TrendArrow returns an arrow for a reading trend
func TrendArrow(t models.TrendDirection) string {
	switch t {
	case models.TrendRising:
		return "↑"
	case models.TrendFalling:
		return "↓"
	default:
		return "→"
	}
}
