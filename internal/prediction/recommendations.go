package prediction

import (
	"github.com/mrcode/glucopredict/internal/insulin"
	"github.com/mrcode/glucopredict/internal/models"
)

// Advisory messages attached to every prediction
const (
	MsgExcellentControl = "Excellent glucose control"
	MsgModeratePeak     = "Moderate peak, consider changing the eating order"
	MsgHighPeak         = "High peak, eat vegetables first"
	MsgVeryHighPeak     = "Very high peak, consult your doctor"
	MsgVegetablesTip    = "Tip: eating vegetables first can reduce the peak by up to 37%"
	MsgWalkAfterMeal    = "Walk for 10 minutes after eating to lower glucose"
)

// Recommend returns advice for a predicted peak and the order used
func Recommend(peak float64, order models.MealOrder) []string {
	var recs []string

	switch insulin.Classify(peak) {
	case models.BandMildHigh:
		recs = append(recs, MsgModeratePeak)
	case models.BandModerateHigh:
		recs = append(recs, MsgHighPeak)
	case models.BandSevereHigh:
		recs = append(recs, MsgVeryHighPeak)
	default:
		recs = append(recs, MsgExcellentControl)
	}

	if order != models.OrderVegetablesFirst {
		recs = append(recs, MsgVegetablesTip)
	}

	return append(recs, MsgWalkAfterMeal)
}
