package insulin

import "github.com/mrcode/glucopredict/internal/models"

var bandBounds = []struct {
	below float64
	band  models.RiskBand
}{
	{70, models.BandSevereLow},
	{80, models.BandMildLow},
	{140, models.BandNormal},
	{180, models.BandMildHigh},
	{250, models.BandModerateHigh},
}

// Classify returns the risk band for a glucose value in mg/dL
func Classify(mgdl float64) models.RiskBand {
	for _, b := range bandBounds {
		if mgdl < b.below {
			return b.band
		}
	}
	return models.BandSevereHigh
}
