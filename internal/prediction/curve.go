package prediction

import (
	"math"

	"github.com/mrcode/glucopredict/internal/models"
)

const (
	riseScale          = 3.0  // mg/dL per unit of glycemic load
	fiberReductionStep = 0.02 // per gram of fiber
	fiberReductionMax  = 0.30
	decayMinutes       = 90.0
)

// BaseRise returns the unadjusted peak rise in mg/dL for a glycemic load and fiber grams
func BaseRise(glycemicLoad, fiber float64) float64 {
	reduction := min(fiberReductionMax, fiber*fiberReductionStep)
	return glycemicLoad * riseScale * (1 - reduction)
}

// TimeToPeak returns the minute at which the curve peaks for an order
func TimeToPeak(order models.MealOrder) int {
	if order == models.OrderVegetablesFirst {
		return 90
	}
	return 75
}

// GenerateCurve samples the glucose response from 0 to 180 minutes every 15 minutes.
// Values never drop below the 70 mg/dL floor.
func GenerateCurve(initial, peakRise float64, order models.MealOrder) []models.GlucosePoint {
	ttp := float64(TimeToPeak(order))
	points := make([]models.GlucosePoint, 0, models.CurvePointCount)

	for minute := 0; minute <= models.CurveHorizonMinutes; minute += models.CurveStepMinutes {
		t := float64(minute)

		var shape float64
		if t <= ttp {
			shape = math.Sin(t / ttp * math.Pi / 2)
		} else {
			shape = math.Exp(-(t - ttp) / decayMinutes)
		}

		points = append(points, models.GlucosePoint{
			Minute:  minute,
			Glucose: max(models.GlucoseFloor, initial+peakRise*shape),
		})
	}

	return points
}

// FindPeak returns the first point holding the maximum glucose value
func FindPeak(points []models.GlucosePoint) models.GlucosePoint {
	if len(points) == 0 {
		return models.GlucosePoint{}
	}
	peak := points[0]
	for _, p := range points[1:] {
		if p.Glucose > peak.Glucose {
			peak = p
		}
	}
	return peak
}
