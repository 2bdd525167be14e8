package prediction

import (
	"time"

	"github.com/mrcode/glucopredict/internal/insulin"
	"github.com/mrcode/glucopredict/internal/models"
)

// Request holds every input of one prediction
type Request struct {
	Portions       []models.FoodPortion
	Profile        models.UserProfile
	CurrentGlucose float64 // mg/dL
	MealTime       time.Time
	Order          models.MealOrder // empty means simultaneous
}

// Predictor runs the prediction pipeline
type Predictor struct {
	now func() time.Time
}

// NewPredictor creates a Predictor that uses the wall clock for requests without a meal time
func NewPredictor() *Predictor {
	return &Predictor{now: time.Now}
}

// Predict produces the glucose response for a meal
func (p *Predictor) Predict(req Request) *models.GlucosePrediction {
	order := req.Order.OrDefault()
	mealTime := req.MealTime
	if mealTime.IsZero() {
		mealTime = p.now()
	}

	ctx := req.Profile.Normalize()
	macros := Aggregate(req.Portions)
	load := GlycemicLoad(req.Portions)

	factors := Personalize(ctx, mealTime)
	factors.Order = OrderFactor(order, macros)
	factors.BaseRise = BaseRise(load, macros.Fiber)
	factors.PeakRise = factors.BaseRise * factors.Personal() * factors.Order
	factors.TimeToPeakMin = TimeToPeak(order)

	points := GenerateCurve(req.CurrentGlucose, factors.PeakRise, order)
	peak := FindPeak(points)

	result := &models.GlucosePrediction{
		Points:          points,
		Peak:            peak,
		PeakBand:        insulin.Classify(peak.Glucose),
		InitialGlucose:  req.CurrentGlucose,
		GlycemicLoad:    load,
		Macros:          macros,
		Order:           order,
		PeakRise:        factors.PeakRise,
		Factors:         factors,
		MealTime:        mealTime,
		Recommendations: Recommend(peak.Glucose, order),
	}

	if advice := insulin.ForContext(ctx, macros.Carbs, req.CurrentGlucose); advice != nil {
		units := advice.Units
		result.Dose = &units
		result.DoseAdvice = advice
	}

	return result
}

// Personalize returns the age, circadian and BMI factors for a profile and meal time.
// The clinical sensitivity factor is reported but does not scale the rise.
func Personalize(ctx models.PersonalizationContext, mealTime time.Time) models.Factors {
	return models.Factors{
		Age:         AgeFactor(ctx.Age),
		Circadian:   CircadianFactor(mealTime.Hour()),
		BMI:         BMIRiseFactor(ctx.BMI),
		Sensitivity: BMISensitivityFactor(ctx.BMI),
	}
}
