// Package models contains data structures used throughout the application
package models

// Clinical fallbacks used when a profile carries no explicit values
const (
	DefaultCarbRatio   = 15.0 // g of carbohydrate per unit
	DefaultSensitivity = 50.0 // mg/dL per unit
)

// Rule-of-thumb numerators for deriving per-meal ratios from total daily insulin
const (
	CarbRatioRule   = 500.0  // ratio = 500 / daily units
	SensitivityRule = 1800.0 // sensitivity = 1800 / daily units
)

// DiabetesType distinguishes insulin regimes
type DiabetesType string

const (
	DiabetesNone  DiabetesType = ""
	DiabetesType1 DiabetesType = "type1"
	DiabetesType2 DiabetesType = "type2"
	DiabetesOther DiabetesType = "other"
)

// UserProfile is a read-only snapshot of the person the prediction is for
type UserProfile struct {
	Name             string       `json:"name,omitempty"`
	Age              int          `json:"age"`
	WeightKg         float64      `json:"weightKg"`
	HeightCm         float64      `json:"heightCm"`
	Diabetic         bool         `json:"diabetic"`
	DiabetesType     DiabetesType `json:"diabetesType,omitempty"`
	CarbRatio        *float64     `json:"carbRatio,omitempty"`        // g per unit
	CorrectionFactor *float64     `json:"correctionFactor,omitempty"` // mg/dL per unit
	TargetGlucose    *float64     `json:"targetGlucose,omitempty"`    // mg/dL
	DailyInsulin     *float64     `json:"dailyInsulin,omitempty"`     // units per day
}

// BMI returns weight / height² or 0 when height is unknown
func (p UserProfile) BMI() float64 {
	if p.HeightCm <= 0 || p.WeightKg <= 0 {
		return 0
	}
	m := p.HeightCm / 100
	return p.WeightKg / (m * m)
}

// PersonalizationContext is a profile with every default already resolved.
// CarbRatio stays nil when no ratio can be derived; no dose is computed then.
type PersonalizationContext struct {
	Age         int      `json:"age"`
	BMI         float64  `json:"bmi"`
	WeightKg    float64  `json:"weightKg"`
	Diabetic    bool     `json:"diabetic"`
	CarbRatio   *float64 `json:"carbRatio,omitempty"`
	Sensitivity float64  `json:"sensitivity"`
	Target      float64  `json:"target"`
}

// Normalize resolves the profile's optional fields into a PersonalizationContext.
// Target defaults to 110. Sensitivity is the explicit value, else 1800/daily insulin,
// else 50. The ratio is the explicit value, else 500/daily insulin, else absent.
func (p UserProfile) Normalize() PersonalizationContext {
	ctx := PersonalizationContext{
		Age:         p.Age,
		BMI:         p.BMI(),
		WeightKg:    p.WeightKg,
		Diabetic:    p.Diabetic,
		Sensitivity: DefaultSensitivity,
		Target:      DefaultTargetGlucose,
	}

	if p.TargetGlucose != nil && *p.TargetGlucose > 0 {
		ctx.Target = *p.TargetGlucose
	}

	daily := 0.0
	if p.DailyInsulin != nil {
		daily = *p.DailyInsulin
	}

	switch {
	case p.CorrectionFactor != nil && *p.CorrectionFactor > 0:
		ctx.Sensitivity = *p.CorrectionFactor
	case daily > 0:
		ctx.Sensitivity = SensitivityRule / daily
	}

	switch {
	case p.CarbRatio != nil && *p.CarbRatio > 0:
		ratio := *p.CarbRatio
		ctx.CarbRatio = &ratio
	case daily > 0:
		ratio := CarbRatioRule / daily
		ctx.CarbRatio = &ratio
	}

	return ctx
}

// CanDose reports whether an insulin dose should be computed for this context
func (c PersonalizationContext) CanDose() bool {
	return c.Diabetic && c.CarbRatio != nil
}
