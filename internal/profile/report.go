package profile

import (
	"fmt"
	"strings"

	"github.com/mrcode/glucopredict/internal/insulin"
	"github.com/mrcode/glucopredict/internal/models"
)

// BMICategory returns the WHO category for a BMI
func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return "Unknown"
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}

// Report renders a plain text summary of the profile
func Report(s State) string {
	p := s.Profile
	ctx := p.Normalize()

	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", p.Name)
	}
	fmt.Fprintf(&b, "Age: %d years\n", p.Age)
	fmt.Fprintf(&b, "Weight: %.1f kg, height: %.0f cm\n", p.WeightKg, p.HeightCm)
	fmt.Fprintf(&b, "BMI: %.1f (%s)\n", ctx.BMI, BMICategory(ctx.BMI))

	if !p.Diabetic {
		b.WriteString("Diabetes: no\n")
	} else {
		kind := string(p.DiabetesType)
		if kind == "" {
			kind = "unspecified"
		}
		fmt.Fprintf(&b, "Diabetes: %s\n", kind)
		fmt.Fprintf(&b, "Target glucose: %.0f mg/dL\n", ctx.Target)

		if p.DailyInsulin != nil {
			fmt.Fprintf(&b, "Daily insulin: %.1f U (500 rule ratio 1:%.1f, 1800 rule sensitivity %.0f mg/dL)\n",
				*p.DailyInsulin,
				insulin.RatioFromDailyInsulin(*p.DailyInsulin),
				insulin.SensitivityFromDailyInsulin(*p.DailyInsulin))
		} else if est, ok := s.EstimatedDailyInsulin(); ok {
			fmt.Fprintf(&b, "Estimated daily insulin: %.1f U\n", est)
		}

		if ctx.CarbRatio != nil {
			fmt.Fprintf(&b, "Carb ratio: 1 U per %.1f g\n", *ctx.CarbRatio)
		} else {
			b.WriteString("Carb ratio: not configured, no dose suggestions\n")
		}
		fmt.Fprintf(&b, "Correction factor: %.0f mg/dL per U\n", ctx.Sensitivity)
	}

	if !s.Complete {
		b.WriteString("Profile incomplete\n")
	}
	return b.String()
}

// Summary returns key figures for API clients
type Summary struct {
	Profile      models.UserProfile `json:"profile"`
	Complete     bool               `json:"complete"`
	BMI          float64            `json:"bmi"`
	BMICategory  string             `json:"bmiCategory"`
	CarbRatio    *float64           `json:"carbRatio,omitempty"`
	Sensitivity  float64            `json:"sensitivity"`
	Target       float64            `json:"target"`
	EstimatedTDD *float64           `json:"estimatedDailyInsulin,omitempty"`
}

// Summarize resolves the derived values of a state
func Summarize(s State) Summary {
	ctx := s.Profile.Normalize()
	sum := Summary{
		Profile:     s.Snapshot(),
		Complete:    s.Complete,
		BMI:         ctx.BMI,
		BMICategory: BMICategory(ctx.BMI),
		CarbRatio:   ctx.CarbRatio,
		Sensitivity: ctx.Sensitivity,
		Target:      ctx.Target,
	}
	if est, ok := s.EstimatedDailyInsulin(); ok {
		sum.EstimatedTDD = &est
	}
	return sum
}
