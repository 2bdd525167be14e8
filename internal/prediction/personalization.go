package prediction

// StepTable is a step function over the real line. Bounds are sorted
// ascending; an input x maps to Values[i] for the first i with x < Bounds[i],
// and to the last value when x is at or above every bound.
type StepTable struct {
	Bounds []float64
	Values []float64
}

// Lookup returns the multiplier for x
func (t StepTable) Lookup(x float64) float64 {
	for i, bound := range t.Bounds {
		if x < bound {
			return t.Values[i]
		}
	}
	return t.Values[len(t.Values)-1]
}

// Personalization tables
var (
	// AgeTable maps age in years
	AgeTable = StepTable{
		Bounds: []float64{13, 18, 26, 65, 75},
		Values: []float64{0.85, 0.90, 0.95, 1.00, 1.05, 1.10},
	}

	// CircadianTable maps the hour of the meal. Hours 0-5 fall into the first bucket.
	CircadianTable = StepTable{
		Bounds: []float64{6, 9, 12, 15, 18, 21},
		Values: []float64{1.10, 1.30, 1.15, 1.00, 0.90, 0.95, 1.05},
	}

	// BMIRiseTable scales the overall predicted rise
	BMIRiseTable = StepTable{
		Bounds: []float64{18.5, 25, 30},
		Values: []float64{0.90, 1.00, 1.10, 1.20},
	}

	// BMISensitivityTable is the finer clinical insulin sensitivity scale
	BMISensitivityTable = StepTable{
		Bounds: []float64{16, 18.5, 25, 30, 35, 40},
		Values: []float64{0.90, 0.95, 1.00, 1.10, 1.20, 1.30, 1.40},
	}
)

// AgeFactor returns the age multiplier
func AgeFactor(age int) float64 {
	return AgeTable.Lookup(float64(age))
}

// CircadianFactor returns the time-of-day multiplier for an hour on the 24h clock
func CircadianFactor(hour int) float64 {
	return CircadianTable.Lookup(float64(((hour % 24) + 24) % 24))
}

// BMIRiseFactor returns the BMI multiplier applied to the predicted rise.
// An unknown BMI (0) is treated as normal weight.
func BMIRiseFactor(bmi float64) float64 {
	if bmi <= 0 {
		return 1.0
	}
	return BMIRiseTable.Lookup(bmi)
}

// BMISensitivityFactor returns the clinical sensitivity multiplier for a BMI
func BMISensitivityFactor(bmi float64) float64 {
	if bmi <= 0 {
		return 1.0
	}
	return BMISensitivityTable.Lookup(bmi)
}
