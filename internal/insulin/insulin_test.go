package insulin

import (
	"math"
	"testing"

	"github.com/mrcode/glucopredict/internal/models"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		carbs       float64
		ratio       float64
		current     float64
		target      float64
		sensitivity float64
		expected    float64
	}{
		{"Daily insulin 20 scenario", 50, 25, 180, 110, 90, 3.0},
		{"Bolus only", 60, 10, 100, 110, 50, 6.0},
		{"Correction only", 0, 10, 210, 110, 50, 2.0},
		{"Rounds down", 22, 10, 110, 110, 50, 2.0},
		{"Rounds to half", 26, 10, 110, 110, 50, 2.5},
		{"Zero ratio falls back to 15", 30, 0, 110, 110, 50, 2.0},
		{"Zero sensitivity falls back to 50", 0, 10, 160, 110, 0, 1.0},
		{"Below target never negative", 0, 10, 60, 110, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.carbs, tt.ratio, tt.current, tt.target, tt.sensitivity).Units
			if got != tt.expected {
				t.Errorf("Calculate().Units = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCalculate_HalfUnitGranularity(t *testing.T) {
	for carbs := 0.0; carbs <= 150; carbs += 3.7 {
		for current := 60.0; current <= 350; current += 17 {
			got := Calculate(carbs, 12, current, 110, 45).Units
			if got < 0 {
				t.Fatalf("Calculate(%v, current %v) = %v, want >= 0", carbs, current, got)
			}
			if math.Mod(got*2, 1) != 0 {
				t.Fatalf("Calculate(%v, current %v) = %v, not a multiple of 0.5", carbs, current, got)
			}
		}
	}
}

func TestDailyInsulinRules(t *testing.T) {
	tests := []struct {
		daily           float64
		wantRatio       float64
		wantSensitivity float64
	}{
		{20, 25, 90},
		{50, 10, 36},
		{0, 15, 50},
		{-4, 15, 50},
	}

	for _, tt := range tests {
		if got := RatioFromDailyInsulin(tt.daily); got != tt.wantRatio {
			t.Errorf("RatioFromDailyInsulin(%v) = %v, want %v", tt.daily, got, tt.wantRatio)
		}
		if got := SensitivityFromDailyInsulin(tt.daily); got != tt.wantSensitivity {
			t.Errorf("SensitivityFromDailyInsulin(%v) = %v, want %v", tt.daily, got, tt.wantSensitivity)
		}
	}
}

func TestDailyInsulinRules_MatchNormalize(t *testing.T) {
	for _, daily := range []float64{8, 20, 37.5, 50, 80} {
		d := daily
		ctx := models.UserProfile{Diabetic: true, DailyInsulin: &d}.Normalize()
		if ctx.CarbRatio == nil || *ctx.CarbRatio != RatioFromDailyInsulin(daily) {
			t.Errorf("daily %v: Normalize() ratio = %v, want %v", daily, ctx.CarbRatio, RatioFromDailyInsulin(daily))
		}
		if ctx.Sensitivity != SensitivityFromDailyInsulin(daily) {
			t.Errorf("daily %v: Normalize() sensitivity = %v, want %v", daily, ctx.Sensitivity, SensitivityFromDailyInsulin(daily))
		}
	}
}

func TestCheckDose(t *testing.T) {
	tests := []struct {
		name   string
		units  float64
		weight float64
		safe   bool
	}{
		{"Well within", 5, 70, true},
		{"At limit", 105, 70, true},
		{"Over limit", 105.5, 70, false},
		{"Unknown weight", 40, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckDose(models.DoseAdvice{Units: tt.units}, tt.weight)
			if got.WithinSafeRange != tt.safe {
				t.Errorf("WithinSafeRange = %v, want %v", got.WithinSafeRange, tt.safe)
			}
		})
	}
}

func TestForContext(t *testing.T) {
	daily := 20.0
	profile := models.UserProfile{Diabetic: true, WeightKg: 70, DailyInsulin: &daily}

	advice := ForContext(profile.Normalize(), 50, 180)
	if advice == nil {
		t.Fatal("expected dose advice")
	}
	if advice.Units != 3.0 {
		t.Errorf("Units = %v, want 3.0", advice.Units)
	}
	if !advice.WithinSafeRange {
		t.Error("expected dose within safe range")
	}

	profile.Diabetic = false
	if ForContext(profile.Normalize(), 50, 180) != nil {
		t.Error("non-diabetic profile should not receive a dose")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		mgdl     float64
		expected models.RiskBand
	}{
		{40, models.BandSevereLow},
		{69.9, models.BandSevereLow},
		{70, models.BandMildLow},
		{79, models.BandMildLow},
		{80, models.BandNormal},
		{139.9, models.BandNormal},
		{140, models.BandMildHigh},
		{180, models.BandModerateHigh},
		{249, models.BandModerateHigh},
		{250, models.BandSevereHigh},
		{600, models.BandSevereHigh},
	}

	for _, tt := range tests {
		if got := Classify(tt.mgdl); got != tt.expected {
			t.Errorf("Classify(%v) = %s, want %s", tt.mgdl, got, tt.expected)
		}
	}
}
