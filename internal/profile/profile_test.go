package profile

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mrcode/glucopredict/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestApply_UpdateBasics(t *testing.T) {
	tests := []struct {
		name    string
		cmd     UpdateBasics
		wantErr bool
	}{
		{"Valid", UpdateBasics{Name: " Ana ", Age: 34, WeightKg: 62, HeightCm: 165}, false},
		{"Age zero", UpdateBasics{Age: 0, WeightKg: 62, HeightCm: 165}, true},
		{"Age too high", UpdateBasics{Age: 121, WeightKg: 62, HeightCm: 165}, true},
		{"Weight too low", UpdateBasics{Age: 34, WeightKg: 9, HeightCm: 165}, true},
		{"Weight too high", UpdateBasics{Age: 34, WeightKg: 301, HeightCm: 165}, true},
		{"Height too low", UpdateBasics{Age: 34, WeightKg: 62, HeightCm: 49}, true},
		{"Height too high", UpdateBasics{Age: 34, WeightKg: 62, HeightCm: 251}, true},
		{"Boundaries", UpdateBasics{Age: 120, WeightKg: 10, HeightCm: 250}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := State{}
			next, effects, err := Apply(start, tt.cmd)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProfile) {
					t.Fatalf("Apply() error = %v, want ErrInvalidProfile", err)
				}
				if len(effects) != 0 {
					t.Errorf("effects = %v, want none on error", effects)
				}
				if next != start {
					t.Errorf("state changed on error: %+v", next)
				}
				return
			}

			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if next.Profile.Age != tt.cmd.Age || next.Profile.WeightKg != tt.cmd.WeightKg {
				t.Errorf("profile = %+v, want basics from %+v", next.Profile, tt.cmd)
			}
			if len(effects) != 2 || effects[0] != EffectPersistProfile || effects[1] != EffectRevalidate {
				t.Errorf("effects = %v, want persist + revalidate", effects)
			}
		})
	}
}

func TestApply_UpdateBasicsTrimsName(t *testing.T) {
	next, _, err := Apply(State{}, UpdateBasics{Name: "  Ana  ", Age: 34, WeightKg: 62, HeightCm: 165})
	if err != nil {
		t.Fatal(err)
	}
	if next.Profile.Name != "Ana" {
		t.Errorf("Name = %q, want %q", next.Profile.Name, "Ana")
	}
	if !next.Complete {
		t.Error("non-diabetic profile with valid basics should be complete")
	}
}

func TestApply_ConfigureDiabetes(t *testing.T) {
	base, _, _ := Apply(State{}, UpdateBasics{Age: 30, WeightKg: 80, HeightCm: 180})

	next, _, err := Apply(base, ConfigureDiabetes{Diabetic: true, Type: models.DiabetesType1, DailyInsulin: ptr(40)})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if next.Profile.TargetGlucose == nil || *next.Profile.TargetGlucose != 110 {
		t.Errorf("TargetGlucose = %v, want default 110", next.Profile.TargetGlucose)
	}
	if !next.Complete {
		t.Error("expected complete profile")
	}

	ctx := next.Snapshot().Normalize()
	if ctx.CarbRatio == nil || *ctx.CarbRatio != 12.5 {
		t.Errorf("CarbRatio = %v, want 12.5", ctx.CarbRatio)
	}
	if ctx.Sensitivity != 45 {
		t.Errorf("Sensitivity = %v, want 45", ctx.Sensitivity)
	}

	cleared, _, err := Apply(next, ConfigureDiabetes{Diabetic: false, DailyInsulin: ptr(40)})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if cleared.Profile.Diabetic || cleared.Profile.DailyInsulin != nil || cleared.Profile.TargetGlucose != nil {
		t.Errorf("diabetes fields not cleared: %+v", cleared.Profile)
	}
}

func TestApply_ConfigureDiabetesValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  ConfigureDiabetes
	}{
		{"Target too low", ConfigureDiabetes{Diabetic: true, TargetGlucose: ptr(60)}},
		{"Target too high", ConfigureDiabetes{Diabetic: true, TargetGlucose: ptr(210)}},
		{"Daily insulin too low", ConfigureDiabetes{Diabetic: true, DailyInsulin: ptr(4)}},
		{"Daily insulin too high", ConfigureDiabetes{Diabetic: true, DailyInsulin: ptr(81)}},
		{"Zero ratio", ConfigureDiabetes{Diabetic: true, CarbRatio: ptr(0)}},
		{"Negative correction", ConfigureDiabetes{Diabetic: true, CorrectionFactor: ptr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Apply(State{}, tt.cmd); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("Apply() error = %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestApply_ConfigureDoesNotAliasInput(t *testing.T) {
	daily := 30.0
	next, _, err := Apply(State{}, ConfigureDiabetes{Diabetic: true, DailyInsulin: &daily})
	if err != nil {
		t.Fatal(err)
	}
	daily = 70
	if *next.Profile.DailyInsulin != 30 {
		t.Errorf("DailyInsulin = %v, want 30", *next.Profile.DailyInsulin)
	}
}

func TestApply_Reset(t *testing.T) {
	s, _, _ := Apply(State{}, UpdateBasics{Age: 30, WeightKg: 80, HeightCm: 180})
	next, effects, err := Apply(s, Reset{})
	if err != nil {
		t.Fatal(err)
	}
	if next.Profile.Age != 0 || next.Complete {
		t.Errorf("Reset state = %+v", next)
	}
	if len(effects) == 0 {
		t.Error("reset should request persistence")
	}
}

func TestIncompleteType1(t *testing.T) {
	s, _, _ := Apply(State{}, UpdateBasics{Age: 30, WeightKg: 80, HeightCm: 180})
	s, _, _ = Apply(s, ConfigureDiabetes{Diabetic: true, Type: models.DiabetesType1})
	if s.Complete {
		t.Error("type 1 profile without insulin data should be incomplete")
	}
}

func TestEstimateDailyInsulin(t *testing.T) {
	if got := EstimateDailyInsulin(80); math.Abs(got-44.0924) > 1e-3 {
		t.Errorf("EstimateDailyInsulin(80) = %f, want 44.09", got)
	}

	s := NewState(models.UserProfile{Age: 30, WeightKg: 80, HeightCm: 180, Diabetic: true, DiabetesType: models.DiabetesType2})
	if _, ok := s.EstimatedDailyInsulin(); ok {
		t.Error("type 2 profile should not get a weight based estimate")
	}
	s.Profile.DiabetesType = models.DiabetesType1
	if _, ok := s.EstimatedDailyInsulin(); !ok {
		t.Error("type 1 profile should get a weight based estimate")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewState(models.UserProfile{TargetGlucose: ptr(100)})
	snap := s.Snapshot()
	*snap.TargetGlucose = 150
	if *s.Profile.TargetGlucose != 100 {
		t.Error("Snapshot shares pointers with state")
	}
}

func TestBMICategory(t *testing.T) {
	tests := []struct {
		bmi      float64
		expected string
	}{
		{0, "Unknown"},
		{17, "Underweight"},
		{22, "Normal weight"},
		{27, "Overweight"},
		{32, "Obesity class I"},
		{37, "Obesity class II"},
		{45, "Obesity class III"},
	}
	for _, tt := range tests {
		if got := BMICategory(tt.bmi); got != tt.expected {
			t.Errorf("BMICategory(%v) = %s, want %s", tt.bmi, got, tt.expected)
		}
	}
}

func TestReport(t *testing.T) {
	s := NewState(models.UserProfile{
		Name: "Ana", Age: 34, WeightKg: 62, HeightCm: 165,
		Diabetic: true, DiabetesType: models.DiabetesType1,
		TargetGlucose: ptr(100), DailyInsulin: ptr(25),
	})

	report := Report(s)
	for _, want := range []string{"Ana", "Normal weight", "type1", "Target glucose: 100", "1:20.0", "72 mg/dL"} {
		if !strings.Contains(report, want) {
			t.Errorf("Report() missing %q:\n%s", want, report)
		}
	}

	sum := Summarize(s)
	if sum.CarbRatio == nil || *sum.CarbRatio != 20 {
		t.Errorf("Summary.CarbRatio = %v, want 20", sum.CarbRatio)
	}
	if sum.EstimatedTDD == nil {
		t.Error("expected estimated daily insulin for type 1")
	}
}
