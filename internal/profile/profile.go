// Package profile manages the user profile through explicit state transitions.
// Apply never performs I/O; it returns the effects the caller must execute.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrcode/glucopredict/internal/models"
)

// ErrInvalidProfile is wrapped by every validation failure
var ErrInvalidProfile = errors.New("invalid profile")

// Accepted ranges
const (
	MinAge          = 1
	MaxAge          = 120
	MinWeightKg     = 10.0
	MaxWeightKg     = 300.0
	MinHeightCm     = 50.0
	MaxHeightCm     = 250.0
	MinTarget       = 70.0
	MaxTarget       = 200.0
	MinDailyInsulin = 5.0
	MaxDailyInsulin = 80.0
)

const lbPerKg = 2.20462

// Effect is a side effect the caller must run after a transition
type Effect string

const (
	// EffectPersistProfile asks the caller to store the new profile
	EffectPersistProfile Effect = "persist_profile"
	// EffectRevalidate marks predictions derived from the old profile as stale
	EffectRevalidate Effect = "revalidate"
)

// State is the current profile and whether setup is complete
type State struct {
	Profile  models.UserProfile `json:"profile"`
	Complete bool               `json:"complete"`
}

// NewState wraps a stored profile
func NewState(p models.UserProfile) State {
	return State{Profile: p, Complete: isComplete(p)}
}

// Command is a profile change request
type Command interface {
	apply(p models.UserProfile) (models.UserProfile, error)
}

// UpdateBasics sets the physical data of the user
type UpdateBasics struct {
	Name     string  `json:"name"`
	Age      int     `json:"age"`
	WeightKg float64 `json:"weightKg"`
	HeightCm float64 `json:"heightCm"`
}

func (c UpdateBasics) apply(p models.UserProfile) (models.UserProfile, error) {
	if err := ValidateBasics(c.Age, c.WeightKg, c.HeightCm); err != nil {
		return p, err
	}
	p.Name = strings.TrimSpace(c.Name)
	p.Age = c.Age
	p.WeightKg = c.WeightKg
	p.HeightCm = c.HeightCm
	return p, nil
}

// ConfigureDiabetes sets or clears the diabetes configuration
type ConfigureDiabetes struct {
	Diabetic         bool                `json:"diabetic"`
	Type             models.DiabetesType `json:"type,omitempty"`
	TargetGlucose    *float64            `json:"targetGlucose,omitempty"`
	DailyInsulin     *float64            `json:"dailyInsulin,omitempty"`
	CarbRatio        *float64            `json:"carbRatio,omitempty"`
	CorrectionFactor *float64            `json:"correctionFactor,omitempty"`
}

func (c ConfigureDiabetes) apply(p models.UserProfile) (models.UserProfile, error) {
	if !c.Diabetic {
		p.Diabetic = false
		p.DiabetesType = models.DiabetesNone
		p.TargetGlucose = nil
		p.DailyInsulin = nil
		p.CarbRatio = nil
		p.CorrectionFactor = nil
		return p, nil
	}

	target := models.DefaultTargetGlucose
	if c.TargetGlucose != nil {
		target = *c.TargetGlucose
	}
	if target < MinTarget || target > MaxTarget {
		return p, fmt.Errorf("%w: target glucose must be between %.0f and %.0f mg/dL", ErrInvalidProfile, MinTarget, MaxTarget)
	}
	if c.DailyInsulin != nil && (*c.DailyInsulin < MinDailyInsulin || *c.DailyInsulin > MaxDailyInsulin) {
		return p, fmt.Errorf("%w: daily insulin must be between %.0f and %.0f units", ErrInvalidProfile, MinDailyInsulin, MaxDailyInsulin)
	}
	if c.CarbRatio != nil && *c.CarbRatio <= 0 {
		return p, fmt.Errorf("%w: carb ratio must be positive", ErrInvalidProfile)
	}
	if c.CorrectionFactor != nil && *c.CorrectionFactor <= 0 {
		return p, fmt.Errorf("%w: correction factor must be positive", ErrInvalidProfile)
	}

	p.Diabetic = true
	p.DiabetesType = c.Type
	p.TargetGlucose = &target
	p.DailyInsulin = copyPtr(c.DailyInsulin)
	p.CarbRatio = copyPtr(c.CarbRatio)
	p.CorrectionFactor = copyPtr(c.CorrectionFactor)
	return p, nil
}

// Reset clears the profile
type Reset struct{}

func (Reset) apply(models.UserProfile) (models.UserProfile, error) {
	return models.UserProfile{}, nil
}

// Apply runs a command against the state. On a validation error the state is
// returned unchanged with no effects.
func Apply(s State, cmd Command) (State, []Effect, error) {
	next, err := cmd.apply(s.Profile)
	if err != nil {
		return s, nil, err
	}
	return NewState(next), []Effect{EffectPersistProfile, EffectRevalidate}, nil
}

// ValidateBasics checks age, weight and height ranges
func ValidateBasics(age int, weightKg, heightCm float64) error {
	switch {
	case age < MinAge || age > MaxAge:
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidProfile, MinAge, MaxAge)
	case weightKg < MinWeightKg || weightKg > MaxWeightKg:
		return fmt.Errorf("%w: weight must be between %.0f and %.0f kg", ErrInvalidProfile, MinWeightKg, MaxWeightKg)
	case heightCm < MinHeightCm || heightCm > MaxHeightCm:
		return fmt.Errorf("%w: height must be between %.0f and %.0f cm", ErrInvalidProfile, MinHeightCm, MaxHeightCm)
	}
	return nil
}

func isComplete(p models.UserProfile) bool {
	if ValidateBasics(p.Age, p.WeightKg, p.HeightCm) != nil {
		return false
	}
	if !p.Diabetic {
		return true
	}
	if p.TargetGlucose == nil {
		return false
	}
	// Type 1 users need some way to derive a carb ratio
	if p.DiabetesType == models.DiabetesType1 {
		return p.DailyInsulin != nil || p.CarbRatio != nil
	}
	return true
}

// EstimateDailyInsulin estimates total daily insulin from body weight (weight in lb / 4)
func EstimateDailyInsulin(weightKg float64) float64 {
	return weightKg * lbPerKg / 4
}

// EstimatedDailyInsulin returns the weight-based estimate for type 1 users
func (s State) EstimatedDailyInsulin() (float64, bool) {
	if !s.Profile.Diabetic || s.Profile.DiabetesType != models.DiabetesType1 || s.Profile.WeightKg <= 0 {
		return 0, false
	}
	return EstimateDailyInsulin(s.Profile.WeightKg), true
}

// Snapshot returns a copy of the profile safe to hand to the prediction engine
func (s State) Snapshot() models.UserProfile {
	p := s.Profile
	p.CarbRatio = copyPtr(p.CarbRatio)
	p.CorrectionFactor = copyPtr(p.CorrectionFactor)
	p.TargetGlucose = copyPtr(p.TargetGlucose)
	p.DailyInsulin = copyPtr(p.DailyInsulin)
	return p
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
