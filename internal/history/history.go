// Package history records glucose readings and meals through explicit state
// transitions. Apply returns the effects the caller must execute; storage lives
// behind the Repository interface.
package history

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mrcode/glucopredict/internal/models"
)

var (
	// ErrInvalidReading is returned for readings outside 50-400 mg/dL
	ErrInvalidReading = errors.New("invalid glucose reading")
	// ErrNotFound is returned when a meal or stored document does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidMeal is returned when a meal cannot be recorded
	ErrInvalidMeal = errors.New("invalid meal")
)

// Retention limits
const (
	MaxReadings = 5000
	MaxMeals    = 1000
)

// Effect is a side effect the caller must run after a transition
type Effect string

const (
	EffectPersistReadings Effect = "persist_readings"
	EffectPersistMeals    Effect = "persist_meals"
	// EffectNotifyStatus asks the caller to surface a reading outside 80-180 mg/dL
	EffectNotifyStatus Effect = "notify_status"
)

// State is the full history, oldest entries first
type State struct {
	Readings []models.GlucoseReading `json:"readings"`
	Meals    []models.MealRecord     `json:"meals"`
}

// Command is a history change request
type Command interface {
	apply(s State) (State, []Effect, error)
}

// RecordReading adds a glucose measurement
type RecordReading struct {
	ID     string
	Value  float64
	Time   time.Time
	Source models.ReadingSource
}

func (c RecordReading) apply(s State) (State, []Effect, error) {
	if c.Value < models.MinReadingMgDL || c.Value > models.MaxReadingMgDL {
		return s, nil, fmt.Errorf("%w: %.0f mg/dL is outside %.0f-%.0f", ErrInvalidReading, c.Value, models.MinReadingMgDL, models.MaxReadingMgDL)
	}

	reading := models.GlucoseReading{
		ID:     c.ID,
		Value:  c.Value,
		Time:   c.Time,
		Source: c.Source,
	}
	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	if reading.Time.IsZero() {
		reading.Time = time.Now()
	}
	if reading.Source == "" {
		reading.Source = models.SourceManual
	}

	// Sort before trimming so a backfilled reading never evicts a newer one
	readings := make([]models.GlucoseReading, 0, len(s.Readings)+1)
	readings = append(append(readings, s.Readings...), reading)
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Time.Before(readings[j].Time)
	})
	if len(readings) > MaxReadings {
		readings = readings[len(readings)-MaxReadings:]
	}
	next := State{Readings: readings, Meals: s.Meals}

	effects := []Effect{EffectPersistReadings}
	if NeedsAttention(reading.Value) {
		effects = append(effects, EffectNotifyStatus)
	}
	return next, effects, nil
}

// RecordMeal stores a meal with the prediction made for it
type RecordMeal struct {
	ID         string
	Time       time.Time
	MealType   models.MealType
	Foods      []string
	Prediction *models.GlucosePrediction
}

func (c RecordMeal) apply(s State) (State, []Effect, error) {
	if c.Prediction == nil {
		return s, nil, fmt.Errorf("%w: missing prediction", ErrInvalidMeal)
	}

	at := c.Time
	if at.IsZero() {
		at = c.Prediction.MealTime
	}
	mealType := c.MealType
	if mealType == "" {
		mealType = models.MealTypeAt(at)
	}
	if !mealType.IsValid() {
		return s, nil, fmt.Errorf("%w: unknown meal type %q", ErrInvalidMeal, mealType)
	}

	record := models.MealRecord{
		ID:             c.ID,
		Time:           at,
		MealType:       mealType,
		Order:          c.Prediction.Order,
		Foods:          append([]string(nil), c.Foods...),
		InitialGlucose: c.Prediction.InitialGlucose,
		PredictedPeak:  c.Prediction.Peak.Glucose,
		GlycemicLoad:   c.Prediction.GlycemicLoad,
		Carbs:          c.Prediction.Macros.Carbs,
		Dose:           c.Prediction.Dose,
		Effectiveness:  models.EffectivenessPending,
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	next := State{Readings: s.Readings, Meals: appendCapped(s.Meals, record, MaxMeals)}
	return next, []Effect{EffectPersistMeals}, nil
}

// RecordActualPeak stores the measured peak of a meal and scores the prediction
type RecordActualPeak struct {
	MealID string
	Peak   float64
}

func (c RecordActualPeak) apply(s State) (State, []Effect, error) {
	if c.Peak < models.MinReadingMgDL || c.Peak > models.MaxReadingMgDL {
		return s, nil, fmt.Errorf("%w: %.0f mg/dL is outside %.0f-%.0f", ErrInvalidReading, c.Peak, models.MinReadingMgDL, models.MaxReadingMgDL)
	}

	for i, meal := range s.Meals {
		if meal.ID != c.MealID {
			continue
		}
		meals := append([]models.MealRecord(nil), s.Meals...)
		peak := c.Peak
		meal.ActualPeak = &peak
		diff, _ := meal.PredictionError()
		meal.Effectiveness = Score(diff)
		meals[i] = meal
		return State{Readings: s.Readings, Meals: meals}, []Effect{EffectPersistMeals}, nil
	}

	return s, nil, fmt.Errorf("meal %s: %w", c.MealID, ErrNotFound)
}

// Apply runs a command against the state. The input state is never modified.
func Apply(s State, cmd Command) (State, []Effect, error) {
	return cmd.apply(s)
}

// Score grades a prediction error in mg/dL
func Score(diff float64) models.Effectiveness {
	switch {
	case diff < 10:
		return models.EffectivenessExcellent
	case diff < 20:
		return models.EffectivenessGood
	case diff < 30:
		return models.EffectivenessFair
	default:
		return models.EffectivenessPoor
	}
}

// NeedsAttention reports whether a reading is outside 80-180 mg/dL
func NeedsAttention(mgdl float64) bool {
	return mgdl < 80 || mgdl > 180
}

// Meal returns a recorded meal by ID
func (s State) Meal(id string) (models.MealRecord, bool) {
	for _, m := range s.Meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.MealRecord{}, false
}

// LastReading returns the most recent reading
func (s State) LastReading() (models.GlucoseReading, bool) {
	if len(s.Readings) == 0 {
		return models.GlucoseReading{}, false
	}
	return s.Readings[len(s.Readings)-1], true
}

// RecentMeals returns up to n meals, newest first
func (s State) RecentMeals(n int) []models.MealRecord {
	if n <= 0 || n > len(s.Meals) {
		n = len(s.Meals)
	}
	out := make([]models.MealRecord, 0, n)
	for i := len(s.Meals) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.Meals[i])
	}
	return out
}

// appendCapped returns a new slice with v appended, dropping the oldest items beyond limit
func appendCapped[T any](items []T, v T, limit int) []T {
	out := make([]T, 0, min(len(items)+1, limit))
	start := max(0, len(items)+1-limit)
	out = append(out, items[start:]...)
	return append(out, v)
}
