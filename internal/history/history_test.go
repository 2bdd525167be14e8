package history

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/mrcode/glucopredict/internal/models"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func readingsOf(values ...float64) []models.GlucoseReading {
	out := make([]models.GlucoseReading, len(values))
	for i, v := range values {
		out[i] = models.GlucoseReading{ID: string(rune('a' + i)), Value: v, Time: baseTime.Add(time.Duration(i) * 5 * time.Minute)}
	}
	return out
}

func TestApply_RecordReading(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		wantErr     bool
		wantEffects []Effect
	}{
		{"In range", 120, false, []Effect{EffectPersistReadings}},
		{"Lower bound", 50, false, []Effect{EffectPersistReadings, EffectNotifyStatus}},
		{"Upper bound", 400, false, []Effect{EffectPersistReadings, EffectNotifyStatus}},
		{"High needs attention", 181, false, []Effect{EffectPersistReadings, EffectNotifyStatus}},
		{"Too low", 49.9, true, nil},
		{"Too high", 401, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := State{}
			next, effects, err := Apply(start, RecordReading{Value: tt.value, Time: baseTime})

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReading) {
					t.Fatalf("Apply() error = %v, want ErrInvalidReading", err)
				}
				if len(next.Readings) != 0 || len(effects) != 0 {
					t.Errorf("state or effects changed on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(next.Readings) != 1 {
				t.Fatalf("got %d readings, want 1", len(next.Readings))
			}
			r := next.Readings[0]
			if r.ID == "" || r.Source != models.SourceManual {
				t.Errorf("reading = %+v, want generated ID and manual source", r)
			}
			if len(effects) != len(tt.wantEffects) {
				t.Fatalf("effects = %v, want %v", effects, tt.wantEffects)
			}
			for i := range effects {
				if effects[i] != tt.wantEffects[i] {
					t.Errorf("effects[%d] = %s, want %s", i, effects[i], tt.wantEffects[i])
				}
			}
		})
	}
}

func TestApply_RecordReadingKeepsTimeOrder(t *testing.T) {
	s := State{Readings: readingsOf(100, 110)}
	next, _, err := Apply(s, RecordReading{Value: 90, Time: baseTime.Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if next.Readings[0].Value != 90 {
		t.Errorf("first reading = %v, want the back-dated 90", next.Readings[0].Value)
	}
	if len(s.Readings) != 2 || s.Readings[0].Value != 100 {
		t.Error("input state was modified")
	}
}

func TestApply_RecordReadingAtCapacity(t *testing.T) {
	full := State{Readings: make([]models.GlucoseReading, MaxReadings)}
	for i := range full.Readings {
		full.Readings[i] = models.GlucoseReading{
			ID:     fmt.Sprintf("r%d", i),
			Value:  120,
			Time:   baseTime.Add(time.Duration(i) * 5 * time.Minute),
			Source: models.SourceNightscout,
		}
	}

	t.Run("Backfilled reading older than everything is dropped", func(t *testing.T) {
		next, _, err := Apply(full, RecordReading{ID: "backfill", Value: 100, Time: baseTime.Add(-24 * time.Hour)})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(next.Readings) != MaxReadings {
			t.Fatalf("len = %d, want %d", len(next.Readings), MaxReadings)
		}
		if next.Readings[0].ID != "r0" {
			t.Errorf("oldest = %s, want r0", next.Readings[0].ID)
		}
		last := next.Readings[len(next.Readings)-1]
		if last.ID != fmt.Sprintf("r%d", MaxReadings-1) {
			t.Errorf("newest = %s, want the newest stored reading", last.ID)
		}
	})

	t.Run("New reading evicts the oldest", func(t *testing.T) {
		at := full.Readings[MaxReadings-1].Time.Add(5 * time.Minute)
		next, _, err := Apply(full, RecordReading{ID: "new", Value: 100, Time: at})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(next.Readings) != MaxReadings {
			t.Fatalf("len = %d, want %d", len(next.Readings), MaxReadings)
		}
		if next.Readings[0].ID != "r1" || next.Readings[MaxReadings-1].ID != "new" {
			t.Errorf("oldest = %s newest = %s, want r1 and new", next.Readings[0].ID, next.Readings[MaxReadings-1].ID)
		}
	})
}

func TestAppendCapped(t *testing.T) {
	items := []int{1, 2, 3}
	got := appendCapped(items, 4, 3)
	if len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Errorf("appendCapped() = %v, want [2 3 4]", got)
	}
	if items[0] != 1 {
		t.Error("input slice was modified")
	}
}

func predictionFixture() *models.GlucosePrediction {
	dose := 2.5
	return &models.GlucosePrediction{
		Peak:           models.GlucosePoint{Minute: 75, Glucose: 168},
		InitialGlucose: 105,
		GlycemicLoad:   21,
		Macros:         models.NewMacronutrients(55, 20, 10, 4),
		Order:          models.OrderVegetablesFirst,
		MealTime:       time.Date(2025, 3, 10, 13, 15, 0, 0, time.UTC),
		Dose:           &dose,
	}
}

func TestApply_RecordMeal(t *testing.T) {
	next, effects, err := Apply(State{}, RecordMeal{Foods: []string{"Rice", "Broccoli"}, Prediction: predictionFixture()})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(effects) != 1 || effects[0] != EffectPersistMeals {
		t.Errorf("effects = %v, want persist meals", effects)
	}

	meal := next.Meals[0]
	if meal.MealType != models.MealLunch {
		t.Errorf("MealType = %s, want lunch from meal time", meal.MealType)
	}
	if meal.PredictedPeak != 168 || meal.Carbs != 55 || meal.Order != models.OrderVegetablesFirst {
		t.Errorf("meal = %+v", meal)
	}
	if meal.Effectiveness != models.EffectivenessPending {
		t.Errorf("Effectiveness = %s, want pending", meal.Effectiveness)
	}

	if _, _, err := Apply(State{}, RecordMeal{}); !errors.Is(err, ErrInvalidMeal) {
		t.Errorf("missing prediction error = %v, want ErrInvalidMeal", err)
	}
	if _, _, err := Apply(State{}, RecordMeal{MealType: "brunch", Prediction: predictionFixture()}); !errors.Is(err, ErrInvalidMeal) {
		t.Errorf("unknown meal type error = %v, want ErrInvalidMeal", err)
	}
}

func TestApply_RecordActualPeak(t *testing.T) {
	s, _, _ := Apply(State{}, RecordMeal{ID: "meal-1", Prediction: predictionFixture()})

	tests := []struct {
		peak     float64
		expected models.Effectiveness
	}{
		{175, models.EffectivenessExcellent},
		{150, models.EffectivenessGood},
		{190, models.EffectivenessFair},
		{230, models.EffectivenessPoor},
	}

	for _, tt := range tests {
		next, effects, err := Apply(s, RecordActualPeak{MealID: "meal-1", Peak: tt.peak})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		meal, _ := next.Meal("meal-1")
		if meal.Effectiveness != tt.expected {
			t.Errorf("peak %v: Effectiveness = %s, want %s", tt.peak, meal.Effectiveness, tt.expected)
		}
		if len(effects) != 1 || effects[0] != EffectPersistMeals {
			t.Errorf("effects = %v", effects)
		}
	}

	original, _ := s.Meal("meal-1")
	if original.ActualPeak != nil {
		t.Error("input state was modified")
	}

	if _, _, err := Apply(s, RecordActualPeak{MealID: "missing", Peak: 150}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing meal error = %v, want ErrNotFound", err)
	}
	if _, _, err := Apply(s, RecordActualPeak{MealID: "meal-1", Peak: 20}); !errors.Is(err, ErrInvalidReading) {
		t.Errorf("invalid peak error = %v, want ErrInvalidReading", err)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		diff     float64
		expected models.Effectiveness
	}{
		{0, models.EffectivenessExcellent},
		{9.9, models.EffectivenessExcellent},
		{10, models.EffectivenessGood},
		{19.9, models.EffectivenessGood},
		{20, models.EffectivenessFair},
		{29.9, models.EffectivenessFair},
		{30, models.EffectivenessPoor},
	}
	for _, tt := range tests {
		if got := Score(tt.diff); got != tt.expected {
			t.Errorf("Score(%v) = %s, want %s", tt.diff, got, tt.expected)
		}
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected models.TrendDirection
	}{
		{"No readings", nil, models.TrendStable},
		{"Single reading", []float64{120}, models.TrendStable},
		{"Rising pair", []float64{100, 110}, models.TrendRising},
		{"Rising last three", []float64{200, 100, 108, 120}, models.TrendRising},
		{"Falling", []float64{150, 140, 128}, models.TrendFalling},
		{"Stable", []float64{120, 124, 126}, models.TrendStable},
		{"Exactly five is stable", []float64{100, 105, 110}, models.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(readingsOf(tt.values...)); got != tt.expected {
				t.Errorf("Trend() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(readingsOf(60, 100, 140, 200), "2025-03-10")

	if stats.Count != 4 {
		t.Errorf("Count = %d, want 4", stats.Count)
	}
	if stats.Mean != 125 {
		t.Errorf("Mean = %f, want 125", stats.Mean)
	}
	if stats.Min != 60 || stats.Max != 200 {
		t.Errorf("Min/Max = %f/%f, want 60/200", stats.Min, stats.Max)
	}
	wantSD := math.Sqrt((65*65 + 25*25 + 15*15 + 75*75) / 4.0)
	if math.Abs(stats.StdDev-wantSD) > 1e-9 {
		t.Errorf("StdDev = %f, want %f", stats.StdDev, wantSD)
	}
	if stats.TimeInRange != 50 {
		t.Errorf("TimeInRange = %f, want 50", stats.TimeInRange)
	}
	if math.Abs(stats.GMI-(3.31+0.02392*125)) > 1e-9 {
		t.Errorf("GMI = %f", stats.GMI)
	}
	if math.Abs(stats.CV-wantSD/125*100) > 1e-9 {
		t.Errorf("CV = %f", stats.CV)
	}

	empty := Summarize(nil, "2025-03-10")
	if empty.Count != 0 || empty.Mean != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestComputeDayStats(t *testing.T) {
	readings := []models.GlucoseReading{
		{Value: 300, Time: baseTime.Add(-24 * time.Hour)},
		{Value: 100, Time: baseTime},
		{Value: 120, Time: baseTime.Add(time.Hour)},
	}

	stats := ComputeDayStats(readings, baseTime.Add(2*time.Hour))
	if stats.Count != 2 || stats.Mean != 110 {
		t.Errorf("stats = %+v, want 2 readings with mean 110", stats)
	}
	if stats.Date != "2025-03-10" {
		t.Errorf("Date = %s", stats.Date)
	}
}

func TestRecentAverage(t *testing.T) {
	readings := readingsOf(100, 120, 140)
	now := baseTime.Add(10 * time.Minute)

	if got := RecentAverage(readings, now, 3*time.Hour, 110); got != 120 {
		t.Errorf("RecentAverage() = %f, want 120", got)
	}
	if got := RecentAverage(readings, now.Add(24*time.Hour), 3*time.Hour, 110); got != 110 {
		t.Errorf("RecentAverage() = %f, want fallback 110", got)
	}
}

func TestEffectivenessSummary(t *testing.T) {
	peak := 150.0
	meals := []models.MealRecord{
		{Effectiveness: models.EffectivenessPending},
		{Effectiveness: models.EffectivenessGood, ActualPeak: &peak},
		{Effectiveness: models.EffectivenessGood, ActualPeak: &peak},
		{Effectiveness: models.EffectivenessPoor, ActualPeak: &peak},
	}
	summary := EffectivenessSummary(meals)
	if summary[models.EffectivenessGood] != 2 || summary[models.EffectivenessPoor] != 1 || summary[models.EffectivenessPending] != 0 {
		t.Errorf("EffectivenessSummary() = %v", summary)
	}
}

func TestRecentMeals(t *testing.T) {
	s := State{Meals: []models.MealRecord{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	recent := s.RecentMeals(2)
	if len(recent) != 2 || recent[0].ID != "3" || recent[1].ID != "2" {
		t.Errorf("RecentMeals(2) = %v", recent)
	}
	if len(s.RecentMeals(0)) != 3 {
		t.Error("RecentMeals(0) should return all meals")
	}
}
