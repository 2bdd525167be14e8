// Package app wires the engine, catalog, history, profile, notifications and
// Nightscout into the operations exposed by the CLI and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mrcode/glucopredict/internal/catalog"
	"github.com/mrcode/glucopredict/internal/history"
	"github.com/mrcode/glucopredict/internal/insulin"
	"github.com/mrcode/glucopredict/internal/models"
	"github.com/mrcode/glucopredict/internal/prediction"
	"github.com/mrcode/glucopredict/internal/profile"
)

// ErrInvalidInput is returned for requests that cannot be interpreted
var ErrInvalidInput = errors.New("invalid input")

// ErrNoPrediction is returned when no prediction is cached
var ErrNoPrediction = errors.New("no prediction available")

// Readings from Nightscout older than this are not used as current glucose
const staleAfter = 15 * time.Minute

// Window of the recent glucose average
const recentWindow = 3 * time.Hour

// GlucoseSource is a remote glucose source and meal sink such as Nightscout
type GlucoseSource interface {
	TestConnection(ctx context.Context) error
	GetCurrentEntry(ctx context.Context) (*models.GlucoseEntry, error)
	GetReadingsSince(ctx context.Context, from time.Time) ([]models.GlucoseReading, error)
	GetTreatments(ctx context.Context, hours int) ([]models.Treatment, error)
	PostTreatment(ctx context.Context, t *models.Treatment) error
}

// Notifier raises alerts for readings and predictions
type Notifier interface {
	CheckReading(reading models.GlucoseReading) error
	CheckPrediction(prediction *models.GlucosePrediction) error
}

// Options configures a Service. Only Catalog and Repository are required.
type Options struct {
	Settings   *models.Settings
	Catalog    *catalog.Catalog
	Repository history.Repository
	Notifier   Notifier
	Source     GlucoseSource
	Logger     *slog.Logger
}

// Service runs every user-facing operation
type Service struct {
	settings  *models.Settings
	catalog   *catalog.Catalog
	predictor *prediction.Predictor
	repo      history.Repository
	notifier  Notifier
	source    GlucoseSource
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	history history.State
	profile profile.State
	last    *models.GlucosePrediction
}

// New creates a service and loads stored history and profile
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Catalog == nil || opts.Repository == nil {
		return nil, fmt.Errorf("catalog and repository are required")
	}
	if opts.Settings == nil {
		opts.Settings = models.DefaultSettings()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		settings:  opts.Settings,
		catalog:   opts.Catalog,
		predictor: prediction.NewPredictor(),
		repo:      opts.Repository,
		notifier:  opts.Notifier,
		source:    opts.Source,
		logger:    opts.Logger,
		now:       time.Now,
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	s.history = state

	stored, err := s.repo.LoadProfile(ctx)
	switch {
	case errors.Is(err, history.ErrNotFound):
		s.profile = profile.NewState(models.UserProfile{})
	case err != nil:
		return nil, fmt.Errorf("failed to load profile: %w", err)
	default:
		s.profile = profile.NewState(stored)
	}

	s.logger.Debug("service ready",
		"foods", s.catalog.Len(),
		"readings", len(state.Readings),
		"meals", len(state.Meals),
		"profile_complete", s.profile.Complete,
	)
	return s, nil
}

// Settings returns a copy of the current settings
func (s *Service) Settings() *models.Settings {
	return s.settings.Clone()
}

// Foods lists catalog foods matching query and category. Empty filters match everything.
func (s *Service) Foods(query string, category models.FoodCategory) []models.Food {
	switch {
	case query == "" && category == "":
		return s.catalog.All()
	case query == "":
		return s.catalog.ByCategory(category)
	}

	foods := s.catalog.Search(query)
	if category != "" {
		foods = lo.Filter(foods, func(f models.Food, _ int) bool { return f.Category == category })
	}
	return foods
}

// Categories lists the food categories present in the catalog
func (s *Service) Categories() []models.FoodCategory {
	return s.catalog.Categories()
}

// MealInput describes a meal to predict or record
type MealInput struct {
	Foods          []catalog.Selection `json:"foods"`
	Order          string              `json:"order,omitempty"`
	CurrentGlucose *float64            `json:"currentGlucose,omitempty"` // mg/dL, looked up when absent
	MealTime       time.Time           `json:"mealTime,omitempty"`
	MealType       models.MealType     `json:"mealType,omitempty"`
}

// request resolves a meal input into an engine request
func (s *Service) request(ctx context.Context, in MealInput) (prediction.Request, error) {
	portions, err := s.catalog.Portions(in.Foods)
	if err != nil {
		return prediction.Request{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	order := s.settings.Clone().DefaultMealOrder
	if in.Order != "" {
		if order, err = models.ParseMealOrder(in.Order); err != nil {
			return prediction.Request{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	current := 0.0
	if in.CurrentGlucose != nil {
		current = *in.CurrentGlucose
	} else {
		current, _ = s.CurrentGlucose(ctx)
	}

	s.mu.RLock()
	snapshot := s.profile.Snapshot()
	s.mu.RUnlock()

	return prediction.Request{
		Portions:       portions,
		Profile:        snapshot,
		CurrentGlucose: current,
		MealTime:       in.MealTime,
		Order:          order,
	}, nil
}

// Predict runs the engine for a meal and alerts when the predicted peak is high
func (s *Service) Predict(ctx context.Context, in MealInput) (*models.GlucosePrediction, error) {
	req, err := s.request(ctx, in)
	if err != nil {
		return nil, err
	}

	result := s.predictor.Predict(req)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	s.logger.Debug("prediction",
		"order", result.Order,
		"glycemic_load", result.GlycemicLoad,
		"peak", result.Peak.Glucose,
		"peak_minute", result.Peak.Minute,
		"band", result.PeakBand,
	)

	if s.notifier != nil {
		if err := s.notifier.CheckPrediction(result); err != nil {
			s.logger.Warn("prediction alert failed", "error", err)
		}
	}
	return result, nil
}

// LastPrediction returns the most recent prediction made with the current profile
func (s *Service) LastPrediction() (*models.GlucosePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, ErrNoPrediction
	}
	return s.last, nil
}

// Compare predicts the meal under every order
func (s *Service) Compare(ctx context.Context, in MealInput) (prediction.Comparison, error) {
	req, err := s.request(ctx, in)
	if err != nil {
		return prediction.Comparison{}, err
	}
	return s.predictor.CompareOrders(req), nil
}

// Composition analyzes the macronutrients of a meal
func (s *Service) Composition(foods []catalog.Selection) (prediction.Composition, models.Macronutrients, error) {
	portions, err := s.catalog.Portions(foods)
	if err != nil {
		return prediction.Composition{}, models.Macronutrients{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	macros := prediction.Aggregate(portions)
	return prediction.AnalyzeComposition(macros), macros, nil
}

// DoseInput overrides profile values for a single dose calculation
type DoseInput struct {
	Carbs          float64  `json:"carbs"`
	CurrentGlucose *float64 `json:"currentGlucose,omitempty"`
	CarbRatio      *float64 `json:"carbRatio,omitempty"`
	Sensitivity    *float64 `json:"sensitivity,omitempty"`
	TargetGlucose  *float64 `json:"targetGlucose,omitempty"`
}

// Dose calculates an insulin dose from the profile, overridden by any explicit values
func (s *Service) Dose(ctx context.Context, in DoseInput) (models.DoseAdvice, error) {
	if in.Carbs < 0 {
		return models.DoseAdvice{}, fmt.Errorf("%w: carbs must not be negative", ErrInvalidInput)
	}

	s.mu.RLock()
	pctx := s.profile.Snapshot().Normalize()
	s.mu.RUnlock()

	ratio := models.DefaultCarbRatio
	if pctx.CarbRatio != nil {
		ratio = *pctx.CarbRatio
	}
	if in.CarbRatio != nil {
		ratio = *in.CarbRatio
	}
	sensitivity := pctx.Sensitivity
	if in.Sensitivity != nil {
		sensitivity = *in.Sensitivity
	}
	target := pctx.Target
	if in.TargetGlucose != nil {
		target = *in.TargetGlucose
	}

	current := 0.0
	if in.CurrentGlucose != nil {
		current = *in.CurrentGlucose
	} else {
		current, _ = s.CurrentGlucose(ctx)
	}

	return insulin.CheckDose(insulin.Calculate(in.Carbs, ratio, current, target, sensitivity), pctx.WeightKg), nil
}

// CurrentGlucose returns the freshest known glucose in mg/dL and where it came from:
// a recent Nightscout entry, else the last recorded reading, else the default target.
func (s *Service) CurrentGlucose(ctx context.Context) (float64, models.ReadingSource) {
	if s.source != nil {
		entry, err := s.source.GetCurrentEntry(ctx)
		switch {
		case err != nil:
			s.logger.Warn("nightscout unavailable, using recorded readings", "error", err)
		case s.now().Sub(entry.Time()) > staleAfter:
			s.logger.Debug("nightscout entry is stale", "time", entry.Time())
		default:
			return float64(entry.ValueMgDL()), models.SourceNightscout
		}
	}

	s.mu.RLock()
	last, ok := s.history.LastReading()
	s.mu.RUnlock()
	if ok {
		return last.Value, last.Source
	}
	return models.DefaultTargetGlucose, ""
}

// RecordReading stores a glucose measurement
func (s *Service) RecordReading(ctx context.Context, value float64, at time.Time, source models.ReadingSource) (models.GlucoseReading, error) {
	if at.IsZero() {
		at = s.now()
	}
	cmd := history.RecordReading{ID: uuid.New().String(), Value: value, Time: at, Source: source}
	next, err := s.applyHistory(ctx, cmd)
	if err != nil {
		return models.GlucoseReading{}, err
	}

	for i := len(next.Readings) - 1; i >= 0; i-- {
		if next.Readings[i].ID == cmd.ID {
			return next.Readings[i], nil
		}
	}
	return models.GlucoseReading{}, fmt.Errorf("reading %s: %w", cmd.ID, history.ErrNotFound)
}

// SyncNightscout imports Nightscout entries newer than since that are not yet recorded
func (s *Service) SyncNightscout(ctx context.Context, since time.Time) (int, error) {
	if s.source == nil {
		return 0, fmt.Errorf("%w: nightscout is not configured", ErrInvalidInput)
	}

	readings, err := s.source.GetReadingsSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch nightscout entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := lo.SliceToMap(s.history.Readings, func(r models.GlucoseReading) (string, struct{}) {
		return r.ID, struct{}{}
	})

	state := s.history
	imported := 0
	for _, r := range readings {
		if _, ok := known[r.ID]; ok {
			continue
		}
		next, _, err := history.Apply(state, history.RecordReading{ID: r.ID, Value: r.Value, Time: r.Time, Source: r.Source})
		if err != nil {
			s.logger.Debug("skipping nightscout entry", "id", r.ID, "error", err)
			continue
		}
		state = next
		imported++
	}

	if imported == 0 {
		return 0, nil
	}
	if err := s.repo.SaveReadings(ctx, state.Readings); err != nil {
		return 0, fmt.Errorf("failed to save readings: %w", err)
	}
	s.history = state

	s.logger.Info("imported nightscout readings", "count", imported)
	return imported, nil
}

// CheckNightscout reports whether Nightscout is configured and, if so, reachable
func (s *Service) CheckNightscout(ctx context.Context) (bool, error) {
	if s.source == nil {
		return false, nil
	}
	return true, s.source.TestConnection(ctx)
}

// Treatments from Nightscout can be listed for at most this many hours
const maxTreatmentHours = 7 * 24

// RecentTreatments lists the Nightscout treatments of the last hours, such as posted meals.
// Non-positive hours mean the last day. With mealsOnly, treatments without carbs are dropped.
func (s *Service) RecentTreatments(ctx context.Context, hours int, mealsOnly bool) ([]models.Treatment, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: nightscout is not configured", ErrInvalidInput)
	}
	if hours <= 0 {
		hours = 24
	}
	if hours > maxTreatmentHours {
		return nil, fmt.Errorf("%w: hours must be at most %d", ErrInvalidInput, maxTreatmentHours)
	}

	treatments, err := s.source.GetTreatments(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nightscout treatments: %w", err)
	}
	if mealsOnly {
		treatments = lo.Filter(treatments, func(t models.Treatment, _ int) bool { return t.HasCarbs() })
	}
	return treatments, nil
}

// RecordMeal predicts a meal, stores it in history and optionally posts it to Nightscout
func (s *Service) RecordMeal(ctx context.Context, in MealInput) (models.MealRecord, *models.GlucosePrediction, error) {
	result, err := s.Predict(ctx, in)
	if err != nil {
		return models.MealRecord{}, nil, err
	}

	names := lo.Map(in.Foods, func(sel catalog.Selection, _ int) string {
		if food, ok := s.catalog.Find(sel.Name); ok {
			return food.Name
		}
		return sel.Name
	})

	next, err := s.applyHistory(ctx, history.RecordMeal{
		Time:       result.MealTime,
		MealType:   in.MealType,
		Foods:      names,
		Prediction: result,
	})
	if err != nil {
		return models.MealRecord{}, nil, err
	}
	record := next.Meals[len(next.Meals)-1]

	settings := s.settings.Clone()
	if s.source != nil && settings.PostMealsNightscout {
		treatment := models.NewMealTreatment(record.Time, result.Macros, result.Dose, result.InitialGlucose, strings.Join(names, ", "))
		if err := s.source.PostTreatment(ctx, &treatment); err != nil {
			s.logger.Warn("failed to post meal to nightscout", "meal_id", record.ID, "error", err)
		}
	}

	return record, result, nil
}

// RecordActualPeak stores the measured peak of a meal and returns the scored record
func (s *Service) RecordActualPeak(ctx context.Context, mealID string, peak float64) (models.MealRecord, error) {
	next, err := s.applyHistory(ctx, history.RecordActualPeak{MealID: mealID, Peak: peak})
	if err != nil {
		return models.MealRecord{}, err
	}
	meal, _ := next.Meal(mealID)
	return meal, nil
}

// Today summarizes the current day
type Today struct {
	Stats         models.DayStats              `json:"stats"`
	Trend         models.TrendDirection        `json:"trend"`
	RecentAverage float64                      `json:"recentAverage"` // mg/dL over recentWindow
	LastReading   *models.GlucoseReading       `json:"lastReading,omitempty"`
	RecentMeals   []models.MealRecord          `json:"recentMeals"`
	Effectiveness map[models.Effectiveness]int `json:"effectiveness"`
}

// TodayStats returns the statistics for today's readings together with the trend and recent meals.
// The recent average falls back to the last reading, then the default target.
func (s *Service) TodayStats() Today {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	today := Today{
		Stats:         history.ComputeDayStats(s.history.Readings, now),
		Trend:         history.Trend(s.history.Readings),
		RecentMeals:   s.history.RecentMeals(5),
		Effectiveness: history.EffectivenessSummary(s.history.Meals),
	}

	fallback := models.DefaultTargetGlucose
	if last, ok := s.history.LastReading(); ok {
		today.LastReading = &last
		fallback = last.Value
	}
	today.RecentAverage = history.RecentAverage(s.history.Readings, now, recentWindow, fallback)
	return today
}

// Profile returns the current profile state
func (s *Service) Profile() profile.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// ProfileReport returns a printable profile summary
func (s *Service) ProfileReport() string {
	return profile.Report(s.Profile())
}

// UpdateProfile applies the commands in order. Nothing is stored if any command fails.
func (s *Service) UpdateProfile(ctx context.Context, cmds ...profile.Command) (profile.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.profile
	var effects []profile.Effect
	for _, cmd := range cmds {
		next, eff, err := profile.Apply(state, cmd)
		if err != nil {
			return s.profile, err
		}
		state = next
		effects = append(effects, eff...)
	}

	for _, effect := range lo.Uniq(effects) {
		switch effect {
		case profile.EffectPersistProfile:
			if err := s.repo.SaveProfile(ctx, state.Snapshot()); err != nil {
				return s.profile, fmt.Errorf("failed to save profile: %w", err)
			}
		case profile.EffectRevalidate:
			s.last = nil
		}
	}

	s.profile = state
	return state, nil
}

// applyHistory runs a history transition and executes its effects.
// The in-memory state only changes once persistence succeeded.
func (s *Service) applyHistory(ctx context.Context, cmd history.Command) (history.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, effects, err := history.Apply(s.history, cmd)
	if err != nil {
		return s.history, err
	}

	notify := false
	for _, effect := range effects {
		switch effect {
		case history.EffectPersistReadings:
			err = s.repo.SaveReadings(ctx, next.Readings)
		case history.EffectPersistMeals:
			err = s.repo.SaveMeals(ctx, next.Meals)
		case history.EffectNotifyStatus:
			notify = true
		}
		if err != nil {
			return s.history, fmt.Errorf("failed to persist history: %w", err)
		}
	}
	s.history = next

	if notify {
		if rc, ok := cmd.(history.RecordReading); ok {
			reading := models.GlucoseReading{ID: rc.ID, Value: rc.Value, Time: rc.Time, Source: rc.Source}
			s.logger.Info("glucose needs attention", "value", reading.Value)
			if s.notifier != nil {
				if err := s.notifier.CheckReading(reading); err != nil {
					s.logger.Warn("reading alert failed", "error", err)
				}
			}
		}
	}
	return next, nil
}
