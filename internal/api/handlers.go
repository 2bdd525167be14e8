package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mrcode/glucopredict/internal/app"
	"github.com/mrcode/glucopredict/internal/catalog"
	"github.com/mrcode/glucopredict/internal/chart"
	"github.com/mrcode/glucopredict/internal/models"
	"github.com/mrcode/glucopredict/internal/prediction"
	"github.com/mrcode/glucopredict/internal/profile"
)

// Handler serves the /api routes
type Handler struct {
	svc    *app.Service
	logger *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(svc *app.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListFoods handles GET /api/foods?q=&category=
func (h *Handler) ListFoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	foods := h.svc.Foods(q.Get("q"), models.FoodCategory(q.Get("category")))
	WriteJSON(w, http.StatusOK, foods, h.logger)
}

// ListCategories handles GET /api/foods/categories
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Categories(), h.logger)
}

// CurrentGlucoseResponse is the freshest known glucose value
type CurrentGlucoseResponse struct {
	Value  float64              `json:"value"` // mg/dL
	Source models.ReadingSource `json:"source,omitempty"`
}

// CurrentGlucose handles GET /api/glucose/current
func (h *Handler) CurrentGlucose(w http.ResponseWriter, r *http.Request) {
	value, source := h.svc.CurrentGlucose(r.Context())
	WriteJSON(w, http.StatusOK, CurrentGlucoseResponse{Value: value, Source: source}, h.logger)
}

// Predict handles POST /api/predictions
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var in app.MealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	result, err := h.svc.Predict(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, result, h.logger)
}

// LastPrediction handles GET /api/predictions/last
func (h *Handler) LastPrediction(w http.ResponseWriter, _ *http.Request) {
	result, err := h.svc.LastPrediction()
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, result, h.logger)
}

// Compare handles POST /api/predictions/compare
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var in app.MealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	comparison, err := h.svc.Compare(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, comparison, h.logger)
}

// Chart handles POST /api/predictions/chart?width=&height= and responds with a PNG
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var in app.MealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	opts := chart.OptionsFromSettings(h.svc.Settings())
	for key, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 100 || v > 4000 {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("%s must be between 100 and 4000", key), h.logger)
			return
		}
		*dst = v
	}

	result, err := h.svc.Predict(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	// Render first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, result, opts); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write chart", "error", err)
	}
}

// CompositionRequest lists the foods of a meal
type CompositionRequest struct {
	Foods []catalog.Selection `json:"foods"`
}

// CompositionResponse is the analysis of a meal
type CompositionResponse struct {
	Macros      models.Macronutrients  `json:"macros"`
	Composition prediction.Composition `json:"composition"`
}

// Composition handles POST /api/composition
func (h *Handler) Composition(w http.ResponseWriter, r *http.Request) {
	var req CompositionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	comp, macros, err := h.svc.Composition(req.Foods)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, CompositionResponse{Macros: macros, Composition: comp}, h.logger)
}

// Dose handles POST /api/insulin/dose
func (h *Handler) Dose(w http.ResponseWriter, r *http.Request) {
	var in app.DoseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	advice, err := h.svc.Dose(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, advice, h.logger)
}

// GetProfile handles GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, profile.Summarize(h.svc.Profile()), h.logger)
}

// ProfileUpdate groups the profile commands of one request. They apply in field order.
type ProfileUpdate struct {
	Reset    bool                       `json:"reset,omitempty"`
	Basics   *profile.UpdateBasics      `json:"basics,omitempty"`
	Diabetes *profile.ConfigureDiabetes `json:"diabetes,omitempty"`
}

// UpdateProfile handles PUT /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var cmds []profile.Command
	if req.Reset {
		cmds = append(cmds, profile.Reset{})
	}
	if req.Basics != nil {
		cmds = append(cmds, *req.Basics)
	}
	if req.Diabetes != nil {
		cmds = append(cmds, *req.Diabetes)
	}
	if len(cmds) == 0 {
		WriteError(w, http.StatusBadRequest, "nothing to update", h.logger)
		return
	}

	state, err := h.svc.UpdateProfile(r.Context(), cmds...)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, profile.Summarize(state), h.logger)
}

// ReadingRequest is a glucose measurement to record
type ReadingRequest struct {
	Value  float64              `json:"value"` // mg/dL
	Time   time.Time            `json:"time,omitempty"`
	Source models.ReadingSource `json:"source,omitempty"`
}

// RecordReading handles POST /api/readings
func (h *Handler) RecordReading(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	reading, err := h.svc.RecordReading(r.Context(), req.Value, req.Time, req.Source)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, reading, h.logger)
}

// SyncRequest bounds a Nightscout import
type SyncRequest struct {
	Since time.Time `json:"since"`
}

// SyncReadings handles POST /api/readings/sync
func (h *Handler) SyncReadings(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.Since.IsZero() {
		req.Since = time.Now().Add(-24 * time.Hour)
	}

	n, err := h.svc.SyncNightscout(r.Context(), req.Since)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"imported": n}, h.logger)
}

// TodayStats handles GET /api/stats/today
func (h *Handler) TodayStats(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.TodayStats(), h.logger)
}

// ListTreatments handles GET /api/treatments?hours=&meals= and lists Nightscout treatments.
// meals=true keeps only treatments with carbs.
func (h *Handler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hours := 0
	if raw := q.Get("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "hours must be a number", h.logger)
			return
		}
		hours = v
	}

	mealsOnly, _ := strconv.ParseBool(q.Get("meals"))
	treatments, err := h.svc.RecentTreatments(r.Context(), hours, mealsOnly)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, treatments, h.logger)
}

// MealResponse is a recorded meal with the prediction made for it
type MealResponse struct {
	Meal       models.MealRecord         `json:"meal"`
	Prediction *models.GlucosePrediction `json:"prediction"`
}

// RecordMeal handles POST /api/meals
func (h *Handler) RecordMeal(w http.ResponseWriter, r *http.Request) {
	var in app.MealInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	meal, result, err := h.svc.RecordMeal(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, MealResponse{Meal: meal, Prediction: result}, h.logger)
}

// PeakRequest is a measured post-meal peak
type PeakRequest struct {
	Peak float64 `json:"peak"` // mg/dL
}

// RecordActualPeak handles POST /api/meals/{mealID}/actual-peak
func (h *Handler) RecordActualPeak(w http.ResponseWriter, r *http.Request) {
	var req PeakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	meal, err := h.svc.RecordActualPeak(r.Context(), chi.URLParam(r, "mealID"), req.Peak)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, meal, h.logger)
}
