// Package api exposes the application service over HTTP
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mrcode/glucopredict/internal/app"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	AllowedOrigins []string
	Timeout        time.Duration
	Version        string
}

// NewRouter builds the HTTP handler for the service
func NewRouter(svc *app.Service, logger *slog.Logger, opts RouterOptions) http.Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(opts.Timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", NewHealthHandler(logger, opts.Version, svc).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/foods", h.ListFoods)
		r.Get("/foods/categories", h.ListCategories)
		r.Get("/glucose/current", h.CurrentGlucose)

		r.Route("/predictions", func(r chi.Router) {
			r.Post("/", h.Predict)
			r.Get("/last", h.LastPrediction)
			r.Post("/compare", h.Compare)
			r.Post("/chart", h.Chart)
		})

		r.Post("/composition", h.Composition)
		r.Post("/insulin/dose", h.Dose)

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.Post("/readings", h.RecordReading)
		r.Post("/readings/sync", h.SyncReadings)
		r.Get("/stats/today", h.TodayStats)

		r.Get("/treatments", h.ListTreatments)

		r.Post("/meals", h.RecordMeal)
		r.Post("/meals/{mealID}/actual-peak", h.RecordActualPeak)
	})

	return r
}
