package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// NightscoutChecker reports whether Nightscout is configured and reachable
type NightscoutChecker interface {
	CheckNightscout(ctx context.Context) (bool, error)
}

// HealthHandler provides health check endpoint
type HealthHandler struct {
	logger  *slog.Logger
	version string
	checker NightscoutChecker
}

// NewHealthHandler creates a new health handler. checker may be nil.
func NewHealthHandler(logger *slog.Logger, version string, checker NightscoutChecker) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{logger: logger, version: version, checker: checker}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Nightscout string    `json:"nightscout,omitempty"` // "ok" or "unreachable" when configured
}

// ServeHTTP handles health check requests. An unreachable Nightscout degrades the
// status but the service keeps answering from recorded readings.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}

	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		configured, err := h.checker.CheckNightscout(ctx)
		switch {
		case !configured:
		case err != nil:
			h.logger.Warn("nightscout health check failed", "error", err)
			resp.Status = "degraded"
			resp.Nightscout = "unreachable"
		default:
			resp.Nightscout = "ok"
		}
	}

	WriteJSON(w, http.StatusOK, resp, h.logger)
}
