package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mrcode/glucopredict/internal/app"
	"github.com/mrcode/glucopredict/internal/catalog"
	"github.com/mrcode/glucopredict/internal/history"
	"github.com/mrcode/glucopredict/internal/profile"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// writeServiceError maps service errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		WriteError(w, status, "internal server error", logger)
		return
	}
	WriteError(w, status, err.Error(), logger)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrNotFound), errors.Is(err, app.ErrNoPrediction):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, catalog.ErrUnknownFood),
		errors.Is(err, history.ErrInvalidReading),
		errors.Is(err, history.ErrInvalidMeal),
		errors.Is(err, profile.ErrInvalidProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", app.ErrInvalidInput, err)
	}
	return nil
}
