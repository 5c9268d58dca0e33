// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pattarads/set-dividend-tracker-backend/internal/apperrors"
)

// ErrorResponse represents a structured error response returned by the API.
// Error carries the stable error kind; Details is optional human-readable
// context.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
func RespondError(w http.ResponseWriter, status int, message string, details interface{}) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// RespondAppError maps a service-layer error onto its HTTP status via the
// stable error kind and sends the structured response.
func RespondAppError(w http.ResponseWriter, err error) {
	kind := apperrors.Kind(err)

	status := http.StatusInternalServerError
	switch kind {
	case "not_found":
		status = http.StatusNotFound
	case "validation":
		status = http.StatusBadRequest
	case "conflict":
		status = http.StatusConflict
	case "rate_limited":
		status = http.StatusTooManyRequests
	}

	RespondError(w, status, kind, err.Error())
}
