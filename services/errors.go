package services

import (
	"encoding/json"
	"errors"
	"net/http"
)

// The four error kinds callers of the session services can observe. The
// generation gateway never surfaces errors; upstream failures degrade to
// fallback values before they reach this boundary.
var (
	ErrNotFound     = errors.New("session not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotReady     = errors.New("results not generated yet")
	ErrInvalidInput = errors.New("invalid input")
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError maps a service error to its HTTP status. Internal faults are
// masked with a generic message so upstream details never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	http.Error(w, message, status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
