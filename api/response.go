package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/raynmakers/vigil"
)

// errorResponse is the uniform failure body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// mapStoreError renders a component error with the right status code.
// Validation failures are the caller's fault; missing records are 404;
// anything else is a store-side failure.
func mapStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vigil.ErrMissingJobID),
		errors.Is(err, vigil.ErrMissingFailureContext),
		errors.Is(err, vigil.ErrInvalidThreshold):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, vigil.ErrJobNotFound),
		errors.Is(err, vigil.ErrVideoNotFound),
		errors.Is(err, vigil.ErrDeadLetterNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, vigil.ErrUnknownCollection):
		writeError(w, http.StatusBadRequest, "unknown_collection", err.Error())
	case errors.Is(err, vigil.ErrUnknownService):
		writeError(w, http.StatusBadRequest, "unknown_service", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
