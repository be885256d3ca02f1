package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"chatd/internal/chat"
	"chatd/internal/manager"
	"chatd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// errorKind classifies err for metrics and maps it to a status code.
func errorKind(err error) (string, int) {
	var he HTTPError
	switch {
	case chat.IsValidationError(err):
		return "validation", http.StatusBadRequest
	case manager.IsModelUnavailable(err):
		return "unavailable", http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", http.StatusGatewayTimeout
	case manager.IsGenerationError(err):
		return "generation", http.StatusInternalServerError
	case errors.As(err, &he):
		return "other", he.StatusCode()
	default:
		return "internal", http.StatusInternalServerError
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}
