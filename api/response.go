package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sproutapp/sprout/internal/generate"
	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/match"
)

// writeJSON writes a JSON response with the given status code.
// If encoding fails after WriteHeader, the status is already on the
// wire; the error is only logged.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeDomainError maps pipeline errors to HTTP statuses: invalid
// input is the caller's fault (400), a model that would not produce
// the requested shape is a bad upstream (502), anything else is ours
// (500).
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var genErr *generate.GenerationError
	switch {
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "generation_failed",
			Message: genErr.Message,
			Fields:  genErr.FieldPaths(),
		})
	case errors.Is(err, match.ErrEmptyDescription),
		errors.Is(err, idea.ErrInvalidDraft):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, idea.ErrIdeaNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, idea.ErrNoIdeas):
		writeError(w, http.StatusNotFound, "no_ideas", "no ideas available yet")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
