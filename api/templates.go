package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sproutapp/sprout/internal/match"
)

// TemplateHandler handles template matching endpoints.
type TemplateHandler struct {
	matcher *match.Matcher
	logger  *slog.Logger
}

// NewTemplateHandler creates a template handler.
func NewTemplateHandler(matcher *match.Matcher, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{matcher: matcher, logger: logger}
}

// RegisterRoutes registers template routes on the given mux.
func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/templates/match", h.match)
}

type matchRequest struct {
	Description string `json:"description"`
}

type matchResponse struct {
	Matches []match.Match `json:"matches"`
}

func (h *TemplateHandler) match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a description field")
		return
	}

	matches, err := h.matcher.Match(r.Context(), req.Description)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if matches == nil {
		matches = []match.Match{}
	}
	writeJSON(w, http.StatusOK, matchResponse{Matches: matches})
}
