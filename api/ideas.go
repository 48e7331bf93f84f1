package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/recommend"
)

// userIDHeader carries the authenticated caller's id. Absent means
// anonymous.
const userIDHeader = "X-User-ID"

const maxRequestBody = 16 << 10 // 16 KiB

// IdeaReader is the slice of the idea store the handlers need beyond
// the selector and expander.
type IdeaReader interface {
	Get(ctx context.Context, id uuid.UUID) (*idea.Idea, error)
	Like(ctx context.Context, id uuid.UUID) error
}

// IdeaHandler handles idea endpoints.
type IdeaHandler struct {
	selector *recommend.Selector
	expander *recommend.Expander
	store    IdeaReader
	logger   *slog.Logger
}

// NewIdeaHandler creates an idea handler.
func NewIdeaHandler(selector *recommend.Selector, expander *recommend.Expander, store IdeaReader, logger *slog.Logger) *IdeaHandler {
	return &IdeaHandler{selector: selector, expander: expander, store: store, logger: logger}
}

// RegisterRoutes registers idea routes on the given mux.
func (h *IdeaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ideas/next", h.next)
	mux.HandleFunc("GET /api/ideas/{id}", h.get)
	mux.HandleFunc("POST /api/ideas/{id}/features", h.expandFeatures)
	mux.HandleFunc("POST /api/ideas/{id}/frameworks", h.expandFrameworks)
	mux.HandleFunc("POST /api/ideas/{id}/refine", h.refine)
	mux.HandleFunc("POST /api/ideas/{id}/like", h.like)
}

// next returns the next idea for the caller. Anonymous requests get a
// random existing idea.
func (h *IdeaHandler) next(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	found, err := h.selector.Next(r.Context(), userID, r.URL.Query().Get("topic"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *IdeaHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	found, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *IdeaHandler) expandFeatures(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	updated, err := h.expander.ExpandFeatures(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *IdeaHandler) expandFrameworks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	updated, err := h.expander.ExpandFrameworks(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type refineRequest struct {
	Feedback string `json:"feedback"`
}

func (h *IdeaHandler) refine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req refineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a feedback field")
		return
	}

	updated, err := h.expander.Refine(r.Context(), id, req.Feedback)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *IdeaHandler) like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Like(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerID resolves the requesting user. A missing header means
// anonymous (zero UUID); a malformed one is a client error.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "X-User-ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
