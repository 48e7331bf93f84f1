package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	coreapi "github.com/firebase/genkit/go/core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/log"
	"github.com/sproutapp/sprout/internal/match"
)

type stubEmbedder struct{}

func (stubEmbedder) Name() string            { return "stub-embedder" }
func (stubEmbedder) Register(_ coreapi.Registry) {}

func (stubEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	embedding := make([]float32, config.EmbeddingDimension)
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: embedding}}}, nil
}

type stubSearcher struct {
	matches []match.Match
}

func (s *stubSearcher) Search(ctx context.Context, embedding []float32, k int) ([]match.Match, error) {
	return s.matches, nil
}

func newTemplateHandler(t *testing.T, matches []match.Match) *TemplateHandler {
	t.Helper()
	m, err := match.NewMatcher(stubEmbedder{}, &stubSearcher{matches: matches}, nil,
		match.MatcherConfig{TopK: 3, Threshold: 0.4}, log.NewNop())
	require.NoError(t, err)
	return NewTemplateHandler(m, log.NewNop())
}

func TestTemplateHandler_Match(t *testing.T) {
	h := newTemplateHandler(t, []match.Match{
		{URL: "https://github.com/a/high", Similarity: 0.9},
		{URL: "https://github.com/c/low", Similarity: 0.2},
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/templates/match",
		strings.NewReader(`{"description":"a hiking app"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a/high")
	assert.NotContains(t, w.Body.String(), "c/low")
}

func TestTemplateHandler_EmptyDescription(t *testing.T) {
	h := newTemplateHandler(t, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/templates/match",
		strings.NewReader(`{"description":"   "}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestTemplateHandler_BadBody(t *testing.T) {
	h := newTemplateHandler(t, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/templates/match",
		strings.NewReader("not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplateHandler_NoMatchesReturnsEmptyList(t *testing.T) {
	h := newTemplateHandler(t, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/templates/match",
		strings.NewReader(`{"description":"something"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"matches":[]}`, w.Body.String())
}
