package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/log"
	"github.com/sproutapp/sprout/internal/recommend"
)

type stubReader struct {
	found   *idea.Idea
	getErr  error
	likeErr error
	liked   []uuid.UUID
}

func (s *stubReader) Get(ctx context.Context, id uuid.UUID) (*idea.Idea, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.found, nil
}

func (s *stubReader) Like(ctx context.Context, id uuid.UUID) error {
	if s.likeErr != nil {
		return s.likeErr
	}
	s.liked = append(s.liked, id)
	return nil
}

type stubExpansionStore struct {
	subject *idea.Idea
}

func (s *stubExpansionStore) Get(ctx context.Context, id uuid.UUID) (*idea.Idea, error) {
	return s.subject, nil
}
func (s *stubExpansionStore) ReplaceFeatures(ctx context.Context, id uuid.UUID, f []idea.Feature) error {
	s.subject.Features = f
	return nil
}
func (s *stubExpansionStore) ReplaceFrameworks(ctx context.Context, id uuid.UUID, f []idea.Framework) error {
	s.subject.Frameworks = f
	return nil
}
func (s *stubExpansionStore) UpdateContent(ctx context.Context, id uuid.UUID, d idea.Draft) error {
	s.subject.Title = d.Title
	s.subject.Description = d.Description
	return nil
}

type stubPipeline struct {
	err error
}

func (s *stubPipeline) ExpandFeatures(ctx context.Context, subject *idea.Idea) ([]idea.Feature, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []idea.Feature{{Title: "A"}, {Title: "B"}, {Title: "C"}}, nil
}
func (s *stubPipeline) ExpandFrameworks(ctx context.Context, subject *idea.Idea) ([]idea.Framework, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []idea.Framework{{Title: "Web"}, {Title: "Mobile"}, {Title: "CLI"}}, nil
}
func (s *stubPipeline) Refine(ctx context.Context, subject *idea.Idea, feedback string) (idea.Draft, error) {
	if s.err != nil {
		return idea.Draft{}, s.err
	}
	return idea.Draft{Title: "Refined", Description: "d", Features: []string{"a", "b", "c"}}, nil
}

func newIdeaHandler(t *testing.T, reader *stubReader, pipeline *stubPipeline) *IdeaHandler {
	t.Helper()
	subject := &idea.Idea{ID: uuid.New(), Title: "Trail Buddy", Description: "d"}
	expander, err := recommend.NewExpander(&stubExpansionStore{subject: subject}, pipeline, log.NewNop())
	require.NoError(t, err)
	return NewIdeaHandler(nil, expander, reader, log.NewNop())
}

func TestIdeaHandler_GetInvalidID(t *testing.T) {
	h := newIdeaHandler(t, &stubReader{}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/ideas/not-a-uuid", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestIdeaHandler_GetNotFound(t *testing.T) {
	h := newIdeaHandler(t, &stubReader{getErr: idea.ErrIdeaNotFound}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/ideas/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdeaHandler_Get(t *testing.T) {
	found := &idea.Idea{ID: uuid.New(), Title: "Trail Buddy", Description: "d"}
	h := newIdeaHandler(t, &stubReader{found: found}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/ideas/"+found.ID.String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trail Buddy")
}

func TestIdeaHandler_Like(t *testing.T) {
	reader := &stubReader{}
	h := newIdeaHandler(t, reader, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+id.String()+"/like", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, reader.liked, 1)
	assert.Equal(t, id, reader.liked[0])
}

func TestIdeaHandler_RefineRejectsBadBody(t *testing.T) {
	h := newIdeaHandler(t, &stubReader{}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+uuid.NewString()+"/refine",
		strings.NewReader("not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdeaHandler_RefineEmptyFeedback(t *testing.T) {
	h := newIdeaHandler(t, &stubReader{}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+uuid.NewString()+"/refine",
		strings.NewReader(`{"feedback":"  "}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdeaHandler_ExpandFeatures(t *testing.T) {
	h := newIdeaHandler(t, &stubReader{}, &stubPipeline{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+uuid.NewString()+"/features", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallerID(t *testing.T) {
	t.Run("absent header is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		id, ok := callerID(httptest.NewRecorder(), req)
		assert.True(t, ok)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("valid header parsed", func(t *testing.T) {
		want := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(userIDHeader, want.String())
		id, ok := callerID(httptest.NewRecorder(), req)
		assert.True(t, ok)
		assert.Equal(t, want, id)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(userIDHeader, "nope")
		w := httptest.NewRecorder()
		_, ok := callerID(w, req)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
