package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sproutapp/sprout/internal/generate"
	"github.com/sproutapp/sprout/internal/idea"
	"github.com/sproutapp/sprout/internal/log"
	"github.com/sproutapp/sprout/internal/match"
	"github.com/sproutapp/sprout/internal/schema"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name: "generation error maps to bad gateway",
			err: &generate.GenerationError{
				Schema:  "idea_draft",
				Message: "validation failed",
				Fields:  []schema.FieldError{{Path: "features", Message: "must contain exactly 3 items"}},
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "wrapped generation error",
			err:        errorsJoin(&generate.GenerationError{Schema: "s", Message: "m"}),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "empty description is client error",
			err:        match.ErrEmptyDescription,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid draft is client error",
			err:        idea.ErrInvalidDraft,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "idea not found",
			err:        idea.ErrIdeaNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty store",
			err:        idea.ErrNoIdeas,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown error is internal",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, log.NewNop(), tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestWriteDomainErrorCarriesFieldPaths(t *testing.T) {
	w := httptest.NewRecorder()
	writeDomainError(w, log.NewNop(), &generate.GenerationError{
		Schema:  "feature_expansion",
		Message: "validation failed",
		Fields: []schema.FieldError{
			{Path: "features[0].acceptance_criteria", Message: "must contain exactly 2 items"},
		},
	})

	assert.Contains(t, w.Body.String(), "features[0].acceptance_criteria")
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("outer"), err)
}
