package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sproutapp/sprout/internal/idea"
)

// ExpansionStore is the slice of the idea store the expander needs.
type ExpansionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*idea.Idea, error)
	ReplaceFeatures(ctx context.Context, ideaID uuid.UUID, features []idea.Feature) error
	ReplaceFrameworks(ctx context.Context, ideaID uuid.UUID, frameworks []idea.Framework) error
	UpdateContent(ctx context.Context, ideaID uuid.UUID, draft idea.Draft) error
}

// Pipeline generates expansions for existing ideas. Implemented by *LLM.
type Pipeline interface {
	ExpandFeatures(ctx context.Context, subject *idea.Idea) ([]idea.Feature, error)
	ExpandFrameworks(ctx context.Context, subject *idea.Idea) ([]idea.Framework, error)
	Refine(ctx context.Context, subject *idea.Idea, feedback string) (idea.Draft, error)
}

// Expander runs LLM expansions against stored ideas and persists the
// results. Expansions are independent: a failed one leaves the idea as
// it was.
type Expander struct {
	store    ExpansionStore
	pipeline Pipeline
	logger   *slog.Logger
}

// NewExpander creates an Expander.
func NewExpander(store ExpansionStore, pipeline Pipeline, logger *slog.Logger) (*Expander, error) {
	if store == nil {
		return nil, fmt.Errorf("idea store is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{store: store, pipeline: pipeline, logger: logger}, nil
}

// ExpandFeatures replaces the idea's feature stubs with a full
// breakdown and returns the updated idea.
func (e *Expander) ExpandFeatures(ctx context.Context, ideaID uuid.UUID) (*idea.Idea, error) {
	subject, err := e.store.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	features, err := e.pipeline.ExpandFeatures(ctx, subject)
	if err != nil {
		return nil, err
	}

	if err := e.store.ReplaceFeatures(ctx, ideaID, features); err != nil {
		return nil, fmt.Errorf("storing features: %w", err)
	}
	e.logger.Debug("expanded features", "idea_id", ideaID, "count", len(features))
	return e.store.Get(ctx, ideaID)
}

// ExpandFrameworks replaces the idea's framework suggestions and
// returns the updated idea.
func (e *Expander) ExpandFrameworks(ctx context.Context, ideaID uuid.UUID) (*idea.Idea, error) {
	subject, err := e.store.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	frameworks, err := e.pipeline.ExpandFrameworks(ctx, subject)
	if err != nil {
		return nil, err
	}

	if err := e.store.ReplaceFrameworks(ctx, ideaID, frameworks); err != nil {
		return nil, fmt.Errorf("storing frameworks: %w", err)
	}
	e.logger.Debug("expanded frameworks", "idea_id", ideaID, "count", len(frameworks))
	return e.store.Get(ctx, ideaID)
}

// Refine reworks the idea's title, description, and feature stubs
// according to user feedback. Earlier feature and framework expansions
// are discarded since they describe the old version.
func (e *Expander) Refine(ctx context.Context, ideaID uuid.UUID, feedback string) (*idea.Idea, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, fmt.Errorf("%w: feedback is required", idea.ErrInvalidDraft)
	}

	subject, err := e.store.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	draft, err := e.pipeline.Refine(ctx, subject, feedback)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateContent(ctx, ideaID, draft); err != nil {
		return nil, fmt.Errorf("storing refinement: %w", err)
	}
	if err := e.store.ReplaceFrameworks(ctx, ideaID, nil); err != nil {
		return nil, fmt.Errorf("clearing stale frameworks: %w", err)
	}
	e.logger.Debug("refined idea", "idea_id", ideaID)
	return e.store.Get(ctx, ideaID)
}
