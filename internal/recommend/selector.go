// Package recommend decides which idea a caller sees next and drives
// the LLM pipeline that keeps the pool of ideas fresh.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/sproutapp/sprout/internal/exposure"
	"github.com/sproutapp/sprout/internal/idea"
)

// Ideas is the slice of the idea store the selector needs.
type Ideas interface {
	Random(ctx context.Context) (*idea.Idea, error)
	Get(ctx context.Context, id uuid.UUID) (*idea.Idea, error)
	CreateWithExposure(ctx context.Context, draft idea.Draft, topic string, userID uuid.UUID) (*idea.Idea, error)
}

// Exposures is the slice of the exposure store the selector needs.
type Exposures interface {
	AnyUnseenWithTopic(ctx context.Context, userID uuid.UUID, topic string) (uuid.UUID, error)
	RecordSeen(ctx context.Context, userID, ideaID uuid.UUID) error
	RecentlySeen(ctx context.Context, userID uuid.UUID, topic string, window time.Duration, limit int) ([]exposure.Seen, error)
}

// Drafter generates a fresh idea draft. Implemented by *LLM.
type Drafter interface {
	DraftIdea(ctx context.Context, topic string, avoid []exposure.Seen) (idea.Draft, error)
}

// SelectorConfig tunes the selection behavior.
type SelectorConfig struct {
	// Topics is the vocabulary fresh generation draws from. Must be
	// non-empty.
	Topics []string

	// RecentWindow bounds how far back the exclusion context looks.
	RecentWindow time.Duration

	// RecentLimit caps how many recent ideas feed the exclusion
	// context.
	RecentLimit int

	// Rand drives the topic pick. Defaults to the shared source.
	Rand *rand.Rand
}

// Selector picks the next idea for a caller: a random existing idea
// for anonymous callers, an unseen idea when one exists, and a freshly
// generated one otherwise.
type Selector struct {
	ideas     Ideas
	exposures Exposures
	drafter   Drafter
	cfg       SelectorConfig
	logger    *slog.Logger
}

// NewSelector creates a Selector.
func NewSelector(ideas Ideas, exposures Exposures, drafter Drafter, cfg SelectorConfig, logger *slog.Logger) (*Selector, error) {
	if ideas == nil {
		return nil, fmt.Errorf("idea store is required")
	}
	if exposures == nil {
		return nil, fmt.Errorf("exposure store is required")
	}
	if drafter == nil {
		return nil, fmt.Errorf("drafter is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("topic vocabulary is required")
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 72 * time.Hour
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		ideas:     ideas,
		exposures: exposures,
		drafter:   drafter,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Next returns the idea the caller should see.
//
// Anonymous callers (zero userID) get a random existing idea and no
// exposure is recorded. Authenticated callers get an unseen idea in
// the requested topic when one exists; otherwise a fresh idea is
// generated, steered away from what they saw recently, and persisted
// together with its exposure in one transaction. An empty topic leaves
// the unseen search unfiltered; only the generation fallback picks a
// topic from the configured vocabulary.
func (s *Selector) Next(ctx context.Context, userID uuid.UUID, topic string) (*idea.Idea, error) {
	if userID == uuid.Nil {
		return s.ideas.Random(ctx)
	}

	unseenID, err := s.exposures.AnyUnseenWithTopic(ctx, userID, topic)
	switch {
	case err == nil:
		return s.serveExisting(ctx, userID, unseenID)
	case errors.Is(err, exposure.ErrNoUnseen):
		return s.generateFresh(ctx, userID, topic)
	default:
		return nil, fmt.Errorf("looking for unseen ideas: %w", err)
	}
}

func (s *Selector) serveExisting(ctx context.Context, userID, ideaID uuid.UUID) (*idea.Idea, error) {
	found, err := s.ideas.Get(ctx, ideaID)
	if err != nil {
		return nil, fmt.Errorf("loading unseen idea: %w", err)
	}
	if err := s.exposures.RecordSeen(ctx, userID, ideaID); err != nil {
		return nil, fmt.Errorf("recording exposure: %w", err)
	}
	s.logger.Debug("served existing idea", "user_id", userID, "idea_id", ideaID)
	return found, nil
}

func (s *Selector) generateFresh(ctx context.Context, userID uuid.UUID, topic string) (*idea.Idea, error) {
	if topic == "" {
		topic = s.pickTopic()
	}

	avoid, err := s.exposures.RecentlySeen(ctx, userID, topic, s.cfg.RecentWindow, s.cfg.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("loading exclusion context: %w", err)
	}

	draft, err := s.drafter.DraftIdea(ctx, topic, avoid)
	if err != nil {
		return nil, err
	}

	created, err := s.ideas.CreateWithExposure(ctx, draft, topic, userID)
	if err != nil {
		return nil, fmt.Errorf("persisting generated idea: %w", err)
	}
	s.logger.Info("generated fresh idea",
		"user_id", userID, "topic", topic, "idea_id", created.ID, "excluded", len(avoid))
	return created, nil
}

func (s *Selector) pickTopic() string {
	if s.cfg.Rand != nil {
		return s.cfg.Topics[s.cfg.Rand.Intn(len(s.cfg.Topics))]
	}
	return s.cfg.Topics[rand.Intn(len(s.cfg.Topics))]
}
