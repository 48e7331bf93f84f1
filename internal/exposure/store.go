// Package exposure tracks which ideas each user has already been
// shown, so the recommendation path never repeats itself.
package exposure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seen is one recorded exposure joined with the idea it refers to.
type Seen struct {
	IdeaID      uuid.UUID
	Title       string
	Description string
	ViewedAt    time.Time
}

// Store persists exposures in PostgreSQL. The (user_id, idea_id)
// primary key makes recording naturally idempotent.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates an exposure Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// HasSeen reports whether userID has already been shown ideaID.
func (s *Store) HasSeen(ctx context.Context, userID, ideaID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, ErrNilUserID
	}

	var seen bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exposures WHERE user_id = $1 AND idea_id = $2)`,
		userID, ideaID,
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("checking exposure: %w", err)
	}
	return seen, nil
}

// RecordSeen marks ideaID as shown to userID. Recording the same pair
// again is a no-op, not an error.
func (s *Store) RecordSeen(ctx context.Context, userID, ideaID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrNilUserID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO exposures (user_id, idea_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, idea_id) DO NOTHING`,
		userID, ideaID,
	)
	if err != nil {
		return fmt.Errorf("recording exposure: %w", err)
	}
	return nil
}

// RecentlySeen returns up to limit ideas shown to userID within the
// given window, restricted to ideas tagged with a topic containing
// topic, most recent first. An empty topic applies no topic filter.
// The result seeds the exclusion context for fresh generation.
func (s *Store) RecentlySeen(ctx context.Context, userID uuid.UUID, topic string, window time.Duration, limit int) ([]Seen, error) {
	if userID == uuid.Nil {
		return nil, ErrNilUserID
	}
	if limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT i.id, i.title, i.description, e.viewed_at
		 FROM exposures e
		 JOIN ideas i ON i.id = e.idea_id
		 WHERE e.user_id = $1
		   AND e.viewed_at > now() - $2::interval
		   AND ($3 = '' OR EXISTS (
		       SELECT 1 FROM idea_topics it
		       JOIN topics t ON t.id = it.topic_id
		       WHERE it.idea_id = i.id AND t.name ILIKE '%' || $3 || '%'
		   ))
		 ORDER BY e.viewed_at DESC
		 LIMIT $4`,
		userID, window.String(), topic, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent exposures: %w", err)
	}
	defer rows.Close()

	var out []Seen
	for rows.Next() {
		var v Seen
		if err := rows.Scan(&v.IdeaID, &v.Title, &v.Description, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("scanning exposure: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AnyUnseenWithTopic returns the id of one idea tagged with a topic
// containing topic that userID has never been shown, chosen at random
// among the candidates. An empty topic considers every idea, tagged or
// not. Returns ErrNoUnseen when the user has exhausted the candidates.
func (s *Store) AnyUnseenWithTopic(ctx context.Context, userID uuid.UUID, topic string) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, ErrNilUserID
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT i.id FROM ideas i
		 WHERE ($2 = '' OR EXISTS (
		       SELECT 1 FROM idea_topics it
		       JOIN topics t ON t.id = it.topic_id
		       WHERE it.idea_id = i.id AND t.name ILIKE '%' || $2 || '%'
		 ))
		   AND NOT EXISTS (
		       SELECT 1 FROM exposures e
		       WHERE e.user_id = $1 AND e.idea_id = i.id
		 )
		 ORDER BY random()
		 LIMIT 1`,
		userID, topic,
	).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return uuid.Nil, ErrNoUnseen
	case err != nil:
		return uuid.Nil, fmt.Errorf("querying unseen ideas: %w", err)
	}

	s.logger.Debug("found unseen idea", "user_id", userID, "topic", topic, "idea_id", id)
	return id, nil
}

// Count returns the number of exposures recorded for userID.
func (s *Store) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, ErrNilUserID
	}

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM exposures WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting exposures: %w", err)
	}
	return n, nil
}
