package idea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const ideaCols = `id, title, description, likes, created_at, updated_at`

// Store manages ideas, their expansions, and topic links in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates an idea Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Create persists a draft as a new idea, linking it to topic when one
// is given. Feature stubs are stored title-only.
func (s *Store) Create(ctx context.Context, draft Draft, topic string) (*Idea, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	created, err := s.createInTx(ctx, tx, draft, topic)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing idea: %w", err)
	}

	s.logger.Debug("created idea", "id", created.ID, "topic", topic)
	return created, nil
}

// CreateWithExposure persists a draft and records an exposure for
// userID in the same transaction. Either both rows land or neither
// does: a generated idea that is returned to a user must never be
// recommendable to that user again.
func (s *Store) CreateWithExposure(ctx context.Context, draft Draft, topic string, userID uuid.UUID) (*Idea, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	created, err := s.createInTx(ctx, tx, draft, topic)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO exposures (user_id, idea_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, idea_id) DO NOTHING`,
		userID, created.ID,
	); err != nil {
		return nil, fmt.Errorf("recording exposure for new idea: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing idea with exposure: %w", err)
	}

	s.logger.Debug("created idea with exposure", "id", created.ID, "user_id", userID)
	return created, nil
}

// createInTx inserts the idea row, its feature stubs, and the topic link.
func (s *Store) createInTx(ctx context.Context, q querier, draft Draft, topic string) (*Idea, error) {
	created := &Idea{
		Title:       draft.Title,
		Description: draft.Description,
	}
	err := q.QueryRow(ctx,
		`INSERT INTO ideas (title, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		draft.Title, draft.Description,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting idea: %w", err)
	}

	for i, title := range draft.Features {
		stub := Feature{Title: title}
		if _, err := q.Exec(ctx,
			`INSERT INTO features (idea_id, position, title, user_story, acceptance_criteria)
			 VALUES ($1, $2, $3, '', '[]')`,
			created.ID, i, title,
		); err != nil {
			return nil, fmt.Errorf("inserting feature stub %d: %w", i, err)
		}
		created.Features = append(created.Features, stub)
	}

	if topic != "" {
		var topicID uuid.UUID
		err := q.QueryRow(ctx,
			`INSERT INTO topics (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			topic,
		).Scan(&topicID)
		if err != nil {
			return nil, fmt.Errorf("upserting topic %q: %w", topic, err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO idea_topics (idea_id, topic_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			created.ID, topicID,
		); err != nil {
			return nil, fmt.Errorf("linking topic: %w", err)
		}
	}

	return created, nil
}

// Get retrieves an idea with its features and frameworks.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Idea, error) {
	var out Idea
	err := s.pool.QueryRow(ctx,
		`SELECT `+ideaCols+` FROM ideas WHERE id = $1`, id,
	).Scan(&out.ID, &out.Title, &out.Description, &out.Likes, &out.CreatedAt, &out.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("idea %s: %w", id, ErrIdeaNotFound)
	case err != nil:
		return nil, fmt.Errorf("querying idea: %w", err)
	}

	if out.Features, err = s.loadFeatures(ctx, id); err != nil {
		return nil, err
	}
	if out.Frameworks, err = s.loadFrameworks(ctx, id); err != nil {
		return nil, err
	}
	return &out, nil
}

// Random returns one idea drawn uniformly at random from all persisted
// ideas. Intentionally non-deterministic: the anonymous selection path
// must not keep surfacing the same idea.
func (s *Store) Random(ctx context.Context) (*Idea, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM ideas ORDER BY random() LIMIT 1`,
	).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNoIdeas
	case err != nil:
		return nil, fmt.Errorf("querying random idea: %w", err)
	}
	return s.Get(ctx, id)
}

// SearchByText returns ideas whose title or description contains the
// query, newest first.
func (s *Store) SearchByText(ctx context.Context, query string, limit int) ([]Idea, error) {
	if limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+ideaCols+` FROM ideas
		 WHERE title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC
		 LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching ideas: %w", err)
	}
	defer rows.Close()

	return scanIdeas(rows)
}

// ReplaceFeatures replaces an idea's features with the given expansion
// output, preserving order.
func (s *Store) ReplaceFeatures(ctx context.Context, ideaID uuid.UUID, features []Feature) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM features WHERE idea_id = $1`, ideaID); err != nil {
		return fmt.Errorf("clearing features: %w", err)
	}
	for i, f := range features {
		criteria, err := json.Marshal(f.AcceptanceCriteria)
		if err != nil {
			return fmt.Errorf("marshaling acceptance criteria: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO features (idea_id, position, title, user_story, acceptance_criteria)
			 VALUES ($1, $2, $3, $4, $5)`,
			ideaID, i, f.Title, f.UserStory, criteria,
		); err != nil {
			return fmt.Errorf("inserting feature %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing features: %w", err)
	}
	return nil
}

// ReplaceFrameworks replaces an idea's frameworks with the given
// expansion output, preserving order.
func (s *Store) ReplaceFrameworks(ctx context.Context, ideaID uuid.UUID, frameworks []Framework) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM frameworks WHERE idea_id = $1`, ideaID); err != nil {
		return fmt.Errorf("clearing frameworks: %w", err)
	}
	for i, fw := range frameworks {
		tools, err := json.Marshal(fw.Tools)
		if err != nil {
			return fmt.Errorf("marshaling tools: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO frameworks (idea_id, position, title, description, tools)
			 VALUES ($1, $2, $3, $4, $5)`,
			ideaID, i, fw.Title, fw.Description, tools,
		); err != nil {
			return fmt.Errorf("inserting framework %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing frameworks: %w", err)
	}
	return nil
}

// UpdateContent overwrites an idea's title, description, and feature
// stubs with a refined draft.
func (s *Store) UpdateContent(ctx context.Context, ideaID uuid.UUID, draft Draft) error {
	if err := validateDraft(draft); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	tag, err := tx.Exec(ctx,
		`UPDATE ideas SET title = $1, description = $2, updated_at = now() WHERE id = $3`,
		draft.Title, draft.Description, ideaID,
	)
	if err != nil {
		return fmt.Errorf("updating idea: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idea %s: %w", ideaID, ErrIdeaNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM features WHERE idea_id = $1`, ideaID); err != nil {
		return fmt.Errorf("clearing features: %w", err)
	}
	for i, title := range draft.Features {
		if _, err := tx.Exec(ctx,
			`INSERT INTO features (idea_id, position, title, user_story, acceptance_criteria)
			 VALUES ($1, $2, $3, '', '[]')`,
			ideaID, i, title,
		); err != nil {
			return fmt.Errorf("inserting feature stub %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing refinement: %w", err)
	}
	return nil
}

// Like increments an idea's like count.
func (s *Store) Like(ctx context.Context, ideaID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ideas SET likes = likes + 1 WHERE id = $1`, ideaID,
	)
	if err != nil {
		return fmt.Errorf("incrementing likes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idea %s: %w", ideaID, ErrIdeaNotFound)
	}
	return nil
}

func (s *Store) loadFeatures(ctx context.Context, ideaID uuid.UUID) ([]Feature, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, user_story, acceptance_criteria
		 FROM features WHERE idea_id = $1 ORDER BY position`,
		ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	var features []Feature
	for rows.Next() {
		var f Feature
		var criteria []byte
		if err := rows.Scan(&f.ID, &f.Title, &f.UserStory, &criteria); err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		if err := json.Unmarshal(criteria, &f.AcceptanceCriteria); err != nil {
			s.logger.Warn("malformed acceptance criteria", "feature_id", f.ID, "error", err)
			f.AcceptanceCriteria = nil
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

func (s *Store) loadFrameworks(ctx context.Context, ideaID uuid.UUID) ([]Framework, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, tools
		 FROM frameworks WHERE idea_id = $1 ORDER BY position`,
		ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying frameworks: %w", err)
	}
	defer rows.Close()

	var frameworks []Framework
	for rows.Next() {
		var fw Framework
		var tools []byte
		if err := rows.Scan(&fw.ID, &fw.Title, &fw.Description, &tools); err != nil {
			return nil, fmt.Errorf("scanning framework: %w", err)
		}
		if err := json.Unmarshal(tools, &fw.Tools); err != nil {
			s.logger.Warn("malformed tools list", "framework_id", fw.ID, "error", err)
			fw.Tools = nil
		}
		frameworks = append(frameworks, fw)
	}
	return frameworks, rows.Err()
}

// rollback rolls a transaction back, tolerating already-committed state.
func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Debug("transaction rollback", "error", err)
	}
}

// scanIdeas reads idea rows without expansions.
func scanIdeas(rows pgx.Rows) ([]Idea, error) {
	var out []Idea
	for rows.Next() {
		var i Idea
		if err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.Likes, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// validateDraft checks the domain bounds before any insert.
func validateDraft(d Draft) error {
	title := d.Title
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidDraft, MaxTitleLength)
	}
	if d.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidDraft)
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDraft, MaxDescriptionLength)
	}
	for i, f := range d.Features {
		if f == "" {
			return fmt.Errorf("%w: feature stub %d is empty", ErrInvalidDraft, i)
		}
		if utf8.RuneCountInString(f) > MaxTitleLength {
			return fmt.Errorf("%w: feature stub %d exceeds %d characters", ErrInvalidDraft, i, MaxTitleLength)
		}
	}
	return nil
}
