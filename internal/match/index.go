package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/sproutapp/sprout/internal/config"
)

// Index stores template embeddings in PostgreSQL and answers top-K
// similarity queries over them.
type Index struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewIndex creates an embedding Index.
func NewIndex(pool *pgxpool.Pool, logger *slog.Logger) (*Index, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{pool: pool, logger: logger}, nil
}

// Upsert stores or replaces the embedding for a template URL.
func (ix *Index) Upsert(ctx context.Context, url string, embedding []float32) error {
	if url == "" {
		return fmt.Errorf("url is required")
	}
	if len(embedding) != config.EmbeddingDimension {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), config.EmbeddingDimension)
	}

	_, err := ix.pool.Exec(ctx,
		`INSERT INTO template_embeddings (url, embedding) VALUES ($1, $2)
		 ON CONFLICT (url) DO UPDATE SET embedding = EXCLUDED.embedding`,
		url, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("upserting template embedding: %w", err)
	}
	return nil
}

// Search returns the k templates nearest to the query embedding,
// most similar first. Similarity is cosine, in [0, 1] for normalized
// embeddings.
func (ix *Index) Search(ctx context.Context, embedding []float32, k int) ([]Match, error) {
	if len(embedding) != config.EmbeddingDimension {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), config.EmbeddingDimension)
	}
	if k <= 0 || k > 50 {
		return nil, fmt.Errorf("k must be between 1 and 50, got %d", k)
	}

	rows, err := ix.pool.Query(ctx,
		`SELECT url, 1 - (embedding <=> $1) AS similarity
		 FROM template_embeddings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("searching template embeddings: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.URL, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns the number of indexed templates.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.pool.QueryRow(ctx, `SELECT count(*) FROM template_embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting template embeddings: %w", err)
	}
	return n, nil
}
