package match

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/sproutapp/sprout/internal/config"
)

// Searcher answers top-K similarity queries. Implemented by *Index.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]Match, error)
}

// MetadataFetcher enriches a matched template URL with repository
// metadata.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (*RepoMetadata, error)
}

// MatcherConfig tunes matching behavior.
type MatcherConfig struct {
	// TopK is how many nearest templates to consider before filtering.
	TopK int

	// Threshold drops matches whose similarity falls below it.
	Threshold float64

	// Concurrency caps parallel metadata fetches.
	Concurrency int
}

// Matcher embeds a project description once, ranks indexed templates
// against it, and enriches the survivors concurrently.
type Matcher struct {
	embedder ai.Embedder
	index    Searcher
	fetcher  MetadataFetcher
	cfg      MatcherConfig
	logger   *slog.Logger
}

// NewMatcher creates a Matcher. fetcher may be nil, in which case
// matches are returned without metadata.
func NewMatcher(embedder ai.Embedder, index Searcher, fetcher MetadataFetcher, cfg MatcherConfig, logger *slog.Logger) (*Matcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = config.DefaultMatchTopK
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = config.DefaultSimilarityThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		embedder: embedder,
		index:    index,
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Match ranks indexed templates against description.
//
// The description is embedded exactly once. Matches below the
// similarity threshold are dropped; the rest come back most similar
// first. Metadata enrichment runs concurrently per match, and a failed
// fetch leaves that match in place with nil Metadata rather than
// failing the call.
func (m *Matcher) Match(ctx context.Context, description string) ([]Match, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	embedding, err := m.embed(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("embedding description: %w", err)
	}

	candidates, err := m.index.Search(ctx, embedding, m.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching templates: %w", err)
	}

	matches := candidates[:0]
	for _, c := range candidates {
		if c.Similarity >= m.cfg.Threshold {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if m.fetcher != nil {
		m.enrich(ctx, matches)
	}
	return matches, nil
}

// EmbedText embeds arbitrary text with the matcher's embedder. Used
// when indexing templates so queries and index entries share one
// embedding space.
func (m *Matcher) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDescription
	}
	return m.embed(ctx, text)
}

func (m *Matcher) embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(config.EmbeddingDimension)
	resp, err := m.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no embeddings")
	}
	return resp.Embeddings[0].Embedding, nil
}

// enrich fetches metadata for each match in place. A failed fetch is
// logged and leaves that match's Metadata nil; other fetches proceed.
func (m *Matcher) enrich(ctx context.Context, matches []Match) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)

	for i := range matches {
		g.Go(func() error {
			meta, err := m.fetcher.Fetch(ctx, matches[i].URL)
			if err != nil {
				m.logger.Warn("metadata fetch failed",
					"url", matches[i].URL, "error", err)
				return nil
			}
			matches[i].Metadata = meta
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
}
