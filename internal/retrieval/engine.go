// Package retrieval issues similarity queries scoped to a single collection.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabletop-tools/gm-assistant/internal/classifier"
	"github.com/tabletop-tools/gm-assistant/internal/storage"
)

// Embedder is the embedding collaborator the engine needs. It must be the
// same model the indexing pipeline used.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the read-only slice of the vector store.
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]*storage.ScoredChunk, error)
}

// Query is one resolved retrieval request.
type Query struct {
	Text       string
	Collection string
	Tier       classifier.Tier
	Limit      int
}

// Engine embeds the question and queries exactly one collection. Ranking and
// scoring come from the store unmodified; the engine only supplies the scope
// and the bound, and truncates to the bound.
type Engine struct {
	embedder Embedder
	store    Searcher
	logger   *slog.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(embedder Embedder, store Searcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{embedder: embedder, store: store, logger: logger}
}

// Retrieve returns at most q.Limit ranked chunks from q.Collection. Any
// embedding or store failure surfaces to the caller; a query is never
// silently answered from empty context.
func (e *Engine) Retrieve(ctx context.Context, q Query) ([]*storage.ScoredChunk, error) {
	if q.Collection != storage.CollectionCampaign && q.Collection != storage.CollectionRules {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownCollection, q.Collection)
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("retrieval limit must be positive, got %d", q.Limit)
	}

	vectors, err := e.embedder.Embed(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := e.store.Search(ctx, q.Collection, vectors[0], q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	e.logger.Debug("retrieved chunks",
		"collection", q.Collection,
		"tier", q.Tier.String(),
		"limit", q.Limit,
		"results", len(results),
	)

	return results, nil
}
