// Package indexer orchestrates incremental indexing: scan, classify against
// persisted fingerprints, then apply only the minimal set of inserts, updates
// and deletes. Unchanged documents cost zero embedding calls — that is the
// primary cost-control mechanism of the whole system.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabletop-tools/gm-assistant/internal/chunker"
	"github.com/tabletop-tools/gm-assistant/internal/source"
	"github.com/tabletop-tools/gm-assistant/internal/storage"
	"github.com/tabletop-tools/gm-assistant/internal/tracker"
)

// Report summarizes one indexing run. A second run over unchanged sources
// reports zero added, updated and removed.
type Report struct {
	Added     int
	Updated   int
	Removed   int
	Unchanged int
	Failed    []Failure
	Duration  time.Duration
}

// Failure records a document (or page) that could not be indexed this run.
// Its fingerprint is left untouched so the next run retries it.
type Failure struct {
	Source string
	Reason string
}

// Scanner enumerates the collection's source documents.
type Scanner interface {
	Scan(ctx context.Context) (*source.ScanResult, error)
}

// Embedder is the embedding collaborator.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline indexes one collection. It is the only component that mutates the
// vector store or, via the tracker, fingerprint state.
type Pipeline struct {
	collection string
	scanner    Scanner
	tracker    *tracker.Tracker
	splitter   *chunker.Splitter
	embedder   Embedder
	store      storage.Store
	logger     *slog.Logger
}

// NewPipeline wires an indexing pipeline for a collection.
func NewPipeline(
	collection string,
	scanner Scanner,
	tr *tracker.Tracker,
	splitter *chunker.Splitter,
	embedder Embedder,
	store storage.Store,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		collection: collection,
		scanner:    scanner,
		tracker:    tr,
		splitter:   splitter,
		embedder:   embedder,
		store:      store,
		logger:     logger,
	}
}

// Run scans the sources, classifies them against stored fingerprints and
// applies the resulting change set. Each document is its own transaction
// unit: one document failing never blocks the rest, and interruption between
// documents leaves no fingerprint without durably written chunks.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	scanned, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.collection, err)
	}
	unreadable := make([]string, 0, len(scanned.Failed))
	for _, failure := range scanned.Failed {
		report.Failed = append(report.Failed, Failure{
			Source: failure.Source,
			Reason: failure.Err.Error(),
		})
		unreadable = append(unreadable, failure.Source)
	}

	// Unreadable identities are excluded from deletion detection: a transient
	// read failure must not tear down previously indexed state.
	changes, err := p.tracker.Classify(ctx, p.collection, scanned.Documents, unreadable)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", p.collection, err)
	}
	report.Unchanged = len(changes.Unchanged)

	p.logger.Info("change set computed",
		"collection", p.collection,
		"new", len(changes.New),
		"changed", len(changes.Changed),
		"unchanged", len(changes.Unchanged),
		"deleted", len(changes.Deleted),
	)

	for _, doc := range changes.New {
		if err := p.indexDocument(ctx, doc); err != nil {
			p.logger.Warn("indexing failed", "source", doc.Source, "error", err)
			report.Failed = append(report.Failed, Failure{Source: doc.Source, Reason: err.Error()})
			continue
		}
		report.Added++
	}

	for _, doc := range changes.Changed {
		if err := p.indexDocument(ctx, doc); err != nil {
			p.logger.Warn("re-indexing failed", "source", doc.Source, "error", err)
			report.Failed = append(report.Failed, Failure{Source: doc.Source, Reason: err.Error()})
			continue
		}
		report.Updated++
	}

	for _, src := range changes.Deleted {
		if err := p.removeDocument(ctx, src); err != nil {
			p.logger.Warn("removal failed", "source", src, "error", err)
			report.Failed = append(report.Failed, Failure{Source: src, Reason: err.Error()})
			continue
		}
		report.Removed++
	}

	report.Duration = time.Since(start)
	p.logger.Info("indexing complete",
		"collection", p.collection,
		"added", report.Added,
		"updated", report.Updated,
		"removed", report.Removed,
		"unchanged", report.Unchanged,
		"failed", len(report.Failed),
		"duration", report.Duration,
	)

	return report, nil
}

// indexDocument chunks, embeds and stores one document, then commits its
// fingerprint. Write-then-commit ordering guarantees a crash mid-document at
// worst re-indexes it (idempotent), never marks it indexed without its data.
func (p *Pipeline) indexDocument(ctx context.Context, doc source.Document) error {
	chunks, err := p.splitter.Split(doc)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}

		stored := make([]*storage.Chunk, len(chunks))
		for i, c := range chunks {
			stored[i] = &storage.Chunk{
				ID:         storage.ChunkID(p.collection, doc.Source, c.Ordinal),
				Source:     doc.Source,
				Filename:   doc.Filename,
				Collection: p.collection,
				DocType:    string(doc.Type),
				Ordinal:    c.Ordinal,
				Page:       c.Page,
				Text:       c.Text,
				Embedding:  vectors[i],
			}
		}

		if err := p.store.UpsertChunks(ctx, p.collection, stored); err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
	}

	// Deterministic IDs overwrite ordinals 0..n-1 in place; a document that
	// shrank still has stale higher ordinals to clear. A document that
	// shrank to zero chunks ends up with none at all.
	if err := p.store.TrimDocument(ctx, p.collection, doc.Source, len(chunks)); err != nil {
		return fmt.Errorf("trim stale chunks: %w", err)
	}

	err = p.tracker.Commit(ctx, p.collection, doc.Source, tracker.Fingerprint{
		ContentHash: doc.ContentHash,
		ModTime:     doc.ModTime,
	})
	if err != nil {
		return fmt.Errorf("commit fingerprint: %w", err)
	}

	p.logger.Debug("indexed document", "source", doc.Source, "chunks", len(chunks))
	return nil
}

// removeDocument deletes a vanished document's chunks, then its fingerprint.
func (p *Pipeline) removeDocument(ctx context.Context, src string) error {
	if err := p.store.DeleteDocument(ctx, p.collection, src); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := p.tracker.Remove(ctx, p.collection, src); err != nil {
		return fmt.Errorf("remove fingerprint: %w", err)
	}
	p.logger.Debug("removed document", "source", src)
	return nil
}
