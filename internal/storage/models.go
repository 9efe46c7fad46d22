// Package storage persists chunk vectors. The Qdrant-backed store is the
// production implementation; the in-memory store serves tests and offline use.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Collection names. The two namespaces are isolated: a query against one
// never sees chunks from the other.
const (
	CollectionCampaign = "campaign"
	CollectionRules    = "rules"
)

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// chunkNamespace is the UUIDv5 namespace for deterministic chunk identity.
var chunkNamespace = uuid.MustParse("4f2c7d1a-9b8e-4e63-a1d0-6c5b2f8e3a90")

// Chunk is one stored retrieval unit with its embedding and provenance.
type Chunk struct {
	ID         string // deterministic UUID, see ChunkID
	Source     string // document identity within the collection
	Filename   string
	Collection string
	DocType    string
	Ordinal    int // position within the document
	Page       int // rulebook page number, 0 for notes
	Text       string
	Embedding  []float32
}

// ScoredChunk pairs a chunk with its similarity score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// ChunkID derives a chunk's identity from (collection, source, ordinal).
// Re-indexing an unchanged document is therefore idempotent, and a changed
// document overwrites its prior points exactly.
func ChunkID(collection, source string, ordinal int) string {
	name := fmt.Sprintf("%s|%s#%d", collection, source, ordinal)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// Store is the vector-store surface the pipelines consume. Only the indexing
// pipeline may call the mutating methods.
type Store interface {
	// UpsertChunks writes chunks into the collection, keyed by chunk ID.
	UpsertChunks(ctx context.Context, collection string, chunks []*Chunk) error
	// TrimDocument removes the document's chunks with ordinal >= keep,
	// clearing stale tails after a document shrinks.
	TrimDocument(ctx context.Context, collection, source string, keep int) error
	// DeleteDocument removes every chunk belonging to the document.
	DeleteDocument(ctx context.Context, collection, source string) error
	// Search returns up to limit chunks from the collection ranked by
	// similarity to the query vector.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]*ScoredChunk, error)
}
