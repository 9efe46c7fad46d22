package storage

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity store. It implements the
// same Store interface as QdrantStore and backs the package tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Chunk // collection -> chunk ID -> chunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*Chunk),
	}
}

func (s *MemoryStore) UpsertChunks(_ context.Context, collection string, chunks []*Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]*Chunk)
		s.collections[collection] = coll
	}
	for _, chunk := range chunks {
		c := *chunk
		coll[c.ID] = &c
	}
	return nil
}

func (s *MemoryStore) TrimDocument(_ context.Context, collection, source string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chunk := range s.collections[collection] {
		if chunk.Source == source && chunk.Ordinal >= keep {
			delete(s.collections[collection], id)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, collection, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chunk := range s.collections[collection] {
		if chunk.Source == source {
			delete(s.collections[collection], id)
		}
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, limit int) ([]*ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*ScoredChunk, 0, len(s.collections[collection]))
	for _, chunk := range s.collections[collection] {
		scored = append(scored, &ScoredChunk{
			Chunk: chunk,
			Score: cosine(chunk.Embedding, vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Count returns how many chunks the collection holds.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// Sources returns the distinct source identities stored in the collection.
func (s *MemoryStore) Sources(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var sources []string
	for _, chunk := range s.collections[collection] {
		if !seen[chunk.Source] {
			seen[chunk.Source] = true
			sources = append(sources, chunk.Source)
		}
	}
	sort.Strings(sources)
	return sources
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
