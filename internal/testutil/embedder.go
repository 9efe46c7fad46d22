// Package testutil provides deterministic test doubles.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashEmbedder maps text to a deterministic bag-of-words vector. Similar
// texts get similar vectors, identical texts identical ones, so retrieval
// ranking is stable across runs without any network calls.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns an embedder producing vectors of the given
// dimension (32 when zero).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 32
	}
	return &HashEmbedder{Dim: dim}
}

// Embed hashes each word into a bucket and L2-normalizes the result.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.Dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			v[h.Sum32()%uint32(e.Dim)]++
		}
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range v {
				v[j] *= scale
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}
