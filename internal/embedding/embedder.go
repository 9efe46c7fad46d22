// Package embedding turns text into fixed-dimension vectors via the OpenAI
// embeddings API. Indexing and querying must both go through this package so
// they always use the identical model — a mismatch silently degrades
// relevance and is not auto-detected.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// Model is the embedding model shared by indexing and querying. Its
	// vector size is storage.VectorDimension.
	Model = "text-embedding-3-small"

	// DefaultBatchSize balances requests-per-minute against tokens-per-minute.
	DefaultBatchSize = 500
)

// EmbeddingError wraps a failed embedding call. The pipeline treats it as a
// per-document failure: skip, report, do not commit the fingerprint.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Embedder batches embedding requests and retries rate-limit errors with
// exponential backoff.
type Embedder struct {
	client    openai.Client
	batchSize int
}

// New creates an embedder with an explicit API key. If batchSize is 0 the
// default is used.
func New(apiKey string, batchSize int) (*Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("embedding: API key is required")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		batchSize: batchSize,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		vectors, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, &EmbeddingError{Err: fmt.Errorf("batch %d-%d: %w", i, end, err)}
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedBatchWithRetry retries 429s with exponential backoff; any other
// failure is permanent.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: Model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 narrows the API's float64 vectors for storage.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
