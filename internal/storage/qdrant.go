package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// vectorName is the named vector carrying chunk embeddings.
const vectorName = "text"

// upsertBatchSize bounds how many points go into one upsert request.
const upsertBatchSize = 100

// QdrantStore keeps chunk vectors in Qdrant, one collection per namespace.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to Qdrant over gRPC and verifies health with
// exponential backoff, failing fast if the server stays unreachable.
func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &QdrantStore{client: client}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return s, nil
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with a 1536-dim cosine vector and
// payload indexes if it does not exist yet. Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	return s.createPayloadIndexes(ctx, collection)
}

// createPayloadIndexes indexes the fields used for filtered deletes. Without
// them filter evaluation degrades to a full scan.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context, collection string) error {
	keywordFields := []string{"source", "doc_type"}
	for _, field := range keywordFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for %s: %w", field, err)
		}
	}

	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		FieldName:      "ordinal",
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create index for ordinal: %w", err)
	}

	return nil
}

// DropCollection deletes the collection and everything in it.
func (s *QdrantStore) DropCollection(ctx context.Context, collection string) error {
	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UpsertChunks writes chunks keyed by their deterministic IDs, in batches.
func (s *QdrantStore) UpsertChunks(ctx context.Context, collection string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(chunks))
		batch := chunks[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(chunk.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"source":     chunk.Source,
					"filename":   chunk.Filename,
					"collection": chunk.Collection,
					"doc_type":   chunk.DocType,
					"ordinal":    chunk.Ordinal,
					"page":       chunk.Page,
					"text":       chunk.Text,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, collection, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// TrimDocument deletes the document's chunks with ordinal >= keep.
func (s *QdrantStore) TrimDocument(ctx context.Context, collection, source string, keep int) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source", source),
			qdrant.NewRange("ordinal", &qdrant.Range{
				Gte: qdrant.PtrOf(float64(keep)),
			}),
		},
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("trim %s in %s: %w", source, collection, err)
	}
	return nil
}

// DeleteDocument removes every chunk whose source identity matches.
func (s *QdrantStore) DeleteDocument(ctx context.Context, collection, source string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source", source),
		},
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("delete %s from %s: %w", source, collection, err)
	}
	return nil
}

// Search runs a similarity query against one collection and returns ranked
// chunks with scores. Ranking comes from Qdrant unmodified.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]*ScoredChunk, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}

	using := vectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          &using,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	scored := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		scored = append(scored, &ScoredChunk{
			Chunk: &Chunk{
				ID:         result.Id.GetUuid(),
				Source:     payload["source"].GetStringValue(),
				Filename:   payload["filename"].GetStringValue(),
				Collection: payload["collection"].GetStringValue(),
				DocType:    payload["doc_type"].GetStringValue(),
				Ordinal:    int(payload["ordinal"].GetIntegerValue()),
				Page:       int(payload["page"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
			},
			Score: float64(result.Score),
		})
	}

	return scored, nil
}
