package weaviate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"docschat/internal/retrieval"
	"docschat/internal/text"
	"docschat/internal/vector"
)

// Payload content is capped so a pathological page cannot bloat the index.
const maxPayloadChars = 10000

// Point is one chunk plus its embedding, ready for upsert. Ordinal is the
// chunk's position within its page and feeds the deterministic object id,
// so re-ingesting the same page overwrites the same objects.
type Point struct {
	Chunk   text.Chunk
	Vector  []float32
	Ordinal int
}

type Store struct {
	client         *weaviate.Client
	className      string
	moduleTag      string
	contentTypeTag string
	batchSize      int
	batchDelay     time.Duration
}

type StoreConfig struct {
	ClassName      string
	ModuleTag      string
	ContentTypeTag string
	BatchSize      int
	BatchDelay     time.Duration
}

func NewStore(client *weaviate.Client, cfg StoreConfig) *Store {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &Store{
		client:         client,
		className:      cfg.ClassName,
		moduleTag:      cfg.ModuleTag,
		contentTypeTag: cfg.ContentTypeTag,
		batchSize:      cfg.BatchSize,
		batchDelay:     cfg.BatchDelay,
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	adapter := vector.NewSchemaAdapter(s.client)
	return vector.EnsureSchema(ctx, adapter, s.className)
}

// UpsertChunks writes points in fixed-size batches with a configurable
// inter-batch delay. Points with empty vectors (failed embeddings) are
// skipped, never stored.
func (s *Store) UpsertChunks(ctx context.Context, points []Point) (int, error) {
	var objects []*models.Object
	for _, p := range points {
		if len(p.Vector) == 0 {
			continue
		}
		objects = append(objects, &models.Object{
			Class:  s.className,
			ID:     strfmt.UUID(pointID(p.Chunk, p.Ordinal)),
			Vector: p.Vector,
			Properties: map[string]interface{}{
				"content":     truncateRunes(p.Chunk.Content, maxPayloadChars),
				"url":         p.Chunk.SourceURL,
				"header":      p.Chunk.Header,
				"headerType":  string(p.Chunk.HeaderType),
				"module":      s.moduleTag,
				"contentType": s.contentTypeTag,
			},
		})
	}

	stored := 0
	for start := 0; start < len(objects); start += s.batchSize {
		end := start + s.batchSize
		if end > len(objects) {
			end = len(objects)
		}
		batch := objects[start:end]

		res, err := s.client.Batch().ObjectsBatcher().WithObjects(batch...).Do(ctx)
		if err != nil {
			return stored, fmt.Errorf("batch upsert failed at offset %d: %w", start, err)
		}
		for _, r := range res {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return stored, fmt.Errorf("batch upsert rejected object: %s", r.Result.Errors.Error[0].Message)
			}
		}
		stored += len(batch)
		slog.Info("upserted batch", "size", len(batch), "stored", stored, "total", len(objects))

		if s.batchDelay > 0 && end < len(objects) {
			select {
			case <-ctx.Done():
				return stored, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
	}
	return stored, nil
}

// Search runs a nearVector query and maps the payloads back to retrieval
// results, using cosine certainty as the similarity score.
func (s *Store) Search(ctx context.Context, queryVector []float32, limit int) ([]retrieval.RetrievedContent, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "url"},
		{Name: "header"},
		{Name: "headerType"},
		{Name: "contentType"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.RetrievedContent
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	hits, ok := data[s.className].([]interface{})
	if !ok {
		return results, nil
	}

	for _, h := range hits {
		props, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		result := retrieval.RetrievedContent{}
		if v, ok := props["content"].(string); ok {
			result.Content = v
		}
		if v, ok := props["url"].(string); ok {
			result.URL = v
		}
		if v, ok := props["header"].(string); ok {
			result.Header = v
		}
		if v, ok := props["headerType"].(string); ok {
			result.HeaderType = v
		}
		if v, ok := props["contentType"].(string); ok {
			result.ContentType = v
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				result.Score = float32(certainty)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// pointID derives a stable object id from the chunk's identity, so that a
// re-ingestion run overwrites the same logical chunk instead of whatever
// happened to share a sequence number.
func pointID(c text.Chunk, ordinal int) string {
	name := fmt.Sprintf("%s#%s#%d", c.SourceURL, c.Header, ordinal)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
