package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Mode selects the embedding task type: documents at ingestion time,
// queries at retrieval time.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeQuery    Mode = "query"
)

// Embedder produces embeddings through an ordered fallback chain of model
// identifiers: each batch is tried against the models in order, and the
// first one to succeed wins. When every model fails the caller gets an
// error and is expected to substitute empty vectors rather than abort.
type Embedder struct {
	client *genai.Client
	models []string

	// embedFn is swapped out by tests; the default hits the Gemini API.
	embedFn func(ctx context.Context, model string, texts []string, mode Mode) ([][]float32, error)
}

func NewEmbedder(ctx context.Context, apiKey string, models []string, opts ...option.ClientOption) (*Embedder, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("embedder needs at least one model")
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	e := &Embedder{client: client, models: models}
	e.embedFn = e.embedWithModel
	return e, nil
}

// EmbedBatch embeds all texts in one API batch. On failure the next model
// in the chain is tried; the returned error carries the last failure.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for _, model := range e.models {
		vectors, err := e.embedFn(ctx, model, texts, mode)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		slog.WarnContext(ctx, "embedding model failed, trying next", "model", model, "error", err)
	}
	return nil, fmt.Errorf("all embedding models failed: %w", lastErr)
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{query}, ModeQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embedWithModel(ctx context.Context, model string, texts []string, mode Mode) ([][]float32, error) {
	em := e.client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeRetrievalDocument
	if mode == ModeQuery {
		em.TaskType = genai.TaskTypeRetrievalQuery
	}

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("model %s returned %d embeddings for %d texts", model, len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("model %s returned an empty embedding", model)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}
