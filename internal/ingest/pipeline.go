package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docschat/internal/adapter/gemini"
	wstore "docschat/internal/adapter/weaviate"
	"docschat/internal/crawler"
	"docschat/internal/text"
)

type Crawler interface {
	Crawl(ctx context.Context, seedURL string) ([]crawler.Page, error)
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, mode gemini.Mode) ([][]float32, error)
}

type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertChunks(ctx context.Context, points []wstore.Point) (int, error)
}

type Stats struct {
	Pages    int
	Chunks   int
	Embedded int
	Stored   int
}

// Pipeline runs the sequential ingestion flow: crawl, chunk, embed in
// batches, upsert. Embedding failures are localized to their batch; the
// affected chunks get empty vectors and are excluded from storage.
type Pipeline struct {
	crawler    Crawler
	embedder   Embedder
	store      Store
	seedURL    string
	batchSize  int
	batchDelay time.Duration
}

func NewPipeline(c Crawler, e Embedder, s Store, seedURL string, batchSize int, batchDelay time.Duration) *Pipeline {
	if batchSize <= 0 {
		batchSize = 96
	}
	return &Pipeline{
		crawler:    c,
		embedder:   e,
		store:      s,
		seedURL:    seedURL,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	slog.Info("starting content extraction", "seed", p.seedURL)
	pages, err := p.crawler.Crawl(ctx, p.seedURL)
	if err != nil {
		return stats, fmt.Errorf("crawl failed: %w", err)
	}
	if len(pages) == 0 {
		return stats, fmt.Errorf("no pages extracted from %s", p.seedURL)
	}
	stats.Pages = len(pages)
	slog.Info("extracted pages", "count", len(pages))

	var chunks []text.Chunk
	for _, page := range pages {
		chunks = append(chunks, text.ChunkHTML(page.HTMLContent, page.URL)...)
	}
	stats.Chunks = len(chunks)
	slog.Info("created content chunks", "count", len(chunks))

	vectors := p.embedAll(ctx, chunks)
	for _, v := range vectors {
		if len(v) > 0 {
			stats.Embedded++
		}
	}

	if err := p.store.EnsureSchema(ctx); err != nil {
		return stats, fmt.Errorf("schema ensure failed: %w", err)
	}

	points := make([]wstore.Point, len(chunks))
	ordinals := make(map[string]int)
	for i, c := range chunks {
		points[i] = wstore.Point{Chunk: c, Vector: vectors[i], Ordinal: ordinals[c.SourceURL]}
		ordinals[c.SourceURL]++
	}

	stored, err := p.store.UpsertChunks(ctx, points)
	stats.Stored = stored
	if err != nil {
		return stats, fmt.Errorf("vector upsert failed: %w", err)
	}

	slog.Info("ingestion completed", "pages", stats.Pages, "chunks", stats.Chunks, "embedded", stats.Embedded, "stored", stats.Stored)
	return stats, nil
}

// embedAll embeds chunk texts in fixed-size batches. A batch that fails on
// every fallback model yields empty vectors for its chunks; ingestion
// continues with the rest.
func (p *Pipeline) embedAll(ctx context.Context, chunks []text.Chunk) [][]float32 {
	vectors := make([][]float32, len(chunks))

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}

		batchVectors, err := p.embedder.EmbedBatch(ctx, texts, gemini.ModeDocument)
		if err != nil {
			slog.Error("embedding batch failed, chunks excluded from storage", "offset", start, "size", len(texts), "error", err)
			batchVectors = make([][]float32, len(texts))
		}
		copy(vectors[start:], batchVectors)

		slog.Info("processed embedding batch", "batch", start/p.batchSize+1, "size", len(texts))

		if p.batchDelay > 0 && end < len(chunks) {
			select {
			case <-ctx.Done():
				return vectors
			case <-time.After(p.batchDelay):
			}
		}
	}
	return vectors
}
