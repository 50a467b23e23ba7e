package main

import (
	"context"
	"log/slog"
	"os"

	"docschat/internal/adapter/gemini"
	wstore "docschat/internal/adapter/weaviate"
	"docschat/internal/app"
	"docschat/internal/config"
	"docschat/internal/crawler"
	"docschat/internal/ingest"
)

// Ingestion runs as a standalone binary: crawl the documentation site,
// chunk it, embed the chunks, and load them into Weaviate. It is expected
// to be re-run whenever the site content changes.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateIngest(); err != nil {
		slog.Error("invalid ingestion config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	wClient, err := app.ConnectWeaviate(ctx, cfg)
	if err != nil {
		slog.Error("weaviate connection failed", "error", err)
		os.Exit(1)
	}

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModels)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	vecStore := wstore.NewStore(wClient, wstore.StoreConfig{
		ClassName:      cfg.CollectionName,
		ModuleTag:      cfg.ModuleTag,
		ContentTypeTag: cfg.ContentTypeTag,
		BatchSize:      cfg.UpsertBatchSize,
		BatchDelay:     cfg.UpsertDelay,
	})

	c := crawler.New(
		crawler.WithDelay(cfg.FetchDelay),
		crawler.WithTimeout(cfg.FetchTimeout),
	)

	pipeline := ingest.NewPipeline(c, embedder, vecStore, cfg.BaseURL, cfg.EmbedBatchSize, cfg.EmbedBatchDelay)

	stats, err := pipeline.Run(ctx)
	if err != nil {
		slog.Error("ingestion failed", "error", err, "pages", stats.Pages, "chunks", stats.Chunks)
		os.Exit(1)
	}

	slog.Info("ingestion finished", "pages", stats.Pages, "chunks", stats.Chunks, "embedded", stats.Embedded, "stored", stats.Stored)
}
