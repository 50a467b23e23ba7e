package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"docschat/features/chat"
	"docschat/internal/adapter/gemini"
	wstore "docschat/internal/adapter/weaviate"
	"docschat/internal/app"
	"docschat/internal/config"
	"docschat/internal/middleware"
	"docschat/internal/retrieval"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModels)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GenerationModel, cfg.Temperature, cfg.MaxOutputTokens)
	if err != nil {
		slog.Error("failed to create generator", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	vecStore := wstore.NewStore(deps.Weaviate, wstore.StoreConfig{
		ClassName:      cfg.CollectionName,
		ModuleTag:      cfg.ModuleTag,
		ContentTypeTag: cfg.ContentTypeTag,
		BatchSize:      cfg.UpsertBatchSize,
		BatchDelay:     cfg.UpsertDelay,
	})

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(embedder, vecStore, cfg.RetrievalLimit, queryLogger)

	chatRepo := chat.NewPostgresRepo(deps.DB)
	chatService := chat.NewService(retrievalService, generator, chatRepo, chat.Options{
		SystemPrompt:  cfg.SystemPrompt,
		CitationLimit: cfg.CitationLimit,
		Context: chat.ContextOptions{
			HighlightPlacement: cfg.HighlightPlacement,
			MaxSelections:      cfg.MaxSelections,
			MaxMessages:        cfg.MaxHistoryMessages,
			ExcerptChars:       cfg.ExcerptChars,
		},
	})
	chatHandler := chat.NewHandler(chatService)

	mux := http.NewServeMux()
	registerRoutes(mux, chatHandler, middleware.CORS(cfg.AllowedOrigins), cfg.RequestTimeout)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	slog.Info("server starting", "port", cfg.ServerPort)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// registerRoutes wires the HTTP surface. Method-scoped mux patterns never
// match OPTIONS, so each endpoint that takes cross-origin POSTs gets an
// explicit OPTIONS route; the CORS middleware answers the preflight there.
// The request timeout becomes a context deadline around the chat handlers,
// so a hung generation or search call produces an error response instead
// of an idle connection.
func registerRoutes(mux *http.ServeMux, handler *chat.Handler, cors func(http.HandlerFunc) http.HandlerFunc, timeout time.Duration) {
	bounded := middleware.Timeout(timeout)
	preflight := cors(func(w http.ResponseWriter, r *http.Request) {})

	mux.Handle("POST /chat", middleware.CorrelationID(cors(bounded(handler.Chat))))
	mux.Handle("OPTIONS /chat", preflight)

	mux.Handle("POST /chat/selection", middleware.CorrelationID(cors(bounded(handler.Selection))))
	mux.Handle("OPTIONS /chat/selection", preflight)

	mux.Handle("GET /health", cors(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}))

	mux.Handle("GET /{$}", cors(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Documentation chat API is running"}`))
	}))
}
