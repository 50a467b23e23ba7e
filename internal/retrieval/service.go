package retrieval

import (
	"context"
	"log/slog"
	"time"
)

// RetrievedContent is one vector-search hit, alive only for the duration of
// a single request.
type RetrievedContent struct {
	Content     string  `json:"content"`
	URL         string  `json:"url"`
	Header      string  `json:"header"`
	HeaderType  string  `json:"headerType"`
	ContentType string  `json:"contentType"`
	Score       float32 `json:"score"`
}

type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, vector []float32, limit int) ([]RetrievedContent, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	limit    int
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, limit int, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, limit: limit, logger: l}
}

// Retrieve embeds the query and searches the vector store. Retrieval is
// best-effort: any failure degrades to an empty result set so generation
// can proceed ungrounded instead of failing the request.
func (s *Service) Retrieve(ctx context.Context, query string) []RetrievedContent {
	start := time.Now()

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "query embedding failed, retrieval degraded", "error", err)
		return nil
	}

	results, err := s.store.Search(ctx, vec, s.limit)
	if err != nil {
		slog.WarnContext(ctx, "vector search failed, retrieval degraded", "error", err)
		return nil
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:      query,
			NumResults: len(results),
			Duration:   time.Since(start),
		})
	}
	return results
}
