package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docschat/internal/retrieval"
)

// ApologyResponse is returned verbatim when answer generation fails. The
// exchange is still persisted so the session log stays complete.
const ApologyResponse = "I encountered an error while processing your request. Please try again."

const finalInstruction = "Please provide a helpful response based on the provided context, citing relevant sources when possible."

type Retriever interface {
	Retrieve(ctx context.Context, query string) []retrieval.RetrievedContent
}

type Generator interface {
	Complete(ctx context.Context, systemContext, userQuery string) (string, error)
}

type Options struct {
	SystemPrompt  string
	Context       ContextOptions
	CitationLimit int
}

type Service struct {
	retriever Retriever
	generator Generator
	repo      Repository
	opts      Options
}

func NewService(retriever Retriever, generator Generator, repo Repository, opts Options) *Service {
	return &Service{
		retriever: retriever,
		generator: generator,
		repo:      repo,
		opts:      opts,
	}
}

// Chat runs one conversational turn: load session state, retrieve
// documentation, assemble the prompt, generate, extract citations, and
// persist both the user message and the assistant reply. Read failures on
// session state degrade to empty state; write failures surface as errors
// because losing history silently would desync the session log.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sctx, err := s.repo.GetContext(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "session context unavailable, continuing without", "session_id", sessionID, "error", err)
		sctx = SessionContext{}
	}

	history, err := s.repo.History(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "chat history unavailable, continuing without", "session_id", sessionID, "error", err)
		history = nil
	}

	retrieved := s.retriever.Retrieve(ctx, req.Message)

	assembled := BuildPromptContext(s.opts.SystemPrompt, retrieved, sctx.SelectedTexts, history, s.opts.Context)
	userQuery := fmt.Sprintf("User Query: %s\n\n%s", req.Message, finalInstruction)

	var citations []string
	answer, err := s.generator.Complete(ctx, assembled, userQuery)
	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed", "session_id", sessionID, "error", err)
		answer = ApologyResponse
	} else {
		citations = ExtractCitations(answer, retrieved, s.opts.CitationLimit)
	}
	if citations == nil {
		citations = []string{}
	}

	if err := s.repo.AppendMessage(ctx, sessionID, RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	if err := s.repo.AppendMessage(ctx, sessionID, RoleAssistant, answer); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	return &ChatResponse{
		Response:  answer,
		SessionID: sessionID,
		Citations: citations,
	}, nil
}

// SaveSelection appends one highlighted-text entry to the session context.
func (s *Service) SaveSelection(ctx context.Context, sessionID, selectedText string) error {
	sctx, err := s.repo.GetContext(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "session context unavailable, starting fresh", "session_id", sessionID, "error", err)
		sctx = SessionContext{}
	}

	sctx.SelectedTexts = append(sctx.SelectedTexts, Selection{
		Text:      selectedText,
		Timestamp: time.Now().UTC(),
	})

	if err := s.repo.SaveContext(ctx, sessionID, sctx); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}
