package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"docschat/internal/middleware"
)

type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	SaveSelection(ctx context.Context, sessionID, selectedText string) error
}

type Handler struct {
	service ChatService
}

func NewHandler(service ChatService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "message is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Chat(r.Context(), req)
	if err != nil {
		slog.Error("chat turn failed", "error", err, "session_id", req.SessionID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.SelectedText == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "selected_text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "session_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SaveSelection(r.Context(), req.SessionID, req.SelectedText); err != nil {
		slog.Error("selection save failed", "error", err, "session_id", req.SessionID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := SelectionResponse{Status: "Selection saved successfully", SessionID: req.SessionID}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
