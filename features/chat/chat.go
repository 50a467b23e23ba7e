package chat

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Selection is one piece of user-highlighted text, kept in session context.
type Selection struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext is the JSON blob persisted per session.
type SessionContext struct {
	SelectedTexts []Selection `json:"selected_texts,omitempty"`
}

// Message is one row of the append-only chat log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	Citations []string `json:"citations"`
}

type SelectionRequest struct {
	SelectedText string `json:"selected_text"`
	SessionID    string `json:"session_id"`
}

type SelectionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}
