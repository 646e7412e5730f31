package store

import (
	"ai-chat-be/pkg/llm"
)

// Session represents the active conversation state held in memory for the
// lifetime of a chat connection. It is the session context published to the
// chat collaborator: the rebuilt message history plus the active thread id.
// Sessions are never persisted; durable state lives in threads and steps.
type Session struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	ThreadID  string        `json:"thread_id"`
	ModelName string        `json:"model_name"` // settings override, empty = provider default
	History   []llm.Message `json:"message_history"`
}
