package dto

import (
	"time"

	"ai-chat-be/pkg/llm"
)

type CreateChatSessionResponse struct {
	SessionId string `json:"session_id"`
}

type SendChatRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

type SendChatResponse struct {
	ThreadId  string    `json:"thread_id"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

type ResumeThreadRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	ThreadId  string `json:"thread_id" validate:"required"`
}

type ResumeThreadResponse struct {
	ThreadId string        `json:"thread_id"`
	History  []llm.Message `json:"message_history"`
}

type UpdateSettingsRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	ModelName string `json:"model_name" validate:"required"`
}
