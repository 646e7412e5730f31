package factory

import (
	"fmt"

	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured completion backend.
func NewLLMProvider(provider, model, ollamaBaseURL string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama", "":
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", provider)
	}
}
