package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestChat(t *testing.T) {
	var gotReq ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := ollamaChatResponse{
			Model:   gotReq.Model,
			Message: ollamaMessage{Role: "assistant", Content: "Paris"},
			Done:    true,
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	reply, err := provider.Chat(context.Background(),
		[]llm.Message{{Role: "user", Content: "capital of France?"}},
		llm.WithMaxTokens(100),
	)

	assert.NoError(t, err)
	assert.Equal(t, "Paris", reply)
	assert.Equal(t, "llama3", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 100, gotReq.Options.NumPredict)
	if assert.Len(t, gotReq.Messages, 1) {
		assert.Equal(t, "user", gotReq.Messages[0].Role)
	}
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		enc := json.NewEncoder(w)
		chunks := []ollamaChatResponse{
			{Message: ollamaMessage{Role: "assistant", Content: "Par"}},
			{Message: ollamaMessage{Role: "assistant", Content: "is"}},
			{Done: true},
		}
		for _, c := range chunks {
			assert.NoError(t, enc.Encode(c))
		}
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")

	var tokens []string
	full, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "capital of France?"}},
		func(token string) error {
			tokens = append(tokens, token)
			return nil
		},
	)

	assert.NoError(t, err)
	assert.Equal(t, "Paris", full)
	assert.Equal(t, []string{"Par", "is"}, tokens)
}

func TestChatStreamModelOverride(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		assert.NoError(t, json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Content: "ok"},
			Done:    true,
		}))
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	_, err := provider.ChatStream(context.Background(), nil, nil, llm.WithModel("qwen2.5"))

	assert.NoError(t, err)
	assert.Equal(t, "qwen2.5", gotModel)
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "llama3")
	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
