package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Chat(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o",
			"choices": []any{map[string]any{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": "承知しました"},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", "gpt-4o", srv.URL)
	require.NoError(t, err)

	out, err := p.Chat(context.Background(), "SYSTEM", []Turn{
		{Role: RoleUser, Content: "こんにちは"},
		{Role: RoleAssistant, Content: "はい"},
		{Role: RoleUser, Content: "返信を作って"},
	})
	require.NoError(t, err)
	assert.Equal(t, "承知しました", out)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "gpt-4o", got.Model)
}

func TestOllamaProvider_ChatAndList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Len(t, req.Messages, 2)
		writeJSON(w, map[string]any{
			"model":   "llama3",
			"message": map[string]any{"role": "assistant", "content": "どうぞ"},
			"done":    true,
		})
	})
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"models": []any{map[string]any{"name": "llama3:latest"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	out, err := p.Chat(context.Background(), "SYSTEM", []Turn{{Role: RoleUser, Content: "こんにちは"}})
	require.NoError(t, err)
	assert.Equal(t, "どうぞ", out)

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest"}, models)
}
