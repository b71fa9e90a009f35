package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandovmc/ai-workspaces/internal/config"
	"github.com/fernandovmc/ai-workspaces/internal/model"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewLLMClient(&config.Config{
		LMBaseURL: server.URL + "/v1",
		ChatModel: "test-model",
		MaxTokens: 256,
	})
}

func TestLLMClientComplete(t *testing.T) {
	var got openai.ChatCompletionRequest
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "  Hello there!  "},
				"finish_reason": "stop",
			}},
		})
	})

	prompt := []model.Turn{
		{Role: model.RoleSystem, Content: "be nice"},
		{Role: model.RoleUser, Content: "hi"},
	}
	answer, err := llm.Complete(context.Background(), prompt, ContextualTemperature)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", answer)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestLLMClientEmptyChoices(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := llm.Complete(context.Background(), []model.Turn{{Role: model.RoleUser, Content: "hi"}}, PersonalTemperature)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestLLMClientProviderError(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	})

	_, err := llm.Complete(context.Background(), []model.Turn{{Role: model.RoleUser, Content: "hi"}}, PersonalTemperature)
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
}

func TestLLMClientListModels(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"m1","object":"model","owned_by":"me"}]}`))
	})

	models, err := llm.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "m1", models[0].ID)
}

func TestMockLLM(t *testing.T) {
	mock := NewMockLLM()

	prompt, err := ComposeContextualPrompt(
		[]model.Turn{{Role: model.RoleUser, Content: "what do cats do?"}},
		[]string{"Cats purr when happy.\n\nDogs bark."},
		DefaultComposeOptions(),
	)
	require.NoError(t, err)

	answer, err := mock.Complete(context.Background(), prompt, ContextualTemperature)
	require.NoError(t, err)
	assert.Contains(t, answer, `"what do cats do?"`)
	assert.Contains(t, answer, "Cats purr when happy.")
	assert.Equal(t, []string{"Cats purr when happy."}, AttributeCitations(answer, []string{"Cats purr when happy.\n\nDogs bark."}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = mock.Complete(ctx, prompt, ContextualTemperature)
	assert.ErrorIs(t, err, context.Canceled)
}
