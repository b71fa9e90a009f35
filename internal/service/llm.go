package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/fernandovmc/ai-workspaces/internal/config"
	"github.com/fernandovmc/ai-workspaces/internal/model"
)

const (
	ContextualTemperature float32 = 0.3
	PersonalTemperature   float32 = 0.7
)

// ErrEmptyCompletion is returned when the provider answers without choices.
var ErrEmptyCompletion = errors.New("llm returned no choices")

// Completer is the model invocation used by the chat service.
type Completer interface {
	Complete(ctx context.Context, prompt []model.Turn, temperature float32) (string, error)
}

// LLMClient talks to OpenAI or any OpenAI compatible server (LM Studio, vLLM, ...).
type LLMClient struct {
	client    *openai.Client
	chatName  string
	maxTokens int
}

func NewLLMClient(cfg *config.Config) *LLMClient {
	key := cfg.LMAPIKey
	if key == "" {
		key = "not-needed"
	}
	oaiCfg := openai.DefaultConfig(key)
	if cfg.LMBaseURL != "" {
		oaiCfg.BaseURL = cfg.LMBaseURL
	}

	return &LLMClient{
		client:    openai.NewClientWithConfig(oaiCfg),
		chatName:  cfg.ChatModel,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends the prompt as-is and returns the first choice.
func (l *LLMClient) Complete(ctx context.Context, prompt []model.Turn, temperature float32) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.chatName,
		Messages:    toAPIMessages(prompt),
		Temperature: temperature,
		MaxTokens:   l.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (l *LLMClient) ListModels(ctx context.Context) ([]openai.Model, error) {
	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func toAPIMessages(turns []model.Turn) []openai.ChatCompletionMessage {
	res := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		res = append(res, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return res
}
