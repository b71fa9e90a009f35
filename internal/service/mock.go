package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

// MockLLM answers without calling any provider. It echoes the last user
// turn and, when a document context is present, repeats its first
// paragraph so that citations can be exercised end to end.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, prompt []model.Turn, temperature float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var last string
	for i := len(prompt) - 1; i >= 0; i-- {
		if prompt[i].Role == model.RoleUser {
			last = prompt[i].Content
			break
		}
	}

	answer := fmt.Sprintf("[MOCK] Received your message: %q", last)
	if len(prompt) > 0 && prompt[0].Role == model.RoleSystem {
		if _, docs, ok := strings.Cut(prompt[0].Content, "Document contents:\n"); ok {
			first, _, _ := strings.Cut(docs, paragraphBreak)
			answer += ". " + strings.TrimSpace(first)
		}
	}
	return answer, nil
}

func (m *MockLLM) ListModels(ctx context.Context) ([]openai.Model, error) {
	return []openai.Model{{ID: "mock-chat", Object: "model", OwnedBy: "mock"}}, nil
}
