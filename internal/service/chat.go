package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

var (
	ErrEmptyMessage   = errors.New("message text is required")
	ErrNoMessages     = errors.New("messages are required")
	ErrNoDocuments    = errors.New("document ids are required for contextual chat")
	ErrInvalidMode    = errors.New("unknown chat mode")
	ErrInvalidHistory = errors.New("history contains an invalid turn")
)

// FallbackAnswer is stored in place of an empty model answer.
const FallbackAnswer = "Unable to generate a response."

// MessageStore persists the conversation of every workspace.
type MessageStore interface {
	AddMessage(ctx context.Context, m *model.ChatMessage) error
	ListMessages(ctx context.Context, workspaceID int64, mode model.ChatMode, limit int) ([]model.ChatMessage, error)
}

// ContentStore resolves document texts for the context turn.
type ContentStore interface {
	DocumentContents(ctx context.Context, workspaceID int64, ids []int64) ([]string, error)
	WorkspaceContents(ctx context.Context, workspaceID int64) ([]string, error)
}

type ChatOptions struct {
	Compose      ComposeOptions
	HistoryLimit int
	Timeout      time.Duration
}

type ChatService struct {
	messages MessageStore
	contents ContentStore
	llm      Completer
	opts     ChatOptions
	log      *slog.Logger
}

func NewChatService(messages MessageStore, contents ContentStore, llm Completer, opts ChatOptions, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		messages: messages,
		contents: contents,
		llm:      llm,
		opts:     opts,
		log:      log.With("component", "chat"),
	}
}

// Send stores text as a user turn, asks the model with the recent
// conversation and stores the answer. Contextual answers carry citations.
// When the model fails nothing but the user turn is persisted.
func (s *ChatService) Send(ctx context.Context, workspaceID int64, mode model.ChatMode, text string) (*model.ChatMessage, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	var sources []string
	if mode == model.ModeContextual {
		var err error
		sources, err = s.contents.WorkspaceContents(ctx, workspaceID)
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		if len(sources) == 0 {
			s.log.Warn("no documents for contextual chat", "workspace", workspaceID)
			return nil, ErrMissingContext
		}
	}

	if err := s.messages.AddMessage(ctx, &model.ChatMessage{
		WorkspaceID: workspaceID,
		Role:        model.RoleUser,
		Mode:        mode,
		Content:     text,
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	stored, err := s.messages.ListMessages(ctx, workspaceID, mode, s.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]model.Turn, 0, len(stored))
	for _, m := range stored {
		history = append(history, m.Turn())
	}

	resp, err := s.answer(ctx, mode, history, sources)
	if err != nil {
		return nil, err
	}
	content := resp.Answer
	if content == "" {
		content = FallbackAnswer
	}

	reply := &model.ChatMessage{
		WorkspaceID: workspaceID,
		Role:        model.RoleAssistant,
		Mode:        mode,
		Content:     content,
		Citations:   resp.Citations,
	}
	if err := s.messages.AddMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	s.log.Debug("chat answered", "workspace", workspaceID, "mode", mode, "turns", len(history), "citations", len(resp.Citations))
	return reply, nil
}

// History returns the stored conversation, oldest first.
func (s *ChatService) History(ctx context.Context, workspaceID int64, mode model.ChatMode) ([]model.ChatMessage, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	return s.messages.ListMessages(ctx, workspaceID, mode, s.opts.HistoryLimit)
}

// Personal answers a caller-supplied conversation without storing it.
func (s *ChatService) Personal(ctx context.Context, turns []model.Turn) (*model.PersonalChatResponse, error) {
	if err := validateTurns(turns); err != nil {
		return nil, err
	}
	resp, err := s.answer(ctx, model.ModePersonal, turns, nil)
	if err != nil {
		return nil, err
	}
	return &model.PersonalChatResponse{Answer: resp.Answer}, nil
}

// Contextual answers a caller-supplied conversation grounded on the given
// documents of the workspace, without storing it. Citations are never nil.
func (s *ChatService) Contextual(ctx context.Context, workspaceID int64, turns []model.Turn, documentIDs []int64) (*model.ChatResponse, error) {
	if err := validateTurns(turns); err != nil {
		return nil, err
	}
	if len(documentIDs) == 0 {
		return nil, ErrNoDocuments
	}
	sources, err := s.contents.DocumentContents(ctx, workspaceID, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return s.answer(ctx, model.ModeContextual, turns, sources)
}

func (s *ChatService) answer(ctx context.Context, mode model.ChatMode, history []model.Turn, sources []string) (*model.ChatResponse, error) {
	var (
		prompt      []model.Turn
		temperature float32
	)
	if mode == model.ModeContextual {
		var err error
		prompt, err = ComposeContextualPrompt(history, sources, s.opts.Compose)
		if err != nil {
			return nil, err
		}
		temperature = ContextualTemperature
	} else {
		prompt = ComposePersonalPrompt(history, s.opts.Compose)
		temperature = PersonalTemperature
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.llm.Complete(ctx, prompt, temperature)
	if err != nil {
		s.log.Error("llm completion failed", "mode", mode, "err", err)
		return nil, fmt.Errorf("%s chat: %w", mode, err)
	}
	s.log.Debug("llm completion", "mode", mode, "prompt_turns", len(prompt), "took", time.Since(start))

	resp := &model.ChatResponse{Answer: text}
	if mode == model.ModeContextual {
		resp.Citations = []string{}
		if text != "" {
			resp.Citations = AttributeCitations(text, sources)
		}
	}
	return resp, nil
}

func validateTurns(turns []model.Turn) error {
	if len(turns) == 0 {
		return ErrNoMessages
	}
	for _, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: role %q", ErrInvalidHistory, t.Role)
		}
	}
	return nil
}
