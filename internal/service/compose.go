package service

import (
	"errors"
	"strings"

	"github.com/fernandovmc/ai-workspaces/internal/model"
)

// ErrMissingContext is returned when a contextual prompt is requested
// without any source documents.
var ErrMissingContext = errors.New("no document content available")

// SourceDelimiter separates document texts inside the context turn.
const SourceDelimiter = "\n\n---\n\n"

const (
	DefaultHistoryWindow = 10

	DefaultContextInstruction = "You are an AI assistant with access to the following documents. " +
		"Use this context to answer the user's questions accurately.\n\nDocument contents:\n"
	DefaultPersonalInstruction = "You are a helpful assistant."
)

// ComposeOptions controls how history and sources become a prompt.
type ComposeOptions struct {
	// Window is the number of most recent history turns kept.
	// Zero or negative keeps everything.
	Window int
	// ContextInstruction prefixes the joined document texts.
	ContextInstruction string
	// PersonalInstruction is the system turn of personal prompts.
	// Empty omits the system turn.
	PersonalInstruction string
}

func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{
		Window:              DefaultHistoryWindow,
		ContextInstruction:  DefaultContextInstruction,
		PersonalInstruction: DefaultPersonalInstruction,
	}
}

// WindowHistory returns a copy of the last n turns of history.
func WindowHistory(history []model.Turn, n int) []model.Turn {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]model.Turn(nil), history...)
}

// ComposeContextualPrompt prepends a system turn carrying every source
// text to the windowed history.
func ComposeContextualPrompt(history []model.Turn, sources []string, opts ComposeOptions) ([]model.Turn, error) {
	if len(sources) == 0 {
		return nil, ErrMissingContext
	}
	system := model.Turn{
		Role:    model.RoleSystem,
		Content: opts.ContextInstruction + strings.Join(sources, SourceDelimiter),
	}
	return prependSystem(system, WindowHistory(history, opts.Window)), nil
}

// ComposePersonalPrompt builds a prompt without any document text.
func ComposePersonalPrompt(history []model.Turn, opts ComposeOptions) []model.Turn {
	windowed := WindowHistory(history, opts.Window)
	if opts.PersonalInstruction == "" {
		return windowed
	}
	return prependSystem(model.Turn{Role: model.RoleSystem, Content: opts.PersonalInstruction}, windowed)
}

func prependSystem(system model.Turn, turns []model.Turn) []model.Turn {
	out := make([]model.Turn, 0, len(turns)+1)
	out = append(out, system)
	return append(out, turns...)
}
