// Package llm adapts chat-model backends to the single-prompt completion the
// rewrite step needs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer turns one prompt into one response. Implementations make exactly
// one request per call and never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultGeminiModel is used when no model is configured for Gemini.
const DefaultGeminiModel = "gemini-2.5-flash"

// Options selects and configures a backend.
type Options struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	// System is an optional system message for backends that support one.
	System      string
	Temperature float32
}

// New constructs the Completer named by opts.Provider.
func New(ctx context.Context, opts Options) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(opts), nil
	case ProviderGemini:
		return NewGemini(ctx, opts)
	case ProviderOllama:
		return NewOllama(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}
