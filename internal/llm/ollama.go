package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider completes prompts with a local Ollama server.
type OllamaProvider struct {
	llm         llms.Model
	System      string
	Temperature float32
}

func NewOllama(opts Options) (*OllamaProvider, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	o := []ollama.Option{ollama.WithModel(opts.Model)}
	if opts.BaseURL != "" {
		o = append(o, ollama.WithServerURL(opts.BaseURL))
	}
	m, err := ollama.New(o...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaProvider{llm: m, System: opts.System, Temperature: opts.Temperature}, nil
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if p.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, p.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	var callOpts []llms.CallOption
	if p.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(p.Temperature)))
	}
	resp, err := p.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("ollama completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}
