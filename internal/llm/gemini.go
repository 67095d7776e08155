package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider completes prompts with the Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	Model       string
	System      string
	Temperature float32 // zero leaves the server default
}

// NewGemini requires an API key; the model defaults to DefaultGeminiModel.
func NewGemini(ctx context.Context, opts Options) (*GeminiProvider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	cc := &genai.ClientConfig{APIKey: opts.APIKey, Backend: genai.BackendGeminiAPI}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, Model: model, System: opts.System, Temperature: opts.Temperature}, nil
}

func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if g.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.System, genai.RoleUser)
	}
	if g.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.Temperature)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
