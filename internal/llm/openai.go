package llm

import (
    "context"
    "fmt"
    "net/http"
    "strings"

    openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the slice of *openai.Client used here, so any
// OpenAI-compatible or in-process backend can be substituted.
type ChatClient interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability that allows listing available models.
// Callers should use a type assertion to detect availability.
type ModelLister interface {
    ListModels(ctx context.Context) ([]string, error)
}

// OpenAIProvider completes prompts through any OpenAI-compatible endpoint.
type OpenAIProvider struct {
    Inner       ChatClient
    Model       string
    System      string
    Temperature float32
}

// NewOpenAI builds a provider on a go-openai client. opts.BaseURL may point
// at a local server such as LM Studio or vLLM.
func NewOpenAI(opts Options) *OpenAIProvider {
    return NewOpenAIWithHTTPClient(opts, nil)
}

// NewOpenAIWithHTTPClient is NewOpenAI with a caller-supplied transport.
func NewOpenAIWithHTTPClient(opts Options, hc *http.Client) *OpenAIProvider {
    cfg := openai.DefaultConfig(opts.APIKey)
    if opts.BaseURL != "" {
        cfg.BaseURL = opts.BaseURL
    }
    if hc != nil {
        cfg.HTTPClient = hc
    }
    return &OpenAIProvider{
        Inner:       openai.NewClientWithConfig(cfg),
        Model:       opts.Model,
        System:      opts.System,
        Temperature: opts.Temperature,
    }
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
    msgs := make([]openai.ChatCompletionMessage, 0, 2)
    if p.System != "" {
        msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
    }
    msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
    resp, err := p.Inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
        Model:       p.Model,
        Messages:    msgs,
        Temperature: p.Temperature,
        N:           1,
    })
    if err != nil {
        return "", fmt.Errorf("openai completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return "", ErrEmptyCompletion
    }
    out := resp.Choices[0].Message.Content
    if strings.TrimSpace(out) == "" {
        return "", ErrEmptyCompletion
    }
    return out, nil
}

// ListModels returns model ids when the inner client can list them.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
    c, ok := p.Inner.(*openai.Client)
    if !ok {
        return nil, fmt.Errorf("model listing not supported")
    }
    list, err := c.ListModels(ctx)
    if err != nil {
        return nil, err
    }
    ids := make([]string, 0, len(list.Models))
    for _, m := range list.Models {
        ids = append(ids, m.ID)
    }
    return ids, nil
}
