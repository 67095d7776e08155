package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/article"
	"github.com/hyperifyio/gooptimize/internal/cache"
	"github.com/hyperifyio/gooptimize/internal/extract"
	"github.com/hyperifyio/gooptimize/internal/llm"
)

// ErrRewrite wraps every failure to obtain a usable rewrite.
var ErrRewrite = errors.New("rewrite failed")

// Optimized is a rewritten article before publication.
type Optimized struct {
	Title      string
	Body       string
	References []Reference
}

// Optimizer calls the model once per article.
type Optimizer struct {
	Client llm.Completer
	// Model only keys the completion cache; the Completer owns model choice.
	Model string
	Cache *cache.CompletionCache
}

type cachedCompletion struct {
	Completion string `json:"completion"`
}

// Optimize rewrites a using refs. The returned title falls back to a.Title
// when the reply carries none.
func (o *Optimizer) Optimize(ctx context.Context, a article.Article, refs []extract.Content) (Optimized, error) {
	if o.Client == nil {
		return Optimized{}, fmt.Errorf("%w: no model client", ErrRewrite)
	}
	prompt := BuildPrompt(a, refs)

	raw, hit := o.cached(ctx, prompt)
	if !hit {
		var err error
		raw, err = o.Client.Complete(ctx, prompt)
		if err != nil {
			return Optimized{}, fmt.Errorf("%w: %v", ErrRewrite, err)
		}
		o.store(ctx, prompt, raw)
	}

	p := ParseResponse(raw)
	if p.Body == "" {
		return Optimized{}, fmt.Errorf("%w: empty body", ErrRewrite)
	}
	title := p.Title
	if title == "" {
		title = a.Title
	}
	out := Optimized{Title: title, Body: p.Body, References: make([]Reference, 0, len(refs))}
	for _, r := range refs {
		out.References = append(out.References, Reference{Title: r.Title, URL: r.URL})
	}
	return out, nil
}

func (o *Optimizer) cached(ctx context.Context, prompt string) (string, bool) {
	if o.Cache == nil {
		return "", false
	}
	b, ok, err := o.Cache.Get(ctx, cache.CompletionKey(o.Model, prompt))
	if err != nil || !ok {
		return "", false
	}
	var c cachedCompletion
	if err := json.Unmarshal(b, &c); err != nil || strings.TrimSpace(c.Completion) == "" {
		return "", false
	}
	log.Debug().Str("model", o.Model).Msg("completion cache hit")
	return c.Completion, true
}

func (o *Optimizer) store(ctx context.Context, prompt, raw string) {
	if o.Cache == nil {
		return
	}
	b, err := json.Marshal(cachedCompletion{Completion: raw})
	if err != nil {
		return
	}
	if err := o.Cache.Put(ctx, cache.CompletionKey(o.Model, prompt), b); err != nil {
		log.Warn().Err(err).Msg("completion cache write failed")
	}
}
