package extract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultDynamicThreshold is the static text length below which the
// rendering tier is consulted.
const DefaultDynamicThreshold = 100

// Extractor coordinates the static and rendering tiers.
type Extractor struct {
	Static *Static
	// Renderer is optional; without it pages are judged on static HTML only.
	Renderer Renderer
	// Threshold defaults to DefaultDynamicThreshold.
	Threshold int
	// Observe, when set, is told which tier produced each result.
	Observe func(Tier)
}

// Extract returns the best available content for pageURL. A transport error
// from either tier fails the call; the static tier is never retried.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (Content, error) {
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = DefaultDynamicThreshold
	}
	static, err := e.Static.Extract(ctx, pageURL)
	if err != nil {
		return Content{}, err
	}
	if static.Length >= threshold {
		return e.accept(static), nil
	}
	if e.Renderer != nil {
		log.Debug().Str("url", pageURL).Int("static_len", static.Length).Msg("static text too short; rendering")
		dynamic, err := e.Renderer.Render(ctx, pageURL)
		if err != nil {
			return Content{}, err
		}
		if dynamic.Length > 0 {
			return e.accept(dynamic), nil
		}
	}
	if static.Length > 0 {
		return e.accept(static), nil
	}
	return Content{}, fmt.Errorf("%s: %w", pageURL, ErrNoExtractableContent)
}

func (e *Extractor) accept(c Content) Content {
	log.Debug().Str("url", c.URL).Str("tier", string(c.Tier)).Int("len", c.Length).Msg("extracted")
	if e.Observe != nil {
		e.Observe(c.Tier)
	}
	return c
}
