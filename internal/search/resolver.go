package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultOverfetch is how many raw hits are requested so that filtering still
// leaves enough candidates.
const DefaultOverfetch = 10

// Resolver turns a topic into at most limit article-like references. It asks
// the API provider when one is configured and falls back to the scraper when
// the API errors or is absent.
type Resolver struct {
	API       Provider // nil when no search credential is configured
	Scraper   Provider
	Overfetch int
	// Keep decides whether a canonical URL is article-like. Defaults to
	// IsLikelyArticle.
	Keep func(string) bool
}

// Resolve never fails: transport and parse errors are logged and reported as
// an empty list, which callers treat as "no references found".
func (r *Resolver) Resolve(ctx context.Context, topic string, limit int) []Result {
	if limit < 1 {
		limit = 1
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	n := r.Overfetch
	if n <= 0 {
		n = DefaultOverfetch
	}
	if n < limit {
		n = limit
	}
	keep := r.Keep
	if keep == nil {
		keep = IsLikelyArticle
	}

	if r.API != nil {
		raw, err := r.API.Search(ctx, topic, n)
		if err == nil {
			out := refine(raw, limit, keep)
			log.Debug().Str("provider", r.API.Name()).Str("topic", topic).Int("raw", len(raw)).Int("kept", len(out)).Msg("search api results")
			return out
		}
		log.Warn().Err(err).Str("provider", r.API.Name()).Msg("search api failed; falling back to scraping")
	}
	if r.Scraper == nil {
		log.Warn().Str("topic", topic).Msg("no search scraper configured")
		return nil
	}
	raw, err := r.Scraper.Search(ctx, topic, n)
	if err != nil {
		log.Warn().Err(err).Str("provider", r.Scraper.Name()).Str("topic", topic).Msg("search scraping failed")
		return nil
	}
	out := refine(raw, limit, keep)
	if len(out) == 0 {
		log.Warn().Str("provider", r.Scraper.Name()).Str("topic", topic).Int("raw", len(raw)).Msg("no usable results; page may be blocked or layout changed")
		return nil
	}
	log.Debug().Str("provider", r.Scraper.Name()).Str("topic", topic).Int("kept", len(out)).Msg("scraped results")
	return out
}
