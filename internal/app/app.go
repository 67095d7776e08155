package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/article"
	"github.com/hyperifyio/gooptimize/internal/cache"
	"github.com/hyperifyio/gooptimize/internal/extract"
	"github.com/hyperifyio/gooptimize/internal/fetch"
	"github.com/hyperifyio/gooptimize/internal/llm"
	"github.com/hyperifyio/gooptimize/internal/rewrite"
	"github.com/hyperifyio/gooptimize/internal/search"
)

// ArticleStore is the external article collaborator.
type ArticleStore interface {
	List(ctx context.Context) ([]article.Article, error)
	Update(ctx context.Context, id string, u article.Update) (article.Article, error)
}

// ReferenceResolver finds reference pages for a topic. An empty result means
// nothing usable was found.
type ReferenceResolver interface {
	Resolve(ctx context.Context, topic string, limit int) []search.Result
}

// ContentExtractor reads one reference page.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (extract.Content, error)
}

// Rewriter produces the optimized article from its references.
type Rewriter interface {
	Optimize(ctx context.Context, a article.Article, refs []extract.Content) (rewrite.Optimized, error)
}

// Deps are the collaborators of an App. New builds them from Config; tests
// and embedders pass their own to NewWithDeps.
type Deps struct {
	Articles  ArticleStore
	Resolver  ReferenceResolver
	Extractor ContentExtractor
	Rewriter  Rewriter // may be nil in dry-run mode
	Metrics   *Metrics
	Observer  Observer
	// Sleep waits between references and between articles. Defaults to a
	// context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type App struct {
	cfg   Config
	runID string
	deps  Deps
}

func NewWithDeps(cfg Config, d Deps) *App {
	if d.Sleep == nil {
		d.Sleep = sleepCtx
	}
	if cfg.ReferenceLimit < 1 {
		cfg.ReferenceLimit = DefaultReferenceLimit
	}
	return &App{cfg: cfg, runID: uuid.NewString(), deps: d}
}

// New wires the production collaborators described by cfg.
func New(ctx context.Context, cfg Config) (*App, error) {
	var pages *cache.PageCache
	var completions *cache.CompletionCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.Clear(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeOlderThan(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		pages = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		completions = &cache.CompletionCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	apiHTTP := newAPIClient(30 * time.Second)
	pageFetcher := &fetch.Client{
		UserAgent:         fetch.BrowserUserAgent,
		Headers:           fetch.BrowserHeaders(),
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             pages,
		RateLimit:         cfg.RateLimit,
	}
	// results pages are never cached
	searchFetcher := &fetch.Client{
		UserAgent:         fetch.BrowserUserAgent,
		Headers:           fetch.BrowserHeaders(),
		PerRequestTimeout: cfg.FetchTimeout,
		RateLimit:         cfg.RateLimit,
	}

	resolver := &search.Resolver{
		API:     searchAPI(cfg, apiHTTP),
		Scraper: &search.GoogleScraper{Fetcher: searchFetcher, BaseURL: cfg.GoogleURL},
	}

	metrics := NewMetrics()
	extractor := &extract.Extractor{
		Static:  &extract.Static{Fetcher: pageFetcher},
		Observe: metrics.ObserveExtraction,
	}
	if !cfg.DisableRender {
		extractor.Renderer = &extract.RodRenderer{
			Bin:       cfg.RenderBin,
			RemoteURL: cfg.RenderRemoteURL,
			UserAgent: fetch.BrowserUserAgent,
			Timeout:   cfg.RenderTimeout,
		}
	}

	d := Deps{
		Articles:  &article.Client{BaseURL: cfg.APIBaseURL, HTTPClient: apiHTTP},
		Resolver:  resolver,
		Extractor: extractor,
		Metrics:   metrics,
	}

	if !cfg.DryRun {
		completer, err := llm.New(ctx, llm.Options{
			Provider:    cfg.LLMProvider,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Temperature: 0.7,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		preflightModels(ctx, completer)
		d.Rewriter = &rewrite.Optimizer{Client: completer, Model: cfg.LLMProvider + ":" + cfg.LLMModel, Cache: completions}
	}

	a := NewWithDeps(cfg, d)
	log.Info().Str("run", a.runID).Str("api", cfg.APIBaseURL).Str("search", searchTier(resolver)).Bool("render", extractor.Renderer != nil).Bool("dry_run", cfg.DryRun).Msg("pipeline ready")
	return a, nil
}

// searchAPI picks the API tier: an offline file, then SerpAPI, then SearxNG.
// It returns nil when none is configured so the resolver scrapes directly.
func searchAPI(cfg Config, hc *http.Client) search.Provider {
	switch {
	case strings.TrimSpace(cfg.FileSearchPath) != "":
		return &search.FileProvider{Path: cfg.FileSearchPath}
	case strings.TrimSpace(cfg.SerpAPIKey) != "":
		return &search.SerpAPI{APIKey: cfg.SerpAPIKey, BaseURL: cfg.SerpAPIURL, HTTPClient: hc}
	case strings.TrimSpace(cfg.SearxURL) != "":
		return &search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, HTTPClient: hc}
	}
	return nil
}

func searchTier(r *search.Resolver) string {
	if r.API == nil {
		return r.Scraper.Name()
	}
	return r.API.Name() + "+" + r.Scraper.Name()
}

// preflightModels lists models when the backend supports it. Best-effort: an
// unreachable server only warns here and fails later per article.
func preflightModels(ctx context.Context, c llm.Completer) {
	lister, ok := c.(llm.ModelLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models)).Msg("LLM models available")
}

// RunID identifies this run in logs.
func (a *App) RunID() string { return a.runID }

// SetObserver installs o for subsequent runs.
func (a *App) SetObserver(o Observer) { a.deps.Observer = o }

// Close flushes the metrics textfile when one is configured.
func (a *App) Close() {
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := a.deps.Metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("write metrics failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
