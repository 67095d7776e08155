package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/article"
	"github.com/hyperifyio/gooptimize/internal/extract"
	"github.com/hyperifyio/gooptimize/internal/rewrite"
)

// State is a step of the per-article pipeline.
type State string

const (
	StateResolve   State = "resolve"
	StateExtract   State = "extract"
	StateRewrite   State = "rewrite"
	StateFormat    State = "format"
	StatePublish   State = "publish"
	StatePublished State = "published"
	StateSkipped   State = "skipped"
	// StatePlanned ends an article in dry-run mode after extraction.
	StatePlanned State = "planned"
)

var (
	// ErrNoReferences skips an article whose title found no usable references.
	ErrNoReferences = errors.New("no references found")
	// ErrListArticles is fatal: without the article list nothing can run.
	ErrListArticles = errors.New("list articles")
)

// OptimizedTags are merged into the tags of every published article.
var OptimizedTags = []string{"optimized", "ai-enhanced"}

// Event reports progress through the pipeline to an Observer.
type Event struct {
	Index   int // 0-based position in the run
	Total   int
	Article article.Article
	State   State
	Err     error // set on StateSkipped
}

// Observer receives every state transition. It runs on the pipeline
// goroutine and must not block.
type Observer func(Event)

type step struct {
	app *App
	ev  Event
	log zerolog.Logger
}

func (s *step) enter(st State) {
	s.ev.State = st
	s.log.Debug().Str("state", string(st)).Msg("state")
	if s.app.deps.Observer != nil {
		s.app.deps.Observer(s.ev)
	}
}

// processArticle drives one article to a terminal state. It returns nil when
// the article was published (or planned in dry-run mode) and the reason it was
// skipped otherwise.
func (a *App) processArticle(ctx context.Context, idx, total int, art article.Article) (State, error) {
	s := &step{
		app: a,
		ev:  Event{Index: idx, Total: total, Article: art},
		log: log.With().Str("run", a.runID).Str("article", art.ID).Str("title", art.Title).Logger(),
	}
	final, err := a.runSteps(ctx, s, art)
	if err != nil {
		final = StateSkipped
		s.ev.Err = err
	}
	s.enter(final)
	a.deps.Metrics.observeOutcome(final)
	if err != nil {
		s.log.Warn().Err(err).Msg("article skipped")
	} else {
		s.log.Info().Str("state", string(final)).Msg("article done")
	}
	return final, err
}

func (a *App) runSteps(ctx context.Context, s *step, art article.Article) (State, error) {
	s.enter(StateResolve)
	refs := a.deps.Resolver.Resolve(ctx, art.Title, a.cfg.ReferenceLimit)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", ErrNoReferences
	}
	a.deps.Metrics.observeReferences(refs)

	s.enter(StateExtract)
	contents := make([]extract.Content, 0, len(refs))
	for i, r := range refs {
		if i > 0 {
			if err := a.deps.Sleep(ctx, a.cfg.ReferenceDelay); err != nil {
				return "", err
			}
		}
		c, err := a.deps.Extractor.Extract(ctx, r.URL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			s.log.Warn().Err(err).Str("url", r.URL).Msg("reference extraction failed")
			continue
		}
		if c.Title == "" {
			c.Title = r.Title
		}
		contents = append(contents, c)
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: none of %d references", extract.ErrNoExtractableContent, len(refs))
	}

	if a.cfg.DryRun || a.deps.Rewriter == nil {
		for _, c := range contents {
			s.log.Info().Str("url", c.URL).Str("tier", string(c.Tier)).Int("len", c.Length).Msg("dry run: would use reference")
		}
		return StatePlanned, nil
	}

	s.enter(StateRewrite)
	opt, err := a.deps.Rewriter.Optimize(ctx, art, contents)
	if err != nil {
		return "", err
	}

	s.enter(StateFormat)
	body := rewrite.AppendReferences(opt.Body, opt.References)

	s.enter(StatePublish)
	upd := article.Update{
		Title:       opt.Title,
		Description: body,
		Tags:        article.MergeTags(art.Tags, OptimizedTags...),
	}
	if !art.HasSnapshot() {
		upd.OriginalDescription = art.Description
	}
	if _, err := a.deps.Articles.Update(ctx, art.ID, upd); err != nil {
		return "", err
	}
	return StatePublished, nil
}
