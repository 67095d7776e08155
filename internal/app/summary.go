package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gooptimize/internal/article"
)

// Summary tallies a run. Failed counts skipped articles.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Single is set when the run targeted one article by index; the CLI
	// prints no summary report then.
	Single  bool
	Results []Result
}

// Result is the terminal state of one article.
type Result struct {
	ArticleID string
	Title     string
	State     State
	Err       error
}

func (s *Summary) record(art article.Article, st State, err error) {
	s.Results = append(s.Results, Result{ArticleID: art.ID, Title: art.Title, State: st, Err: err})
	if err != nil {
		s.Failed++
		return
	}
	s.Succeeded++
}

// Run lists the articles and processes them in order. With an index inside
// the list only that article is processed; an index outside it is logged and
// the whole batch runs. Per-article failures are recorded in the summary; the
// returned error is reserved for fatal conditions: listing failed or ctx
// cancelled.
func (a *App) Run(ctx context.Context, index *int) (Summary, error) {
	list, err := a.deps.Articles.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrListArticles, err)
	}
	if len(list) == 0 {
		return Summary{}, fmt.Errorf("%w: no articles found", ErrListArticles)
	}
	log.Info().Str("run", a.runID).Int("articles", len(list)).Msg("articles listed")

	if index != nil {
		i := *index
		if i < 0 || i >= len(list) {
			log.Warn().Int("index", i).Int("articles", len(list)).Msg("article index out of range; processing all articles")
			return a.runBatch(ctx, list)
		}
		s := Summary{Total: 1, Single: true}
		st, perr := a.processArticle(ctx, 0, 1, list[i])
		s.record(list[i], st, perr)
		// cancellation is the only per-article condition that ends a run
		return s, ctx.Err()
	}

	return a.runBatch(ctx, list)
}

func (a *App) runBatch(ctx context.Context, list []article.Article) (Summary, error) {
	s := Summary{Total: len(list)}
	for i, art := range list {
		if i > 0 {
			if err := a.deps.Sleep(ctx, a.cfg.ArticleDelay); err != nil {
				return s, err
			}
		}
		st, perr := a.processArticle(ctx, i, len(list), art)
		s.record(art, st, perr)
		if err := ctx.Err(); err != nil {
			return s, err
		}
	}
	log.Info().Str("run", a.runID).Int("total", s.Total).Int("succeeded", s.Succeeded).Int("failed", s.Failed).Msg("run complete")
	return s, nil
}
