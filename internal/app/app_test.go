package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/gooptimize/internal/article"
	"github.com/hyperifyio/gooptimize/internal/extract"
	"github.com/hyperifyio/gooptimize/internal/rewrite"
	"github.com/hyperifyio/gooptimize/internal/search"
)

type fakeStore struct {
	articles []article.Article
	listErr  error
	updErr   error
	updates  map[string]article.Update
}

func (f *fakeStore) List(context.Context) ([]article.Article, error) {
	return f.articles, f.listErr
}

func (f *fakeStore) Update(_ context.Context, id string, u article.Update) (article.Article, error) {
	if f.updErr != nil {
		return article.Article{}, f.updErr
	}
	if f.updates == nil {
		f.updates = map[string]article.Update{}
	}
	f.updates[id] = u
	return article.Article{ID: id, Title: u.Title, Description: u.Description, Tags: u.Tags}, nil
}

type fakeResolver struct {
	byTopic map[string][]search.Result
	topics  []string
}

func (f *fakeResolver) Resolve(_ context.Context, topic string, limit int) []search.Result {
	f.topics = append(f.topics, topic)
	r := f.byTopic[topic]
	if len(r) > limit {
		r = r[:limit]
	}
	return r
}

type fakeExtractor struct {
	fail map[string]bool
	urls []string
}

func (f *fakeExtractor) Extract(_ context.Context, u string) (extract.Content, error) {
	f.urls = append(f.urls, u)
	if f.fail[u] {
		return extract.Content{}, extract.ErrNoExtractableContent
	}
	return extract.Content{URL: u, Text: "text of " + u, Length: 8 + len(u), Tier: extract.TierStatic}, nil
}

type fakeRewriter struct {
	err   error
	calls int
}

func (f *fakeRewriter) Optimize(_ context.Context, a article.Article, refs []extract.Content) (rewrite.Optimized, error) {
	f.calls++
	if f.err != nil {
		return rewrite.Optimized{}, f.err
	}
	out := rewrite.Optimized{Title: "Better " + a.Title, Body: "new body"}
	for _, r := range refs {
		out.References = append(out.References, rewrite.Reference{Title: r.Title, URL: r.URL})
	}
	return out, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LLMModel = "m"
	return cfg
}

func refs(urls ...string) []search.Result {
	out := make([]search.Result, 0, len(urls))
	for i, u := range urls {
		out = append(out, search.Result{Title: "Ref " + u, URL: u, Rank: i + 1, Source: "google-html"})
	}
	return out
}

func TestRun_ZeroReferencesSkipsWithoutPublishing(t *testing.T) {
	store := &fakeStore{articles: []article.Article{
		{ID: "a1", Title: "Nothing matches this"},
		{ID: "a2", Title: "Chatbots"},
	}}
	rw := &fakeRewriter{}
	sl := &sleepRecorder{}
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"Chatbots": refs("https://a.example/blog/1")}},
		Extractor: &fakeExtractor{},
		Rewriter:  rw,
		Sleep:     sl.sleep,
	})

	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Succeeded)
	assert.False(t, sum.Single)
	_, published := store.updates["a1"]
	assert.False(t, published, "skipped article must not be published")
	assert.ErrorIs(t, sum.Results[0].Err, ErrNoReferences)
	assert.Equal(t, StateSkipped, sum.Results[0].State)
	assert.Equal(t, 1, rw.calls)
	assert.Equal(t, []time.Duration{DefaultArticleDelay}, sl.waits, "one delay between two articles")
}

func TestRun_PublishesWithReferencesTagsAndSnapshot(t *testing.T) {
	store := &fakeStore{articles: []article.Article{
		{ID: "a1", Title: "Chatbots", Description: "old body", Tags: []string{"ai", "optimized"}},
	}}
	ex := &fakeExtractor{}
	sl := &sleepRecorder{}
	var states []State
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"Chatbots": refs("https://a.example/blog/1", "https://b.example/post/2", "https://c.example/x")}},
		Extractor: ex,
		Rewriter:  &fakeRewriter{},
		Sleep:     sl.sleep,
		Metrics:   NewMetrics(),
		Observer:  func(e Event) { states = append(states, e.State) },
	})

	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)

	u := store.updates["a1"]
	assert.Equal(t, "Better Chatbots", u.Title)
	assert.Equal(t, "old body", u.OriginalDescription)
	assert.Equal(t, []string{"ai", "optimized", "ai-enhanced"}, u.Tags)
	assert.True(t, strings.HasPrefix(u.Description, "new body\n\n---\n\n## References"))
	assert.Contains(t, u.Description, "1. [Ref https://a.example/blog/1](https://a.example/blog/1)\n2. [Ref https://b.example/post/2](https://b.example/post/2)\n")

	assert.Equal(t, []string{"https://a.example/blog/1", "https://b.example/post/2"}, ex.urls, "resolver limit of 2 applies")
	assert.Equal(t, []time.Duration{DefaultReferenceDelay}, sl.waits, "one delay between two references")
	assert.Equal(t, []State{StateResolve, StateExtract, StateRewrite, StateFormat, StatePublish, StatePublished}, states)
}

func TestRun_SnapshotNotResent(t *testing.T) {
	store := &fakeStore{articles: []article.Article{
		{ID: "a1", Title: "Chatbots", Description: "rewritten once", OriginalDescription: "the very first body"},
	}}
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"Chatbots": refs("https://a.example/blog/1")}},
		Extractor: &fakeExtractor{},
		Rewriter:  &fakeRewriter{},
		Sleep:     (&sleepRecorder{}).sleep,
	})
	_, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, store.updates["a1"].OriginalDescription)
}

func TestRun_PartialExtractionFailureContinues(t *testing.T) {
	store := &fakeStore{articles: []article.Article{{ID: "a1", Title: "Chatbots"}}}
	ex := &fakeExtractor{fail: map[string]bool{"https://a.example/blog/1": true}}
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"Chatbots": refs("https://a.example/blog/1", "https://b.example/post/2")}},
		Extractor: ex,
		Rewriter:  &fakeRewriter{},
		Sleep:     (&sleepRecorder{}).sleep,
	})
	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.NotContains(t, store.updates["a1"].Description, "a.example")
	assert.Contains(t, store.updates["a1"].Description, "b.example")
}

func TestRun_AllExtractionsFailSkips(t *testing.T) {
	store := &fakeStore{articles: []article.Article{{ID: "a1", Title: "Chatbots"}}}
	rw := &fakeRewriter{}
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"Chatbots": refs("https://a.example/blog/1")}},
		Extractor: &fakeExtractor{fail: map[string]bool{"https://a.example/blog/1": true}},
		Rewriter:  rw,
		Sleep:     (&sleepRecorder{}).sleep,
	})
	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.ErrorIs(t, sum.Results[0].Err, extract.ErrNoExtractableContent)
	assert.Equal(t, 0, rw.calls)
}

func TestRun_RewriteAndPublishFailuresSkip(t *testing.T) {
	res := &fakeResolver{byTopic: map[string][]search.Result{"A": refs("https://a.example/blog/1"), "B": refs("https://b.example/blog/2")}}

	store := &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}
	app := NewWithDeps(testConfig(), Deps{Articles: store, Resolver: res, Extractor: &fakeExtractor{}, Rewriter: &fakeRewriter{err: rewrite.ErrRewrite}, Sleep: (&sleepRecorder{}).sleep})
	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
	assert.ErrorIs(t, sum.Results[1].Err, rewrite.ErrRewrite)

	store = &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}}, updErr: article.ErrPublish}
	app = NewWithDeps(testConfig(), Deps{Articles: store, Resolver: res, Extractor: &fakeExtractor{}, Rewriter: &fakeRewriter{}, Sleep: (&sleepRecorder{}).sleep})
	sum, err = app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.ErrorIs(t, sum.Results[0].Err, article.ErrPublish)
}

func TestRun_SingleIndex(t *testing.T) {
	store := &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}
	res := &fakeResolver{byTopic: map[string][]search.Result{"B": refs("https://b.example/blog/2")}}
	sl := &sleepRecorder{}
	app := NewWithDeps(testConfig(), Deps{Articles: store, Resolver: res, Extractor: &fakeExtractor{}, Rewriter: &fakeRewriter{}, Sleep: sl.sleep})

	idx := 1
	sum, err := app.Run(context.Background(), &idx)
	require.NoError(t, err)
	assert.True(t, sum.Single)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, []string{"B"}, res.topics)
	assert.Empty(t, sl.waits)

}

func TestRun_IndexOutOfRangeRunsWholeBatch(t *testing.T) {
	for _, idx := range []int{2, -1} {
		store := &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}
		res := &fakeResolver{byTopic: map[string][]search.Result{
			"A": refs("https://a.example/blog/1"),
			"B": refs("https://b.example/blog/2"),
		}}
		sl := &sleepRecorder{}
		app := NewWithDeps(testConfig(), Deps{Articles: store, Resolver: res, Extractor: &fakeExtractor{}, Rewriter: &fakeRewriter{}, Sleep: sl.sleep})

		sum, err := app.Run(context.Background(), &idx)
		require.NoError(t, err, "index %d", idx)
		assert.False(t, sum.Single, "index %d", idx)
		assert.Equal(t, 2, sum.Total)
		assert.Equal(t, 2, sum.Succeeded)
		assert.Equal(t, []string{"A", "B"}, res.topics)
		assert.Len(t, store.updates, 2)
		assert.Equal(t, []time.Duration{testConfig().ArticleDelay}, sl.waits)
	}
}

func TestRun_ListFailureIsFatal(t *testing.T) {
	app := NewWithDeps(testConfig(), Deps{Articles: &fakeStore{listErr: errors.New("connection refused")}})
	_, err := app.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrListArticles)

	app = NewWithDeps(testConfig(), Deps{Articles: &fakeStore{}})
	_, err = app.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrListArticles)
}

func TestRun_DryRunNeverRewrites(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	store := &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}}}
	rw := &fakeRewriter{}
	app := NewWithDeps(cfg, Deps{
		Articles:  store,
		Resolver:  &fakeResolver{byTopic: map[string][]search.Result{"A": refs("https://a.example/blog/1")}},
		Extractor: &fakeExtractor{},
		Rewriter:  rw,
		Sleep:     (&sleepRecorder{}).sleep,
	})
	sum, err := app.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatePlanned, sum.Results[0].State)
	assert.Equal(t, 0, rw.calls)
	assert.Empty(t, store.updates)
}

func TestRun_CancelledContextIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{articles: []article.Article{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}}
	app := NewWithDeps(testConfig(), Deps{
		Articles:  store,
		Resolver:  &fakeResolver{},
		Extractor: &fakeExtractor{},
		Rewriter:  &fakeRewriter{},
		Observer: func(e Event) {
			if e.State == StateSkipped {
				cancel()
			}
		},
	})
	sum, err := app.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, len(sum.Results))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.observeOutcome(StatePublished)
	m.observeReferences(refs("https://a.example/blog/1"))
	m.ObserveExtraction(extract.TierDynamic)

	path := filepath.Join(t.TempDir(), "gooptimize.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(b)
	assert.Contains(t, text, `gooptimize_articles_processed_total{outcome="published"} 1`)
	assert.Contains(t, text, `gooptimize_references_resolved_total{provider="google-html"} 1`)
	assert.Contains(t, text, `gooptimize_extractions_total{tier="dynamic"} 1`)
}

// End to end over HTTP: article API stub, a fixture search file and a static
// reference page; only the model is faked.
func TestRun_OverHTTP(t *testing.T) {
	var mu sync.Mutex
	var put map[string]any
	page := "<html><head><title>Ref page</title></head><body><article><h1>Chatbot guide</h1><p>" +
		strings.Repeat("Chatbots help support teams answer faster. ", 10) + "</p></article></body></html>"

	mux := http.NewServeMux()
	mux.HandleFunc("/blog/chatbots", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/api/articles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "count": 1, "data": []map[string]any{
			{"_id": "64f0", "title": "Chatbots", "description": "old", "url": "https://blog.example/chatbots", "tags": []string{"ai"}},
		}})
	})
	mux.HandleFunc("/api/articles/64f0", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&put)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"_id": "64f0"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	searchFile := filepath.Join(dir, "results.json")
	fixture := `[{"title":"Chatbots guide","url":"` + srv.URL + `/blog/chatbots","snippet":"all about chatbots"}]`
	require.NoError(t, os.WriteFile(searchFile, []byte(fixture), 0o644))

	cfg := testConfig()
	cfg.APIBaseURL = srv.URL + "/api/articles"
	cfg.FileSearchPath = searchFile
	cfg.DisableRender = true
	cfg.DryRun = true // New builds no model client in dry-run; a fake is injected below
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.MetricsFile = filepath.Join(dir, "metrics.prom")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	a.cfg.DryRun = false
	a.deps.Rewriter = &fakeRewriter{}
	a.deps.Sleep = (&sleepRecorder{}).sleep

	sum, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	a.Close()
	require.Equal(t, 1, sum.Succeeded, "results: %+v", sum.Results)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Better Chatbots", put["title"])
	assert.Equal(t, "old", put["original_description"])
	assert.Contains(t, put["description"], "[Chatbot guide]("+srv.URL+"/blog/chatbots)")
	_, err = os.Stat(cfg.MetricsFile)
	assert.NoError(t, err)
}
