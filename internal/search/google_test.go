package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gooptimize/internal/fetch"
)

const classicResultsPage = `<html><body><div id="search">
<div class="g"><a href="/url?q=https://blog.example.com/chatbots-guide&amp;sa=U"><h3>The Chatbots Guide</h3></a>
<div class="VwiC3b">Everything you need to know about chatbots in 2023.</div></div>
<div class="g"><a href="https://www.youtube.com/watch?v=abc"><h3>Chatbots video</h3></a></div>
<div class="g"><a href="https://news.example.org/article/bots"><h3>Bots in the news</h3></a>
<span>short</span></div>
<div class="g"><a href="https://third.example.net/post/ai"><h3>Third</h3></a></div>
<div class="g"><a href="#"><h3>No link</h3></a></div>
</div></body></html>`

type fakeFetcher struct {
	body  string
	err   error
	calls []string
}

func (f *fakeFetcher) Get(_ context.Context, u string) ([]byte, string, error) {
	f.calls = append(f.calls, u)
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte(f.body), "text/html", nil
}

func TestParseResultsPage_ClassicLayout(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(classicResultsPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, name := ParseResultsPage(doc, DefaultHeuristics)
	if name != "classic" {
		t.Fatalf("expected classic heuristic, got %q", name)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %+v", len(got), got)
	}
	if got[0].URL != "https://blog.example.com/chatbots-guide" {
		t.Fatalf("redirect not unwrapped: %q", got[0].URL)
	}
	if !strings.Contains(got[0].Snippet, "Everything you need") {
		t.Fatalf("unexpected snippet: %q", got[0].Snippet)
	}
}

func TestParseResultsPage_FallsBackToLaterHeuristic(t *testing.T) {
	page := `<div data-sokoban-container="x"><a href="https://a.example/guide/x"><h3>Alt layout</h3></a></div>`
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(page))
	got, name := ParseResultsPage(doc, DefaultHeuristics)
	if name != "sokoban" || len(got) != 1 {
		t.Fatalf("unexpected: %q %+v", name, got)
	}
}

func TestParseResultsPage_NoMatch(t *testing.T) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(`<p>captcha</p>`))
	got, name := ParseResultsPage(doc, DefaultHeuristics)
	if name != "" || len(got) != 0 {
		t.Fatalf("expected nothing, got %q %+v", name, got)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	if got := unwrapRedirect("/url?q=https://a.example/x&sa=U"); got != "https://a.example/x" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := unwrapRedirect("https://www.google.com/url?url=https://b.example/y"); got != "https://b.example/y" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := unwrapRedirect("https://c.example/url?q=z"); got != "https://c.example/url?q=z" {
		t.Fatalf("foreign /url rewritten: %q", got)
	}
}

func TestGoogleScraper_SendsBrowserRequest(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(classicResultsPage))
	}))
	defer srv.Close()

	g := &GoogleScraper{
		BaseURL: srv.URL + "/search",
		Fetcher: &fetch.Client{HTTPClient: srv.Client(), UserAgent: fetch.BrowserUserAgent, Headers: fetch.BrowserHeaders()},
	}
	got, err := g.Search(context.Background(), "chatbots guide 2023", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotUA != fetch.BrowserUserAgent {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
	if !strings.Contains(gotQuery, "q=chatbots+guide+2023") || !strings.Contains(gotQuery, "num=10") || !strings.Contains(gotQuery, "hl=en") {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(got) == 0 || got[0].Source != "google-html" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestGoogleScraper_FetchError(t *testing.T) {
	g := &GoogleScraper{Fetcher: &fakeFetcher{err: errors.New("boom")}}
	if _, err := g.Search(context.Background(), "q", 10); err == nil {
		t.Fatalf("expected error")
	}
}
