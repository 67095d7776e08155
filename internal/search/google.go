package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultGoogleSearchURL is the public results page scraped when no search
// API is available.
const DefaultGoogleSearchURL = "https://www.google.com/search"

// Fetcher is the page transport the scraper needs; *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Heuristic describes one known layout of the results page. Blocks selects
// the result containers; Title and Snippets are evaluated inside each block.
type Heuristic struct {
	Name     string
	Blocks   string
	Title    string
	Snippets []string
	// MinSnippet is the length a snippet candidate must exceed to be used.
	MinSnippet int
}

var defaultSnippetSelectors = []string{".VwiC3b", ".lyLwlc", ".s", "span"}

// DefaultHeuristics lists results-page layouts from most to least specific.
// The markup changes often; extend this list rather than the scraper.
var DefaultHeuristics = []Heuristic{
	{Name: "classic", Blocks: "div.g", Title: "h3, h2, h1", Snippets: defaultSnippetSelectors, MinSnippet: 20},
	{Name: "sokoban", Blocks: "div[data-sokoban-container]", Title: "h3, h2, h1", Snippets: defaultSnippetSelectors, MinSnippet: 20},
	{Name: "gx5zad", Blocks: "div.Gx5Zad", Title: "h3, h2, h1", Snippets: defaultSnippetSelectors, MinSnippet: 20},
	{Name: "jscontroller", Blocks: "div[jscontroller]", Title: "h3, h2, h1", Snippets: defaultSnippetSelectors, MinSnippet: 20},
}

// GoogleScraper reads organic results from the public results page.
type GoogleScraper struct {
	Fetcher    Fetcher
	BaseURL    string      // defaults to DefaultGoogleSearchURL
	Language   string      // hl parameter, defaults to "en"
	Heuristics []Heuristic // defaults to DefaultHeuristics
}

func (g *GoogleScraper) Name() string { return "google-html" }

func (g *GoogleScraper) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if g.Fetcher == nil {
		return nil, fmt.Errorf("google scraper: no fetcher")
	}
	if limit <= 0 {
		limit = 10
	}
	base := g.BaseURL
	if base == "" {
		base = DefaultGoogleSearchURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	lang := g.Language
	if lang == "" {
		lang = "en"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	q.Set("hl", lang)
	u.RawQuery = q.Encode()

	body, _, err := g.Fetcher.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("google scraper: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google scraper: parse: %w", err)
	}
	heuristics := g.Heuristics
	if len(heuristics) == 0 {
		heuristics = DefaultHeuristics
	}
	results, _ := ParseResultsPage(doc, heuristics)
	for i := range results {
		results[i].Source = g.Name()
	}
	return results, nil
}

// ParseResultsPage applies the first heuristic whose block selector matches
// anything and returns the candidates it yields, plus that heuristic's name.
// Blocks without an absolute http(s) link or a title are dropped.
func ParseResultsPage(doc *goquery.Document, heuristics []Heuristic) ([]Result, string) {
	for _, h := range heuristics {
		blocks := doc.Find(h.Blocks)
		if blocks.Length() == 0 {
			continue
		}
		var out []Result
		blocks.Each(func(_ int, s *goquery.Selection) {
			if r, ok := h.parseBlock(s); ok {
				out = append(out, r)
			}
		})
		return out, h.Name
	}
	return nil, ""
}

func (h Heuristic) parseBlock(s *goquery.Selection) (Result, bool) {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok {
		return Result{}, false
	}
	link := unwrapRedirect(href)
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return Result{}, false
	}
	title := strings.TrimSpace(s.Find(h.Title).First().Text())
	if title == "" {
		return Result{}, false
	}
	var snippet string
	for _, sel := range h.Snippets {
		snippet = strings.TrimSpace(s.Find(sel).First().Text())
		if len(snippet) > h.MinSnippet {
			break
		}
	}
	return Result{Title: title, URL: link, Snippet: snippet}, true
}

// unwrapRedirect turns the engine's click-tracking link, /url?q=<target>&...,
// into the target URL. Other links are returned unchanged.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path != "/url" {
		return href
	}
	if u.Host != "" && !isExcludedHost(u.Hostname()) {
		return href
	}
	for _, key := range []string{"q", "url"} {
		if target := u.Query().Get(key); target != "" {
			return target
		}
	}
	return href
}
