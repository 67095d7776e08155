package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the page transport the static tier needs; *fetch.Client
// satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// NonContentSelectors are removed before any text is read, in both tiers.
var NonContentSelectors = []string{
	"script", "style", "noscript", "nav", "header", "footer", "aside",
	".ad", ".ads", ".advertisement", ".sidebar", ".comments", "#comments",
}

// ContainerSelectors are tried in order; the first whose text is longer than
// minContainerRunes becomes the article body.
var ContainerSelectors = []string{
	"article",
	".article-content",
	".post-content",
	".entry-content",
	".content",
	"main",
	`[role="main"]`,
	".blog-post",
	".post-body",
}

const (
	minContainerRunes = 200
	minHeadingRunes   = 3
)

// Static extracts content from the server-rendered HTML only.
type Static struct {
	Fetcher Fetcher
}

func (s *Static) Extract(ctx context.Context, pageURL string) (Content, error) {
	if s.Fetcher == nil {
		return Content{}, fmt.Errorf("static extract: no fetcher")
	}
	body, _, err := s.Fetcher.Get(ctx, pageURL)
	if err != nil {
		return Content{}, fmt.Errorf("static extract %s: %w", pageURL, err)
	}
	return FromHTML(pageURL, body)
}

// FromHTML extracts title, body text and headings from a static page.
func FromHTML(pageURL string, input []byte) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Content{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find(strings.Join(NonContentSelectors, ", ")).Remove()

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	text := containerText(doc)
	if text == "" {
		var paras []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := collapseSpaces(p.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		text = strings.Join(paras, "\n\n")
	}

	var headings []string
	doc.Find("h1, h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		if t := collapseSpaces(h.Text()); utf8.RuneCountInString(t) > minHeadingRunes {
			headings = append(headings, t)
		}
	})

	return newContent(pageURL, title, text, headings, TierStatic), nil
}

func containerText(doc *goquery.Document) string {
	for _, sel := range ContainerSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := Normalize(nodeText(node.Get(0)))
		if utf8.RuneCountInString(text) > minContainerRunes {
			return text
		}
	}
	return ""
}
