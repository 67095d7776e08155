// Package extract turns a reference URL into bounded, normalized article
// text. A static HTML tier is tried first; a headless-browser tier renders
// pages whose static markup carries too little text.
package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTextRunes bounds Content.Text.
const MaxTextRunes = 5000

// ErrNoExtractableContent is returned when no tier produced any text.
var ErrNoExtractableContent = errors.New("no extractable content")

// Tier names the extraction strategy that produced a Content.
type Tier string

const (
	TierStatic  Tier = "static"
	TierDynamic Tier = "dynamic"
)

// Content is the readable part of one reference page.
type Content struct {
	URL      string
	Title    string
	Text     string
	Headings []string
	// Length is the rune count of Text.
	Length int
	Tier   Tier
}

func newContent(pageURL, title, text string, headings []string, tier Tier) Content {
	text = Normalize(text)
	return Content{
		URL:      pageURL,
		Title:    strings.TrimSpace(collapseSpaces(title)),
		Text:     text,
		Headings: headings,
		Length:   utf8.RuneCountInString(text),
		Tier:     tier,
	}
}

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	lineEdgeRe   = regexp.MustCompile(` *\n *`)
)

// Normalize canonicalizes extracted text: NFC, horizontal whitespace runs
// collapsed to one space, at most one blank line between paragraphs, trimmed
// and cut to MaxTextRunes. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = collapseHorizontal(s)
	s = lineEdgeRe.ReplaceAllString(s, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxTextRunes {
		s = truncateRunes(s, MaxTextRunes)
		// a cut can separate a base from its combining marks
		s = strings.TrimSpace(norm.NFC.String(s))
	}
	return s
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// collapseHorizontal turns every run of non-newline whitespace into one space.
func collapseHorizontal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r != '\n' && unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

// collapseSpaces turns every whitespace run, newlines included, into one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
