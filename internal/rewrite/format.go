package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

// Parsed is the model reply split into its title and body.
type Parsed struct {
	Title string
	Body  string
}

var (
	titleRe   = regexp.MustCompile(`(?i)TITLE:\s*(.+?)(?:\n|CONTENT:)`)
	contentRe = regexp.MustCompile(`(?is)CONTENT:\s*(.+)`)
)

// ParseResponse extracts the TITLE: line and the CONTENT: section. Without a
// CONTENT: marker the whole reply is the body and Title is empty; callers
// substitute the original title whenever Title is empty.
func ParseResponse(raw string) Parsed {
	m := contentRe.FindStringSubmatch(raw)
	if m == nil {
		return Parsed{Body: strings.TrimSpace(raw)}
	}
	var p Parsed
	p.Body = strings.TrimSpace(m[1])
	if t := titleRe.FindStringSubmatch(raw); t != nil {
		p.Title = strings.TrimSpace(t[1])
	}
	return p
}

// Reference is a source credited in the published article.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ReferencesHeading opens the appended section.
const ReferencesHeading = "## References"

const referencesDisclosure = "This article was optimized based on insights from the following top-ranking articles:"

// AppendReferences returns body followed by a numbered references section.
// An empty list leaves body unchanged.
func AppendReferences(body string, refs []Reference) string {
	if len(refs) == 0 {
		return body
	}
	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\n---\n\n")
	sb.WriteString(ReferencesHeading)
	sb.WriteString("\n\n")
	sb.WriteString(referencesDisclosure)
	sb.WriteString("\n\n")
	for i, r := range refs {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, r.Title, r.URL)
	}
	return sb.String()
}
