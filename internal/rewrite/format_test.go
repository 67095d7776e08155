package rewrite

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Parsed
	}{
		{"both markers", "TITLE: New Headline\nCONTENT:\nBody text here", Parsed{Title: "New Headline", Body: "Body text here"}},
		{"lowercase markers", "title:  Lower \ncontent: body\n\nmore  ", Parsed{Title: "Lower", Body: "body\n\nmore"}},
		{"title on same line", "TITLE: Inline CONTENT: the body", Parsed{Title: "Inline", Body: "the body"}},
		{"no title", "Intro text\nCONTENT:\nJust body", Parsed{Body: "Just body"}},
		{"no content marker", "  TITLE: Ignored\nfree form reply  ", Parsed{Body: "TITLE: Ignored\nfree form reply"}},
		{"empty", "", Parsed{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if diff := cmp.Diff(c.want, ParseResponse(c.raw)); diff != "" {
				t.Fatalf("ParseResponse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppendReferences(t *testing.T) {
	refs := []Reference{{Title: "Ref", URL: "http://x"}, {Title: "Second", URL: "https://y.example/post"}}
	got := AppendReferences("Body text here", refs)
	want := "Body text here\n\n---\n\n## References\n\n" +
		"This article was optimized based on insights from the following top-ranking articles:\n\n" +
		"1. [Ref](http://x)\n2. [Second](https://y.example/post)\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AppendReferences mismatch (-want +got):\n%s", diff)
	}
	if again := AppendReferences("Body text here", refs); again != got {
		t.Fatalf("not deterministic")
	}
}

func TestAppendReferences_Empty(t *testing.T) {
	if got := AppendReferences("body", nil); got != "body" {
		t.Fatalf("expected body unchanged, got %q", got)
	}
}

func TestParseAndFormat_SingleReference(t *testing.T) {
	p := ParseResponse("TITLE: New Headline\nCONTENT:\nBody text here")
	if p.Title != "New Headline" {
		t.Fatalf("unexpected title %q", p.Title)
	}
	out := AppendReferences(p.Body, []Reference{{Title: "Ref", URL: "http://x"}})
	idx := strings.Index(out, "## References")
	if idx < 0 {
		t.Fatalf("missing references section: %q", out)
	}
	section := out[idx:]
	if strings.Count(section, "](") != 1 || !strings.HasSuffix(section, "1. [Ref](http://x)\n") {
		t.Fatalf("unexpected section %q", section)
	}
}
