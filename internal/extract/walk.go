package extract

import (
    "strings"

    "golang.org/x/net/html"
)

// nodeText renders the text under n with block elements separated by
// newlines, so paragraphs survive into Normalize.
func nodeText(n *html.Node) string {
    var b strings.Builder
    collectText(&b, n, false)
    return b.String()
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
    if n.Type == html.ElementNode {
        // Skip cookie/consent banners that survived selector removal
        if isBoilerplateContainer(n) {
            return
        }
        switch strings.ToLower(n.Data) {
        case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "template":
            return
        case "pre", "code":
            inPre = true
        case "br", "hr":
            b.WriteString("\n")
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "blockquote", "div", "section", "tr":
            b.WriteString("\n")
        }
    }

    if n.Type == html.TextNode {
        data := n.Data
        if !inPre {
            data = strings.ReplaceAll(data, "\t", " ")
            data = strings.ReplaceAll(data, "\r", " ")
            data = strings.ReplaceAll(data, "\n", " ")
        }
        b.WriteString(data)
    }

    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c, inPre)
    }

    if n.Type == html.ElementNode {
        switch strings.ToLower(n.Data) {
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
            b.WriteString("\n\n")
        case "li", "div", "section", "tr":
            b.WriteString("\n")
        case "pre":
            b.WriteString("\n")
        }
    }
}

// isBoilerplateContainer reports whether the element looks like a cookie or
// consent banner.
func isBoilerplateContainer(n *html.Node) bool {
    if n == nil || n.Type != html.ElementNode {
        return false
    }
    for _, attr := range n.Attr {
        key := strings.ToLower(attr.Key)
        if key != "id" && key != "class" && !strings.HasPrefix(key, "data-") && key != "aria-label" {
            continue
        }
        val := strings.ToLower(attr.Val)
        if containsAny(val, []string{"cookie", "consent", "gdpr"}) {
            return true
        }
    }
    return false
}

func containsAny(s string, needles []string) bool {
    for _, n := range needles {
        if strings.Contains(s, n) {
            return true
        }
    }
    return false
}
