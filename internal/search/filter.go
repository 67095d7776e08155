package search

import (
	"net/url"
	"strings"
)

// ExcludedDomains are hosts that never serve reference articles: social
// networks, video platforms, encyclopedias and the search engine itself.
// Subdomains match too.
var ExcludedDomains = []string{
	"youtube.com",
	"youtu.be",
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"pinterest.com",
	"tiktok.com",
	"google.com",
	"wikipedia.org",
}

// articlePathKeywords mark a path as article-like regardless of other hints.
var articlePathKeywords = []string{"/blog", "/article", "/post", "/news", "/guide", "/tutorial", "/story"}

// videoPathMarkers mark a path as a video or watch page.
var videoPathMarkers = []string{"/video", "/watch"}

// IsLikelyArticle reports whether rawURL probably points to a blog post or
// article. It is a heuristic: excluded domains are always rejected, then a
// path is accepted when it carries an article keyword or does not look like a
// video page.
func IsLikelyArticle(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return false
	}
	if isExcludedHost(u.Hostname()) {
		return false
	}
	path := strings.ToLower(u.EscapedPath())
	if containsAny(path, articlePathKeywords) {
		return true
	}
	return !containsAny(path, videoPathMarkers)
}

func isExcludedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range ExcludedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
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
