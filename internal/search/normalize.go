package search

import (
	"net/url"
	"strings"
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"}

// canonicalURL lower-cases the host, drops the fragment, default ports and
// tracking parameters. ok is false for unparsable or host-less URLs.
func canonicalURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) || (u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}
	if u.RawQuery != "" {
		q := u.Query()
		for _, p := range trackingParams {
			q.Del(p)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), true
}

// refine canonicalizes, de-duplicates and filters results in order, keeping
// at most limit and numbering them 1..n.
func refine(results []Result, limit int, keep func(string) bool) []Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, limit)
	for _, r := range results {
		if len(out) >= limit {
			break
		}
		canon, ok := canonicalURL(r.URL)
		if !ok {
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		if !keep(canon) {
			continue
		}
		r.URL = canon
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out
}
