package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/gooptimize/internal/cache"
)

// BrowserUserAgent is a desktop Chrome user agent. Many article hosts and the
// search results page serve reduced or blocked content to obvious bots.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserHeaders returns the request headers a desktop browser sends with a
// top-level navigation. Accept-Encoding is left to the transport so that
// gzip responses are decoded transparently.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// Client issues single-attempt HTML GETs with a spoofed user agent, a bounded
// timeout and optional on-disk revalidation cache. It never retries: callers
// own the fallback strategy.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Headers are added to every request; User-Agent above wins over a
	// User-Agent entry here.
	Headers http.Header
	// PerRequestTimeout bounds each request. Zero means no extra bound.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for page bodies and validators.
	Cache *cache.PageCache
	// BypassCache skips conditional headers but still stores fresh bodies.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// RateLimit caps requests per second across this client. Zero disables.
	RateLimit float64

	limiter     *rate.Limiter
	limiterOnce sync.Once
}

// ErrUnsupportedContentType is returned for responses that are not HTML.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// StatusError reports a non-2xx, non-304 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// copy so the redirect policy does not leak into the caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL and returns the body decoded to UTF-8 and the response
// content type. A 304 answered from the cache returns the cached body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.Lookup(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	if err := c.wait(ctx); err != nil {
		return nil, "", err
	}
	body, ct, newEtag, newLastMod, status, err := c.do(ctx, rawURL, etag, lastMod)
	if err != nil {
		return nil, "", err
	}
	if status == http.StatusNotModified {
		cached, err := c.Cache.Body(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("cached body: %w", err)
		}
		return cached, ct, nil
	}
	if c.Cache != nil {
		_ = c.Cache.Store(ctx, cache.PageEntry{URL: rawURL, ContentType: ct, ETag: newEtag, LastModified: newLastMod}, body)
	}
	return body, ct, nil
}

func (c *Client) do(ctx context.Context, rawURL, etag, lastMod string) ([]byte, string, string, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", "", "", 0, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, "", "", "", 0, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	for k, vs := range c.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		tctx, cancel := context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(tctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, "", "", "", 0, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		return nil, contentType, "", "", resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", "", "", resp.StatusCode, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(contentType) {
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	body, err := toUTF8(raw, contentType)
	if err != nil {
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("decode body: %w", err)
	}
	return body, contentType, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), resp.StatusCode, nil
}

// toUTF8 transcodes body using the charset declared in the header or the
// document's meta tags.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func (c *Client) wait(ctx context.Context) error {
	if c.RateLimit <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = rate.NewLimiter(rate.Limit(c.RateLimit), 1)
	})
	return c.limiter.Wait(ctx)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// some hosts omit the header entirely; treat that as HTML and let the parser decide
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
