package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultRenderTimeout bounds navigation, network idle and script evaluation.
const DefaultRenderTimeout = 10 * time.Second

// Renderer produces content from a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (Content, error)
}

// RodRenderer renders pages in headless Chromium. Each call gets its own
// browser (or, with RemoteURL, its own incognito context) which is closed
// before Render returns.
type RodRenderer struct {
	// Bin is the browser executable. Empty lets the launcher find or
	// download one.
	Bin string
	// RemoteURL is a DevTools endpoint (ws:// or http://host:port) of an
	// already running browser. When set nothing is launched.
	RemoteURL string
	UserAgent string
	Timeout   time.Duration

	// released runs after each browser release; tests count it.
	released func()
}

type renderPayload struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Headings []string `json:"headings"`
}

func (r *RodRenderer) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultRenderTimeout
}

func (r *RodRenderer) Render(ctx context.Context, pageURL string) (Content, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	browser, release, err := r.open(ctx)
	if err != nil {
		return Content{}, fmt.Errorf("render %s: %w", pageURL, err)
	}
	defer func() {
		release()
		if r.released != nil {
			r.released()
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return Content{}, fmt.Errorf("render %s: new page: %w", pageURL, err)
	}
	defer func() { _ = page.Close() }()

	if r.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.UserAgent}); err != nil {
			return Content{}, fmt.Errorf("render %s: user agent: %w", pageURL, err)
		}
	}

	timed := page.Context(ctx).Timeout(r.timeout())
	waitIdle := timed.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	if err := timed.Navigate(pageURL); err != nil {
		return Content{}, fmt.Errorf("render %s: navigate: %w", pageURL, err)
	}
	// returns when the network settles or the timeout above expires
	waitIdle()

	res, err := page.Context(ctx).Timeout(r.timeout()).Eval(renderScript(), strings.Join(NonContentSelectors, ", "))
	if err != nil {
		return Content{}, fmt.Errorf("render %s: evaluate: %w", pageURL, err)
	}
	var p renderPayload
	if err := json.Unmarshal([]byte(res.Value.Str()), &p); err != nil {
		return Content{}, fmt.Errorf("render %s: decode: %w", pageURL, err)
	}
	return newContent(pageURL, p.Title, p.Text, p.Headings, TierDynamic), nil
}

// open connects to a browser and returns a release func that closes it.
func (r *RodRenderer) open(ctx context.Context) (*rod.Browser, func(), error) {
	if r.RemoteURL != "" {
		u, err := launcher.ResolveURL(r.RemoteURL)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve devtools url: %w", err)
		}
		// own the websocket so release can close it; the shared browser stays up
		ws := &cdp.WebSocket{}
		if err := ws.Connect(ctx, u, nil); err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		browser := rod.New().Client(cdp.New().Start(ws)).Context(ctx)
		if err := browser.Connect(); err != nil {
			_ = ws.Close()
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		incognito, err := browser.Incognito()
		if err != nil {
			_ = ws.Close()
			return nil, nil, fmt.Errorf("incognito: %w", err)
		}
		return incognito, func() {
			_ = incognito.Close()
			_ = ws.Close()
		}, nil
	}

	l := launcher.New().Context(ctx).Headless(true).NoSandbox(true)
	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return browser, func() {
		_ = browser.Close()
		l.Cleanup()
	}, nil
}

func renderScript() string {
	return `(removeSel) => {
	document.querySelectorAll(removeSel).forEach((el) => el.remove());
	const h1 = document.querySelector('h1');
	const title = (h1 && h1.innerText.trim()) || document.title || '';
	const main = document.querySelector('article, .article-content, .post-content, .entry-content, main') || document.body;
	const text = main ? main.innerText : '';
	const headings = Array.from(document.querySelectorAll('h1, h2, h3'))
		.map((h) => h.innerText.trim())
		.filter((t) => t.length > 3);
	return JSON.stringify({ title, text, headings });
}`
}
