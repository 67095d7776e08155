package article

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrPublish marks a failed update against the content API. The article is
// left untouched on the server when it is returned.
var ErrPublish = errors.New("publish failed")

// Client talks to the article collection endpoint, e.g.
// http://localhost:5000/api/articles.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// List returns every article in the collection.
func (c *Client) List(ctx context.Context) ([]Article, error) {
	var out []Article
	if err := c.call(ctx, http.MethodGet, c.BaseURL, nil, &out); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

// Update applies u to the article with the given id and returns the stored
// result. Any failure wraps ErrPublish.
func (c *Client) Update(ctx context.Context, id string, u Update) (Article, error) {
	if strings.TrimSpace(id) == "" {
		return Article{}, fmt.Errorf("%w: empty article id", ErrPublish)
	}
	body, err := json.Marshal(u)
	if err != nil {
		return Article{}, fmt.Errorf("%w: encode: %v", ErrPublish, err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/" + url.PathEscape(id)
	var out Article
	if err := c.call(ctx, http.MethodPut, endpoint, body, &out); err != nil {
		return Article{}, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, body []byte, dst any) error {
	if c.BaseURL == "" {
		return errors.New("missing article API base url")
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decErr == nil && env.Message != "" {
			return fmt.Errorf("article api status %d: %s", resp.StatusCode, env.Message)
		}
		return fmt.Errorf("article api status: %d", resp.StatusCode)
	}
	if decErr != nil {
		return fmt.Errorf("decode response: %w", decErr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "success=false"
		}
		return fmt.Errorf("article api: %s", msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return errors.New("article api: empty data")
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
