// Package client talks to the /search and /translate endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	opSearch    = "search"
	opTranslate = "translate"

	defaultUserAgent = "tgscope/1.0 (telegram archive search)"
	defaultTimeout   = 30 * time.Second
	maxBodyBytes     = 8 << 20
)

// Client is an HTTP client for the search backend.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client posts to.
func (c *Client) BaseURL() string { return c.baseURL }

// Search posts one search request. Non-2xx statuses, transport failures and
// an error field in a 2xx body all come back as *ServiceError.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Languages == nil {
		req.Languages = []string{}
	}

	status, body, err := c.post(ctx, "/search", req)
	if err != nil {
		return nil, &ServiceError{Op: opSearch, Err: err}
	}

	if status < 200 || status > 299 {
		return nil, &ServiceError{
			Op:         opSearch,
			StatusCode: status,
			Message:    failureMessage(body, fmt.Sprintf("Failed to fetch search results (HTTP %d)", status)),
		}
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ServiceError{Op: opSearch, StatusCode: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Error != "" {
		return nil, &ServiceError{Op: opSearch, StatusCode: status, Message: resp.Error}
	}
	if resp.Results == nil {
		resp.Results = []SearchResult{}
	}
	return &resp, nil
}

// Translate asks the backend to translate text into targetLang.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	status, body, err := c.post(ctx, "/translate", TranslateRequest{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", &ServiceError{Op: opTranslate, Err: err}
	}

	if status < 200 || status > 299 {
		return "", &ServiceError{
			Op:         opTranslate,
			StatusCode: status,
			Message:    failureMessage(body, fmt.Sprintf("Failed to translate query to %s.", targetLang)),
		}
	}

	var resp TranslateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ServiceError{Op: opTranslate, StatusCode: status, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Error != "" {
		return "", &ServiceError{Op: opTranslate, StatusCode: status, Message: resp.Error}
	}
	if resp.TranslatedText == nil {
		return "", &ServiceError{Op: opTranslate, StatusCode: status, Message: "translate: response has no translated_text"}
	}
	return *resp.TranslatedText, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// failureMessage prefers the service's own {"error": ...} text.
func failureMessage(body []byte, fallback string) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Error) != "" {
		return e.Error
	}
	return fallback
}
