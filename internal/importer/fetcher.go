package importer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pders01/tgscope/internal/archive"
)

const (
	defaultUserAgent = "tgscope/1.0 (feed importer)"
	defaultTimeout   = 30 * time.Second
)

// Fetcher downloads channel feeds with conditional requests.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch requests the channel's feed. It returns updated=false with a nil
// response when the server answers 304 Not Modified.
func (f *Fetcher) Fetch(ctx context.Context, ch *archive.Channel) (*http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ch.FeedURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	if ch.ETag != "" {
		req.Header.Set("If-None-Match", ch.ETag)
	}
	if ch.LastModified != "" {
		req.Header.Set("If-Modified-Since", ch.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, false, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, false, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, true, nil
}

// UpdateMetadata records the validators for the next conditional request.
func (f *Fetcher) UpdateMetadata(ch *archive.Channel, resp *http.Response) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		ch.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		ch.LastModified = lastMod
	}
}
