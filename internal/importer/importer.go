// Package importer fills the archive from channel RSS/Atom feeds.
package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/tgscope/internal/archive"
	"github.com/pders01/tgscope/internal/debuglog"
	"github.com/pders01/tgscope/internal/validation"
)

const (
	maxFeedBytes         = 16 << 20
	maxConcurrentRefresh = 5
)

// Result summarizes one feed import.
type Result struct {
	Channel     *archive.Channel
	Fetched     int
	Added       int
	NotModified bool
}

// Importer fetches feeds and writes their posts to the archive store and
// index.
type Importer struct {
	store   *archive.Store
	index   *archive.Index
	fetcher *Fetcher
	parser  *Parser
	policy  validation.URLPolicy
	mu      sync.Mutex
}

// Option configures an Importer.
type Option func(*Importer)

// WithFetcher replaces the default fetcher.
func WithFetcher(f *Fetcher) Option {
	return func(im *Importer) { im.fetcher = f }
}

// WithURLPolicy replaces the feed URL policy, e.g. to allow local feeds.
func WithURLPolicy(p validation.URLPolicy) Option {
	return func(im *Importer) { im.policy = p }
}

// New returns an importer writing to store and index. index may be nil, in
// which case messages are stored but not indexed.
func New(store *archive.Store, index *archive.Index, opts ...Option) *Importer {
	im := &Importer{
		store:   store,
		index:   index,
		fetcher: NewFetcher(0, ""),
		parser:  NewParser(),
		policy:  validation.FeedPolicy(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import fetches the feed at rawURL and archives its posts. Importing the
// same feed again only adds new posts.
func (im *Importer) Import(ctx context.Context, rawURL string) (*Result, error) {
	feedURL, err := im.policy.Normalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	ch, err := im.store.GetChannel(channelID(feedURL))
	if errors.Is(err, archive.ErrNotFound) {
		ch = &archive.Channel{ID: channelID(feedURL), FeedURL: feedURL}
	} else if err != nil {
		return nil, fmt.Errorf("loading channel: %w", err)
	}

	return im.importChannel(ctx, ch)
}

// RefreshAll re-imports every known channel, a few at a time.
func (im *Importer) RefreshAll(ctx context.Context) ([]*Result, error) {
	channels, err := im.store.Channels()
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	results := make([]*Result, len(channels))
	errs := make([]error, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefresh)
	for i, ch := range channels {
		g.Go(func() error {
			results[i], errs[i] = im.importChannel(gctx, ch)
			if errs[i] != nil {
				debuglog.WithFields(map[string]any{
					"channel": ch.ID,
					"feed":    ch.FeedURL,
				}).Warnf("Refresh failed: %v", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	done := results[:0]
	for _, r := range results {
		if r != nil {
			done = append(done, r)
		}
	}
	return done, errors.Join(errs...)
}

// Remove deletes a channel with its messages from the store and the index.
func (im *Importer) Remove(channelID string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, err := im.store.GetChannel(channelID); err != nil {
		return err
	}
	if err := im.store.DeleteChannel(channelID); err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}
	if im.index != nil {
		if err := im.index.DeleteChannel(channelID); err != nil {
			return fmt.Errorf("unindexing channel: %w", err)
		}
	}
	debuglog.WithFields(map[string]any{"channel": channelID}).Infof("Removed channel")
	return nil
}

func (im *Importer) importChannel(ctx context.Context, ch *archive.Channel) (*Result, error) {
	resp, updated, err := im.fetcher.Fetch(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ch.FeedURL, err)
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	if !updated {
		ch.LastImported = time.Now()
		if err := im.store.SaveChannel(ch); err != nil {
			return nil, fmt.Errorf("saving channel: %w", err)
		}
		debuglog.Debugf("Feed %s not modified", ch.FeedURL)
		return &Result{Channel: ch, NotModified: true}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	parsed, err := im.parser.Parse(bytes.NewReader(body), ch.ID)
	if err != nil {
		return nil, err
	}

	if parsed.Title != "" {
		ch.Title = parsed.Title
	}
	if parsed.Username != "" {
		ch.Username = parsed.Username
	}
	im.fetcher.UpdateMetadata(ch, resp)
	ch.LastImported = time.Now()

	if err := im.store.SaveChannel(ch); err != nil {
		return nil, fmt.Errorf("saving channel: %w", err)
	}
	added, err := im.store.SaveMessages(parsed.Messages)
	if err != nil {
		return nil, fmt.Errorf("saving messages: %w", err)
	}
	if im.index != nil {
		if err := im.index.IndexMessages(parsed.Messages); err != nil {
			return nil, fmt.Errorf("indexing messages: %w", err)
		}
	}

	debuglog.WithFields(map[string]any{
		"channel": ch.ID,
		"fetched": len(parsed.Messages),
		"added":   added,
	}).Infof("Imported %s", ch.FeedURL)

	return &Result{Channel: ch, Fetched: len(parsed.Messages), Added: added}, nil
}

func channelID(feedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(feedURL)))[:16]
}
