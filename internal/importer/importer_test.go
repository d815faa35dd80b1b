package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/tgscope/internal/archive"
	"github.com/pders01/tgscope/internal/validation"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Ops News</title>
  <link>https://t.me/s/opsnews</link>
  <description>Telegram channel mirror</description>
  <item>
    <title>Runway</title>
    <link>https://t.me/opsnews/101</link>
    <guid>https://t.me/opsnews/101</guid>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <description><![CDATA[<p>Satellite imagery shows a <b>new runway</b></p>]]></description>
  </item>
  <item>
    <title>Coast</title>
    <link>https://t.me/opsnews/102</link>
    <guid>https://t.me/opsnews/102</guid>
    <pubDate>Tue, 03 Jan 2006 15:04:05 GMT</pubDate>
    <description>Weather report for the coast</description>
  </item>
</channel>
</rss>`

func localPolicy() validation.URLPolicy {
	p := validation.FeedPolicy()
	p.AllowLocalhost = true
	p.AllowPrivateIPs = true
	return p
}

func setupImporter(t *testing.T) (*Importer, *archive.Store, *archive.Index) {
	t.Helper()
	store, err := archive.NewStore(filepath.Join(t.TempDir(), "archive.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	index, err := archive.OpenIndex(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return New(store, index, WithURLPolicy(localPolicy())), store, index
}

func TestImport(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	im, store, index := setupImporter(t)
	ctx := context.Background()

	res, err := im.Import(ctx, server.URL+"/telegram/channel/opsnews")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Added)
	assert.False(t, res.NotModified)
	assert.Equal(t, "Ops News", res.Channel.Title)
	assert.Equal(t, "opsnews", res.Channel.Username)
	assert.Equal(t, `"v1"`, res.Channel.ETag)

	msgs, err := store.Messages(res.Channel.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	newest := msgs[0]
	assert.Equal(t, "102", newest.MessageID)
	assert.Equal(t, "Ops News", newest.Sender)
	assert.Equal(t, SenderTypeChannel, newest.SenderType)
	assert.Equal(t, "https://t.me/opsnews/102", newest.PostURL)

	first, err := store.GetMessage(archive.MessageKey(res.Channel.ID, "101"))
	require.NoError(t, err)
	assert.Contains(t, first.Content, "**new runway**")
	assert.NotContains(t, first.Content, "<p>")

	hits, err := index.Search("runway", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "101", hits[0].Message.MessageID)

	// Second import sends the ETag and gets 304.
	res, err = im.Import(ctx, server.URL+"/telegram/channel/opsnews")
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Equal(t, int32(2), requests.Load())
}

func TestImport_RejectsBadURL(t *testing.T) {
	store, err := archive.NewStore(filepath.Join(t.TempDir(), "archive.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	im := New(store, nil)
	_, err = im.Import(context.Background(), "http://127.0.0.1:1/feed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid feed URL")
}

func TestImport_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	im, _, _ := setupImporter(t)
	_, err := im.Import(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error: 502")
}

func TestRefreshAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	im, store, _ := setupImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, server.URL+"/a")
	require.NoError(t, err)
	require.NoError(t, store.SaveChannel(&archive.Channel{ID: "broken", FeedURL: server.URL + "/broken"}))

	results, err := im.RefreshAll(ctx)
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Added)
	assert.Equal(t, 2, results[0].Fetched)
}

func TestRemove(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	im, store, index := setupImporter(t)
	res, err := im.Import(context.Background(), server.URL)
	require.NoError(t, err)

	require.NoError(t, im.Remove(res.Channel.ID))

	_, err = store.GetChannel(res.Channel.ID)
	assert.ErrorIs(t, err, archive.ErrNotFound)
	hits, err := index.Search("runway", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	assert.ErrorIs(t, im.Remove(res.Channel.ID), archive.ErrNotFound)
}
