package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArchive(t *testing.T, store *Store) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.SaveChannel(&Channel{ID: "ops", Username: "opsnews", Title: "Ops News"}))
	require.NoError(t, store.SaveChannel(&Channel{ID: "kyiv", Username: "kyivpost", Title: "Kyiv Wire"}))
	_, err := store.SaveMessages([]*Message{
		testMessage("ops", "1", "Satellite imagery shows a new runway", now),
		testMessage("ops", "2", "Weather report for the coast", now),
		testMessage("kyiv", "7", "Спутниковые снимки показывают новую полосу", now),
	})
	require.NoError(t, err)
}

func TestIndex_BuildsFromStoreAndSearches(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "archive.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	seedArchive(t, store)

	idxPath := filepath.Join(dir, "index.bleve")
	ix, err := OpenIndex(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	n, err := ix.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := ix.Search("satellite runway", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ops/1", hits[0].Message.ID)
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = ix.Search("снимки", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "kyiv/7", hits[0].Message.ID)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestIndex_MatchesChannelAndPrefix(t *testing.T) {
	store := setupTestStore(t)
	seedArchive(t, store)

	ix, err := OpenIndex(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	hits, err := ix.Search("kyivpost", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "kyiv/7", hits[0].Message.ID)

	hits, err = ix.Search("weath", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ops/2", hits[0].Message.ID)
}

func TestIndex_EmptyQuery(t *testing.T) {
	store := setupTestStore(t)
	ix, err := OpenIndex(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	for _, q := range []string{"", "  ", "a", "!?"} {
		hits, err := ix.Search(q, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestIndex_IncrementalAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ix, err := OpenIndex(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	msgs := []*Message{testMessage("ops", "9", "convoy spotted near the bridge", time.Now())}
	_, err = store.SaveMessages(msgs)
	require.NoError(t, err)
	require.NoError(t, ix.IndexMessages(msgs))

	hits, err := ix.Search("convoy", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, ix.DeleteChannel("ops"))
	hits, err = ix.Search("convoy", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, world!"))
	assert.Equal(t, []string{"привет", "42"}, tokenize("Привет 42 x"))
	assert.Nil(t, tokenize("a b c"))
}
