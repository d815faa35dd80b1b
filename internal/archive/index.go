package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
)

// Hit is one ranked search match.
type Hit struct {
	Message *Message
	Score   float64
}

// Index is a bleve full-text index over the archive's messages.
type Index struct {
	store *Store
	idx   bleve.Index
}

// OpenIndex opens the index at indexPath, creating and filling it from store
// when it does not exist yet. An empty indexPath builds an in-memory index.
func OpenIndex(store *Store, indexPath string) (*Index, error) {
	var idx bleve.Index
	var err error
	created := false

	switch {
	case indexPath == "":
		idx, err = bleve.NewMemOnly(buildIndexMapping())
		created = true
	default:
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
			created = true
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	ix := &Index{store: store, idx: idx}
	if created {
		if err := ix.Reindex(); err != nil {
			idx.Close()
			return nil, err
		}
	}
	return ix, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	content.IncludeTermVectors = true

	sender := bleve.NewTextFieldMapping()
	sender.Analyzer = standard.Name
	sender.Store = true

	channel := bleve.NewTextFieldMapping()
	channel.Analyzer = standard.Name
	channel.Store = true

	channelID := bleve.NewKeywordFieldMapping()
	channelID.Store = true

	date := bleve.NewDateTimeFieldMapping()
	date.Store = true

	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("sender", sender)
	dm.AddFieldMappingsAt("channel", channel)
	dm.AddFieldMappingsAt("channel_id", channelID)
	dm.AddFieldMappingsAt("date", date)

	im.DefaultMapping = dm
	return im
}

func (ix *Index) Close() error {
	return ix.idx.Close()
}

// Reindex rebuilds the index from every archived message.
func (ix *Index) Reindex() error {
	messages, err := ix.store.Messages("", 0)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}
	return ix.IndexMessages(messages)
}

// IndexMessages adds or replaces messages in the index.
func (ix *Index) IndexMessages(messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	channels := map[string]string{}
	batch := ix.idx.NewBatch()
	for _, m := range messages {
		label, ok := channels[m.ChannelID]
		if !ok {
			if ch, err := ix.store.GetChannel(m.ChannelID); err == nil {
				label = strings.TrimSpace(ch.Title + " " + ch.Username)
			}
			channels[m.ChannelID] = label
		}
		if err := batch.Index(m.ID, map[string]any{
			"content":    m.Content,
			"sender":     m.Sender,
			"channel":    label,
			"channel_id": m.ChannelID,
			"date":       m.Date,
		}); err != nil {
			return fmt.Errorf("indexing message %s: %w", m.ID, err)
		}
	}
	return ix.idx.Batch(batch)
}

// DeleteChannel drops every indexed message of channelID.
func (ix *Index) DeleteChannel(channelID string) error {
	tq := bleve.NewTermQuery(channelID)
	tq.SetField("channel_id")

	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(tq, size, 0, false)
		res, err := ix.idx.Search(req)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := ix.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := ix.idx.Batch(batch); err != nil {
			return err
		}
	}
}

// Search ranks messages matching query, best first. Content matches weigh
// more than sender or channel matches.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qs = append(qs,
			fieldMatch(tok, "content", 3.0),
			fieldPrefix(tok, "content", 1.5),
			fieldMatch(tok, "sender", 1.0),
			fieldPrefix(tok, "sender", 0.8),
			fieldMatch(tok, "channel", 0.5),
		)
	}
	q := bleve.NewDisjunctionQuery(qs...)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	ids := make([]string, len(res.Hits))
	scores := make(map[string]float64, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
		scores[h.ID] = h.Score
	}
	messages, err := ix.store.GetMessages(ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(messages))
	for _, m := range messages {
		hits = append(hits, Hit{Message: m, Score: scores[m.ID]})
	}
	return hits, nil
}

// DocCount reports total documents in the index.
func (ix *Index) DocCount() (int, error) {
	n, err := ix.idx.DocCount()
	return int(n), err
}

func fieldMatch(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewMatchQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func fieldPrefix(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewPrefixQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single-rune terms.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if utf8.RuneCountInString(current.String()) > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return terms
}
