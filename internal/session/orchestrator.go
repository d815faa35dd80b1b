// Package session owns the search state of one search panel and sequences
// translate-all, search and publish for every user action.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/debuglog"
	"github.com/pders01/tgscope/internal/pagination"
)

// ErrSuperseded is returned by an operation whose result was discarded
// because a newer submit or page change started while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer request")

// Translator translates text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, req client.SearchRequest) (*client.SearchResponse, error)
}

// Orchestrator drives the submit/search cycle for a single search panel.
// It is safe for concurrent use.
type Orchestrator struct {
	translator Translator
	searcher   Searcher
	maxVisible int

	mu      sync.Mutex
	state   State
	phase   Phase
	results []client.SearchResult
	errMsg  string
	strip   pagination.Strip

	// submitting is set from SubmitQuery until its first search commits.
	// Page targets are only valid against a committed search.
	submitting bool

	gen    uint64
	seq    uint64
	cancel context.CancelFunc

	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxVisible sets how many page slots the strip shows.
func WithMaxVisible(n int) Option {
	return func(o *Orchestrator) {
		o.maxVisible = n
	}
}

// New returns an idle orchestrator.
func New(translator Translator, searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		translator: translator,
		searcher:   searcher,
		maxVisible: pagination.DefaultMaxVisible,
		state:      newState(),
		subs:       make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.strip = pagination.NewStrip(o.state.CurrentPage, o.state.TotalPages, o.maxVisible)
	return o
}

// Subscribe registers fn to receive every published snapshot. The returned
// func removes the subscription.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// TranslationSummary renders "Input: q" plus one entry per translation.
func (o *Orchestrator) TranslationSummary() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Summary()
}

// SubmitQuery starts a new search. A blank query is ignored. Translations
// are requested concurrently, one per language, and each failure falls
// back to the untranslated query.
func (o *Orchestrator) SubmitQuery(ctx context.Context, query string, languages []string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	languages = append([]string(nil), languages...)

	o.mu.Lock()
	ctx, gen := o.beginLocked(ctx)
	o.state.Query = query
	o.state.Languages = languages
	o.state.CurrentPage = 1
	o.state.Translations = nil
	o.submitting = true
	o.phase = PhaseTranslating
	o.errMsg = ""
	o.unlockAndPublish()

	debuglog.WithFields(map[string]any{
		"query":     query,
		"languages": languages,
	}).Infof("Submitting query")

	translations := o.translateAll(ctx, query, languages)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return ErrSuperseded
	}
	o.state.Translations = translations
	o.phase = PhaseSearching
	o.unlockAndPublish()

	return o.runSearch(ctx, gen, query, languages, 1)
}

// GoToPage searches the stored query again for page. It does nothing when
// page is out of range, already current, no query has been submitted, or a
// submit is still translating or searching its first page.
func (o *Orchestrator) GoToPage(ctx context.Context, page int) error {
	o.mu.Lock()
	if o.state.Query == "" || o.submitting || page < 1 || page > o.state.TotalPages || page == o.state.CurrentPage {
		o.mu.Unlock()
		return nil
	}
	ctx, gen := o.beginLocked(ctx)
	query := o.state.Query
	languages := append([]string(nil), o.state.Languages...)
	o.phase = PhaseSearching
	o.unlockAndPublish()

	debuglog.Debugf("Navigating to page %d", page)
	return o.runSearch(ctx, gen, query, languages, page)
}

// FirstPage jumps to page 1.
func (o *Orchestrator) FirstPage(ctx context.Context) error {
	return o.GoToPage(ctx, 1)
}

// PrevPage moves one page back.
func (o *Orchestrator) PrevPage(ctx context.Context) error {
	return o.GoToPage(ctx, o.currentPage()-1)
}

// NextPage moves one page forward.
func (o *Orchestrator) NextPage(ctx context.Context) error {
	return o.GoToPage(ctx, o.currentPage()+1)
}

// LastPage jumps to the last known page.
func (o *Orchestrator) LastPage(ctx context.Context) error {
	o.mu.Lock()
	last := o.state.TotalPages
	o.mu.Unlock()
	return o.GoToPage(ctx, last)
}

func (o *Orchestrator) currentPage() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.CurrentPage
}

// beginLocked starts a new generation and cancels the previous one.
func (o *Orchestrator) beginLocked(parent context.Context) (context.Context, uint64) {
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	o.gen++
	o.cancel = cancel
	return ctx, o.gen
}

func (o *Orchestrator) translateAll(ctx context.Context, query string, languages []string) []Translation {
	out := make([]Translation, len(languages))
	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range languages {
		g.Go(func() error {
			out[i] = Translation{Lang: lang, Translated: o.translate(gctx, query, lang)}
			return nil
		})
	}
	_ = g.Wait() // tasks never fail
	return out
}

func (o *Orchestrator) translate(ctx context.Context, query, lang string) string {
	translated, err := o.translator.Translate(ctx, query, lang)
	if err != nil {
		debuglog.WithFields(map[string]any{
			"lang":  lang,
			"error": err.Error(),
		}).Warnf("Translation failed, using original query")
		return query
	}
	return translated
}

func (o *Orchestrator) runSearch(ctx context.Context, gen uint64, query string, languages []string, page int) error {
	resp, err := o.searcher.Search(ctx, client.SearchRequest{
		Query:     query,
		Languages: languages,
		Page:      page,
	})

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return ErrSuperseded
	}
	o.cancel()
	o.cancel = nil
	o.submitting = false

	if err != nil {
		debuglog.Errorf("Search for page %d failed: %v", page, err)
		o.phase = PhaseError
		o.results = nil
		o.errMsg = "Error fetching search results: " + err.Error()
		o.unlockAndPublish()
		return fmt.Errorf("searching page %d: %w", page, err)
	}

	total := max(resp.TotalPages, 1)
	o.state.TotalPages = total
	o.state.CurrentPage = min(max(resp.Page, 1), total)
	o.results = append([]client.SearchResult(nil), resp.Results...)
	o.phase = PhaseDisplaying
	o.errMsg = ""
	o.strip = pagination.NewStrip(o.state.CurrentPage, o.state.TotalPages, o.maxVisible)

	debuglog.Infof("Search returned %d results (page %d of %d)", len(o.results), o.state.CurrentPage, total)
	o.unlockAndPublish()
	return nil
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:     o.seq,
		State:   o.state.clone(),
		Phase:   o.phase,
		Results: append([]client.SearchResult(nil), o.results...),
		Err:     o.errMsg,
		Strip:   o.strip,
		Summary: o.state.Summary(),
	}
}

// unlockAndPublish releases o.mu and hands a snapshot of the transition to
// every subscriber. Delivery happens outside the lock, so concurrent
// transitions may arrive out of order; Seq orders them.
func (o *Orchestrator) unlockAndPublish() {
	o.seq++
	snap := o.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
