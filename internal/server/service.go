package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pders01/tgscope/internal/archive"
	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/langs"
)

const (
	defaultPerPage          = 10
	defaultPerLanguageLimit = 50
	sourceLanguage          = "en"
)

var errTranslationDisabled = errors.New("translation service not configured")

// Index ranks archived messages for a query.
type Index interface {
	Search(query string, limit int) ([]archive.Hit, error)
}

// Translator translates a query for one language's search.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Service answers multi-language searches over the archive.
type Service struct {
	index            Index
	translator       Translator
	catalog          *langs.Catalog
	perPage          int
	perLanguageLimit int
	sf               singleflight.Group
}

// NewService builds a search service. translator may be nil, in which case
// every language searches with the original query.
func NewService(index Index, translator Translator, catalog *langs.Catalog, perPage, perLanguageLimit int) *Service {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perLanguageLimit <= 0 {
		perLanguageLimit = defaultPerLanguageLimit
	}
	if catalog == nil {
		catalog = langs.Default()
	}
	return &Service{
		index:            index,
		translator:       translator,
		catalog:          catalog,
		perPage:          perPage,
		perLanguageLimit: perLanguageLimit,
	}
}

// Search runs query once per language, translated where possible, and
// returns one page of the concatenated hits.
func (s *Service) Search(ctx context.Context, query string, languages []string, page int) (*client.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(languages) == 0 {
		languages = []string{sourceLanguage}
	}

	// Callers for other pages join the same flight, so it must not die with
	// whichever caller started it.
	key := query + "\x00" + strings.Join(languages, ",")
	flight := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (any, error) {
		return s.collect(flight, query, languages)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	all := res.Val.([]client.SearchResult)

	totalPages := max((len(all)+s.perPage-1)/s.perPage, 1)
	page = min(max(page, 1), totalPages)
	start := (page - 1) * s.perPage
	end := min(start+s.perPage, len(all))

	return &client.SearchResponse{
		Results:      append([]client.SearchResult{}, all[start:end]...),
		TotalResults: len(all),
		Page:         page,
		TotalPages:   totalPages,
	}, nil
}

func (s *Service) collect(ctx context.Context, query string, languages []string) ([]client.SearchResult, error) {
	queries := s.translateAll(ctx, query, languages)

	var out []client.SearchResult
	seen := map[string]bool{}
	for i, q := range queries {
		hits, err := s.index.Search(q, s.perLanguageLimit)
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Debug().
			Str("lang", languages[i]).
			Str("query", q).
			Int("hits", len(hits)).
			Msg("language search")
		for _, h := range hits {
			if seen[h.Message.ID] {
				continue
			}
			seen[h.Message.ID] = true
			out = append(out, toResult(h.Message))
		}
	}
	return out, nil
}

// translateAll returns the query to run for each language, in order.
func (s *Service) translateAll(ctx context.Context, query string, languages []string) []string {
	out := make([]string, len(languages))
	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range languages {
		out[i] = query
		if s.translator == nil || lang == sourceLanguage {
			continue
		}
		g.Go(func() error {
			translated, err := s.translator.Translate(gctx, query, s.catalog.ServiceCode(lang))
			if err != nil || strings.TrimSpace(translated) == "" {
				zerolog.Ctx(ctx).Warn().Err(err).Str("lang", lang).Msg("translation failed, using original query")
				return nil
			}
			out[i] = translated
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Translate exposes the upstream translator with catalog code mapping.
func (s *Service) Translate(ctx context.Context, text, lang string) (string, error) {
	if s.translator == nil {
		return "", errTranslationDisabled
	}
	return s.translator.Translate(ctx, text, s.catalog.ServiceCode(lang))
}

func toResult(m *archive.Message) client.SearchResult {
	return client.SearchResult{
		MessageID:   client.MessageID(m.MessageID),
		Date:        m.Date.UTC().Format(time.RFC3339),
		Sender:      m.Sender,
		SenderType:  m.SenderType,
		SenderColor: m.SenderColor,
		Content:     m.Content,
		PostURL:     m.PostURL,
	}
}
