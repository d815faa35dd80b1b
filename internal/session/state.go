package session

import (
	"strings"

	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/pagination"
)

// Phase is the orchestrator's position in the submit/search cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTranslating
	PhaseSearching
	PhaseDisplaying
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTranslating:
		return "translating"
	case PhaseSearching:
		return "searching"
	case PhaseDisplaying:
		return "displaying"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether a request is in flight.
func (p Phase) Busy() bool {
	return p == PhaseTranslating || p == PhaseSearching
}

// Translation is the query as translated into one language.
type Translation struct {
	Lang       string
	Translated string
}

// State is the session's search state. Translations follow the order of
// Languages.
type State struct {
	Query        string
	Languages    []string
	CurrentPage  int
	TotalPages   int
	Translations []Translation
}

func newState() State {
	return State{CurrentPage: 1, TotalPages: 1}
}

func (s State) clone() State {
	out := s
	out.Languages = append([]string(nil), s.Languages...)
	out.Translations = append([]Translation(nil), s.Translations...)
	return out
}

// Summary renders the translation feedback line.
func (s State) Summary() string {
	if s.Query == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("Input: ")
	b.WriteString(s.Query)
	for _, t := range s.Translations {
		b.WriteString("   -   ")
		b.WriteString(t.Lang)
		b.WriteString(": ")
		b.WriteString(t.Translated)
	}
	return b.String()
}

// Snapshot is an immutable copy of everything a view needs to render.
// Seq grows with every transition.
type Snapshot struct {
	Seq     uint64
	State   State
	Phase   Phase
	Results []client.SearchResult
	Err     string
	Strip   pagination.Strip
	Summary string
}

// HasResults reports whether at least one search has completed.
func (s Snapshot) HasResults() bool {
	return s.Phase == PhaseDisplaying || s.Phase == PhaseError
}
