package session

import "github.com/pders01/tgscope/internal/client"

// NoResultsText is shown when a search succeeds with an empty page.
const NoResultsText = "No results found."

// RowKind tells views how to draw a row.
type RowKind int

const (
	RowResult RowKind = iota
	RowEmpty
	RowError
)

// Row is one entry of the result list.
type Row struct {
	Kind   RowKind
	Result client.SearchResult
	Text   string
}

// Rows turns a snapshot into the result list. While a request is in flight
// the previous results stay listed.
func Rows(s Snapshot) []Row {
	switch s.Phase {
	case PhaseError:
		return []Row{{Kind: RowError, Text: s.Err}}
	case PhaseDisplaying:
		if len(s.Results) == 0 {
			return []Row{{Kind: RowEmpty, Text: NoResultsText}}
		}
	}
	if len(s.Results) == 0 {
		return nil
	}
	rows := make([]Row, len(s.Results))
	for i, r := range s.Results {
		rows[i] = Row{Kind: RowResult, Result: r, Text: r.Content}
	}
	return rows
}
