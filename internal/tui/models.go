package tui

import "github.com/pders01/tgscope/internal/session"

type View int

const (
	ViewSearch View = iota
	ViewLanguages
	ViewDetail
)

// focus is the part of the search view receiving keys.
type focus int

const (
	focusInput focus = iota
	focusResults
	focusStrip
)

// snapshotMsg carries an orchestrator snapshot into the event loop.
type snapshotMsg struct {
	snap session.Snapshot
}

// searchDoneMsg reports the end of a submit or page change.
type searchDoneMsg struct {
	err error
}

type detailRenderedMsg struct {
	content string
}

type postOpenedMsg struct {
	url string
	err error
}

type statusClearMsg struct {
	seq int
}
