package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgTranslating   = "Translating…"
	MsgSearching     = "Searching…"
	MsgNoPostURL     = "This message has no post link"
	MsgRenderingPost = "Rendering message…"
)

func MsgResultsPage(n, page, total int) string {
	return fmt.Sprintf("%s • page %d of %d", MsgResultsCount(n), page, total)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgLanguages(codes []string) string {
	if len(codes) == 0 {
		return "languages: none"
	}
	return "languages: " + strings.Join(codes, ", ")
}
