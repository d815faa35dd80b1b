package tui

import (
	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "…"

// renderInputFrame boxes the query input; the border lights up while it has focus.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1).
		Width(contentWidth + 4)
	if focused {
		frame = frame.BorderForeground(AccentColor)
	}
	return frame.Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// clip reports the runes of s and whether s needs shortening to fit limit.
// ok is false when nothing but the ellipsis (or nothing at all) fits.
func clip(s string, limit int) (r []rune, cut bool, ok bool) {
	r = []rune(s)
	if len(r) <= limit {
		return r, false, true
	}
	return r, true, limit > 1
}

// truncateEnd shortens s to at most limit runes, ending in an ellipsis.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r, cut, ok := clip(s, limit)
	switch {
	case !cut:
		return s
	case !ok:
		return ellipsis
	}
	return string(r[:limit-1]) + ellipsis
}

// truncateMiddle keeps both ends of s, which carry the meaning of post URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r, cut, ok := clip(s, limit)
	switch {
	case !cut:
		return s
	case !ok:
		return ellipsis
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(r[:head]) + ellipsis + string(r[len(r)-tail:])
}
