package tui

import (
	"strings"

	"github.com/pders01/tgscope/internal/pagination"
)

// stripControl is one button of a page strip: first, prev, a page slot,
// an ellipsis, next or last.
type stripControl struct {
	Label   string
	Page    int
	Enabled bool
	Current bool
}

// stripControls lays out the buttons of s. Ellipsis slots and buttons
// pointing at the current page are disabled.
func stripControls(s pagination.Strip) []stripControl {
	out := make([]stripControl, 0, len(s.Pages)+4)
	out = append(out,
		stripControl{Label: "«", Page: 1, Enabled: s.FirstEnabled},
		stripControl{Label: "‹", Page: s.Current - 1, Enabled: s.PrevEnabled},
	)
	for _, d := range s.Pages {
		c := stripControl{Label: d.String(), Page: d.Page}
		if d.Selectable() {
			c.Current = d.Page == s.Current
			c.Enabled = !c.Current
		}
		out = append(out, c)
	}
	out = append(out,
		stripControl{Label: "›", Page: s.Current + 1, Enabled: s.NextEnabled},
		stripControl{Label: "»", Page: s.Total, Enabled: s.LastEnabled},
	)
	return out
}

// moveCursor returns the next enabled control from cursor in direction dir
// (+1 or -1), or cursor when there is none.
func moveCursor(controls []stripControl, cursor, dir int) int {
	for i := cursor + dir; i >= 0 && i < len(controls); i += dir {
		if controls[i].Enabled {
			return i
		}
	}
	return cursor
}

// firstEnabled is the cursor position when the strip gains focus.
func firstEnabled(controls []stripControl) int {
	for i, c := range controls {
		if c.Enabled && !isArrow(c.Label) {
			return i
		}
	}
	return moveCursor(controls, -1, 1)
}

func isArrow(label string) bool {
	switch label {
	case "«", "‹", "›", "»":
		return true
	}
	return false
}

// renderStrip draws controls on one line. cursor is highlighted when
// focused; pass -1 for no cursor.
func renderStrip(controls []stripControl, cursor int, focused bool) string {
	parts := make([]string, len(controls))
	for i, c := range controls {
		switch {
		case focused && i == cursor:
			parts[i] = PageCursorStyle.Render(c.Label)
		case c.Current:
			parts[i] = CurrentPageStyle.Render(c.Label)
		case !c.Enabled:
			parts[i] = DisabledPageStyle.Render(c.Label)
		default:
			parts[i] = PageStyle.Render(c.Label)
		}
	}
	return strings.Join(parts, "")
}
