package tui

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/session"
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// senderColor maps a result's hex color (without '#') to a terminal color.
func senderColor(hex string) lipgloss.TerminalColor {
	if hexColor.MatchString(hex) {
		return lipgloss.Color("#" + hex)
	}
	return SecondaryColor
}

// formatDate shortens RFC 3339 dates and passes anything else through.
func formatDate(s string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2 2006 15:04")
		}
	}
	return s
}

func preview(content string, limit int) string {
	content = strings.Join(strings.Fields(content), " ")
	if limit > 0 {
		content = truncateEnd(content, limit)
	}
	return content
}

func renderResult(r client.SearchResult, selected bool, width, maxPreview int) string {
	marker := "  "
	if selected {
		marker = lipgloss.NewStyle().Foreground(AccentColor).Bold(true).Render("› ")
	}

	sender := r.Sender
	if sender == "" {
		sender = "Unknown"
	}
	head := lipgloss.NewStyle().Foreground(senderColor(r.SenderColor)).Bold(true).Render(sender)
	if r.SenderType != "" {
		head += renderMuted(" · " + r.SenderType)
	}
	if r.Date != "" {
		head += TimeStyle.Render(" · " + formatDate(r.Date))
	}

	bodyWidth := max(width-2, 10)
	lines := []string{
		head,
		lipgloss.NewStyle().Foreground(TextColor).Width(bodyWidth).Render(preview(r.Content, maxPreview)),
	}
	if r.PostURL != "" {
		lines = append(lines, renderMuted(truncateMiddle(r.PostURL, bodyWidth)))
	}

	card := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if selected {
		card = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(AccentColor).
			Render(card)
	} else {
		card = lipgloss.NewStyle().PaddingLeft(1).Render(card)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, marker, card)
}

// renderRows draws the result list and returns the first line of each row
// so the viewport can follow the cursor.
func renderRows(rows []session.Row, cursor, width, maxPreview int) (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(rows))
	line := 0
	for i, row := range rows {
		offsets[i] = line

		var block string
		switch row.Kind {
		case session.RowError:
			block = ErrorMessageStyle.Render("✗ " + row.Text)
		case session.RowEmpty:
			block = renderMuted(row.Text)
		default:
			block = renderResult(row.Result, i == cursor, width, maxPreview)
		}

		if i > 0 {
			b.WriteString("\n\n")
			line += 2
		}
		b.WriteString(block)
		line += lipgloss.Height(block) - 1
	}
	return b.String(), offsets
}
