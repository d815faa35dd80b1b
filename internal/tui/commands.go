package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/tgscope/internal/client"
)

// waitForSnapshot delivers the next published snapshot. Update re-arms it
// after every delivery.
func (a *App) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-a.snapshots:
			return snapshotMsg{snap: s}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) submitQuery(query string, languages []string) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.SubmitQuery(a.ctx, query, languages)}
	}
}

func (a *App) goToPage(page int) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.GoToPage(a.ctx, page)}
	}
}

func (a *App) prevPage() tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.PrevPage(a.ctx)}
	}
}

func (a *App) nextPage() tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.NextPage(a.ctx)}
	}
}

func (a *App) firstPage() tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.FirstPage(a.ctx)}
	}
}

func (a *App) lastPage() tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{err: a.orch.LastPage(a.ctx)}
	}
}

// detailMarkdown lays out one message for glamour.
func detailMarkdown(r client.SearchResult) string {
	var b strings.Builder
	sender := r.Sender
	if sender == "" {
		sender = "Unknown"
	}
	fmt.Fprintf(&b, "# %s\n\n", sender)

	var meta []string
	if r.SenderType != "" {
		meta = append(meta, r.SenderType)
	}
	if r.Date != "" {
		meta = append(meta, formatDate(r.Date))
	}
	if r.MessageID != "" {
		meta = append(meta, "#"+string(r.MessageID))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))
	}

	b.WriteString("---\n\n")
	b.WriteString(r.Content)
	b.WriteString("\n")

	if r.PostURL != "" {
		fmt.Fprintf(&b, "\n[Open post](%s)\n", r.PostURL)
	}
	return b.String()
}

func (a *App) renderDetail(r client.SearchResult) tea.Cmd {
	return func() tea.Msg {
		renderer, err := a.getRenderer()
		if err != nil {
			return detailRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := renderer.Render(detailMarkdown(r))
		if err != nil {
			return detailRenderedMsg{content: fmt.Sprintf("Failed to render message: %v\n\n%s", err, r.Content)}
		}
		return detailRenderedMsg{content: rendered}
	}
}

func (a *App) openPost(url string) tea.Cmd {
	return func() tea.Msg {
		if a.opener == nil {
			return postOpenedMsg{url: url, err: fmt.Errorf("no opener configured")}
		}
		return postOpenedMsg{url: url, err: a.opener.Open(url)}
	}
}

// setStatus shows text in the status bar and clears it after statusTTL
// unless a newer status replaced it. Errors stay twice as long.
func (a *App) setStatus(text string, kind StatusKind) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	ttl := a.statusTTL
	if kind == StatusError {
		ttl *= 2
	}
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}
