// Package tui is the terminal front end: a query form, language toggles,
// a result list between two page strips, and a message detail view.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/tgscope/internal/client"
	"github.com/pders01/tgscope/internal/config"
	"github.com/pders01/tgscope/internal/debuglog"
	"github.com/pders01/tgscope/internal/langs"
	"github.com/pders01/tgscope/internal/session"
)

// chromeHeight is the number of lines the search view uses around the
// result viewport: header, framed input, summary, two strips, separator
// and status bar.
const chromeHeight = 10

// Opener opens a post URL outside the terminal.
type Opener interface {
	Open(url string) error
}

type App struct {
	config     *config.Config
	orch       *session.Orchestrator
	catalog    *langs.Catalog
	opener     Opener
	keyHandler *KeyHandler

	queryInput  textinput.Model
	resultsView viewport.Model
	detailView  viewport.Model
	langList    list.Model

	view  View
	focus focus

	snap        session.Snapshot
	rows        []session.Row
	rowOffsets  []int
	cursor      int
	stripCursor int
	searched    bool
	selected    map[string]bool
	detail      *client.SearchResult

	status       string
	statusKind   StatusKind
	statusSeq    int
	statusTTL    time.Duration
	showFullHelp bool

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	ctx         context.Context
	cancel      context.CancelFunc
	snapshots   chan session.Snapshot
	unsubscribe func()
}

// NewApp wires the UI to orch and subscribes to its snapshots. Call Close
// when the program exits.
func NewApp(orch *session.Orchestrator, catalog *langs.Catalog, opener Opener, cfg *config.Config) *App {
	if catalog == nil {
		catalog = langs.Default()
	}

	qi := textinput.New()
	qi.Placeholder = "Search archived messages…"
	qi.Prompt = "› "
	qi.CharLimit = 256
	qi.Focus()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = SelectedItemStyle
	langList := list.New([]list.Item{}, delegate, 0, 0)
	langList.Title = "› languages"
	langList.Styles.Title = TitleStyle
	langList.SetShowStatusBar(false)
	langList.SetFilteringEnabled(false)
	langList.SetShowHelp(false)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:      cfg,
		orch:        orch,
		catalog:     catalog,
		opener:      opener,
		queryInput:  qi,
		resultsView: viewport.New(0, 0),
		detailView:  viewport.New(0, 0),
		langList:    langList,
		view:        ViewSearch,
		focus:       focusInput,
		selected:    map[string]bool{},
		statusTTL:   3 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		snapshots:   make(chan session.Snapshot, 16),
	}
	for _, code := range catalog.Filter(cfg.Search.DefaultLanguages) {
		a.selected[code] = true
	}
	a.refreshLanguageItems()
	a.keyHandler = NewKeyHandler(a, cfg)
	a.snap = orch.Snapshot()

	a.unsubscribe = orch.Subscribe(func(s session.Snapshot) {
		select {
		case a.snapshots <- s:
		case <-ctx.Done():
		}
	})
	return a
}

// Close cancels in-flight requests and stops snapshot delivery.
func (a *App) Close() {
	a.cancel()
	a.unsubscribe()
}

// Languages returns the selected language codes in catalog order.
func (a *App) Languages() []string {
	codes := make([]string, 0, len(a.selected))
	for code, on := range a.selected {
		if on {
			codes = append(codes, code)
		}
	}
	return a.catalog.Filter(codes)
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.waitForSnapshot(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case snapshotMsg:
		if msg.snap.Seq > a.snap.Seq {
			a.applySnapshot(msg.snap)
		}
		return a, a.waitForSnapshot()

	case searchDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrSuperseded) {
			debuglog.Warnf("Search finished with error: %v", msg.err)
		}
		return a, nil

	case detailRenderedMsg:
		if a.view == ViewDetail {
			a.detailView.SetContent(msg.content)
			a.detailView.GotoTop()
		}
		return a, nil

	case postOpenedMsg:
		if msg.err != nil {
			return a, a.setStatus(msg.err.Error(), StatusError)
		}
		return a, a.setStatus("Opened "+msg.url, StatusSuccess)

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.view {
	case ViewSearch:
		if a.focus == focusInput {
			a.queryInput, cmd = a.queryInput.Update(msg)
		}
	case ViewLanguages:
		a.langList, cmd = a.langList.Update(msg)
	case ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	}
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	a.queryInput.Width = max(width-8, 10)
	a.resultsView.Width = width
	a.resultsView.Height = max(height-chromeHeight, 3)
	a.detailView.Width = width
	a.detailView.Height = max(height-3, 3)
	a.langList.SetSize(width, max(height-3, 5))
	a.refreshResults()
}

// applySnapshot adopts s as the rendered state.
func (a *App) applySnapshot(s session.Snapshot) {
	pageChanged := s.State.CurrentPage != a.snap.State.CurrentPage || s.State.Query != a.snap.State.Query
	a.snap = s
	a.rows = session.Rows(s)

	a.statusSeq++
	switch s.Phase {
	case session.PhaseTranslating:
		a.status, a.statusKind = MsgTranslating, StatusWarn
	case session.PhaseSearching:
		a.status, a.statusKind = MsgSearching, StatusWarn
	case session.PhaseDisplaying:
		a.searched = true
		a.status, a.statusKind = MsgResultsPage(len(s.Results), s.State.CurrentPage, s.State.TotalPages), StatusInfo
	case session.PhaseError:
		a.searched = true
		a.status, a.statusKind = "", StatusInfo
	}

	if pageChanged || a.cursor >= len(a.rows) {
		a.cursor = 0
		a.resultsView.GotoTop()
	}
	controls := stripControls(s.Strip)
	if a.stripCursor < 0 || a.stripCursor >= len(controls) || !controls[a.stripCursor].Enabled {
		a.stripCursor = firstEnabled(controls)
	}
	if a.focus == focusResults && !a.hasResultRows() {
		a.focus = focusInput
		a.queryInput.Focus()
	}
	a.refreshResults()
}

func (a *App) hasResultRows() bool {
	return len(a.rows) > 0 && a.rows[0].Kind == session.RowResult
}

func (a *App) selectedResult() (client.SearchResult, bool) {
	if a.cursor < 0 || a.cursor >= len(a.rows) || a.rows[a.cursor].Kind != session.RowResult {
		return client.SearchResult{}, false
	}
	return a.rows[a.cursor].Result, true
}

// refreshResults re-renders the result viewport and keeps the cursor row
// in view.
func (a *App) refreshResults() {
	if a.width == 0 {
		return
	}
	cursor := -1
	if a.focus == focusResults {
		cursor = a.cursor
	}
	content, offsets := renderRows(a.rows, cursor, a.width-2, a.config.UI.Results.MaxPreviewLength)
	a.rowOffsets = offsets
	a.resultsView.SetContent(content)

	if a.cursor < len(offsets) {
		top := offsets[a.cursor]
		if top < a.resultsView.YOffset || top >= a.resultsView.YOffset+a.resultsView.Height-2 {
			a.resultsView.SetYOffset(top)
		}
	}
}

func (a *App) refreshLanguageItems() {
	all := a.catalog.All()
	items := make([]list.Item, len(all))
	for i, l := range all {
		items[i] = languageItem{lang: l, selected: a.selected[l.Code]}
	}
	a.langList.SetItems(items)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Results.WordWrapMaxWidth
	minWidth := a.config.UI.Results.WordWrapMinWidth

	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}

	var content string
	switch a.view {
	case ViewSearch:
		content = a.searchView()
	case ViewLanguages:
		content = a.langList.View()
	case ViewDetail:
		content = a.detailView.View()
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) searchView() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		LogoStyle.Render(CompactLogo),
		" ",
		renderMuted(truncateEnd(MsgLanguages(a.Languages()), a.width-len(CompactLogo)-2)),
	)

	input := renderInputFrame(a.queryInput.View(), a.focus == focusInput, a.queryInput.Width)
	summary := HeaderStyle.Render(truncateEnd(a.snap.Summary, a.width-2))

	var body string
	if !a.searched && len(a.rows) == 0 {
		body = renderCentered(a.width, a.resultsView.Height+2, GetWelcomeMessage())
	} else {
		controls := stripControls(a.snap.Strip)
		focused := a.focus == focusStrip
		strip := renderStrip(controls, a.stripCursor, focused)
		body = lipgloss.JoinVertical(lipgloss.Left, strip, a.resultsView.View(), strip)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 2).
		MaxHeight(a.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, input, summary, body))
}

func (a *App) statusBar() string {
	var parts []string
	if a.status != "" {
		parts = append(parts, a.statusKind.render(a.status))
	}
	commands := a.keyHandler.GetHelpForCurrentView()
	if !a.showFullHelp && len(commands) > 4 {
		commands = append(commands[:4:4], "?: more")
	}
	parts = append(parts, renderMuted(strings.Join(commands, " • ")))

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Render(strings.Join(parts, "  "))
}

// languageItem is one row of the language picker.
type languageItem struct {
	lang     langs.Language
	selected bool
}

func (i languageItem) Title() string {
	box := "[ ] "
	if i.selected {
		box = "[x] "
	}
	return box + i.lang.Name
}

func (i languageItem) Description() string {
	if i.lang.Service != "" && i.lang.Service != i.lang.Code {
		return i.lang.Code + " → " + i.lang.Service
	}
	return i.lang.Code
}

func (i languageItem) FilterValue() string { return i.lang.Name }
