package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/tgscope/internal/config"
	"github.com/pders01/tgscope/internal/session"
)

type KeyHandler struct {
	app         *App
	bindings    config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		bindings:    cfg.Keys.Bindings,
		modifierKey: cfg.Keys.Modifier + "+",
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return kh.app, tea.Quit
	}

	switch kh.app.view {
	case ViewLanguages:
		return kh.handleLanguagesKeys(msg)
	case ViewDetail:
		return kh.handleDetailKeys(msg)
	}

	switch kh.app.focus {
	case focusInput:
		return kh.handleInputKeys(msg)
	case focusStrip:
		return kh.handleStripKeys(msg)
	default:
		return kh.handleResultsKeys(msg)
	}
}

// handleGlobalKeys covers keys shared by the result list and the strips.
func (kh *KeyHandler) handleGlobalKeys(key string) (tea.Cmd, bool) {
	a := kh.app
	switch key {
	case kh.bindings.Quit:
		return tea.Quit, true
	case kh.bindings.Help:
		a.showFullHelp = !a.showFullHelp
		return nil, true
	case kh.modifierKey + kh.bindings.Search, "/":
		kh.focusInput()
		return textinput.Blink, true
	case kh.modifierKey + kh.bindings.Languages:
		kh.openLanguages()
		return nil, true
	case kh.bindings.FirstPage:
		return a.firstPage(), true
	case kh.bindings.LastPage:
		return a.lastPage(), true
	}
	return nil, false
}

func (kh *KeyHandler) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(a.queryInput.Value())
		if query == "" {
			return a, nil
		}
		return a, a.submitQuery(query, a.Languages())
	case "tab", "down":
		if a.hasResultRows() {
			kh.focusResults()
		} else if a.searched {
			kh.focusStrip()
		}
		return a, nil
	case kh.bindings.Back:
		if a.hasResultRows() {
			kh.focusResults()
		}
		return a, nil
	case kh.modifierKey + kh.bindings.Languages:
		kh.openLanguages()
		return a, nil
	}

	var cmd tea.Cmd
	a.queryInput, cmd = a.queryInput.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	key := msg.String()
	if cmd, ok := kh.handleGlobalKeys(key); ok {
		return a, cmd
	}

	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
			a.refreshResults()
		}
	case "down", "j":
		if a.cursor < len(a.rows)-1 {
			a.cursor++
			a.refreshResults()
		}
	case "left", "h":
		return a, a.prevPage()
	case "right", "l":
		return a, a.nextPage()
	case "enter":
		return kh.openDetail()
	case kh.modifierKey + kh.bindings.OpenPost:
		return a, kh.openSelectedPost()
	case "tab":
		kh.focusStrip()
	case "shift+tab", kh.bindings.Back:
		kh.focusInput()
		return a, textinput.Blink
	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.resultsView, cmd = a.resultsView.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) handleStripKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	key := msg.String()
	if cmd, ok := kh.handleGlobalKeys(key); ok {
		return a, cmd
	}

	controls := stripControls(a.snap.Strip)
	switch key {
	case "left", "h":
		a.stripCursor = moveCursor(controls, a.stripCursor, -1)
	case "right", "l":
		a.stripCursor = moveCursor(controls, a.stripCursor, 1)
	case "enter", " ":
		if a.stripCursor >= 0 && a.stripCursor < len(controls) && controls[a.stripCursor].Enabled {
			return a, a.goToPage(controls[a.stripCursor].Page)
		}
	case "tab":
		kh.focusInput()
		return a, textinput.Blink
	case "shift+tab", kh.bindings.Back:
		if a.hasResultRows() {
			kh.focusResults()
		} else {
			kh.focusInput()
		}
	}
	return a, nil
}

func (kh *KeyHandler) handleLanguagesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case " ", "x":
		if item, ok := a.langList.SelectedItem().(languageItem); ok {
			a.selected[item.lang.Code] = !a.selected[item.lang.Code]
			item.selected = a.selected[item.lang.Code]
			a.langList.SetItem(a.langList.Index(), item)
		}
		return a, nil
	case "enter", kh.bindings.Back, kh.modifierKey + kh.bindings.Languages:
		a.view = ViewSearch
		return a, a.setStatus(MsgLanguages(a.Languages()), StatusInfo)
	case kh.bindings.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.langList, cmd = a.langList.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case kh.bindings.Back, "backspace":
		a.view = ViewSearch
		a.detail = nil
		return a, nil
	case kh.bindings.Quit:
		return a, tea.Quit
	case kh.modifierKey + kh.bindings.OpenPost:
		return a, kh.openSelectedPost()
	}

	var cmd tea.Cmd
	a.detailView, cmd = a.detailView.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) openDetail() (tea.Model, tea.Cmd) {
	a := kh.app
	r, ok := a.selectedResult()
	if !ok {
		return a, nil
	}
	a.detail = &r
	a.view = ViewDetail
	a.detailView.SetContent(renderMuted(MsgRenderingPost))
	return a, a.renderDetail(r)
}

func (kh *KeyHandler) openSelectedPost() tea.Cmd {
	a := kh.app
	r, ok := a.selectedResult()
	if a.view == ViewDetail && a.detail != nil {
		r, ok = *a.detail, true
	}
	if !ok {
		return nil
	}
	if r.PostURL == "" {
		return a.setStatus(MsgNoPostURL, StatusWarn)
	}
	return a.openPost(r.PostURL)
}

func (kh *KeyHandler) focusInput() {
	a := kh.app
	a.focus = focusInput
	a.queryInput.Focus()
	a.refreshResults()
}

func (kh *KeyHandler) focusResults() {
	a := kh.app
	a.focus = focusResults
	a.queryInput.Blur()
	a.refreshResults()
}

func (kh *KeyHandler) focusStrip() {
	a := kh.app
	a.focus = focusStrip
	a.queryInput.Blur()
	controls := stripControls(a.snap.Strip)
	if a.stripCursor < 0 || a.stripCursor >= len(controls) || !controls[a.stripCursor].Enabled {
		a.stripCursor = firstEnabled(controls)
	}
	a.refreshResults()
}

func (kh *KeyHandler) openLanguages() {
	a := kh.app
	a.refreshLanguageItems()
	a.view = ViewLanguages
}

// GetHelpForCurrentView lists the key hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	m := kh.modifierKey
	b := kh.bindings
	switch kh.app.view {
	case ViewLanguages:
		return []string{"space: toggle", "enter: done", b.Back + ": back", "ctrl+c: quit"}
	case ViewDetail:
		return []string{b.Back + ": back", m + b.OpenPost + ": open post", "↑↓: scroll", b.Quit + ": quit"}
	}

	switch kh.app.focus {
	case focusInput:
		return []string{"enter: search", "tab: results", m + b.Languages + ": languages", "ctrl+c: quit"}
	case focusStrip:
		return []string{"←→: select page", "enter: go", "tab: search box", b.Back + ": results",
			b.FirstPage + "/" + b.LastPage + ": first/last", b.Quit + ": quit"}
	default:
		if kh.app.snap.Phase == session.PhaseError {
			return []string{"←→: page", "tab: pages", "/: search box", b.Quit + ": quit"}
		}
		return []string{"↑↓: select", "enter: read", "←→: page", m + b.OpenPost + ": open post",
			b.FirstPage + "/" + b.LastPage + ": first/last", "tab: pages", "/: search box",
			m + b.Languages + ": languages", b.Quit + ": quit"}
	}
}
