package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ferrum-editor/ferrum/internal/types"
)

// editorView wraps the text widget. The session controller owns the content;
// the widget is synced from it after loads and undo.
type editorView struct {
	area     textarea.Model
	language string
}

func newEditorView(cfg types.EditorConfig) editorView {
	area := textarea.New()
	area.CharLimit = 0
	area.MaxHeight = 0
	area.Placeholder = "Loading..."
	area.Focus()

	e := editorView{area: area}
	e.configure(cfg)
	return e
}

func (e *editorView) configure(cfg types.EditorConfig) {
	e.area.ShowLineNumbers = cfg.LineNumber
	if cfg.HighlightActiveLine {
		e.area.FocusedStyle.CursorLine = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#eeeeee", Dark: "#262626"})
	} else {
		e.area.FocusedStyle.CursorLine = lipgloss.NewStyle()
	}
}

func (e *editorView) setContent(content, language string) {
	e.area.SetValue(content)
	e.language = language
}

func (e *editorView) value() string {
	return e.area.Value()
}

func (e *editorView) setSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	e.area.SetWidth(width)
	e.area.SetHeight(height)
}

func (e *editorView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	return cmd
}

func (e *editorView) View() string {
	return e.area.View()
}
