package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ferrum-editor/ferrum/internal/settings"
	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/gofrs/uuid"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldToggle
)

type settingsField struct {
	label string
	kind  fieldKind
	input textinput.Model
	on    bool
}

// Field order in the dialog
const (
	fieldRoot = iota
	fieldHidden
	fieldLineNumber
	fieldAutoWrap
	fieldActiveLine
	fieldFontSize
	fieldIP
	fieldPort
	fieldUsername
	fieldPassword
	fieldCount
)

// settingsDialog is the settings form. It implements settings.Form and must
// only be read on the event loop; use freeze to hand it to a command.
type settingsDialog struct {
	id      string
	fields  []settingsField
	focus   int
	mounted bool
	detach  func()
}

func newSettingsDialog(cfg types.Config) *settingsDialog {
	id, err := uuid.NewV4()
	dialogID := "settings"
	if err == nil {
		dialogID = "settings-" + id.String()
	}

	text := func(label, value string) settingsField {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.SetValue(value)
		return settingsField{label: label, kind: fieldText, input: in}
	}
	toggle := func(label string, on bool) settingsField {
		return settingsField{label: label, kind: fieldToggle, on: on}
	}

	fields := make([]settingsField, fieldCount)
	fields[fieldRoot] = text("Root", cfg.Explorer.Root)
	fields[fieldHidden] = toggle("Show hidden files", cfg.Explorer.DisplayHiddenFile)
	fields[fieldLineNumber] = toggle("Line numbers", cfg.Editor.LineNumber)
	fields[fieldAutoWrap] = toggle("Auto wrap", cfg.Editor.AutoWrap)
	fields[fieldActiveLine] = toggle("Highlight active line", cfg.Editor.HighlightActiveLine)
	fields[fieldFontSize] = text("Font size", strconv.Itoa(cfg.Editor.FontSize))
	fields[fieldIP] = text("Terminal IP", cfg.Terminal.IP)
	fields[fieldPort] = text("Terminal port", strconv.Itoa(cfg.Terminal.Port))
	fields[fieldUsername] = text("Username", cfg.Terminal.Username)
	fields[fieldPassword] = text("Password", cfg.Terminal.Password)
	fields[fieldPassword].input.EchoMode = textinput.EchoPassword

	d := &settingsDialog{id: dialogID, fields: fields, mounted: true}
	d.setFocus(0)
	return d
}

func (d *settingsDialog) setFocus(i int) {
	if i < 0 {
		i = len(d.fields) - 1
	}
	if i >= len(d.fields) {
		i = 0
	}
	for j := range d.fields {
		d.fields[j].input.Blur()
	}
	d.focus = i
	if d.fields[i].kind == fieldText {
		d.fields[i].input.Focus()
	}
}

func (d *settingsDialog) next() { d.setFocus(d.focus + 1) }
func (d *settingsDialog) prev() { d.setFocus(d.focus - 1) }

// toggle flips the focused switch; it reports false on a text field
func (d *settingsDialog) toggle() bool {
	f := &d.fields[d.focus]
	if f.kind != fieldToggle {
		return false
	}
	f.on = !f.on
	return true
}

func (d *settingsDialog) Update(msg tea.Msg) tea.Cmd {
	f := &d.fields[d.focus]
	if f.kind != fieldText {
		return nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

func (d *settingsDialog) text(i int) string { return d.fields[i].input.Value() }
func (d *settingsDialog) on(i int) bool     { return d.fields[i].on }

func (d *settingsDialog) Mounted() bool             { return d.mounted }
func (d *settingsDialog) Root() string              { return d.text(fieldRoot) }
func (d *settingsDialog) DisplayHiddenFile() bool   { return d.on(fieldHidden) }
func (d *settingsDialog) LineNumber() bool          { return d.on(fieldLineNumber) }
func (d *settingsDialog) AutoWrap() bool            { return d.on(fieldAutoWrap) }
func (d *settingsDialog) HighlightActiveLine() bool { return d.on(fieldActiveLine) }
func (d *settingsDialog) FontSize() string          { return d.text(fieldFontSize) }
func (d *settingsDialog) IP() string                { return d.text(fieldIP) }
func (d *settingsDialog) Port() string              { return d.text(fieldPort) }
func (d *settingsDialog) Username() string          { return d.text(fieldUsername) }
func (d *settingsDialog) TerminalPassword() string  { return d.text(fieldPassword) }

// freeze copies the current field values into a form that is safe to read
// from another goroutine
func freeze(f settings.Form) *settings.StaticForm {
	return &settings.StaticForm{
		Unmounted: !f.Mounted(),
		Values: types.Config{
			Explorer: types.ExplorerConfig{
				Root:              f.Root(),
				DisplayHiddenFile: f.DisplayHiddenFile(),
			},
			Editor: types.EditorConfig{
				LineNumber:          f.LineNumber(),
				AutoWrap:            f.AutoWrap(),
				HighlightActiveLine: f.HighlightActiveLine(),
			},
			Terminal: types.TerminalConfig{
				IP:       f.IP(),
				Username: f.Username(),
				Password: f.TerminalPassword(),
			},
		},
		FontSizeText: orBlank(f.FontSize()),
		PortText:     orBlank(f.Port()),
	}
}

// orBlank keeps an emptied numeric field from reading back as zero
func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return " "
	}
	return s
}

func (d *settingsDialog) View(width, height int, footer string) string {
	var b strings.Builder
	for i, f := range d.fields {
		cursor := "  "
		if i == d.focus {
			cursor = styleTitle.Render("> ")
		}

		var value string
		switch f.kind {
		case fieldToggle:
			if f.on {
				value = styleSuccess.Render("[x]")
			} else {
				value = styleSubtle.Render("[ ]")
			}
		default:
			value = f.input.View()
		}

		label := fmt.Sprintf("%-22s", f.label)
		if i == d.focus {
			label = styleSelected.Render(label)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, label, value)
	}
	return renderModal("Settings", strings.TrimRight(b.String(), "\n"), footer, ModalWidth, ModalHeight+2, width, height)
}
