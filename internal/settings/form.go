package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ferrum-editor/ferrum/internal/types"
)

// Form exposes the settings dialog fields. Numeric fields are read as the
// text the user typed.
type Form interface {
	Mounted() bool

	Root() string
	DisplayHiddenFile() bool

	LineNumber() bool
	AutoWrap() bool
	HighlightActiveLine() bool
	FontSize() string

	IP() string
	Port() string
	Username() string
	TerminalPassword() string
}

// BuildSnapshot assembles a Config from the form. The explorer password is
// not editable in the dialog and is carried over from current.
func BuildSnapshot(current types.Config, f Form) (types.Config, error) {
	fontSize, err := parseInt("font size", f.FontSize(), 1, 200)
	if err != nil {
		return types.Config{}, err
	}
	port, err := parseInt("port", f.Port(), 0, 65535)
	if err != nil {
		return types.Config{}, err
	}

	return types.Config{
		Explorer: types.ExplorerConfig{
			Root:              f.Root(),
			Password:          current.Explorer.Password,
			DisplayHiddenFile: f.DisplayHiddenFile(),
		},
		Editor: types.EditorConfig{
			LineNumber:          f.LineNumber(),
			AutoWrap:            f.AutoWrap(),
			HighlightActiveLine: f.HighlightActiveLine(),
			FontSize:            fontSize,
		},
		Terminal: types.TerminalConfig{
			IP:       f.IP(),
			Port:     port,
			Username: f.Username(),
			Password: f.TerminalPassword(),
		},
	}, nil
}

func parseInt(field, raw string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a whole number", field, raw)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("invalid %s %d: must be between %d and %d", field, n, min, max)
	}
	return n, nil
}

// StaticForm is a Form backed by plain values, used by the CLI and tests
type StaticForm struct {
	Unmounted bool
	Values    types.Config
	// FontSizeText and PortText override the numeric fields when set
	FontSizeText string
	PortText     string
}

// NewStaticForm fills a form from a config
func NewStaticForm(cfg types.Config) *StaticForm {
	return &StaticForm{Values: cfg}
}

func (s *StaticForm) Mounted() bool             { return !s.Unmounted }
func (s *StaticForm) Root() string              { return s.Values.Explorer.Root }
func (s *StaticForm) DisplayHiddenFile() bool   { return s.Values.Explorer.DisplayHiddenFile }
func (s *StaticForm) LineNumber() bool          { return s.Values.Editor.LineNumber }
func (s *StaticForm) AutoWrap() bool            { return s.Values.Editor.AutoWrap }
func (s *StaticForm) HighlightActiveLine() bool { return s.Values.Editor.HighlightActiveLine }
func (s *StaticForm) IP() string                { return s.Values.Terminal.IP }
func (s *StaticForm) Username() string          { return s.Values.Terminal.Username }
func (s *StaticForm) TerminalPassword() string  { return s.Values.Terminal.Password }

func (s *StaticForm) FontSize() string {
	if s.FontSizeText != "" {
		return s.FontSizeText
	}
	return strconv.Itoa(s.Values.Editor.FontSize)
}

func (s *StaticForm) Port() string {
	if s.PortText != "" {
		return s.PortText
	}
	return strconv.Itoa(s.Values.Terminal.Port)
}
