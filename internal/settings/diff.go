package settings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ferrum-editor/ferrum/internal/types"
)

// Change is one field that differs between two configs
type Change struct {
	Field string // dotted wire name, e.g. terminal.port
	From  interface{}
	To    interface{}
}

func (c Change) String() string {
	if strings.HasSuffix(strings.ToLower(c.Field), "password") {
		return c.Field + " changed"
	}
	return fmt.Sprintf("%s: %v -> %v", c.Field, c.From, c.To)
}

// Diff lists the fields that differ, sorted by name
func Diff(from, to types.Config) []Change {
	a, b := flatten(from), flatten(to)

	var changes []Change
	for field, before := range a {
		if after := b[field]; before != after {
			changes = append(changes, Change{Field: field, From: before, To: after})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func describeChange(from, to types.Config) string {
	changes := Diff(from, to)
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// flatten maps every field of the config to its dotted wire name
func flatten(cfg types.Config) map[string]interface{} {
	return map[string]interface{}{
		"explorer.root":              cfg.Explorer.Root,
		"explorer.password":          cfg.Explorer.Password,
		"explorer.displayHiddenFile": cfg.Explorer.DisplayHiddenFile,
		"editor.lineNumber":          cfg.Editor.LineNumber,
		"editor.autoWrap":            cfg.Editor.AutoWrap,
		"editor.highlightActiveLine": cfg.Editor.HighlightActiveLine,
		"editor.fontSize":            cfg.Editor.FontSize,
		"terminal.ip":                cfg.Terminal.IP,
		"terminal.port":              cfg.Terminal.Port,
		"terminal.username":          cfg.Terminal.Username,
		"terminal.password":          cfg.Terminal.Password,
	}
}
