// Package language maps document paths to editor format tags and renders
// highlighted previews using the chroma lexer registry.
package language

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Plain is the format tag used when nothing better is known
const Plain = "text"

// Detect returns the format tag for a document path
func Detect(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	if base == "" || base == "." || base == "/" {
		return Plain
	}

	lexer := lexers.Match(base)
	if lexer == nil {
		return Plain
	}
	return tagFor(lexer)
}

// Normalize turns a backend supplied format into a tag, falling back to the
// path based guess when the backend sent nothing usable.
func Normalize(format, path string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return Detect(path)
	}
	if lexer := lexers.Get(format); lexer != nil {
		return tagFor(lexer)
	}
	return format
}

func tagFor(lexer chroma.Lexer) string {
	name := strings.ToLower(lexer.Config().Name)
	switch name {
	case "plaintext", "plain text", "text only":
		return Plain
	}
	return strings.ReplaceAll(name, " ", "-")
}

// Highlight renders content with ANSI colours for a terminal.
// It returns the input unchanged if the tag has no lexer.
func Highlight(content, tag, style string) string {
	lexer := lexers.Get(tag)
	if lexer == nil || tag == Plain {
		return content
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return content
	}
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return content
	}
	return buf.String()
}
