package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/sahilm/fuzzy"
)

// recentModal lists recently opened documents with fuzzy filtering
type recentModal struct {
	query     textinput.Model
	documents []journal.Document
	matches   []int // indices into documents
	positions map[int][]int
	cursor    int
	loading   bool
	err       error
}

func newRecentModal() *recentModal {
	q := textinput.New()
	q.Prompt = "/ "
	q.Placeholder = "filter"
	q.Focus()
	return &recentModal{query: q, loading: true}
}

func (r *recentModal) setDocuments(docs []journal.Document, err error) {
	r.loading = false
	r.documents = docs
	r.err = err
	r.filter()
}

// filter recomputes matches for the current query
func (r *recentModal) filter() {
	r.positions = nil
	q := strings.TrimSpace(r.query.Value())
	if q == "" {
		r.matches = make([]int, len(r.documents))
		for i := range r.documents {
			r.matches[i] = i
		}
	} else {
		paths := make([]string, len(r.documents))
		for i, d := range r.documents {
			paths[i] = d.Path
		}
		found := fuzzy.Find(q, paths)
		r.matches = make([]int, len(found))
		r.positions = make(map[int][]int, len(found))
		for i, m := range found {
			r.matches[i] = m.Index
			r.positions[m.Index] = m.MatchedIndexes
		}
	}
	if r.cursor >= len(r.matches) {
		r.cursor = len(r.matches) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
}

func (r *recentModal) up() {
	if len(r.matches) > 0 {
		r.cursor = (r.cursor - 1 + len(r.matches)) % len(r.matches)
	}
}

func (r *recentModal) down() {
	if len(r.matches) > 0 {
		r.cursor = (r.cursor + 1) % len(r.matches)
	}
}

// selected returns the highlighted document path
func (r *recentModal) selected() (string, bool) {
	if len(r.matches) == 0 {
		return "", false
	}
	return r.documents[r.matches[r.cursor]].Path, true
}

func (r *recentModal) Update(msg tea.Msg) tea.Cmd {
	before := r.query.Value()
	var cmd tea.Cmd
	r.query, cmd = r.query.Update(msg)
	if r.query.Value() != before {
		r.cursor = 0
		r.filter()
	}
	return cmd
}

func highlightMatches(s string, positions []int) string {
	if len(positions) == 0 {
		return s
	}
	hit := make(map[int]bool, len(positions))
	for _, p := range positions {
		hit[p] = true
	}
	var b strings.Builder
	for i, ch := range s {
		if hit[i] {
			b.WriteString(styleMatch.Render(string(ch)))
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func (r *recentModal) View(width, height int, footer string) string {
	var b strings.Builder
	b.WriteString(r.query.View() + "\n\n")

	switch {
	case r.loading:
		b.WriteString(styleSubtle.Render("Loading..."))
	case r.err != nil:
		b.WriteString(styleError.Render(r.err.Error()))
	case len(r.documents) == 0:
		b.WriteString(styleSubtle.Render("No recent documents"))
	case len(r.matches) == 0:
		b.WriteString(styleSubtle.Render("No match"))
	default:
		start := 0
		if r.cursor >= RecentVisibleRows {
			start = r.cursor - RecentVisibleRows + 1
		}
		end := start + RecentVisibleRows
		if end > len(r.matches) {
			end = len(r.matches)
		}
		for i := start; i < end; i++ {
			idx := r.matches[i]
			doc := r.documents[idx]
			line := highlightMatches(doc.Path, r.positions[idx])
			meta := styleSubtle.Render(fmt.Sprintf("  %s", doc.LastOpened.Format("2006-01-02 15:04")))
			if i == r.cursor {
				b.WriteString(styleTitle.Render("> ") + line + meta + "\n")
			} else {
				b.WriteString("  " + line + meta + "\n")
			}
		}
	}

	return renderModal("Recent documents", strings.TrimRight(b.String(), "\n"), footer, ModalWidth+8, ModalHeight, width, height)
}
