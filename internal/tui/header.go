package tui

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/ferrum-editor/ferrum/internal/events"
)

// header shows the document title and the edited indicator
type header struct {
	title   string
	dirty   atomic.Bool
	dispose func()
}

// mount subscribes to dirty-flag transitions until unmount
func (h *header) mount(bus *events.Bus, wake func()) {
	h.unmount()
	h.dispose = bus.OnFileStatusChange(func(dirty bool) {
		h.dirty.Store(dirty)
		if wake != nil {
			wake()
		}
	})
}

func (h *header) unmount() {
	if h.dispose != nil {
		h.dispose()
		h.dispose = nil
	}
	h.dirty.Store(false)
}

func (h *header) View(width int) string {
	title := h.title
	if title == "" {
		title = "Ferrum"
	}
	left := styleTitle.Render(title)
	if h.dirty.Load() {
		left += " " + styleWarning.Render("● edited")
	}

	gap := width - lipgloss.Width(left)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap)
}
