package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastDuration is how long a success toast stays on the status line
const ToastDuration = 4 * time.Second

type toastKind int

const (
	toastInfo toastKind = iota
	toastPending
	toastSuccess
	toastFailure
)

// toaster is the status line. It implements settings.Notifier and may be
// written from command goroutines.
type toaster struct {
	mu   sync.Mutex
	text string
	kind toastKind
	seq  int
	wake func()
}

func (t *toaster) set(kind toastKind, text string) int {
	t.mu.Lock()
	t.kind = kind
	t.text = text
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	if t.wake != nil {
		t.wake()
	}
	return seq
}

func (t *toaster) Pending(msg string) { t.set(toastPending, msg) }
func (t *toaster) Success(msg string) { t.set(toastSuccess, msg) }

func (t *toaster) Failure(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	t.set(toastFailure, msg)
}

// expire returns a command that clears the toast unless it changed since seq
func (t *toaster) expire(seq int) tea.Cmd {
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

func (t *toaster) clear(seq int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq == seq {
		t.text = ""
	}
}

func (t *toaster) current() (toastKind, string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind, t.text, t.seq
}

func (t *toaster) View(width int) string {
	kind, text, _ := t.current()
	if text == "" {
		return ""
	}
	text = truncate(text, width)
	switch kind {
	case toastPending:
		return styleWarning.Render(text)
	case toastSuccess:
		return styleSuccess.Render(text)
	case toastFailure:
		return styleError.Render(text)
	}
	return styleSubtle.Render(text)
}

// notice is a blocking message the user has to dismiss
type notice struct {
	title string
	body  string
	err   bool
}

func (n *notice) View(width, height int) string {
	body := n.body
	if n.err {
		body = styleError.Render(body)
	}
	return renderModal(n.title, body, "enter/esc: close", ModalWidth, 10, width, height)
}
