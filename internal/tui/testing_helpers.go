package tui

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/types"
)

// cmdTimeout bounds how long the harness waits for a command. Ticks and the
// wake loop never finish in time and are dropped.
const cmdTimeout = 200 * time.Millisecond

// fakeBackend is an in-memory document store
type fakeBackend struct {
	mu       sync.Mutex
	files    map[string]string
	config   types.Config
	uploads  map[string]string
	saveErr  error
	setErr   error
	getCalls int
	setCalls int
}

func newFakeBackend(files map[string]string) *fakeBackend {
	if files == nil {
		files = map[string]string{}
	}
	return &fakeBackend{
		files:   files,
		config:  types.DefaultConfig(),
		uploads: map[string]string{},
	}
}

func (b *fakeBackend) FetchFile(ctx context.Context, path string) (*types.FileContent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.files[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &types.FileContent{Content: content}, nil
}

func (b *fakeBackend) SaveFile(ctx context.Context, path, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.files[path] = content
	return nil
}

func (b *fakeBackend) GetConfig(ctx context.Context) (*types.Config, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getCalls++
	cfg := b.config
	return &cfg, nil
}

func (b *fakeBackend) SetConfig(ctx context.Context, cfg types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCalls++
	if b.setErr != nil {
		return b.setErr
	}
	b.config = cfg
	return nil
}

func (b *fakeBackend) UploadFile(ctx context.Context, dir, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads[dir+"/"+name] = string(data)
	return nil
}

func (b *fakeBackend) file(path string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.files[path]
	return content, ok
}

func (b *fakeBackend) calls() (get, set int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.getCalls, b.setCalls
}

// harness drives an App synchronously
type harness struct {
	t    *testing.T
	app  *App
	quit bool
}

// newHarness creates an app, sizes it and runs the initial config load
func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	app := New(opts)
	t.Cleanup(app.Close)

	h := &harness{t: t, app: app}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.exec(app.fetchConfig())
	return h
}

// send delivers msg and runs whatever it produces
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	_, cmd := h.app.Update(msg)
	h.exec(cmd)
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}

	res := make(chan tea.Msg, 1)
	go func() { res <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-res:
	case <-time.After(cmdTimeout):
		return
	}

	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(c)
		}
	case tea.QuitMsg:
		h.quit = true
	default:
		h.send(msg)
	}
}

// press sends a key by name: "ctrl+s", "esc", "enter", "tab", "down", "f3",
// "space" or literal text
func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func keyMsg(name string) tea.KeyMsg {
	named := map[string]tea.KeyType{
		"ctrl+c": tea.KeyCtrlC,
		"ctrl+o": tea.KeyCtrlO,
		"ctrl+q": tea.KeyCtrlQ,
		"ctrl+r": tea.KeyCtrlR,
		"ctrl+s": tea.KeyCtrlS,
		"ctrl+u": tea.KeyCtrlU,
		"ctrl+y": tea.KeyCtrlY,
		"ctrl+z": tea.KeyCtrlZ,
		"esc":    tea.KeyEsc,
		"enter":  tea.KeyEnter,
		"tab":    tea.KeyTab,
		"down":   tea.KeyDown,
		"up":     tea.KeyUp,
		"f3":     tea.KeyF3,
		"space":  tea.KeySpace,
	}
	if t, ok := named[name]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

var errBackendDown = errors.New("backend down")
