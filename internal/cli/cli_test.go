package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/types"
)

type fakeBackend struct {
	files map[string]types.FileContent
	saved map[string]string
}

func (b *fakeBackend) FetchFile(ctx context.Context, path string) (*types.FileContent, error) {
	fc, ok := b.files[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &fc, nil
}

func (b *fakeBackend) SaveFile(ctx context.Context, path, content string) error {
	if b.saved == nil {
		b.saved = map[string]string{}
	}
	b.saved[path] = content
	return nil
}

func (b *fakeBackend) GetConfig(ctx context.Context) (*types.Config, error) {
	cfg := types.DefaultConfig()
	return &cfg, nil
}

func (b *fakeBackend) GetSysInfo(ctx context.Context) (*types.SysInfo, error) {
	return &types.SysInfo{
		System:   "Linux",
		Platform: "linux",
		Arch:     "x64",
		Memory:   types.MemoryInfo{Total: 8 << 30, Free: 2 << 30},
		CPUUsage: 42.7,
		UpTime:   3661,
	}, nil
}

func TestCat(t *testing.T) {
	backend := &fakeBackend{files: map[string]types.FileContent{
		"C:/src/main.go": {Content: "package main\n", Format: "go"},
	}}

	var out bytes.Buffer
	if err := Cat(context.Background(), backend, "src/main.go", Options{Out: &out}); err != nil {
		t.Fatalf("Cat() error = %v", err)
	}
	if out.String() != "package main\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCatHighlighted(t *testing.T) {
	backend := &fakeBackend{files: map[string]types.FileContent{
		"C:/src/main.go": {Content: "package main\n", Format: "go"},
	}}

	var out bytes.Buffer
	err := Cat(context.Background(), backend, "src/main.go", Options{Out: &out, Color: true, Style: "monokai"})
	if err != nil {
		t.Fatalf("Cat() error = %v", err)
	}
	if !strings.Contains(out.String(), "\x1b[") {
		t.Error("expected ANSI escapes in highlighted output")
	}
}

func TestCatMissing(t *testing.T) {
	err := Cat(context.Background(), &fakeBackend{}, "nope.txt", Options{Out: &bytes.Buffer{}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Cat() error = %v, want ErrNotFound", err)
	}
}

func TestSave(t *testing.T) {
	backend := &fakeBackend{}
	var out bytes.Buffer

	err := Save(context.Background(), backend, `D:\notes\a.txt`, strings.NewReader("hello"), Options{Out: &out})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := backend.saved["D:/notes/a.txt"]; got != "hello" {
		t.Errorf("saved = %v", backend.saved)
	}
	if !strings.Contains(out.String(), "5 bytes") {
		t.Errorf("output = %q", out.String())
	}
}

func TestShowConfig(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"json", Options{}, `"fontSize": 14`},
		{"yaml", Options{Output: "yaml"}, "fontSize: 14"},
		{"query", Options{Query: "terminal.ip"}, "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			tt.opts.Out = &out
			if err := ShowConfig(context.Background(), &fakeBackend{}, tt.opts); err != nil {
				t.Fatalf("ShowConfig() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestSysInfo(t *testing.T) {
	var out bytes.Buffer
	if err := SysInfo(context.Background(), &fakeBackend{}, Options{Out: &out}); err != nil {
		t.Fatalf("SysInfo() error = %v", err)
	}
	for _, want := range []string{"Linux", "75%", "42%", "01:01:01"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRecent(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "ferrum.db"), "http://localhost:3001")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	var out bytes.Buffer
	if err := Recent(j, 10, Options{Out: &out}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No recent documents") {
		t.Errorf("empty output = %q", out.String())
	}

	if err := j.RecordOpen("C:/a.txt"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := Recent(j, 10, Options{Out: &out}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "C:/a.txt") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSelectorEnterChooses(t *testing.T) {
	m := newSelector([]journal.Document{{Path: "C:/a.txt"}, {Path: "C:/b.txt"}})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})

	result := next.(selectorModel)
	if result.choice != "C:/b.txt" {
		t.Errorf("choice = %q, want C:/b.txt", result.choice)
	}
	if cmd == nil {
		t.Error("enter should quit the picker")
	}
}

func TestSelectorCancel(t *testing.T) {
	m := newSelector([]journal.Document{{Path: "C:/a.txt"}})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if next.(selectorModel).choice != "" {
		t.Error("q should cancel without a choice")
	}
}
