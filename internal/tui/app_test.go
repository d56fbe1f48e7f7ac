package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ferrum-editor/ferrum/internal/events"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/settings"
	"github.com/ferrum-editor/ferrum/internal/telemetry"
	"github.com/ferrum-editor/ferrum/internal/types"
)

const notesPath = "C:/notes/todo.txt"

func openNotes(t *testing.T, backend *fakeBackend) *harness {
	t.Helper()
	return newHarness(t, Options{Backend: backend, Route: "notes/todo.txt"})
}

func TestOpenDocument(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "buy milk"})
	h := openNotes(t, backend)

	if got := h.app.editor.value(); got != "buy milk" {
		t.Errorf("editor = %q, want %q", got, "buy milk")
	}
	if got, want := h.app.header.title, "Ferrum - "+notesPath; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
	if h.app.notice != nil {
		t.Errorf("unexpected notice %q", h.app.notice.title)
	}
	if h.app.header.dirty.Load() {
		t.Error("freshly loaded document should not be dirty")
	}
}

func TestEditThenSave(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "buy milk"})
	h := openNotes(t, backend)

	h.typeText("!")
	if !h.app.header.dirty.Load() {
		t.Fatal("edit should mark the header dirty")
	}

	h.press("ctrl+s")

	if got, _ := backend.file(notesPath); got != "buy milk!" {
		t.Errorf("saved = %q, want %q", got, "buy milk!")
	}
	if h.app.header.dirty.Load() {
		t.Error("save should clear the dirty indicator")
	}
	if _, text, _ := h.app.toast.current(); !strings.HasPrefix(text, "Saved") {
		t.Errorf("toast = %q, want a saved message", text)
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "buy milk"})
	h := openNotes(t, backend)

	h.typeText("!")
	backend.saveErr = errBackendDown
	h.press("ctrl+s")

	if h.app.notice == nil || h.app.notice.title != "Save failed" {
		t.Fatalf("notice = %+v, want save failure", h.app.notice)
	}
	if !h.app.header.dirty.Load() {
		t.Error("failed save must leave the document dirty")
	}
	if got, _ := backend.file(notesPath); got != "buy milk" {
		t.Errorf("server content changed to %q", got)
	}
}

func TestMissingDocument(t *testing.T) {
	backend := newFakeBackend(nil)
	h := newHarness(t, Options{Backend: backend, Route: "nope.txt"})

	if h.app.notice == nil || h.app.notice.title != "File not found" {
		t.Fatalf("notice = %+v, want file not found", h.app.notice)
	}

	var changes int
	dispose := h.app.bus.OnFileStatusChange(func(bool) { changes++ })
	defer dispose()

	h.press("esc")
	if h.app.notice != nil {
		t.Fatal("esc should dismiss the notice")
	}

	h.typeText("abc")
	if got := h.app.editor.value(); got != "" {
		t.Errorf("editor = %q, want empty for a missing document", got)
	}
	if changes != 0 {
		t.Errorf("fileStatusChange fired %d times", changes)
	}
}

func TestUndo(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "buy milk"})
	h := openNotes(t, backend)

	h.typeText("x")
	h.press("ctrl+z")

	if got := h.app.editor.value(); got != "buy milk" {
		t.Errorf("editor after undo = %q", got)
	}
	if h.app.header.dirty.Load() {
		t.Error("undo back to the saved content should clear dirty")
	}
}

func TestQuitAsksTwiceWhenDirty(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "buy milk"})
	h := openNotes(t, backend)

	h.typeText("x")
	h.press("ctrl+q")
	if h.quit {
		t.Fatal("first ctrl+q with unsaved changes should not quit")
	}
	h.press("ctrl+q")
	if !h.quit {
		t.Fatal("second ctrl+q should quit")
	}
}

func TestSettingsUnchangedIsNotPushed(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := openNotes(t, backend)

	h.press("ctrl+o")
	if h.app.mode != modeSettings {
		t.Fatalf("mode = %v, want settings", h.app.mode)
	}
	h.press("esc")

	if _, set := backend.calls(); set != 0 {
		t.Errorf("setConfig called %d times for an unchanged form", set)
	}
	if h.app.mode != modeEditor {
		t.Errorf("mode = %v, want editor", h.app.mode)
	}
}

func TestSettingsChangePushesAndReloads(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := openNotes(t, backend)

	h.press("ctrl+o", "tab", "space", "esc")

	get, set := backend.calls()
	if set != 1 {
		t.Fatalf("setConfig calls = %d, want 1", set)
	}
	if get != 2 {
		t.Errorf("getConfig calls = %d, want 2 (initial + reload)", get)
	}
	if !h.app.config.Explorer.DisplayHiddenFile {
		t.Error("reloaded config should carry the pushed change")
	}
	if !h.app.mounted {
		t.Error("app should be mounted again after reload")
	}
	if got := h.app.editor.value(); got != "x" {
		t.Errorf("document not reloaded, editor = %q", got)
	}
}

func TestSettingsSaveKey(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := openNotes(t, backend)

	h.press("ctrl+o", "tab", "space", "ctrl+s")

	if _, set := backend.calls(); set != 1 {
		t.Fatalf("setConfig calls = %d, want 1", set)
	}
}

func TestSettingsPushFailureSkipsReload(t *testing.T) {
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	backend.setErr = errBackendDown
	h := openNotes(t, backend)

	h.press("ctrl+o", "tab", "space", "esc")

	get, set := backend.calls()
	if set != 1 {
		t.Fatalf("setConfig calls = %d, want 1", set)
	}
	if get != 1 {
		t.Errorf("getConfig calls = %d, a failed push must not reload", get)
	}
	if h.app.config.Explorer.DisplayHiddenFile {
		t.Error("held config changed after a failed push")
	}
	if kind, _, _ := h.app.toast.current(); kind != toastFailure {
		t.Errorf("toast kind = %v, want failure", kind)
	}
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	bus := events.New()
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := newHarness(t, Options{Backend: backend, Bus: bus, Route: "notes/todo.txt"})
	h.press("ctrl+o")

	if bus.Count(events.FileStatusChange) == 0 || bus.Count(events.DialogClose) == 0 {
		t.Fatal("expected live subscriptions while mounted")
	}

	h.app.Close()

	for _, name := range []events.Name{events.FileStatusChange, events.FileListUpdate, events.DialogClose} {
		if n := bus.Count(name); n != 0 {
			t.Errorf("%s still has %d handlers after close", name, n)
		}
	}
	if n := h.app.editorKeys.Len(); n != 0 {
		t.Errorf("editor key listeners = %d after close", n)
	}
}

func TestDemoGauges(t *testing.T) {
	h := newHarness(t, Options{Backend: newFakeBackend(nil), Demo: true})

	if got := h.app.sidebar.memory.Value(); got != telemetry.DemoMemoryPercent {
		t.Errorf("memory gauge = %d, want %d", got, telemetry.DemoMemoryPercent)
	}
	if got := h.app.sidebar.cpu.Value(); got != telemetry.DemoCPUPercent {
		t.Errorf("cpu gauge = %d, want %d", got, telemetry.DemoCPUPercent)
	}

	h.press("f3")
	if !h.app.sidebar.dialog.IsOpen() {
		t.Fatal("f3 should open the system dialog")
	}
	if !strings.Contains(h.app.View(), "Ferrum-DEMO") {
		t.Error("system dialog should show the demo sample")
	}
	h.press("esc")
	if h.app.sidebar.dialog.IsOpen() {
		t.Error("esc should close the system dialog")
	}
}

func TestCopyPath(t *testing.T) {
	var copied string
	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := newHarness(t, Options{
		Backend: backend,
		Route:   "notes/todo.txt",
		WriteClipboard: func(s string) error {
			copied = s
			return nil
		},
	})

	h.press("ctrl+y")
	if copied != notesPath {
		t.Errorf("copied %q, want %q", copied, notesPath)
	}
}

func TestRecentModal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "ferrum.db"), "http://localhost:3001")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	for _, p := range []string{"C:/docs/readme.md", "C:/src/main.go"} {
		if err := j.RecordOpen(p); err != nil {
			t.Fatal(err)
		}
	}

	backend := newFakeBackend(map[string]string{"C:/src/main.go": "package main"})
	h := newHarness(t, Options{Backend: backend, Journal: j})

	h.press("ctrl+r")
	if h.app.mode != modeRecent {
		t.Fatalf("mode = %v, want recent", h.app.mode)
	}
	if n := len(h.app.recent.documents); n != 2 {
		t.Fatalf("recent documents = %d, want 2", n)
	}

	h.typeText("main")
	if n := len(h.app.recent.matches); n != 1 {
		t.Fatalf("matches for %q = %d, want 1", "main", n)
	}

	h.press("enter")
	if h.app.mode != modeEditor {
		t.Errorf("mode = %v, want editor", h.app.mode)
	}
	if got := h.app.editor.value(); got != "package main" {
		t.Errorf("editor = %q", got)
	}
}

func TestUpload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(local, []byte("quarterly"), 0644); err != nil {
		t.Fatal(err)
	}

	backend := newFakeBackend(map[string]string{notesPath: "x"})
	h := openNotes(t, backend)

	h.press("ctrl+u")
	if h.app.mode != modeUpload {
		t.Fatalf("mode = %v, want upload", h.app.mode)
	}
	h.typeText(local)
	h.press("enter")

	if got := backend.uploads["C:/notes/report.txt"]; got != "quarterly" {
		t.Errorf("uploads = %v", backend.uploads)
	}
	if n := h.app.sidebar.uploads.Load(); n != 1 {
		t.Errorf("file list updates seen by sidebar = %d, want 1", n)
	}
}

func TestFreezeRoundTrip(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Explorer.Password = "secret"
	cfg.Terminal.Username = "admin"

	d := newSettingsDialog(cfg)
	got, err := settings.BuildSnapshot(cfg, freeze(d))
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if !got.Equal(cfg) {
		t.Errorf("snapshot = %+v, want %+v", got, cfg)
	}

	d.fields[fieldFontSize].input.SetValue("")
	if _, err := settings.BuildSnapshot(cfg, freeze(d)); err == nil {
		t.Error("an empty font size should not parse")
	}
}

func TestHighlightMatches(t *testing.T) {
	if got := highlightMatches("abc", nil); got != "abc" {
		t.Errorf("no positions = %q", got)
	}
	got := highlightMatches("abc", []int{1})
	if !strings.Contains(got, "a") || !strings.Contains(got, "c") {
		t.Errorf("highlighted = %q", got)
	}
}
