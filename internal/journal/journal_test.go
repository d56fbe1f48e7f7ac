package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openJournal(t *testing.T, dbPath, api string) *Journal {
	t.Helper()
	j, err := Open(dbPath, api)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })

	clock := time.Date(2026, 1, 2, 10, 0, 0, 0, time.Local)
	j.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return j
}

func TestRecent_OrdersByLastOpened(t *testing.T) {
	j := openJournal(t, filepath.Join(t.TempDir(), "nested", "ferrum.db"), "http://a")

	for _, p := range []string{"C:/a.txt", "C:/b.txt", "C:/a.txt"} {
		if err := j.RecordOpen(p); err != nil {
			t.Fatalf("RecordOpen(%s) error = %v", p, err)
		}
	}

	docs, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Recent() = %d docs, want 2", len(docs))
	}
	if docs[0].Path != "C:/a.txt" || docs[0].OpenCount != 2 {
		t.Errorf("first = %+v, want C:/a.txt opened twice", docs[0])
	}
	if !docs[0].LastSaved.IsZero() {
		t.Error("LastSaved set for a document never saved")
	}

	limited, _ := j.Recent(1)
	if len(limited) != 1 {
		t.Errorf("Recent(1) = %d docs", len(limited))
	}
}

func TestRecordSave(t *testing.T) {
	j := openJournal(t, filepath.Join(t.TempDir(), "ferrum.db"), "http://a")

	j.RecordOpen("C:/a.txt")
	if err := j.RecordSave("C:/a.txt", 12); err != nil {
		t.Fatalf("RecordSave() error = %v", err)
	}
	if err := j.RecordSaveFailure("C:/a.txt", errors.New("disk full")); err != nil {
		t.Fatalf("RecordSaveFailure() error = %v", err)
	}
	if err := j.RecordConfigPush("terminal.port: 22 -> 2222"); err != nil {
		t.Fatalf("RecordConfigPush() error = %v", err)
	}

	docs, _ := j.Recent(0)
	if docs[0].SaveCount != 1 || docs[0].LastSaved.IsZero() {
		t.Errorf("document = %+v", docs[0])
	}

	events, err := j.Events(0)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	wantKinds := []string{KindConfigPush, KindSaveFailed, KindSave, KindOpen}
	if len(events) != len(wantKinds) {
		t.Fatalf("Events() = %d, want %d", len(events), len(wantKinds))
	}
	for i, k := range wantKinds {
		if events[i].Kind != k {
			t.Errorf("event %d kind = %s, want %s", i, events[i].Kind, k)
		}
	}
	if events[1].Detail != "disk full" || events[2].Detail != "12 bytes" {
		t.Errorf("details = %q, %q", events[1].Detail, events[2].Detail)
	}
}

func TestJournal_ScopedPerBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ferrum.db")
	a := openJournal(t, dbPath, "http://a")
	b := openJournal(t, dbPath, "http://b")

	a.RecordOpen("C:/only-a.txt")

	docs, _ := b.Recent(0)
	if len(docs) != 0 {
		t.Errorf("backend b sees %v", docs)
	}

	if err := b.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	docs, _ = a.Recent(0)
	if len(docs) != 1 {
		t.Error("Clear() on one backend removed another's entries")
	}

	if err := a.Clear(); err != nil {
		t.Fatal(err)
	}
	docs, _ = a.Recent(0)
	events, _ := a.Events(0)
	if len(docs) != 0 || len(events) != 0 {
		t.Errorf("after Clear(): %d docs, %d events", len(docs), len(events))
	}
}
