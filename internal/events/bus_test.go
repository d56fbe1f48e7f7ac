package events

import (
	"sync"
	"testing"
)

func TestBus_HandlersRunInRegistrationOrder(t *testing.T) {
	b := New()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		b.OnFileListUpdate(func() { order = append(order, i) })
	}

	b.EmitFileListUpdate()

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("handler order = %v, want [0 1 2]", order)
	}
}

func TestBus_PreservesEmissionOrderPerName(t *testing.T) {
	b := New()
	var got []bool
	b.OnFileStatusChange(func(dirty bool) { got = append(got, dirty) })

	b.EmitFileStatusChange(true)
	b.EmitFileStatusChange(false)
	b.EmitFileStatusChange(true)

	want := []bool{true, false, true}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	b := New()
	called := false

	b.OnDialogClose(func(string) { panic("boom") })
	b.OnDialogClose(func(id string) {
		if id == "settings" {
			called = true
		}
	})

	faults := b.EmitDialogClose("settings")

	if faults != 1 {
		t.Errorf("Emit() faults = %d, want 1", faults)
	}
	if !called {
		t.Error("handler after the panicking one was not invoked")
	}
}

func TestBus_DisposerRemovesHandler(t *testing.T) {
	b := New()
	calls := 0
	off := b.OnFileListUpdate(func() { calls++ })

	if b.Count(FileListUpdate) != 1 {
		t.Fatalf("Count() = %d, want 1", b.Count(FileListUpdate))
	}

	b.EmitFileListUpdate()
	off()
	off() // idempotent
	b.EmitFileListUpdate()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if b.Count(FileListUpdate) != 0 {
		t.Errorf("Count() after dispose = %d, want 0", b.Count(FileListUpdate))
	}
}

func TestBus_DisposeDuringEmission(t *testing.T) {
	b := New()
	var second func()
	secondCalls := 0

	b.OnFileListUpdate(func() { second() })
	second = b.OnFileListUpdate(func() { secondCalls++ })

	b.EmitFileListUpdate()

	if secondCalls != 0 {
		t.Errorf("disposed handler ran %d times, want 0", secondCalls)
	}
}

func TestBus_NamesAreIndependent(t *testing.T) {
	b := New()
	statusCalls := 0
	b.OnFileStatusChange(func(bool) { statusCalls++ })

	b.EmitDialogClose("settings")
	b.EmitFileListUpdate()

	if statusCalls != 0 {
		t.Errorf("fileStatusChange handler ran %d times for other events", statusCalls)
	}
}

func TestBus_IsolatedInstances(t *testing.T) {
	a, b := New(), New()
	calls := 0
	a.OnFileListUpdate(func() { calls++ })

	b.EmitFileListUpdate()

	if calls != 0 {
		t.Error("emission on one bus reached a handler on another")
	}
}

func TestBus_ConcurrentAccess(t *testing.T) {
	b := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			off := b.OnFileStatusChange(func(bool) {})
			off()
		}()
		go func() {
			defer wg.Done()
			b.EmitFileStatusChange(true)
		}()
	}

	wg.Wait()

	if b.Count(FileStatusChange) != 0 {
		t.Errorf("Count() = %d after all disposers ran, want 0", b.Count(FileStatusChange))
	}
}
