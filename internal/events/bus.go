// Package events provides the in-process event bus that decouples UI fragments.
//
// A Bus is created once by the application root and passed by reference to
// every component that publishes or subscribes. Emission is synchronous:
// handlers run on the emitting goroutine, in registration order, before Emit
// returns. Every subscription returns a disposer that must be called when the
// subscribing component unmounts.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Name identifies an event kind
type Name string

const (
	// FileStatusChange fires when the open document flips between clean and dirty
	FileStatusChange Name = "fileStatusChange"
	// FileListUpdate fires when the remote directory listing changed (e.g. after an upload)
	FileListUpdate Name = "fileListUpdate"
	// DialogClose fires when a dialog host closes one of its dialogs
	DialogClose Name = "dialogClose"
)

// Event is one of the closed set of bus events
type Event interface {
	EventName() Name
}

// FileStatusChangeEvent carries the new dirty flag
type FileStatusChangeEvent struct {
	Dirty bool
}

func (FileStatusChangeEvent) EventName() Name { return FileStatusChange }

// FileListUpdateEvent has no payload
type FileListUpdateEvent struct{}

func (FileListUpdateEvent) EventName() Name { return FileListUpdate }

// DialogCloseEvent identifies the dialog that was closed
type DialogCloseEvent struct {
	DialogID string
}

func (DialogCloseEvent) EventName() Name { return DialogClose }

// Handler receives an emitted event
type Handler func(Event)

type subscription struct {
	handler Handler
	active  atomic.Bool
}

// Bus is a synchronous publish/subscribe channel
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]*subscription
	logger   *zap.Logger
}

// Option configures a Bus
type Option func(*Bus)

// WithLogger sets the logger used to report handler faults
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates an isolated bus
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Name][]*subscription),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers handler for name and returns its disposer.
// Calling the disposer more than once is harmless.
func (b *Bus) On(name Name, handler Handler) func() {
	sub := &subscription{handler: handler}
	sub.active.Store(true)

	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			b.remove(name, sub)
		})
	}
}

func (b *Bus) remove(name Name, target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[name]
	for i, sub := range subs {
		if sub == target {
			// Copy so snapshots taken by in-flight emissions stay intact
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, name)
			} else {
				b.handlers[name] = next
			}
			return
		}
	}
}

// Emit invokes every handler registered for the event's name.
// A handler that panics is recovered and logged; the remaining handlers still
// run. Emit returns the number of handlers that faulted.
func (b *Bus) Emit(event Event) int {
	name := event.EventName()

	b.mu.RLock()
	subs := b.handlers[name]
	b.mu.RUnlock()

	faults := 0
	for _, sub := range subs {
		// Skip handlers disposed by an earlier handler of this emission
		if !sub.active.Load() {
			continue
		}
		if err := b.invoke(sub.handler, event); err != nil {
			faults++
			b.logger.Error("event handler failed",
				zap.String("event", string(name)),
				zap.Error(err),
			)
		}
	}
	return faults
}

func (b *Bus) invoke(handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	handler(event)
	return nil
}

// Count returns the number of handlers registered for name
func (b *Bus) Count(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// OnFileStatusChange subscribes to dirty-flag transitions
func (b *Bus) OnFileStatusChange(fn func(dirty bool)) func() {
	return b.On(FileStatusChange, func(e Event) {
		if ev, ok := e.(FileStatusChangeEvent); ok {
			fn(ev.Dirty)
		}
	})
}

// OnFileListUpdate subscribes to directory listing changes
func (b *Bus) OnFileListUpdate(fn func()) func() {
	return b.On(FileListUpdate, func(Event) {
		fn()
	})
}

// OnDialogClose subscribes to dialog close notifications
func (b *Bus) OnDialogClose(fn func(dialogID string)) func() {
	return b.On(DialogClose, func(e Event) {
		if ev, ok := e.(DialogCloseEvent); ok {
			fn(ev.DialogID)
		}
	})
}

// EmitFileStatusChange publishes a dirty-flag transition
func (b *Bus) EmitFileStatusChange(dirty bool) int {
	return b.Emit(FileStatusChangeEvent{Dirty: dirty})
}

// EmitFileListUpdate publishes a directory listing change
func (b *Bus) EmitFileListUpdate() int {
	return b.Emit(FileListUpdateEvent{})
}

// EmitDialogClose publishes a dialog close
func (b *Bus) EmitDialogClose(dialogID string) int {
	return b.Emit(DialogCloseEvent{DialogID: dialogID})
}
