package keybinds

import "sync"

// Listener handles an action and reports whether it consumed it
type Listener func(action Action) bool

// Listeners is the set of action listeners attached by mounted views.
// Every Add returns the function that detaches the listener again.
type Listeners struct {
	mu      sync.Mutex
	nextID  int
	entries []listenerEntry
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewListeners creates an empty listener set
func NewListeners() *Listeners {
	return &Listeners{}
}

// Add attaches fn. The returned remove function is safe to call repeatedly.
func (l *Listeners) Add(fn Listener) (remove func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, listenerEntry{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch offers action to listeners, most recently added first, until one
// consumes it.
func (l *Listeners) Dispatch(action Action) bool {
	l.mu.Lock()
	snapshot := make([]listenerEntry, len(l.entries))
	copy(snapshot, l.entries)
	l.mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].fn(action) {
			return true
		}
	}
	return false
}

// Len returns the number of attached listeners
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
