package keybinds

import (
	"sort"
	"strings"
	"sync"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key     string
	Action  Action
	Context Context
}

// Registry maps keys to actions per context
type Registry struct {
	mu       sync.RWMutex
	bindings map[Context]map[string]Action
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Context]map[string]Action),
	}
}

// Register binds key to action in context, replacing any previous binding of key
func (r *Registry) Register(context Context, key string, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindings[context] == nil {
		r.bindings[context] = make(map[string]Action)
	}
	r.bindings[context][key] = action
}

// RegisterMultiple binds several keys to the same action
func (r *Registry) RegisterMultiple(context Context, keys []string, action Action) {
	for _, key := range keys {
		r.Register(context, key, action)
	}
}

// Unbind removes every key bound to action in context
func (r *Registry) Unbind(context Context, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, bound := range r.bindings[context] {
		if bound == action {
			delete(r.bindings[context], key)
		}
	}
}

// Match resolves a key in context, falling back to the global context
func (r *Registry) Match(context Context, key string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// Keys returns the keys bound to action in context (or global), sorted
func (r *Registry) Keys(context Context, action Action) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := keysFor(r.bindings[context], action)
	if len(keys) == 0 {
		keys = keysFor(r.bindings[ContextGlobal], action)
	}
	sort.Strings(keys)
	return keys
}

func keysFor(bindings map[string]Action, action Action) []string {
	var keys []string
	for key, bound := range bindings {
		if bound == action {
			keys = append(keys, key)
		}
	}
	return keys
}

// KeyString returns the keys for an action joined for display
func (r *Registry) KeyString(context Context, action Action) string {
	keys := r.Keys(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	return strings.Join(keys, "/")
}

// List returns the bindings of a single context sorted by action then key
func (r *Registry) List(context Context) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for key, action := range r.bindings[context] {
		out = append(out, Binding{Key: key, Action: action, Context: context})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Clone creates a deep copy of the registry
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := NewRegistry()
	for context, bindings := range r.bindings {
		clone.bindings[context] = make(map[string]Action, len(bindings))
		for key, action := range bindings {
			clone.bindings[context][key] = action
		}
	}
	return clone
}
