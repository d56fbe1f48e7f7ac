// Package session owns the state of the document open in the editor.
//
// A Controller is the single writer of a Session: it loads the document from
// the store, tracks whether the buffer differs from what the store holds and
// saves it back. Dirty-flag transitions are published on the event bus; the
// flag itself is never published twice in a row with the same value.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ferrum-editor/ferrum/internal/keybinds"
	"github.com/ferrum-editor/ferrum/internal/language"
	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/types"
	"go.uber.org/zap"
)

// maxUndo bounds the undo stack
const maxUndo = 100

var (
	// ErrDetached is returned by operations on an unmounted controller
	ErrDetached = errors.New("session is no longer mounted")
	// ErrNotLoaded is returned by Save before a document loaded successfully
	ErrNotLoaded = errors.New("no document loaded")
)

// State is the lifecycle state of a session
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateNotFound:
		return "not found"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session is a snapshot of the editor state
type Session struct {
	DocumentPath string
	Content      string
	Language     string
	Dirty        bool
	State        State
}

// Store is the part of the document store the controller needs
type Store interface {
	FetchFile(ctx context.Context, path string) (*types.FileContent, error)
	SaveFile(ctx context.Context, path, content string) error
}

// Publisher receives dirty-flag transitions
type Publisher interface {
	EmitFileStatusChange(dirty bool) int
}

// Recorder is notified of loads and saves
type Recorder interface {
	RecordOpen(path string) error
	RecordSave(path string, size int) error
	RecordSaveFailure(path string, cause error) error
}

// KeyRegistrar attaches action listeners
type KeyRegistrar interface {
	Add(fn keybinds.Listener) (remove func())
}

// Options configures a Controller
type Options struct {
	Store   Store
	Bus     Publisher
	Journal Recorder
	Logger  *zap.Logger
	Volume  string

	// Keys, when set, receives a listener for the save and undo actions for
	// as long as the controller is mounted.
	Keys KeyRegistrar
	// SaveRequested is invoked when the save action fires. The caller
	// decides where to run Save.
	SaveRequested func()
}

// Controller manages one editing session
type Controller struct {
	store         Store
	bus           Publisher
	journal       Recorder
	keys          KeyRegistrar
	saveRequested func()
	logger        *zap.Logger
	volume        string

	mu         sync.Mutex
	session    Session
	baseline   string
	undo       []string
	disposers  []func()
	generation int
	mounted    bool
	detached   bool

	// publishMu orders fileStatusChange emissions; published is the last
	// value subscribers saw
	publishMu sync.Mutex
	published bool
}

// NewController creates a controller in the idle state
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	volume := opts.Volume
	if volume == "" {
		volume = DefaultVolume
	}
	return &Controller{
		store:         opts.Store,
		bus:           opts.Bus,
		journal:       opts.Journal,
		keys:          opts.Keys,
		saveRequested: opts.SaveRequested,
		logger:        logger,
		volume:        volume,
		session:       Session{Language: language.Plain},
	}
}

// Mount resolves route, attaches the key listener and loads the document.
// A missing document leaves the content empty and returns store.ErrNotFound.
func (c *Controller) Mount(ctx context.Context, route string) error {
	path, err := ResolveRoutePath(route, c.volume)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return ErrDetached
	}
	if !c.mounted && c.keys != nil {
		c.disposers = append(c.disposers, c.keys.Add(c.handleAction))
	}
	c.mounted = true
	c.generation++
	gen := c.generation
	c.session.DocumentPath = path
	c.session.State = StateLoading
	c.mu.Unlock()

	c.logger.Debug("loading document", zap.String("path", path))
	fc, err := c.store.FetchFile(ctx, path)

	c.mu.Lock()
	if c.detached || gen != c.generation {
		c.mu.Unlock()
		return ErrDetached
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.session.State = StateNotFound
		} else {
			c.session.State = StateFailed
		}
		c.mu.Unlock()
		c.logger.Warn("failed to load document", zap.String("path", path), zap.Error(err))
		return err
	}

	c.session.Content = fc.Content
	c.session.Language = language.Normalize(fc.Format, path)
	c.session.State = StateLoaded
	c.baseline = fc.Content
	c.undo = nil
	wasDirty := c.session.Dirty
	c.session.Dirty = false
	c.mu.Unlock()

	if wasDirty {
		c.publish()
	}
	c.record(func(r Recorder) error { return r.RecordOpen(path) })
	return nil
}

// Edit replaces the buffer content
func (c *Controller) Edit(content string) {
	c.apply(content, true)
}

// Undo restores the content before the most recent edit
func (c *Controller) Undo() bool {
	c.mu.Lock()
	if c.detached || len(c.undo) == 0 {
		c.mu.Unlock()
		return false
	}
	prev := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	c.mu.Unlock()

	c.apply(prev, false)
	return true
}

func (c *Controller) apply(content string, remember bool) {
	c.mu.Lock()
	if c.detached || content == c.session.Content {
		c.mu.Unlock()
		return
	}

	if remember {
		c.undo = append(c.undo, c.session.Content)
		if len(c.undo) > maxUndo {
			c.undo = c.undo[len(c.undo)-maxUndo:]
		}
	}
	c.session.Content = content

	dirty := content != c.baseline
	changed := dirty != c.session.Dirty
	c.session.Dirty = dirty
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// Save writes the content as of the call to the store.
// Saves are not sequenced: when two are in flight, the one that completes
// last decides the baseline.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return ErrDetached
	}
	if c.session.State != StateLoaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	path := c.session.DocumentPath
	content := c.session.Content
	c.mu.Unlock()

	if err := c.store.SaveFile(ctx, path, content); err != nil {
		c.logger.Error("failed to save document", zap.String("path", path), zap.Error(err))
		c.record(func(r Recorder) error { return r.RecordSaveFailure(path, err) })
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return nil
	}
	c.baseline = content
	dirty := c.session.Content != c.baseline
	changed := dirty != c.session.Dirty
	c.session.Dirty = dirty
	c.mu.Unlock()

	c.logger.Info("document saved", zap.String("path", path), zap.Int("bytes", len(content)))
	if changed {
		c.publish()
	}
	c.record(func(r Recorder) error { return r.RecordSave(path, len(content)) })
	return nil
}

// Track ties a disposer to the lifetime of the mount
func (c *Controller) Track(dispose func()) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		dispose()
		return
	}
	c.disposers = append(c.disposers, dispose)
	c.mu.Unlock()
}

// Unmount releases everything acquired while mounted. Later saves fail with
// ErrDetached and in-flight loads are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.detached = true
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()

	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
}

// Snapshot returns a copy of the session
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Title returns the window title, empty before Mount
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.DocumentPath == "" {
		return ""
	}
	return Title(c.session.DocumentPath)
}

// CanUndo reports whether Undo would change the content
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo) > 0
}

func (c *Controller) handleAction(action keybinds.Action) bool {
	switch action {
	case keybinds.ActionSave:
		if c.saveRequested == nil {
			return false
		}
		c.saveRequested()
		return true
	case keybinds.ActionUndo:
		c.Undo()
		return true
	}
	return false
}

// publish emits the current dirty flag if subscribers last saw the other
// value. The flag is read after publishMu is taken, so a slow emission can
// not overwrite a newer one.
func (c *Controller) publish() {
	if c.bus == nil {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	dirty := c.session.Dirty
	c.mu.Unlock()
	if dirty == c.published {
		return
	}
	c.published = dirty

	if faults := c.bus.EmitFileStatusChange(dirty); faults > 0 {
		c.logger.Warn("file status handlers failed", zap.Int("faults", faults))
	}
}

func (c *Controller) record(fn func(Recorder) error) {
	if c.journal == nil {
		return
	}
	if err := fn(c.journal); err != nil {
		c.logger.Warn("failed to write journal", zap.Error(err))
	}
}
