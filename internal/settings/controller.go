// Package settings pushes edited configuration to the backend.
//
// The controller holds the configuration the application is running with.
// When the settings dialog closes, or the user saves while it is open, the
// form is read into a new snapshot; the snapshot is pushed only when it
// differs from the held configuration, and a successful push reloads the
// application with the new values.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ferrum-editor/ferrum/internal/keybinds"
	"github.com/ferrum-editor/ferrum/internal/types"
	"go.uber.org/zap"
)

// Outcome reports what MaybeSave did.
type Outcome int

const (
	// OutcomeSkipped means nothing was read: the form is gone or the app runs in demo mode
	OutcomeSkipped Outcome = iota
	// OutcomeUnchanged means the form matches the held config
	OutcomeUnchanged
	// OutcomePushed means the backend accepted the new config
	OutcomePushed
	// OutcomeFailed means the form was invalid or the push failed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomePushed:
		return "pushed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// ErrInvalidForm wraps form parse failures
var ErrInvalidForm = errors.New("invalid settings")

// Pusher stores a configuration on the backend
type Pusher interface {
	SetConfig(ctx context.Context, cfg types.Config) error
}

// Notifier shows the progress of a push
type Notifier interface {
	Pending(msg string)
	Success(msg string)
	Failure(msg string, err error)
}

// Reloader restarts the application with a new configuration
type Reloader interface {
	Reload(cfg types.Config)
}

// ReloadFunc adapts a function to Reloader
type ReloadFunc func(cfg types.Config)

func (f ReloadFunc) Reload(cfg types.Config) { f(cfg) }

// Recorder is notified of successful pushes
type Recorder interface {
	RecordConfigPush(detail string) error
}

// Subscriber delivers dialog close notifications
type Subscriber interface {
	OnDialogClose(fn func(dialogID string)) (off func())
}

// KeyRegistrar attaches action listeners
type KeyRegistrar interface {
	Add(fn keybinds.Listener) (remove func())
}

// Options configures a Controller
type Options struct {
	Store    Pusher
	Initial  types.Config
	Notifier Notifier
	Reloader Reloader
	Journal  Recorder
	Logger   *zap.Logger
	Demo     bool

	// SaveRequested, when set, is called instead of running MaybeSave
	// inline when the dialog closes or the save key fires.
	SaveRequested func()
}

// Controller synchronizes the settings form with the backend
type Controller struct {
	store         Pusher
	notifier      Notifier
	reloader      Reloader
	journal       Recorder
	logger        *zap.Logger
	demo          bool
	saveRequested func()

	// pushMu serializes MaybeSave so overlapping calls compare against the
	// config the previous push left behind
	pushMu sync.Mutex

	mu     sync.Mutex
	config types.Config
	form   Form
}

// NewController creates a controller holding opts.Initial
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:         opts.Store,
		notifier:      opts.Notifier,
		reloader:      opts.Reloader,
		journal:       opts.Journal,
		logger:        logger,
		demo:          opts.Demo,
		saveRequested: opts.SaveRequested,
		config:        opts.Initial,
	}
}

// Config returns the held configuration
func (c *Controller) Config() types.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetForm binds the dialog fields; nil unbinds them
func (c *Controller) SetForm(f Form) {
	c.mu.Lock()
	c.form = f
	c.mu.Unlock()
}

// MaybeSave pushes the form when it differs from the held config
func (c *Controller) MaybeSave(ctx context.Context) (Outcome, error) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	form := c.form
	current := c.config
	c.mu.Unlock()

	if c.demo || form == nil || !form.Mounted() {
		return OutcomeSkipped, nil
	}

	next, err := BuildSnapshot(current, form)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidForm, err)
		c.notifyFailure("Invalid settings", err)
		return OutcomeFailed, err
	}
	if next.Equal(current) {
		c.logger.Debug("settings unchanged, nothing to push")
		return OutcomeUnchanged, nil
	}

	c.notifyPending("Saving settings...")
	if err := c.store.SetConfig(ctx, next); err != nil {
		c.logger.Error("failed to push settings", zap.Error(err))
		c.notifyFailure("Failed to save settings", err)
		return OutcomeFailed, fmt.Errorf("failed to push settings: %w", err)
	}

	c.mu.Lock()
	c.config = next
	c.mu.Unlock()

	c.logger.Info("settings pushed")
	c.notifySuccess("Settings saved")
	if c.journal != nil {
		if err := c.journal.RecordConfigPush(describeChange(current, next)); err != nil {
			c.logger.Warn("failed to write journal", zap.Error(err))
		}
	}
	if c.reloader != nil {
		c.reloader.Reload(next)
	}
	return OutcomePushed, nil
}

// Attach listens for the close of dialogID and, when keys is non-nil, for the
// save action while attached. The returned function detaches both.
func (c *Controller) Attach(bus Subscriber, dialogID string, keys KeyRegistrar) (detach func()) {
	var disposers []func()

	disposers = append(disposers, bus.OnDialogClose(func(id string) {
		if id == dialogID {
			c.trigger()
		}
	}))

	if keys != nil {
		disposers = append(disposers, keys.Add(func(a keybinds.Action) bool {
			if a != keybinds.ActionSave {
				return false
			}
			c.trigger()
			return true
		}))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(disposers) - 1; i >= 0; i-- {
				disposers[i]()
			}
		})
	}
}

func (c *Controller) trigger() {
	if c.saveRequested != nil {
		c.saveRequested()
		return
	}
	if _, err := c.MaybeSave(context.Background()); err != nil {
		c.logger.Warn("settings save failed", zap.Error(err))
	}
}

func (c *Controller) notifyPending(msg string) {
	if c.notifier != nil {
		c.notifier.Pending(msg)
	}
}

func (c *Controller) notifySuccess(msg string) {
	if c.notifier != nil {
		c.notifier.Success(msg)
	}
}

func (c *Controller) notifyFailure(msg string, err error) {
	if c.notifier != nil {
		c.notifier.Failure(msg, err)
	}
}
