package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ferrum-editor/ferrum/internal/events"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/keybinds"
	"github.com/ferrum-editor/ferrum/internal/language"
	"github.com/ferrum-editor/ferrum/internal/session"
	"github.com/ferrum-editor/ferrum/internal/settings"
	"github.com/ferrum-editor/ferrum/internal/store"
	"github.com/ferrum-editor/ferrum/internal/telemetry"
	"github.com/ferrum-editor/ferrum/internal/types"
	"go.uber.org/zap"
)

// Backend is the document store as seen by the application
type Backend interface {
	session.Store
	settings.Pusher
	GetConfig(ctx context.Context) (*types.Config, error)
	UploadFile(ctx context.Context, dir, name string, r io.Reader) error
}

// Options configures an App
type Options struct {
	Backend Backend
	Bus     *events.Bus
	Journal *journal.Journal // optional
	Keys    *keybinds.Registry
	Sampler telemetry.Sampler
	APIURL  string
	Volume  string
	Route   string // document to open
	Demo    bool
	Logger  *zap.Logger

	// WriteClipboard replaces the system clipboard, mainly for tests
	WriteClipboard func(string) error
}

type mode int

const (
	modeEditor mode = iota
	modeSettings
	modeSysInfo
	modeRecent
	modeUpload
)

// App is the root model. Sub-models are torn down and rebuilt on reload.
type App struct {
	backend   Backend
	bus       *events.Bus
	journal   *journal.Journal
	keys      *keybinds.Registry
	sampler   telemetry.Sampler
	apiURL    string
	volume    string
	route     string
	demo      bool
	logger    *zap.Logger
	clipboard func(string) error

	config  types.Config
	mounted bool

	header         header
	editor         editorView
	sidebar        *sidebar
	bridge         *telemetry.Bridge
	session        *session.Controller
	settingsCtl    *settings.Controller
	settingsDialog *settingsDialog
	recent         *recentModal
	upload         *textinput.Model
	notice         *notice
	toast          *toaster
	editorKeys     *keybinds.Listeners
	settingsKeys   *keybinds.Listeners
	reloadTo       atomic.Pointer[types.Config]

	mode      mode
	width     int
	height    int
	quitArmed bool
	pending   []tea.Cmd

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the application model
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := opts.Keys
	if keys == nil {
		keys = keybinds.NewDefaultRegistry()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.New(events.WithLogger(logger))
	}
	volume := opts.Volume
	if volume == "" {
		volume = session.DefaultVolume
	}
	writeClipboard := opts.WriteClipboard
	if writeClipboard == nil {
		writeClipboard = clipboard.WriteAll
	}

	a := &App{
		backend:      opts.Backend,
		bus:          bus,
		journal:      opts.Journal,
		keys:         keys,
		sampler:      opts.Sampler,
		apiURL:       opts.APIURL,
		volume:       volume,
		route:        opts.Route,
		demo:         opts.Demo,
		logger:       logger,
		clipboard:    writeClipboard,
		config:       types.DefaultConfig(),
		editorKeys:   keybinds.NewListeners(),
		settingsKeys: keybinds.NewListeners(),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	a.toast = &toaster{wake: a.signal}
	a.editor = newEditorView(a.config.Editor)
	a.sidebar = newSidebar()
	return a
}

// Run starts the TUI and blocks until it exits
func Run(opts Options) error {
	app := New(opts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// Init loads the config, which mounts everything else
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchConfig(), a.waitForWake())
}

// Close unmounts everything. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.unmount()
		close(a.done)
	})
}

// signal requests a re-render from any goroutine without blocking
func (a *App) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) waitForWake() tea.Cmd {
	wake, done := a.wake, a.done
	return func() tea.Msg {
		select {
		case <-wake:
			return wakeMsg{}
		case <-done:
			return nil
		}
	}
}

// queue schedules a command produced while handling a key
func (a *App) queue(cmd tea.Cmd) {
	a.pending = append(a.pending, cmd)
}

func (a *App) drain(extra ...tea.Cmd) tea.Cmd {
	cmds := append(a.pending, extra...)
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) fetchConfig() tea.Cmd {
	if a.demo || a.backend == nil {
		return func() tea.Msg {
			return configLoadedMsg{config: types.DefaultConfig()}
		}
	}
	backend := a.backend
	return func() tea.Msg {
		cfg, err := backend.GetConfig(context.Background())
		if err != nil {
			return configLoadedMsg{config: types.DefaultConfig(), err: err}
		}
		return configLoadedMsg{config: *cfg}
	}
}

func (a *App) sessionRecorder() session.Recorder {
	if a.journal == nil {
		return nil
	}
	return a.journal
}

func (a *App) settingsRecorder() settings.Recorder {
	if a.journal == nil {
		return nil
	}
	return a.journal
}

// mount builds every sub-model for cfg and starts loading the document
func (a *App) mount(cfg types.Config) tea.Cmd {
	a.config = cfg
	a.editor.configure(cfg.Editor)
	a.header.mount(a.bus, a.signal)

	a.sidebar = newSidebar()
	a.bridge = telemetry.NewBridge(telemetry.Options{
		Sampler:  a.sampler,
		APIURL:   a.apiURL,
		Memory:   a.sidebar.memory,
		CPU:      a.sidebar.cpu,
		Demo:     a.demo || a.sampler == nil,
		Logger:   a.logger.Named("telemetry"),
		OnSample: func(types.SysInfo) { a.signal() },
	})
	a.sidebar.mount(a.bridge, a.bus, a.signal)

	a.settingsCtl = settings.NewController(settings.Options{
		Store:    a.backend,
		Initial:  cfg,
		Notifier: a.toast,
		Reloader: settings.ReloadFunc(func(next types.Config) {
			a.reloadTo.Store(&next)
		}),
		Journal:       a.settingsRecorder(),
		Logger:        a.logger.Named("settings"),
		Demo:          a.demo,
		SaveRequested: a.requestSettingsSave,
	})

	a.mounted = true
	a.logger.Debug("mounted", zap.String("sidebar", a.sidebar.id))
	return a.openDocument(a.route)
}

// unmount releases every subscription, listener and sampler
func (a *App) unmount() {
	if a.settingsDialog != nil {
		a.settingsDialog.mounted = false
		a.settingsDialog.detach()
		a.settingsDialog = nil
	}
	if a.session != nil {
		a.session.Unmount()
		a.session = nil
	}
	if a.sidebar != nil {
		a.sidebar.unmount()
	}
	if a.bridge != nil {
		a.bridge.Close()
		a.bridge = nil
	}
	a.header.unmount()
	a.recent = nil
	a.upload = nil
	a.mode = modeEditor
	a.mounted = false
}

// reload tears everything down and mounts again from a fresh config
func (a *App) reload() tea.Cmd {
	a.logger.Info("reloading after settings change")
	a.unmount()
	return a.fetchConfig()
}

// openDocument replaces the editing session with one for route
func (a *App) openDocument(route string) tea.Cmd {
	if a.session != nil {
		a.session.Unmount()
	}
	a.route = route
	a.header.title = ""
	a.header.dirty.Store(false)
	a.editor.setContent("", language.Plain)

	ctl := session.NewController(session.Options{
		Store:         a.backend,
		Bus:           a.bus,
		Journal:       a.sessionRecorder(),
		Logger:        a.logger.Named("session"),
		Volume:        a.volume,
		Keys:          a.editorKeys,
		SaveRequested: a.requestDocumentSave,
	})
	a.session = ctl

	if strings.TrimSpace(route) == "" {
		a.editor.area.Placeholder = "No document. Press " + a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionOpenRecent) + " to open a recent one."
		return nil
	}

	return func() tea.Msg {
		err := ctl.Mount(context.Background(), route)
		return documentLoadedMsg{session: ctl, err: err}
	}
}

func (a *App) requestDocumentSave() {
	ctl := a.session
	if ctl == nil {
		return
	}
	a.toast.Pending("Saving...")
	a.queue(func() tea.Msg {
		return documentSavedMsg{session: ctl, err: ctl.Save(context.Background())}
	})
}

func (a *App) requestSettingsSave() {
	ctl := a.settingsCtl
	if ctl == nil {
		return
	}
	if a.settingsDialog != nil {
		ctl.SetForm(freeze(a.settingsDialog))
	}
	a.queue(func() tea.Msg {
		outcome, err := ctl.MaybeSave(context.Background())
		return settingsSavedMsg{outcome: outcome, err: err}
	})
}

// Update handles messages and updates the model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case configLoadedMsg:
		if msg.err != nil {
			a.logger.Warn("failed to load config, using defaults", zap.Error(msg.err))
			a.notice = &notice{title: "Settings unavailable", body: "Could not load settings: " + msg.err.Error(), err: true}
		}
		if a.mounted {
			a.unmount()
		}
		return a, a.mount(msg.config)

	case documentLoadedMsg:
		return a, a.handleDocumentLoaded(msg)

	case documentSavedMsg:
		return a, a.handleDocumentSaved(msg)

	case settingsSavedMsg:
		return a, a.handleSettingsSaved(msg)

	case recentLoadedMsg:
		if a.recent != nil {
			a.recent.setDocuments(msg.documents, msg.err)
		}

	case uploadedMsg:
		if msg.err != nil {
			a.toast.Failure("Upload of "+msg.name+" failed", msg.err)
			return a, nil
		}
		a.bus.EmitFileListUpdate()
		return a, a.toast.expire(a.toast.set(toastSuccess, "Uploaded "+msg.name))

	case clearToastMsg:
		a.toast.clear(msg.seq)

	case wakeMsg:
		return a, a.waitForWake()
	}

	return a, nil
}

func (a *App) handleDocumentLoaded(msg documentLoadedMsg) tea.Cmd {
	if msg.session != a.session {
		return nil
	}
	ctl := msg.session
	title := ctl.Title()
	a.header.title = title

	switch {
	case msg.err == nil:
		snap := ctl.Snapshot()
		a.editor.setContent(snap.Content, snap.Language)
		return tea.SetWindowTitle(title)
	case errors.Is(msg.err, session.ErrDetached):
		return nil
	case errors.Is(msg.err, store.ErrNotFound):
		a.notice = &notice{
			title: "File not found",
			body:  fmt.Sprintf("%s does not exist on the server.", ctl.Snapshot().DocumentPath),
		}
	default:
		a.notice = &notice{title: "Failed to load document", body: msg.err.Error(), err: true}
	}
	return tea.SetWindowTitle(title)
}

func (a *App) handleDocumentSaved(msg documentSavedMsg) tea.Cmd {
	switch {
	case msg.err == nil:
		return a.toast.expire(a.toast.set(toastSuccess, "Saved "+msg.session.Snapshot().DocumentPath))
	case errors.Is(msg.err, session.ErrDetached):
		return nil
	case errors.Is(msg.err, session.ErrNotLoaded):
		a.toast.Failure("Nothing to save", nil)
	default:
		a.toast.Failure("Save failed", nil)
		a.notice = &notice{title: "Save failed", body: msg.err.Error(), err: true}
	}
	return nil
}

func (a *App) handleSettingsSaved(msg settingsSavedMsg) tea.Cmd {
	switch msg.outcome {
	case settings.OutcomePushed:
		_, _, seq := a.toast.current()
		expire := a.toast.expire(seq)
		if next := a.reloadTo.Swap(nil); next != nil {
			return tea.Batch(expire, a.reload())
		}
		return expire
	case settings.OutcomeFailed:
		a.logger.Warn("settings not saved", zap.Error(msg.err))
	}
	return nil
}

func (a *App) context() keybinds.Context {
	switch a.mode {
	case modeSettings:
		return keybinds.ContextSettings
	case modeSysInfo:
		return keybinds.ContextDialog
	case modeRecent, modeUpload:
		return keybinds.ContextRecent
	}
	return keybinds.ContextEditor
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if a.notice != nil {
		action, _ := a.keys.Match(keybinds.ContextDialog, key)
		switch action {
		case keybinds.ActionCloseDialog:
			a.notice = nil
		case keybinds.ActionQuitForce:
			return a.quit()
		}
		return nil
	}

	armed := a.quitArmed
	a.quitArmed = false

	if action, ok := a.keys.Match(a.context(), key); ok {
		handled, cmd := a.handleAction(action, armed)
		if handled {
			return a.drain(cmd)
		}
	}
	return a.drain(a.forwardKey(msg))
}

func (a *App) handleAction(action keybinds.Action, quitArmed bool) (bool, tea.Cmd) {
	if action == keybinds.ActionQuitForce {
		return true, a.quit()
	}

	switch a.mode {
	case modeEditor:
		return a.handleEditorAction(action, quitArmed)

	case modeSettings:
		switch action {
		case keybinds.ActionCloseDialog:
			a.closeSettings()
			return true, nil
		case keybinds.ActionNextField:
			a.settingsDialog.next()
			return true, nil
		case keybinds.ActionPrevField:
			a.settingsDialog.prev()
			return true, nil
		case keybinds.ActionToggle:
			return a.settingsDialog.toggle(), nil
		}
		return a.settingsKeys.Dispatch(action), nil

	case modeSysInfo:
		switch action {
		case keybinds.ActionCloseDialog:
			a.sidebar.dialog.SetOpen(false)
			a.mode = modeEditor
			return true, nil
		case keybinds.ActionNavigateUp:
			a.sidebar.dialog.view.LineUp(1)
			return true, nil
		case keybinds.ActionNavigateDown:
			a.sidebar.dialog.view.LineDown(1)
			return true, nil
		}

	case modeRecent:
		switch action {
		case keybinds.ActionCloseDialog:
			a.recent = nil
			a.mode = modeEditor
			return true, nil
		case keybinds.ActionNavigateUp:
			a.recent.up()
			return true, nil
		case keybinds.ActionNavigateDown:
			a.recent.down()
			return true, nil
		case keybinds.ActionSubmit:
			p, ok := a.recent.selected()
			if !ok {
				return true, nil
			}
			a.recent = nil
			a.mode = modeEditor
			return true, a.openDocument(p)
		}

	case modeUpload:
		switch action {
		case keybinds.ActionCloseDialog:
			a.upload = nil
			a.mode = modeEditor
			return true, nil
		case keybinds.ActionSubmit:
			return true, a.startUpload()
		}
	}
	return false, nil
}

func (a *App) handleEditorAction(action keybinds.Action, quitArmed bool) (bool, tea.Cmd) {
	switch action {
	case keybinds.ActionQuit:
		if a.session != nil && a.session.Snapshot().Dirty && !quitArmed {
			a.quitArmed = true
			a.toast.set(toastPending, "Unsaved changes. Press "+a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionQuit)+" again to quit.")
			return true, nil
		}
		return true, a.quit()

	case keybinds.ActionOpenSettings:
		a.openSettings()
		return true, nil

	case keybinds.ActionOpenSysInfo:
		a.sidebar.dialog.SetOpen(true)
		a.mode = modeSysInfo
		return true, nil

	case keybinds.ActionOpenRecent:
		return true, a.openRecent()

	case keybinds.ActionCopyPath:
		a.copyPath()
		return true, nil

	case keybinds.ActionUpload:
		in := textinput.New()
		in.Placeholder = "path of a local file"
		in.Focus()
		a.upload = &in
		a.mode = modeUpload
		return true, nil
	}

	if !a.editorKeys.Dispatch(action) {
		return false, nil
	}
	if action == keybinds.ActionUndo && a.session != nil {
		a.editor.area.SetValue(a.session.Snapshot().Content)
	}
	return true, nil
}

// forwardKey passes an unbound key to the focused widget
func (a *App) forwardKey(msg tea.KeyMsg) tea.Cmd {
	switch a.mode {
	case modeEditor:
		if a.session == nil || a.session.Snapshot().State != session.StateLoaded {
			return nil
		}
		before := a.editor.value()
		cmd := a.editor.Update(msg)
		if after := a.editor.value(); after != before {
			a.session.Edit(after)
		}
		return cmd
	case modeSettings:
		return a.settingsDialog.Update(msg)
	case modeRecent:
		return a.recent.Update(msg)
	case modeUpload:
		var cmd tea.Cmd
		*a.upload, cmd = a.upload.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) openSettings() {
	if a.settingsCtl == nil {
		return
	}
	d := newSettingsDialog(a.settingsCtl.Config())
	d.detach = a.settingsCtl.Attach(a.bus, d.id, a.settingsKeys)
	a.settingsDialog = d
	a.mode = modeSettings
}

// closeSettings announces the close, which saves the form, then detaches
func (a *App) closeSettings() {
	d := a.settingsDialog
	if d == nil {
		return
	}
	a.bus.EmitDialogClose(d.id)
	d.mounted = false
	d.detach()
	a.settingsDialog = nil
	a.mode = modeEditor
}

func (a *App) openRecent() tea.Cmd {
	a.recent = newRecentModal()
	a.mode = modeRecent

	j := a.journal
	return func() tea.Msg {
		if j == nil {
			return recentLoadedMsg{err: errors.New("journal unavailable")}
		}
		docs, err := j.Recent(RecentListLimit)
		return recentLoadedMsg{documents: docs, err: err}
	}
}

func (a *App) copyPath() {
	if a.session == nil {
		return
	}
	p := a.session.Snapshot().DocumentPath
	if p == "" {
		a.toast.Failure("No document to copy", nil)
		return
	}
	if err := a.clipboard(p); err != nil {
		a.toast.Failure("Copy failed", err)
		return
	}
	a.toast.set(toastSuccess, "Copied "+p)
}

func (a *App) startUpload() tea.Cmd {
	local := strings.TrimSpace(a.upload.Value())
	a.upload = nil
	a.mode = modeEditor
	if local == "" {
		return nil
	}

	dir := a.volume + "/"
	if a.session != nil {
		if doc := a.session.Snapshot().DocumentPath; doc != "" {
			dir = path.Dir(doc)
		}
	}
	name := filepath.Base(local)
	backend := a.backend

	a.toast.Pending("Uploading " + name + "...")
	return func() tea.Msg {
		f, err := os.Open(local)
		if err != nil {
			return uploadedMsg{name: name, err: err}
		}
		defer f.Close()
		return uploadedMsg{name: name, err: backend.UploadFile(context.Background(), dir, name, f)}
	}
}

func (a *App) quit() tea.Cmd {
	a.Close()
	return tea.Quit
}

func (a *App) layout() {
	bodyHeight := a.height - HeaderHeight - StatusHeight
	a.editor.setSize(a.width-SidebarWidth-PaneBorder, bodyHeight-PaneBorder)
}

// View renders the TUI
func (a *App) View() string {
	if a.width == 0 {
		return "Initializing..."
	}

	if a.notice != nil {
		return a.notice.View(a.width, a.height)
	}

	switch a.mode {
	case modeSettings:
		footer := fmt.Sprintf("%s: next  %s: toggle  %s: save  %s: close",
			a.keys.KeyString(keybinds.ContextSettings, keybinds.ActionNextField),
			"space",
			a.keys.KeyString(keybinds.ContextSettings, keybinds.ActionSave),
			a.keys.KeyString(keybinds.ContextSettings, keybinds.ActionCloseDialog))
		return a.settingsDialog.View(a.width, a.height, footer)
	case modeSysInfo:
		info, ok := a.sidebar.latest()
		return a.sidebar.dialog.View(info, ok, a.width, a.height)
	case modeRecent:
		return a.recent.View(a.width, a.height, "enter: open  esc: close")
	case modeUpload:
		return renderModal("Upload", a.upload.View(), "enter: upload  esc: cancel", ModalWidth, 8, a.width, a.height)
	}

	bodyHeight := a.height - HeaderHeight - StatusHeight
	editorPane := stylePane.
		Width(a.width - SidebarWidth - PaneBorder).
		Height(bodyHeight - PaneBorder).
		Render(a.editor.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, editorPane, a.sidebar.View(SidebarWidth, bodyHeight))
	return lipgloss.JoinVertical(lipgloss.Left, a.header.View(a.width), body, a.statusLine())
}

func (a *App) statusLine() string {
	if toast := a.toast.View(a.width); toast != "" {
		return toast
	}
	hints := fmt.Sprintf("%s save  %s settings  %s system  %s recent  %s quit",
		a.keys.KeyString(keybinds.ContextEditor, keybinds.ActionSave),
		a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionOpenSettings),
		a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionOpenSysInfo),
		a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionOpenRecent),
		a.keys.KeyString(keybinds.ContextGlobal, keybinds.ActionQuit))
	if a.editor.language != "" {
		hints = a.editor.language + "  " + hints
	}
	return styleSubtle.Render(truncate(hints, a.width))
}
