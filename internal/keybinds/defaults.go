package keybinds

// NewDefaultRegistry creates a registry with the default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerEditorBindings(r)
	registerSettingsBindings(r)
	registerDialogBindings(r)
	registerRecentBindings(r)

	return r
}

func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "ctrl+q", ActionQuit)
	r.RegisterMultiple(ContextGlobal, []string{"ctrl+o", "f2"}, ActionOpenSettings)
	r.Register(ContextGlobal, "f3", ActionOpenSysInfo)
	r.Register(ContextGlobal, "ctrl+r", ActionOpenRecent)
}

func registerEditorBindings(r *Registry) {
	r.Register(ContextEditor, "ctrl+s", ActionSave)
	r.Register(ContextEditor, "ctrl+z", ActionUndo)
	r.Register(ContextEditor, "ctrl+y", ActionCopyPath)
	r.Register(ContextEditor, "ctrl+u", ActionUpload)
}

// Ctrl+S inside the settings dialog pushes the config instead of saving the document
func registerSettingsBindings(r *Registry) {
	r.Register(ContextSettings, "ctrl+s", ActionSave)
	r.Register(ContextSettings, "esc", ActionCloseDialog)
	r.RegisterMultiple(ContextSettings, []string{"tab", "down"}, ActionNextField)
	r.RegisterMultiple(ContextSettings, []string{"shift+tab", "up"}, ActionPrevField)
	r.Register(ContextSettings, " ", ActionToggle)
}

func registerDialogBindings(r *Registry) {
	r.RegisterMultiple(ContextDialog, []string{"esc", "enter", "q"}, ActionCloseDialog)
	r.RegisterMultiple(ContextDialog, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextDialog, []string{"down", "j"}, ActionNavigateDown)
}

func registerRecentBindings(r *Registry) {
	r.Register(ContextRecent, "esc", ActionCloseDialog)
	r.Register(ContextRecent, "enter", ActionSubmit)
	r.RegisterMultiple(ContextRecent, []string{"up", "ctrl+p"}, ActionNavigateUp)
	r.RegisterMultiple(ContextRecent, []string{"down", "ctrl+n"}, ActionNavigateDown)
}
