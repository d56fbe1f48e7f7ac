package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the view in which keybindings are active
type Context string

const (
	ContextGlobal   Context = "global"   // Available everywhere
	ContextEditor   Context = "editor"   // Document editor has focus
	ContextSettings Context = "settings" // Settings dialog is open
	ContextDialog   Context = "dialog"   // Read-only dialogs (system info, notices)
	ContextRecent   Context = "recent"   // Recent documents picker
)

const (
	// Application
	ActionQuit      Action = "quit"
	ActionQuitForce Action = "quit_force"

	// Document
	ActionSave     Action = "save"
	ActionUndo     Action = "undo"
	ActionCopyPath Action = "copy_path"
	ActionUpload   Action = "upload"

	// Dialog launchers
	ActionOpenSettings Action = "open_settings"
	ActionOpenSysInfo  Action = "open_sysinfo"
	ActionOpenRecent   Action = "open_recent"
	ActionCloseDialog  Action = "close_dialog"

	// Navigation inside dialogs and lists
	ActionNavigateUp   Action = "navigate_up"
	ActionNavigateDown Action = "navigate_down"
	ActionNextField    Action = "next_field"
	ActionPrevField    Action = "prev_field"
	ActionToggle       Action = "toggle"
	ActionSubmit       Action = "submit"
)

// Contexts lists every known context in display order
func Contexts() []Context {
	return []Context{ContextGlobal, ContextEditor, ContextSettings, ContextDialog, ContextRecent}
}

var knownActions = map[Action]string{
	ActionQuit:         "Quit",
	ActionQuitForce:    "Quit without saving",
	ActionSave:         "Save",
	ActionUndo:         "Undo",
	ActionCopyPath:     "Copy document path",
	ActionUpload:       "Upload a local file",
	ActionOpenSettings: "Settings",
	ActionOpenSysInfo:  "System information",
	ActionOpenRecent:   "Recent documents",
	ActionCloseDialog:  "Close",
	ActionNavigateUp:   "Up",
	ActionNavigateDown: "Down",
	ActionNextField:    "Next field",
	ActionPrevField:    "Previous field",
	ActionToggle:       "Toggle",
	ActionSubmit:       "Open",
}

// Describe returns the short label shown in help lines
func (a Action) Describe() string {
	if label, ok := knownActions[a]; ok {
		return label
	}
	return string(a)
}

// IsKnown reports whether the action is handled by the application
func (a Action) IsKnown() bool {
	_, ok := knownActions[a]
	return ok
}

// IsKnown reports whether the context exists
func (c Context) IsKnown() bool {
	for _, known := range Contexts() {
		if c == known {
			return true
		}
	}
	return false
}
