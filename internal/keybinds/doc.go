/*
Package keybinds provides customizable keyboard binding management.

# Overview

Keys map to actions inside a context. The TUI resolves every key press
through Registry.Match using the context of whatever has focus (editor,
settings dialog, read-only dialog, recent documents picker); unmatched keys
fall back to the global context.

# Configuration File Format

Overrides live in ~/.ferrum/keybinds.json. Comments and trailing commas are
accepted. Each section maps an action to a comma separated key list and
replaces the default keys of that action:

	{
	  "version": "1.0",
	  // F2 only, drop ctrl+o
	  "global": { "open_settings": "f2" },
	  "editor": { "save": "ctrl+s,ctrl+w" },
	}

Use "comma" and "space" for those literal keys.

# Reserved Keys

ctrl+c always force-quits; rebinding it produces a warning.

# Listeners

Views that react to actions attach a Listener on mount and call the
returned remove function on unmount:

	remove := listeners.Add(func(a keybinds.Action) bool {
		return a == keybinds.ActionSave && save()
	})
	defer remove()
*/
package keybinds
