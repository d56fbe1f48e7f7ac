/*
Package tui implements the terminal editor.

# Architecture

The TUI follows the Bubble Tea Model-Update-View pattern. App is the root
model; it owns the event bus, the backend client, the journal and the
keybinding registry, and builds these sub-models on mount:

  - header: document title and the edited indicator (fileStatusChange)
  - editorView: the text widget, synced from the session controller
  - sidebar: memory and CPU gauges fed by a telemetry.Bridge
  - settingsDialog: the settings form, pushed through settings.Controller
  - recentModal: fuzzy picker over the journal's recent documents

A successful settings push tears every sub-model down and mounts again from
a freshly fetched config.

# Threading Model

Network calls run as tea.Cmd and report back with messages. The sampler
goroutine and command goroutines never touch the model; they update
atomic gauge values or the toaster and then signal the wake channel, which
a waiting command turns into a re-render.
*/
package tui
