package tui

import (
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/session"
	"github.com/ferrum-editor/ferrum/internal/settings"
	"github.com/ferrum-editor/ferrum/internal/types"
)

type configLoadedMsg struct {
	config types.Config
	err    error
}

type documentLoadedMsg struct {
	session *session.Controller
	err     error
}

type documentSavedMsg struct {
	session *session.Controller
	err     error
}

type settingsSavedMsg struct {
	outcome settings.Outcome
	err     error
}

type recentLoadedMsg struct {
	documents []journal.Document
	err       error
}

type uploadedMsg struct {
	name string
	err  error
}

// wakeMsg asks for a re-render after state changed off the event loop
type wakeMsg struct{}

type clearToastMsg struct {
	seq int
}
