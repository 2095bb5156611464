package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxpage/voxpage/reader"
)

// Session event messages, delivered through the model's event channel.

// StateChangedMsg reports a playback state transition.
type StateChangedMsg struct {
	State reader.State
}

// WordChangedMsg reports a new highlighted word index, -1 for none.
type WordChangedMsg struct {
	Index int
}

// PageChangedMsg reports a page change.
type PageChangedMsg struct {
	Page int
}

// SessionErrorMsg reports a foreground playback failure.
type SessionErrorMsg struct {
	Err error
}

// waitForEvent delivers the next session event as a message. The returned
// command re-arms itself from Update on every receipt.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
