package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pathwise/internal/ui/layout"
)

// Screen defines the interface for all console screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface for screens with their own
// footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is an optional interface for screens that show a status
// in the header, such as the student and current difficulty.
type StatusProvider interface {
	Status() string
}

// InputCapturer is an optional interface for screens that are reading
// free text and want Esc and single-letter keys for themselves.
type InputCapturer interface {
	CapturingInput() bool
}

// RefreshMsg is delivered to a screen when it becomes active again after
// the screen above it was popped.
type RefreshMsg struct{}
