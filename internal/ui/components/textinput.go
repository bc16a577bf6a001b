package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput wraps bubbles/textinput for short codes such as standard ids.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates a focused input limited to maxWidth characters.
func NewTextInput(placeholder string, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}
	return TextInput{Model: ti}
}

// Focus starts accepting keys, seeding the input with value.
func (t *TextInput) Focus(value string) tea.Cmd {
	t.Model.SetValue(value)
	t.Model.CursorEnd()
	return t.Model.Focus()
}

// Blur stops accepting keys.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input accepts keys.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Update handles messages. Spaces are rejected.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "space" {
		return t, nil
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}
