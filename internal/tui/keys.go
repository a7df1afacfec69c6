package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the browser.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Focus     key.Binding
	Back      key.Binding
	Save      key.Binding
	Refresh   key.Binding
	Open      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "open folder"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// TreeHelpText returns the help line shown while the tree has focus.
func (k KeyMap) TreeHelpText(canOpen bool) string {
	text := "↑/↓ navigate • enter open • tab editor • ctrl+s save • ctrl+r refresh"
	if canOpen {
		text += " • ctrl+o open folder"
	}
	return text + " • q quit"
}

// EditorHelpText returns the help line shown while the editor has focus.
func (k KeyMap) EditorHelpText() string {
	return "tab/esc tree • ctrl+s save • ctrl+r refresh • ctrl+c quit"
}

// PromptHelpText returns help text for the folder prompt.
func (k KeyMap) PromptHelpText() string {
	return "tab complete • enter open • esc cancel"
}
