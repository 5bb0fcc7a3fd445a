package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser keybindings. Keys not bound here go to the
// content pane, which scrolls with the bubbles viewport defaults.
type KeyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Forward  key.Binding
	Open     key.Binding
	NextLink key.Binding
	PrevLink key.Binding
	Follow   key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("H", "backspace"),
			key.WithHelp("H", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "forward"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", ":"),
			key.WithHelp("o", "open path"),
		),
		NextLink: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next link"),
		),
		PrevLink: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev link"),
		),
		Follow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "follow"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Back, k.Forward, k.Open, k.NextLink, k.Follow, k.Quit}
}
