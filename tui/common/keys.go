package common

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines shared key bindings across all views.
type KeyMap struct {
	Quit       key.Binding
	ForceQuit  key.Binding
	Refresh    key.Binding
	Search     key.Binding // "/" focuses search input
	Latest     key.Binding
	Hot        key.Binding
	Random     key.Binding // pressing again reshuffles
	NextMode   key.Binding
	Upvote     key.Binding
	Delete     key.Binding // own memes only
	Tip        key.Binding
	JumpNew    key.Binding // n scrolls to the new memes
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	PageDown   key.Binding
	PageUp     key.Binding
	Prices     key.Binding // p refreshes token prices
	SignIn     key.Binding
	Back       key.Binding
	Enter      key.Binding
	ToggleHint key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Latest: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "latest"),
		),
		Hot: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "hot"),
		),
		Random: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "random"),
		),
		NextMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next feed"),
		),
		Upvote: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "upvote"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Tip: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tip"),
		),
		JumpNew: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new memes"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		Prices: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "refresh prices"),
		),
		SignIn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sign in"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		ToggleHint: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "hints"),
		),
	}
}
