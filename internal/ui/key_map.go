package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	capture key.Binding
	open    key.Binding
	reset   key.Binding
	history key.Binding
	back    key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		capture: key.NewBinding(key.WithKeys("c", " "), key.WithHelp("c/space", "capture")),
		open:    key.NewBinding(key.WithKeys("o", "enter"), key.WithHelp("o", "open product page")),
		reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		history: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.capture, k.open, k.reset, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.capture, k.open, k.reset},
		{k.history, k.back},
		{k.help, k.quit},
	}
}
