package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	cancel   key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	history  key.Binding
	dismiss  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel job")),
		moveUp:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "priority up")),
		moveDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "priority down")),
		history:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		dismiss:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.cancel, k.history},
		{k.moveUp, k.moveDown, k.quit},
	}
}
