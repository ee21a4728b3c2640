package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Scroll viewport.KeyMap
	Retry  key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Scroll: viewport.DefaultKeyMap(),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "load")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// isScroll reports whether msg is one of the viewport's movement keys.
func (k keyMap) isScroll(msg tea.KeyMsg) bool {
	s := k.Scroll
	return key.Matches(msg, s.Up, s.Down, s.PageUp, s.PageDown, s.HalfPageUp, s.HalfPageDown)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scroll.Down, k.Scroll.Up, k.Scroll.PageDown, k.Retry, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Scroll.Down, k.Scroll.Up, k.Scroll.HalfPageDown, k.Scroll.HalfPageUp},
		{k.Scroll.PageDown, k.Scroll.PageUp, k.Retry, k.Quit},
	}
}
