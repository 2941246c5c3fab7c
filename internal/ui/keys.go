package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/jscyril/sonicstream/internal/config"
)

// keyMap holds the bindings shown in the help line
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	PlayPause   key.Binding
	Next        key.Binding
	Previous    key.Binding
	SeekForward key.Binding
	SeekBack    key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Mute        key.Binding
	Loop        key.Binding
	Search      key.Binding
	Quit        key.Binding
}

// newKeyMap builds bindings from the configured keys
func newKeyMap(km config.KeyMap) keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		PlayPause:   binding(km.PlayPause, "play/pause"),
		Next:        binding(km.Next, "next"),
		Previous:    binding(km.Previous, "prev"),
		SeekForward: binding(km.SeekForward, "seek +"),
		SeekBack:    binding(km.SeekBack, "seek -"),
		VolumeUp:    binding(km.VolumeUp, "vol +", "="),
		VolumeDown:  binding(km.VolumeDown, "vol -"),
		Mute:        binding(km.Mute, "mute"),
		Loop:        binding(km.Loop, "loop"),
		Search:      binding(km.Search, "search"),
		Quit:        binding(km.Quit, "quit", "ctrl+c"),
	}
}

func binding(k, desc string, extra ...string) key.Binding {
	keys := append([]string{k}, extra...)
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keyLabel(k), desc))
}

func keyLabel(k string) string {
	switch k {
	case " ":
		return "space"
	case "right":
		return "→"
	case "left":
		return "←"
	default:
		return k
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.PlayPause, k.Next, k.Previous, k.Search, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Search},
		{k.PlayPause, k.Next, k.Previous, k.SeekForward, k.SeekBack},
		{k.VolumeUp, k.VolumeDown, k.Mute, k.Loop, k.Quit},
	}
}
