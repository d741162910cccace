package editor

import (
	"slices"
	"strings"
)

// Action is a keyboard-bound editor command.
type Action string

const (
	ActionToggleGrid Action = "toggle-grid"
	ActionToggleSnap Action = "toggle-snap"
	ActionDeselect   Action = "deselect"
	ActionDelete     Action = "delete"
	ActionDuplicate  Action = "duplicate"
	ActionUndo       Action = "undo"
	ActionRedo       Action = "redo"
)

// Keymap binds normalized key chords to actions.
type Keymap map[string]Action

// DefaultKeymap returns the stock bindings.
func DefaultKeymap() Keymap {
	return Keymap{
		"g":            ActionToggleGrid,
		"s":            ActionToggleSnap,
		"escape":       ActionDeselect,
		"delete":       ActionDelete,
		"backspace":    ActionDelete,
		"ctrl+d":       ActionDuplicate,
		"ctrl+z":       ActionUndo,
		"ctrl+shift+z": ActionRedo,
		"ctrl+y":       ActionRedo,
	}
}

// Lookup returns the action bound to key, if any.
func (k Keymap) Lookup(key string) (Action, bool) {
	a, ok := k[NormalizeKey(key)]
	return a, ok
}

var modifierOrder = []string{"ctrl", "alt", "shift"}

// NormalizeKey lowercases a chord, maps meta/cmd to ctrl, spells "esc" and
// "del" out, and orders modifiers ctrl, alt, shift.
func NormalizeKey(key string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), "+")
	var mods []string
	base := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "meta", "cmd", "command", "control":
			p = "ctrl"
		case "option":
			p = "alt"
		case "esc":
			p = "escape"
		case "del":
			p = "delete"
		}
		if slices.Contains(modifierOrder, p) {
			if !slices.Contains(mods, p) {
				mods = append(mods, p)
			}
			continue
		}
		base = p
	}
	slices.SortFunc(mods, func(a, b string) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	return strings.Join(append(mods, base), "+")
}
