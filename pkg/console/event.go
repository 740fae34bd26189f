// Package console implements the input-editing core of an in-game
// developer console: a text buffer with caret, selection, kill ring,
// history recall and completion state, driven by classified input
// events and wired to a pluggable command interpreter.
//
// The package is host-independent: a host (game engine, TUI, test)
// converts its native input into Event values and feeds them to an
// Input. See package overlay for a Bubble Tea host adapter.
package console

import "fmt"

// Key identifies the non-printable key of an input event. Printable
// characters arrive as KeyRune with the Rune field set.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
)

var keyNames = map[Key]string{
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyHome:      "home",
	KeyEnd:       "end",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// Mod is a bitmask of modifier keys held during an event.
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether all modifiers in mod are set.
func (m Mod) Has(mod Mod) bool {
	return m&mod == mod
}

// Event is one discrete input event delivered to the console: a typed
// character or a key press with modifiers.
type Event struct {
	Key  Key
	Rune rune
	Mod  Mod
}

// RuneEvent returns an event for a typed printable character.
func RuneEvent(r rune) Event {
	return Event{Key: KeyRune, Rune: r}
}

// KeyEvent returns an event for a non-printable key with modifiers.
func KeyEvent(k Key, mod Mod) Event {
	return Event{Key: k, Mod: mod}
}

func (e Event) String() string {
	if e.Key == KeyRune {
		return fmt.Sprintf("%s%q", modPrefix(e.Mod), e.Rune)
	}
	return modPrefix(e.Mod) + e.Key.String()
}

func modPrefix(m Mod) string {
	var s string
	if m.Has(ModCtrl) {
		s += "ctrl+"
	}
	if m.Has(ModAlt) {
		s += "alt+"
	}
	if m.Has(ModShift) {
		s += "shift+"
	}
	return s
}
