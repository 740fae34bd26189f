package console

import (
	"fmt"
	"strings"
	"unicode"
)

// Binding associates one key chord with a classified operation.
// Rune bindings (ctrl+letter chords) set Key to KeyRune and Rune to
// the lowercase letter.
type Binding struct {
	Key    Key
	Rune   rune
	Mod    Mod
	Action Action
	Select bool
}

func (b Binding) matches(ev Event) bool {
	if b.Key != ev.Key || b.Mod != ev.Mod {
		return false
	}
	if b.Key == KeyRune {
		return b.Rune == unicode.ToLower(ev.Rune)
	}
	return true
}

// KeyMap classifies raw input events into operations. Classification
// is a pure lookup: bindings first, then plain printable characters
// become Insert ops. Unmatched events classify to nothing.
type KeyMap struct {
	bindings []Binding
}

// DefaultKeyMap returns the default bindings: arrow and word movement
// with shift-selection variants, emacs-style kill keys, clipboard
// chords, tab-cycled completion and arrow-key history recall.
func DefaultKeyMap() *KeyMap {
	km := &KeyMap{}
	for _, b := range []Binding{
		{Key: KeyLeft, Action: MoveLeft},
		{Key: KeyLeft, Mod: ModShift, Action: MoveLeft, Select: true},
		{Key: KeyLeft, Mod: ModCtrl, Action: MoveWordLeft},
		{Key: KeyLeft, Mod: ModCtrl | ModShift, Action: MoveWordLeft, Select: true},
		{Key: KeyRight, Action: MoveRight},
		{Key: KeyRight, Mod: ModShift, Action: MoveRight, Select: true},
		{Key: KeyRight, Mod: ModCtrl, Action: MoveWordRight},
		{Key: KeyRight, Mod: ModCtrl | ModShift, Action: MoveWordRight, Select: true},
		{Key: KeyHome, Action: MoveHome},
		{Key: KeyHome, Mod: ModShift, Action: MoveHome, Select: true},
		{Key: KeyEnd, Action: MoveEnd},
		{Key: KeyEnd, Mod: ModShift, Action: MoveEnd, Select: true},
		{Key: KeyRune, Rune: 'b', Mod: ModAlt, Action: MoveWordLeft},
		{Key: KeyRune, Rune: 'f', Mod: ModAlt, Action: MoveWordRight},
		{Key: KeyRune, Rune: 'e', Mod: ModCtrl, Action: MoveEnd},
		{Key: KeyBackspace, Action: DeleteBack},
		{Key: KeyDelete, Action: DeleteForward},
		{Key: KeyRune, Rune: 'u', Mod: ModCtrl, Action: KillLineStart},
		{Key: KeyRune, Rune: 'k', Mod: ModCtrl, Action: KillLineEnd},
		{Key: KeyRune, Rune: 'w', Mod: ModCtrl, Action: KillWordBack},
		{Key: KeyRune, Rune: 'd', Mod: ModAlt, Action: KillWordForward},
		{Key: KeyRune, Rune: 'y', Mod: ModCtrl, Action: Yank},
		{Key: KeyRune, Rune: 'c', Mod: ModCtrl, Action: Copy},
		{Key: KeyRune, Rune: 'x', Mod: ModCtrl, Action: Cut},
		{Key: KeyRune, Rune: 'v', Mod: ModCtrl, Action: Paste},
		{Key: KeyRune, Rune: 'a', Mod: ModCtrl, Action: SelectAll},
		{Key: KeyEnter, Action: Execute},
		{Key: KeyEnter, Mod: ModAlt, Action: Newline},
		{Key: KeyTab, Action: CompleteNext},
		{Key: KeyTab, Mod: ModShift, Action: CompletePrev},
		{Key: KeyTab, Mod: ModAlt, Action: Tab},
		{Key: KeyUp, Action: HistoryBack},
		{Key: KeyDown, Action: HistoryForward},
	} {
		km.Bind(b)
	}
	return km
}

// Bind adds a binding, replacing any existing binding for the same
// chord.
func (km *KeyMap) Bind(b Binding) {
	for i, old := range km.bindings {
		if old.Key == b.Key && old.Rune == b.Rune && old.Mod == b.Mod {
			km.bindings[i] = b
			return
		}
	}
	km.bindings = append(km.bindings, b)
}

// Classify maps a raw event to an operation. The second return is
// false when the event means nothing to the console.
func (km *KeyMap) Classify(ev Event) (Op, bool) {
	for _, b := range km.bindings {
		if b.matches(ev) {
			return Op{Action: b.Action, Select: b.Select}, true
		}
	}
	if ev.Key == KeyRune && ev.Mod&^ModShift == 0 && unicode.IsPrint(ev.Rune) {
		return Op{Action: Insert, Text: string(ev.Rune)}, true
	}
	return Op{}, false
}

var chordKeys = map[string]Key{
	"enter":     KeyEnter,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"left":      KeyLeft,
	"right":     KeyRight,
	"up":        KeyUp,
	"down":      KeyDown,
	"home":      KeyHome,
	"end":       KeyEnd,
}

// ParseChord parses a chord like "ctrl+shift+left" or "alt+d" into a
// binding with no action attached. The last dash-free segment is the
// key; the rest are modifiers.
func ParseChord(chord string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Binding{}, fmt.Errorf("empty key chord %q", chord)
	}

	var b Binding
	for _, part := range parts[:len(parts)-1] {
		switch part {
		case "ctrl":
			b.Mod |= ModCtrl
		case "alt":
			b.Mod |= ModAlt
		case "shift":
			b.Mod |= ModShift
		default:
			return Binding{}, fmt.Errorf("unknown modifier %q in chord %q", part, chord)
		}
	}

	keyPart := parts[len(parts)-1]
	if k, ok := chordKeys[keyPart]; ok {
		b.Key = k
		return b, nil
	}
	if runes := []rune(keyPart); len(runes) == 1 {
		b.Key = KeyRune
		b.Rune = runes[0]
		return b, nil
	}
	return Binding{}, fmt.Errorf("unknown key %q in chord %q", keyPart, chord)
}
