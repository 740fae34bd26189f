package overlay

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/halfgrid/conch/pkg/console"
)

// translateKey converts a terminal key message into console events.
// Rune input may carry several runes at once when the terminal pastes;
// each becomes its own event. Everything else round-trips through the
// chord parser, so the overlay and the key map agree on naming. Keys
// the console has no notion of, such as esc or pgup, translate to
// nothing and stay with the overlay.
func translateKey(msg tea.KeyMsg) ([]console.Event, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt && len(msg.Runes) == 1 {
			// Alt chords like alt+b arrive as a rune with the
			// alt flag set. They address key bindings, not text.
			return []console.Event{{Key: console.KeyRune, Rune: msg.Runes[0], Mod: console.ModAlt}}, true
		}
		evs := make([]console.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			evs = append(evs, console.RuneEvent(r))
		}
		return evs, len(evs) > 0
	case tea.KeySpace:
		return []console.Event{console.RuneEvent(' ')}, true
	}

	b, err := console.ParseChord(msg.String())
	if err != nil {
		return nil, false
	}
	return []console.Event{{Key: b.Key, Rune: b.Rune, Mod: b.Mod}}, true
}
