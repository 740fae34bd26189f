package console

const killRingMax = 30

// killDirection represents the direction of a kill operation.
type killDirection int

const (
	killDirectionUnknown killDirection = iota
	killDirectionForward
	killDirectionBackward
)

// KillRing stores recently killed (cut) spans of the input line. The
// head (index 0) is the most recent kill. Consecutive kills in the
// same direction coalesce into one entry, Bash-style: forward kills
// append, backward kills prepend.
type KillRing struct {
	ring          [][]rune
	lastDirection killDirection
	lastWasKill   bool
}

// Record stores killed text. Empty kills are not recorded but still
// break the coalescing sequence.
func (kr *KillRing) Record(killed []rune, direction killDirection) {
	if len(killed) == 0 {
		kr.lastWasKill = false
		kr.lastDirection = direction
		return
	}

	cleaned := cloneRunes(killed)
	if kr.lastWasKill && direction == kr.lastDirection && len(kr.ring) > 0 {
		if direction == killDirectionForward {
			kr.ring[0] = append(kr.ring[0], cleaned...)
		} else {
			kr.ring[0] = append(cleaned, kr.ring[0]...)
		}
	} else {
		kr.ring = append([][]rune{cleaned}, kr.ring...)
		if len(kr.ring) > killRingMax {
			kr.ring = kr.ring[:killRingMax]
		}
	}
	kr.lastWasKill = true
	kr.lastDirection = direction
}

// Top returns a copy of the most recent kill.
func (kr *KillRing) Top() ([]rune, bool) {
	if len(kr.ring) == 0 {
		return nil, false
	}
	return cloneRunes(kr.ring[0]), true
}

// Len returns the number of entries in the ring.
func (kr *KillRing) Len() int {
	return len(kr.ring)
}

// BreakSequence marks the kill sequence as interrupted so the next
// kill starts a fresh entry. Called on any non-kill operation.
func (kr *KillRing) BreakSequence() {
	kr.lastWasKill = false
}
