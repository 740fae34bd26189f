package console

// Selection is an optional contiguous span over the buffer, anchored
// at one end and extended by the caret. The selected range is
// [min(anchor, caret), max(anchor, caret)) regardless of drag
// direction; the selection itself never stores the caret.
type Selection struct {
	anchor int
	active bool
}

// Active reports whether a selection is in progress. An active
// selection may still be empty; see Has.
func (s *Selection) Active() bool {
	return s.active
}

// Anchor returns the fixed end of the selection.
func (s *Selection) Anchor() int {
	return s.anchor
}

// Begin starts a selection anchored at i.
func (s *Selection) Begin(i int) {
	s.anchor = i
	s.active = true
}

// BeginOrExtend anchors a new selection at the current caret position
// if none is active. Call before moving the caret on a selecting
// movement; the moved caret then extends the span.
func (s *Selection) BeginOrExtend(caret int) {
	if !s.active {
		s.Begin(caret)
	}
}

// Clear deactivates the selection. Clearing an inactive selection is
// a no-op.
func (s *Selection) Clear() {
	s.active = false
	s.anchor = 0
}

// Has reports whether a non-empty selection exists for the given
// caret position.
func (s *Selection) Has(caret int) bool {
	return s.active && s.anchor != caret
}

// Range returns the normalized span [start, end) for the given caret
// position. start == end when nothing is selected.
func (s *Selection) Range(caret int) (start, end int) {
	if !s.active {
		return caret, caret
	}
	if s.anchor <= caret {
		return s.anchor, caret
	}
	return caret, s.anchor
}

// Clamp constrains the anchor into [0, max].
func (s *Selection) Clamp(max int) {
	s.anchor = clamp(s.anchor, 0, max)
}
