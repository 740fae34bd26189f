package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_Range_NormalizesBothDirections(t *testing.T) {
	s := &Selection{}
	s.Begin(2)

	start, end := s.Range(6)
	assert.Equal(t, 2, start)
	assert.Equal(t, 6, end)

	// Dragging leftwards past the anchor flips the span.
	start, end = s.Range(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
}

func TestSelection_Has_EmptySpanIsNoSelection(t *testing.T) {
	s := &Selection{}
	s.Begin(3)

	assert.False(t, s.Has(3), "anchor == caret selects nothing")
	assert.True(t, s.Has(4))
}

func TestSelection_Range_Inactive(t *testing.T) {
	s := &Selection{}

	start, end := s.Range(5)

	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end, "an inactive selection collapses to the caret")
}

func TestSelection_BeginOrExtend_KeepsExistingAnchor(t *testing.T) {
	s := &Selection{}

	s.BeginOrExtend(2)
	s.BeginOrExtend(7)

	assert.Equal(t, 2, s.Anchor(), "a second selecting move must not re-anchor")
}

func TestSelection_Clear_IsIdempotent(t *testing.T) {
	s := &Selection{}
	s.Begin(3)

	s.Clear()
	assert.False(t, s.Active())

	s.Clear()
	assert.False(t, s.Active(), "clearing an inactive selection is a no-op")
}

func TestSelection_Clamp(t *testing.T) {
	s := &Selection{}
	s.Begin(9)

	s.Clamp(4)

	assert.Equal(t, 4, s.Anchor())
}
