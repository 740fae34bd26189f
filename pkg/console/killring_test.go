package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillRing_Record_SingleKill(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("hello"), killDirectionForward)

	top, ok := kr.Top()
	require.True(t, ok)
	assert.Equal(t, "hello", string(top))
	assert.Equal(t, 1, kr.Len())
}

func TestKillRing_Record_ForwardKillsAppend(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("hello"), killDirectionForward)
	kr.Record([]rune(" world"), killDirectionForward)

	top, ok := kr.Top()
	require.True(t, ok)
	assert.Equal(t, "hello world", string(top), "consecutive forward kills grow one entry at the tail")
	assert.Equal(t, 1, kr.Len())
}

func TestKillRing_Record_BackwardKillsPrepend(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("world"), killDirectionBackward)
	kr.Record([]rune("hello "), killDirectionBackward)

	top, ok := kr.Top()
	require.True(t, ok)
	assert.Equal(t, "hello world", string(top), "consecutive backward kills grow one entry at the head")
}

func TestKillRing_Record_DirectionChangeStartsNewEntry(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("hello"), killDirectionForward)
	kr.Record([]rune("world"), killDirectionBackward)

	assert.Equal(t, 2, kr.Len())
	top, _ := kr.Top()
	assert.Equal(t, "world", string(top), "the most recent kill sits at the head")
}

func TestKillRing_Record_EmptyKillBreaksSequence(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("hello"), killDirectionForward)
	kr.Record(nil, killDirectionForward)
	kr.Record([]rune("world"), killDirectionForward)

	assert.Equal(t, 2, kr.Len(), "an empty kill interrupts coalescing")
}

func TestKillRing_BreakSequence(t *testing.T) {
	kr := &KillRing{}

	kr.Record([]rune("hello"), killDirectionForward)
	kr.BreakSequence()
	kr.Record([]rune("world"), killDirectionForward)

	assert.Equal(t, 2, kr.Len())
}

func TestKillRing_Record_CapsEntries(t *testing.T) {
	kr := &KillRing{}

	for i := 0; i < killRingMax+5; i++ {
		kr.Record([]rune{rune('a' + i)}, killDirectionForward)
		kr.BreakSequence()
	}

	assert.Equal(t, killRingMax, kr.Len())
}

func TestKillRing_Top_EmptyRing(t *testing.T) {
	kr := &KillRing{}

	_, ok := kr.Top()

	assert.False(t, ok)
}

func TestKillRing_Top_IsolatesData(t *testing.T) {
	kr := &KillRing{}
	killed := []rune("test")

	kr.Record(killed, killDirectionForward)
	killed[0] = 'X'

	top, _ := kr.Top()
	assert.Equal(t, "test", string(top), "the ring keeps its own copy of killed text")

	top[0] = 'Y'
	again, _ := kr.Top()
	assert.Equal(t, "test", string(again), "callers get a copy, not the ring's storage")
}
