package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_InsertAt_Middle(t *testing.T) {
	b := &Buffer{}
	b.SetString("held")

	n := b.InsertAt(2, "llo wor")

	assert.Equal(t, 7, n, "InsertAt should report the rune count inserted")
	assert.Equal(t, "hello world", b.String())
}

func TestBuffer_InsertAt_ClampsIndex(t *testing.T) {
	b := &Buffer{}
	b.SetString("ab")

	b.InsertAt(99, "c")
	b.InsertAt(-5, "z")

	assert.Equal(t, "zabc", b.String(), "out-of-range indices clamp to the ends")
}

func TestBuffer_InsertAt_CountsRunesNotBytes(t *testing.T) {
	b := &Buffer{}

	n := b.InsertAt(0, "héllo")

	assert.Equal(t, 5, n, "multi-byte characters count as one rune")
	assert.Equal(t, 5, b.Len())
}

func TestBuffer_RemoveRange(t *testing.T) {
	b := &Buffer{}
	b.SetString("abcdef")

	b.RemoveRange(1, 3)

	assert.Equal(t, "adef", b.String())
}

func TestBuffer_RemoveRange_ClampsAndIgnoresEmpty(t *testing.T) {
	b := &Buffer{}
	b.SetString("abc")

	b.RemoveRange(2, 2)
	assert.Equal(t, "abc", b.String(), "empty range removes nothing")

	b.RemoveRange(-4, 1)
	assert.Equal(t, "bc", b.String(), "negative start clamps to zero")

	b.RemoveRange(1, 99)
	assert.Equal(t, "b", b.String(), "end past the buffer clamps to the length")
}

func TestBuffer_Slice_Clamps(t *testing.T) {
	b := &Buffer{}
	b.SetString("abcdef")

	assert.Equal(t, "bcd", b.Slice(1, 4))
	assert.Equal(t, "abcdef", b.Slice(-3, 99))
	assert.Equal(t, "", b.Slice(4, 2), "inverted ranges collapse to empty")
}

func TestBuffer_PrevWordIndex(t *testing.T) {
	b := &Buffer{}
	b.SetString("foo  bar baz")

	assert.Equal(t, 9, b.PrevWordIndex(12), "from the end, back to the start of baz")
	assert.Equal(t, 5, b.PrevWordIndex(9), "trailing whitespace is skipped before the word")
	assert.Equal(t, 0, b.PrevWordIndex(5))
	assert.Equal(t, 0, b.PrevWordIndex(0), "no-op at the start")
}

func TestBuffer_NextWordIndex(t *testing.T) {
	b := &Buffer{}
	b.SetString("foo  bar baz")

	assert.Equal(t, 3, b.NextWordIndex(0))
	assert.Equal(t, 8, b.NextWordIndex(3), "leading whitespace is skipped before the word")
	assert.Equal(t, 12, b.NextWordIndex(8))
	assert.Equal(t, 12, b.NextWordIndex(12), "no-op at the end")
}

func TestBuffer_Runes_ReturnsCopy(t *testing.T) {
	b := &Buffer{}
	b.SetString("abc")

	runes := b.Runes()
	runes[0] = 'X'

	assert.Equal(t, "abc", b.String(), "mutating the copy must not touch the buffer")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, clamp(3, 0, 5))
	assert.Equal(t, 0, clamp(-2, 0, 5))
	assert.Equal(t, 5, clamp(9, 0, 5))
	assert.Equal(t, 2, clamp(1, 3, 2), "swapped bounds still clamp")
}
