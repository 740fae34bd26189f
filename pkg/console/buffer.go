package console

import "unicode"

// Buffer is the console's editable line: a rune sequence addressed by
// indices in [0, Len()]. All range arguments are clamped, never
// rejected.
type Buffer struct {
	runes []rune
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	return len(b.runes)
}

func (b *Buffer) String() string {
	return string(b.runes)
}

// Runes returns a copy of the buffer contents.
func (b *Buffer) Runes() []rune {
	return cloneRunes(b.runes)
}

// Slice returns the text in [start, end), clamped to the buffer.
func (b *Buffer) Slice(start, end int) string {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	return string(b.runes[start:end])
}

// InsertAt inserts text before index i and returns the number of runes
// inserted.
func (b *Buffer) InsertAt(i int, text string) int {
	i = clamp(i, 0, len(b.runes))
	ins := []rune(text)
	b.runes = cloneConcatRunes(append(cloneRunes(b.runes[:i]), ins...), b.runes[i:])
	return len(ins)
}

// RemoveRange deletes the runes in [start, end), clamped to the
// buffer.
func (b *Buffer) RemoveRange(start, end int) {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	if start == end {
		return
	}
	b.runes = cloneConcatRunes(b.runes[:start], b.runes[end:])
}

// SetString replaces the buffer contents.
func (b *Buffer) SetString(s string) {
	b.runes = []rune(s)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = nil
}

// PrevWordIndex returns the index of the start of the word before
// from: whitespace left of from is skipped, then the word itself.
func (b *Buffer) PrevWordIndex(from int) int {
	i := clamp(from, 0, len(b.runes))
	for i > 0 && unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	return i
}

// NextWordIndex returns the index just past the word after from:
// whitespace right of from is skipped, then the word itself.
func (b *Buffer) NextWordIndex(from int) int {
	i := clamp(from, 0, len(b.runes))
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	return i
}

// clamp returns v constrained to the range [low, high].
// If high < low, the arguments are swapped.
func clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}

// cloneRunes creates a deep copy of a rune slice.
func cloneRunes(r []rune) []rune {
	clone := make([]rune, len(r))
	copy(clone, r)
	return clone
}

// cloneConcatRunes creates a new rune slice containing the
// concatenation of r1 and r2.
func cloneConcatRunes(r1, r2 []rune) []rune {
	clone := make([]rune, len(r1)+len(r2))
	copy(clone, r1)
	copy(clone[len(r1):], r2)
	return clone
}
