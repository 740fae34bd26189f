// Package output collects interpreter and command output into a
// bounded scrollback buffer that a console view renders.
package output

import (
	"strings"
	"sync"
)

// DefaultMaxLines bounds a Buffer built with a non-positive capacity.
const DefaultMaxLines = 2000

// Buffer is a bounded scrollback of output lines. Its Append matches
// the console's output sink signature, and appends arrive from the
// interpreter's worker goroutine while the host renders, so all
// methods are safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	current  string
	maxLines int
	onChange func()
}

// NewBuffer returns an empty scrollback holding at most maxLines
// complete lines. Non-positive capacities fall back to
// DefaultMaxLines.
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Buffer{maxLines: maxLines}
}

// OnChange registers a callback fired after every append or clear.
// The callback runs outside the buffer's lock, on whichever goroutine
// mutated the buffer.
func (b *Buffer) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Append adds text to the scrollback. Embedded newlines complete
// lines; text after the final newline stays open and is extended by
// the next append.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	b.mu.Lock()
	b.current += text
	parts := strings.Split(b.current, "\n")
	for _, line := range parts[:len(parts)-1] {
		b.lines = append(b.lines, line)
	}
	b.current = parts[len(parts)-1]
	if len(b.lines) > b.maxLines {
		b.lines = b.lines[len(b.lines)-b.maxLines:]
	}
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// AppendLine adds text as one complete line.
func (b *Buffer) AppendLine(text string) {
	b.Append(text + "\n")
}

// Lines returns a copy of the scrollback, oldest first. An open
// partial line is included as the final element.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.lines)+1)
	out = append(out, b.lines...)
	if b.current != "" {
		out = append(out, b.current)
	}
	return out
}

// Len returns the number of lines Lines would return.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.lines)
	if b.current != "" {
		n++
	}
	return n
}

// Clear empties the scrollback. Clearing an already empty buffer is a
// no-op.
func (b *Buffer) Clear() {
	b.mu.Lock()
	changed := len(b.lines) > 0 || b.current != ""
	b.lines = nil
	b.current = ""
	fn := b.onChange
	b.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}
