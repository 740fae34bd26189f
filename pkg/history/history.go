// Package history keeps the console's command history: an append-only
// bounded log with a recall cursor, optionally persisted through an
// attached store.
package history

// DefaultCapacity bounds a Log built with a non-positive capacity.
const DefaultCapacity = 100

// noCursor means no recall navigation is in progress.
const noCursor = -1

// Log is an append-only ordered list of executed commands, bounded by
// a capacity with oldest-eviction, plus a cursor for backward/forward
// recall. The cursor never wraps: recalling past either boundary
// reports no entry and stays put.
//
// A Log is driven from a single goroutine (the host's frame loop) and
// is not safe for concurrent use.
type Log struct {
	entries  []string
	capacity int
	cursor   int
	store    Store
}

// NewLog returns an empty log holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		cursor:   noCursor,
	}
}

// Append pushes a command to the tail, evicting the oldest entry past
// capacity, and resets the recall cursor. The command is forwarded to
// an attached store best-effort; store failures are the store's to
// report and never affect the in-memory log.
func (l *Log) Append(command string) {
	l.entries = append(l.entries, command)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	l.cursor = noCursor
	if l.store != nil {
		_ = l.store.Append(command)
	}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// RecallBack moves the recall cursor one entry toward the oldest and
// returns the entry there. From a fresh cursor it returns the newest
// entry. At the oldest entry it reports no entry and does not move.
func (l *Log) RecallBack() (string, bool) {
	if len(l.entries) == 0 {
		return "", false
	}
	switch {
	case l.cursor == noCursor:
		l.cursor = len(l.entries) - 1
	case l.cursor == 0:
		return "", false
	default:
		l.cursor--
	}
	return l.entries[l.cursor], true
}

// RecallForward moves the recall cursor one entry toward the newest
// and returns the entry there. With no recall in progress, or at the
// newest entry, it reports no entry and does not move.
func (l *Log) RecallForward() (string, bool) {
	if l.cursor == noCursor || l.cursor >= len(l.entries)-1 {
		return "", false
	}
	l.cursor++
	return l.entries[l.cursor], true
}

// ResetCursor abandons any recall navigation. Called whenever the
// input line is edited directly so stale recall context cannot leak
// into the next recall.
func (l *Log) ResetCursor() {
	l.cursor = noCursor
}

// Attach connects a persistent store: prior entries are loaded into
// the log (newest entries win when the store holds more than the
// capacity) and future appends are written through.
func (l *Log) Attach(store Store) error {
	if store == nil {
		return nil
	}
	prior, err := store.Load()
	if err != nil {
		return err
	}
	if len(prior) > l.capacity {
		prior = prior[len(prior)-l.capacity:]
	}
	l.entries = append(prior, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	l.cursor = noCursor
	l.store = store
	return nil
}
