package console

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/halfgrid/conch/pkg/history"
)

const (
	// DefaultTabText is inserted for the Tab action.
	DefaultTabText = "    "
	// DefaultNewlineText is inserted for the Newline action.
	DefaultNewlineText = "\n"
	// DefaultHistorySize bounds the command log when no history is
	// supplied.
	DefaultHistorySize = 100
)

// Input is the console's editing core. It owns the text buffer, the
// caret, the selection, the kill ring and the completion state, holds
// the command history and the interpreter, and is the single mutation
// point all features funnel through: after any handled operation the
// caret stays within [0, len] and an active selection always covers a
// valid range.
type Input struct {
	buf    Buffer
	caret  Caret
	sel    Selection
	kills  KillRing
	hist   *history.Log
	keymap *KeyMap
	interp Interpreter
	sink   Sink
	clip   Clipboard
	logger *zap.Logger

	// Features receive every classified operation, in this order:
	// movement, deletion, insertion, clipboard, kill ring, history
	// recall, completion, execute.
	features []feature

	tabText     string
	newlineText string

	lastComplete    string
	hasLastComplete bool
}

// Option configures an Input.
type Option func(*Input)

// WithKeyMap replaces the default key bindings.
func WithKeyMap(km *KeyMap) Option {
	return func(in *Input) {
		if km != nil {
			in.keymap = km
		}
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(in *Input) {
		if c != nil {
			in.clip = c
		}
	}
}

// WithHistory supplies a shared command log, for example one attached
// to a persistent store.
func WithHistory(log *history.Log) Option {
	return func(in *Input) {
		if log != nil {
			in.hist = log
		}
	}
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Input) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithBlinkInterval sets the caret blink half-period.
func WithBlinkInterval(d time.Duration) Option {
	return func(in *Input) {
		in.caret.SetBlinkInterval(d)
	}
}

// WithTabText sets the text inserted for the Tab action.
func WithTabText(text string) Option {
	return func(in *Input) {
		in.tabText = text
	}
}

// WithNewlineText sets the text inserted for the Newline action.
func WithNewlineText(text string) Option {
	return func(in *Input) {
		in.newlineText = text
	}
}

// New builds an Input around the given interpreter and output sink.
// Both are required; passing nil is a configuration error.
func New(interp Interpreter, sink Sink, opts ...Option) (*Input, error) {
	if interp == nil {
		return nil, errors.New("console: interpreter is required")
	}
	if sink == nil {
		return nil, errors.New("console: output sink is required")
	}

	in := &Input{
		interp:      interp,
		sink:        sink,
		clip:        SystemClipboard{},
		keymap:      DefaultKeyMap(),
		logger:      zap.NewNop(),
		tabText:     DefaultTabText,
		newlineText: DefaultNewlineText,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.hist == nil {
		in.hist = history.NewLog(DefaultHistorySize)
	}

	in.features = []feature{
		movementFeature{},
		deletionFeature{},
		insertionFeature{},
		clipboardFeature{},
		killFeature{},
		historyFeature{},
		completionFeature{},
		executeFeature{},
	}
	return in, nil
}

// HandleEvent classifies and applies one raw input event, reporting
// whether the event meant anything to the console.
func (in *Input) HandleEvent(ev Event) bool {
	op, ok := in.keymap.Classify(ev)
	if !ok {
		return false
	}
	in.Apply(op)
	return true
}

// Apply dispatches a classified operation to every feature in order.
func (in *Input) Apply(op Op) {
	for _, f := range in.features {
		f.handle(in, op)
	}
}

// Tick advances time-driven state (the caret blink) by dt.
func (in *Input) Tick(dt time.Duration) {
	in.caret.Tick(dt)
}

// Text returns the current line.
func (in *Input) Text() string {
	return in.buf.String()
}

// SetText replaces the line, clears the selection and moves the caret
// to the end. Counts as a direct edit: the history recall position is
// reset.
func (in *Input) SetText(text string) {
	in.buf.SetString(text)
	in.sel.Clear()
	in.caret.End(in.buf.Len())
	in.hist.ResetCursor()
}

// Caret returns the caret index.
func (in *Input) Caret() int {
	return in.caret.Index()
}

// SetCaret moves the caret, clamped into the buffer. The selection is
// left alone; use ClickAt for pointer-style placement.
func (in *Input) SetCaret(i int) {
	in.caret.MoveTo(i, in.buf.Len())
}

// CaretVisible reports the caret's blink visibility.
func (in *Input) CaretVisible() bool {
	return in.caret.Visible()
}

// Selection returns the active selection as a normalized [start, end)
// range. ok is false when nothing is selected.
func (in *Input) Selection() (start, end int, ok bool) {
	caret := in.caret.Index()
	if !in.sel.Has(caret) {
		return 0, 0, false
	}
	start, end = in.sel.Range(caret)
	return start, end, true
}

// SelectedText returns the selected text, if any.
func (in *Input) SelectedText() (string, bool) {
	start, end, ok := in.Selection()
	if !ok {
		return "", false
	}
	return in.buf.Slice(start, end), true
}

// History returns the command log.
func (in *Input) History() *history.Log {
	return in.hist
}

// LastEntry returns the completion entry suggested by the previous
// completion call.
func (in *Input) LastEntry() (string, bool) {
	return in.lastComplete, in.hasLastComplete
}

// SetLastEntry records the completion entry just suggested.
func (in *Input) SetLastEntry(entry string) {
	in.lastComplete = entry
	in.hasLastComplete = true
}

// ClickAt handles a host pointer press: the selection collapses and
// the caret moves to i.
func (in *Input) ClickAt(i int) {
	in.moveCaret(i, false)
}

// DragTo handles a host pointer drag: the selection extends from the
// press position to i.
func (in *Input) DragTo(i int) {
	in.moveCaret(i, true)
}

// moveCaret applies a movement to the target index. Selecting moves
// extend the selection from the pre-move caret; plain moves clear it
// first.
func (in *Input) moveCaret(target int, selecting bool) {
	if selecting {
		in.sel.BeginOrExtend(in.caret.Index())
	} else {
		in.sel.Clear()
	}
	in.caret.MoveTo(target, in.buf.Len())
}

// insertText replaces any active selection with text and advances the
// caret past it. The insertion is atomic: multi-rune text moves the
// caret once.
func (in *Input) insertText(text string) {
	if text == "" {
		return
	}
	in.deleteSelection()
	n := in.buf.InsertAt(in.caret.Index(), text)
	in.caret.MoveBy(n, in.buf.Len())
	in.sel.Clear()
}

// deleteSelection removes the selected range, if any, and parks the
// caret at its start.
func (in *Input) deleteSelection() bool {
	caret := in.caret.Index()
	if !in.sel.Has(caret) {
		in.sel.Clear()
		return false
	}
	start, end := in.sel.Range(caret)
	in.removeRange(start, end)
	return true
}

// removeRange deletes [start, end) and parks the caret at start.
func (in *Input) removeRange(start, end int) {
	in.buf.RemoveRange(start, end)
	in.sel.Clear()
	in.caret.MoveTo(start, in.buf.Len())
}

// killRange removes [start, end) and records the removed text in the
// kill ring.
func (in *Input) killRange(start, end int, direction killDirection) {
	start = clamp(start, 0, in.buf.Len())
	end = clamp(end, start, in.buf.Len())
	killed := []rune(in.buf.Slice(start, end))
	if len(killed) > 0 {
		in.removeRange(start, end)
	}
	in.kills.Record(killed, direction)
}

// setRecalled replaces the line with a history entry without
// disturbing the recall cursor.
func (in *Input) setRecalled(text string) {
	in.buf.SetString(text)
	in.sel.Clear()
	in.caret.End(in.buf.Len())
}

// clearLine empties the line and the per-line state.
func (in *Input) clearLine() {
	in.buf.Clear()
	in.sel.Clear()
	in.caret.Home()
	in.hist.ResetCursor()
}

func (in *Input) clearLastEntry() {
	in.lastComplete = ""
	in.hasLastComplete = false
}

// sanitizeText normalizes line endings and drops control characters
// that have no place in the line buffer.
func sanitizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
