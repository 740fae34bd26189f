package console

// Sink receives console output: echoed commands, results and
// diagnostics. Implementations must be safe for use from the
// interpreter's execution goroutine.
type Sink interface {
	Append(text string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(text string)

func (f SinkFunc) Append(text string) {
	f(text)
}

// CompletionInput is the view of the input buffer an interpreter gets
// while completing: the text, the caret, and whatever context it
// recorded on the previous call, so repeated requests cycle instead
// of restarting.
type CompletionInput interface {
	// Text returns the current buffer contents.
	Text() string
	// SetText replaces the buffer contents and moves the caret to the
	// end.
	SetText(text string)
	// Caret returns the caret index.
	Caret() int
	// SetCaret moves the caret, clamped into the buffer.
	SetCaret(i int)
	// LastEntry returns the completion context recorded by the
	// previous completion call, if any.
	LastEntry() (string, bool)
	// SetLastEntry records completion context for the next call.
	SetLastEntry(entry string)
}

// Interpreter turns committed command strings into output. Backends
// may hold state across commands (a scripting session) or be
// stateless (a command table).
type Interpreter interface {
	// Execute runs the command asynchronously. It must not block the
	// caller; results and diagnostics are appended to sink when the
	// command finishes. Concurrent executions are serialized in
	// submission order against the backend's evaluation state.
	Execute(sink Sink, command string)

	// Complete advances or rewinds the completion suggestion for the
	// given input. It mutates in synchronously on the caller's
	// goroutine and must not block; backends that cannot answer
	// immediately skip the request instead.
	Complete(in CompletionInput, forward bool)

	// Reset discards all accumulated evaluation state and returns the
	// backend to a pristine, immediately usable condition. Commands
	// submitted during a reset run against the fresh state.
	Reset()
}

// NopInterpreter is an Interpreter that ignores every command. Useful
// as a placeholder while a host wires up a real backend.
type NopInterpreter struct{}

func (NopInterpreter) Execute(Sink, string)           {}
func (NopInterpreter) Complete(CompletionInput, bool) {}
func (NopInterpreter) Reset()                         {}
