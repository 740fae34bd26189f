// Package commands provides a console backend that dispatches named
// commands with shell-style arguments, for hosts that want classic
// console commands alongside or instead of the scripting backend.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/shell"

	"github.com/halfgrid/conch/pkg/console"
)

// Defaults for a newly constructed table.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultQueueSize = 64
)

// ErrClosed is returned when using a table after Close.
var ErrClosed = errors.New("commands: table is closed")

// Handler runs one console command. args excludes the command name.
// Output belongs on out; a returned error is reported to the console
// as a diagnostic.
type Handler func(ctx context.Context, args []string, out console.Sink) error

// Command is one named console command.
type Command struct {
	// Name invokes the command. Required, single word.
	Name string
	// Usage is the argument synopsis, like "spawn <entity> [count]".
	Usage string
	// Help is a one-line description shown by the help command.
	Help string
	// Handler runs the command. Required.
	Handler Handler
}

// Table dispatches console commands to registered handlers. Handlers
// run one at a time on a worker goroutine, in submission order, so a
// slow command never blocks the frame loop and two commands never
// interleave.
type Table struct {
	logger    *zap.Logger
	timeout   time.Duration
	queueSize int

	mu       sync.RWMutex
	commands map[string]Command

	queue     chan *job
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	gen  atomic.Uint64
	echo atomic.Bool
}

type job struct {
	name string
	fn   func() error
	done chan error
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the table's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTimeout bounds each handler invocation. Zero restores the
// default; negative leaves handlers unbounded.
func WithTimeout(d time.Duration) Option {
	return func(t *Table) {
		if d == 0 {
			d = DefaultTimeout
		}
		t.timeout = d
	}
}

// WithQueueSize sets how many submissions may wait for the worker.
func WithQueueSize(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.queueSize = n
		}
	}
}

// WithEcho sets whether executed commands are echoed to the output
// sink ahead of their results. Echo is on unless disabled.
func WithEcho(enabled bool) Option {
	return func(t *Table) {
		t.echo.Store(enabled)
	}
}

// NewTable builds an empty command table and starts its worker.
func NewTable(opts ...Option) *Table {
	t := &Table{
		logger:    zap.NewNop(),
		timeout:   DefaultTimeout,
		queueSize: DefaultQueueSize,
		commands:  make(map[string]Command),
		done:      make(chan struct{}),
	}
	t.echo.Store(true)
	for _, opt := range opts {
		opt(t)
	}
	t.queue = make(chan *job, t.queueSize)

	go t.run()
	return t
}

// Register adds a command, replacing any previous command of the same
// name.
func (t *Table) Register(cmd Command) error {
	if cmd.Name == "" {
		return errors.New("commands: name is required")
	}
	if strings.IndexFunc(cmd.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("commands: name %q must be a single word", cmd.Name)
	}
	if cmd.Handler == nil {
		return fmt.Errorf("commands: command %q needs a handler", cmd.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.commands[cmd.Name]; exists {
		t.logger.Debug("replacing command", zap.String("command", cmd.Name))
	}
	t.commands[cmd.Name] = cmd
	return nil
}

// Lookup returns the command registered under name.
func (t *Table) Lookup(name string) (Command, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cmd, ok := t.commands[name]
	return cmd, ok
}

// Names returns all registered command names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	names := lo.Keys(t.commands)
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Commands returns all registered commands, sorted by name.
func (t *Table) Commands() []Command {
	t.mu.RLock()
	cmds := lo.Values(t.commands)
	t.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// EchoEnabled reports whether executed commands are echoed back to
// the output sink ahead of their results.
func (t *Table) EchoEnabled() bool {
	return t.echo.Load()
}

// SetEcho toggles command echo.
func (t *Table) SetEcho(enabled bool) {
	t.echo.Store(enabled)
}

// Execute queues the command line for dispatch. It never blocks the
// caller; when the queue is full the command is dropped and the drop
// reported on sink.
func (t *Table) Execute(sink console.Sink, command string) {
	if t.closed.Load() {
		t.logger.Debug("command dropped, table closed", zap.String("command", command))
		return
	}
	if sink == nil {
		sink = console.SinkFunc(func(string) {})
	}
	out := &guardedSink{table: t, sink: sink}
	j := &job{name: "execute", fn: func() error {
		t.executeOnWorker(out, command)
		return nil
	}}

	select {
	case <-t.done:
		t.logger.Debug("command dropped, table closed", zap.String("command", command))
	case t.queue <- j:
	default:
		t.logger.Warn("command queue full, command dropped", zap.String("command", command))
		sink.Append("console busy, command dropped\n")
	}
}

func (t *Table) executeOnWorker(out *guardedSink, command string) {
	out.gen = t.gen.Load()

	if t.echo.Load() {
		out.Append("> " + command + "\n")
	}

	fields, err := shell.Fields(command, nil)
	if err != nil {
		out.Append("parse error: " + err.Error() + "\n")
		return
	}
	if len(fields) == 0 {
		return
	}

	name, args := fields[0], fields[1:]
	cmd, ok := t.Lookup(name)
	if !ok {
		out.Append("unknown command: " + name + "\n")
		if suggestion, ok := t.suggest(name); ok {
			out.Append(fmt.Sprintf("did you mean %q?\n", suggestion))
		}
		return
	}

	ctx := context.Background()
	cancel := func() {}
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	}
	defer cancel()

	started := time.Now()
	if err := t.runHandler(ctx, cmd, args, out); err != nil {
		out.Append(cmd.Name + ": " + err.Error() + "\n")
	}
	t.logger.Debug("command finished",
		zap.String("command", cmd.Name),
		zap.Duration("took", time.Since(started)))
}

// runHandler isolates handler panics so one bad command cannot take
// down the worker.
func (t *Table) runHandler(ctx context.Context, cmd Command, args []string, out console.Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return cmd.Handler(ctx, args, out)
}

func (t *Table) suggest(name string) (string, bool) {
	matches := fuzzy.Find(name, t.Names())
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

// Complete cycles through command names matching the word under the
// caret. Only the command position, the first word of the line,
// completes; arguments are left alone.
func (t *Table) Complete(in console.CompletionInput, forward bool) {
	runes := []rune(in.Text())
	caret := in.Caret()
	if caret > len(runes) {
		caret = len(runes)
	}
	if caret < 0 {
		caret = 0
	}

	start := caret
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	for _, r := range runes[:start] {
		if !unicode.IsSpace(r) {
			return
		}
	}
	word := string(runes[start:caret])

	stem := word
	if last, ok := in.LastEntry(); ok {
		stem = last
	}
	if stem == "" {
		return
	}

	matches := fuzzy.Find(stem, t.Names())
	if len(matches) == 0 {
		return
	}
	candidates := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = m.Str
	}

	idx := lo.IndexOf(candidates, word)
	switch {
	case idx < 0 && forward:
		idx = 0
	case idx < 0:
		idx = len(candidates) - 1
	case forward:
		idx = (idx + 1) % len(candidates)
	default:
		idx = (idx - 1 + len(candidates)) % len(candidates)
	}

	candidate := candidates[idx]
	in.SetText(string(runes[:start]) + candidate + string(runes[caret:]))
	in.SetCaret(start + len([]rune(candidate)))
	in.SetLastEntry(stem)
}

// Hint returns the best command name extending text, for hosts that
// draw an inline suggestion. It hints only while the caret sits at the
// end of a partial first word.
func (t *Table) Hint(text string, caret int) string {
	runes := []rune(text)
	if len(runes) == 0 || caret != len(runes) {
		return ""
	}
	if strings.ContainsFunc(text, unicode.IsSpace) {
		return ""
	}

	for _, match := range fuzzy.Find(text, t.Names()) {
		if match.Str != text && strings.HasPrefix(match.Str, text) {
			return match.Str
		}
	}
	return ""
}

// Reset cuts off output from commands started before it. The table
// keeps no evaluation state across commands, so there is nothing else
// to discard.
func (t *Table) Reset() {
	t.gen.Add(1)
}

// Flush blocks until every command queued before it has run.
func (t *Table) Flush(ctx context.Context) error {
	return t.submit(ctx, "flush", func() error { return nil })
}

// Close stops the worker. Pending commands are dropped.
func (t *Table) Close() {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.gen.Add(1)
		close(t.done)
	})
}

func (t *Table) submit(ctx context.Context, name string, fn func() error) error {
	if t.closed.Load() {
		return ErrClosed
	}
	j := &job{name: name, fn: fn, done: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	case t.queue <- j:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-j.done:
		if !ok {
			return ErrClosed
		}
		return err
	case <-t.done:
		select {
		case err, ok := <-j.done:
			if !ok {
				return ErrClosed
			}
			return err
		default:
			return ErrClosed
		}
	}
}

func (t *Table) run() {
	for {
		select {
		case <-t.done:
			t.drain()
			return
		case j := <-t.queue:
			t.handle(j)
		}
	}
}

func (t *Table) handle(j *job) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.fn()
	}()
	if err != nil {
		t.logger.Debug("job failed", zap.String("job", j.name), zap.Error(err))
	}
	t.finish(j, err)
}

func (t *Table) drain() {
	for {
		select {
		case j := <-t.queue:
			t.finish(j, ErrClosed)
		default:
			return
		}
	}
}

func (t *Table) finish(j *job, err error) {
	if j.done == nil {
		return
	}
	select {
	case j.done <- err:
	default:
	}
	close(j.done)
}

// guardedSink forwards output only while the generation it was issued
// under is current, so a handler that keeps writing from its own
// goroutine after a reset cannot reach the scrollback.
type guardedSink struct {
	table *Table
	gen   uint64
	sink  console.Sink
}

func (g *guardedSink) Append(text string) {
	if g.table.gen.Load() != g.gen {
		g.table.logger.Debug("dropping output from before reset")
		return
	}
	g.sink.Append(text)
}
