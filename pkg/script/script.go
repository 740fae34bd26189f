// Package script provides the console's Lua scripting backend. Each
// submitted command evaluates as an incremental continuation of one
// sandboxed session, so later commands see the globals earlier ones
// defined.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/halfgrid/conch/pkg/console"
)

// Defaults for a newly constructed interpreter.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultQueueSize         = 128
	DefaultRegistrationDepth = 3
)

// ErrClosed is returned when using an interpreter after Close.
var ErrClosed = errors.New("script: interpreter is closed")

// State describes where the backend is in its lifecycle.
type State int32

const (
	// Cold means no Lua session exists yet.
	Cold State = iota
	// WarmingUp means the session is being built and primed.
	WarmingUp
	// Ready means the session is idle, waiting for commands.
	Ready
	// Executing means a command is evaluating right now.
	Executing
)

func (s State) String() string {
	switch s {
	case Cold:
		return "cold"
	case WarmingUp:
		return "warming-up"
	case Ready:
		return "ready"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// Interp evaluates console commands in a persistent Lua session.
//
// gopher-lua's LState is not goroutine-safe, so every session
// operation is marshalled onto a single worker goroutine through a
// FIFO queue; the queue doubles as the mutual-exclusion token that
// keeps concurrent submissions from interleaving. Construction kicks
// off a background warm-up so the first command does not pay the
// session build cost.
type Interp struct {
	logger    *zap.Logger
	timeout   time.Duration
	queueSize int

	queue     chan *job
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	state atomic.Int32
	gen   atomic.Uint64
	echo  atomic.Bool

	completionsMu sync.Mutex
	completions   []string

	// worker-owned, touched only from run
	session *session
}

type job struct {
	name string
	fn   func() error
	done chan error
}

// Option configures an Interp.
type Option func(*Interp)

// WithLogger sets the interpreter's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Interp) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithTimeout bounds each evaluation. Zero restores the default;
// negative leaves evaluations unbounded.
func WithTimeout(d time.Duration) Option {
	return func(i *Interp) {
		if d == 0 {
			d = DefaultTimeout
		}
		i.timeout = d
	}
}

// WithQueueSize sets how many submissions may wait for the worker.
func WithQueueSize(n int) Option {
	return func(i *Interp) {
		if n > 0 {
			i.queueSize = n
		}
	}
}

// WithEcho sets whether executed commands are echoed to the output
// sink ahead of their results. Echo is on unless disabled.
func WithEcho(enabled bool) Option {
	return func(i *Interp) {
		i.echo.Store(enabled)
	}
}

// New builds an interpreter and starts warming it up in the
// background.
func New(opts ...Option) *Interp {
	i := &Interp{
		logger:    zap.NewNop(),
		timeout:   DefaultTimeout,
		queueSize: DefaultQueueSize,
		done:      make(chan struct{}),
	}
	i.echo.Store(true)
	for _, opt := range opts {
		opt(i)
	}
	i.queue = make(chan *job, i.queueSize)

	go i.run()
	// The first job only exists to pull the session build off the
	// construction path; ensureSession does the warm-up.
	i.queue <- &job{name: "warm-up", fn: func() error { return nil }}
	return i
}

// State reports the backend's lifecycle state.
func (i *Interp) State() State {
	return State(i.state.Load())
}

// EchoEnabled reports whether executed commands are echoed back to
// the output sink ahead of their results.
func (i *Interp) EchoEnabled() bool {
	return i.echo.Load()
}

// SetEcho toggles command echo.
func (i *Interp) SetEcho(enabled bool) {
	i.echo.Store(enabled)
}

// Execute queues the command for evaluation. It never blocks the
// caller; when the queue is full the command is dropped and the drop
// reported on sink.
func (i *Interp) Execute(sink console.Sink, command string) {
	if i.closed.Load() {
		i.logger.Debug("command dropped, interpreter closed", zap.String("command", command))
		return
	}
	if sink == nil {
		sink = console.SinkFunc(func(string) {})
	}
	out := &guardedSink{interp: i, sink: sink}
	j := &job{name: "execute", fn: func() error {
		i.executeOnWorker(out, command)
		return nil
	}}

	select {
	case <-i.done:
		i.logger.Debug("command dropped, interpreter closed", zap.String("command", command))
	case i.queue <- j:
	default:
		i.logger.Warn("execution queue full, command dropped", zap.String("command", command))
		sink.Append("console busy, command dropped\n")
	}
}

// executeOnWorker evaluates one command against the live session and
// reports the result or the diagnostic on out.
func (i *Interp) executeOnWorker(out *guardedSink, command string) {
	out.gen = i.gen.Load()
	s := i.session
	s.out = out
	defer func() { s.out = nil }()

	i.setState(Executing)
	defer i.setState(Ready)

	if i.echo.Load() {
		out.Append("> " + command + "\n")
	}

	result, err := s.eval(command, i.timeout)
	if err != nil {
		out.Append(err.Error() + "\n")
	} else if result != "" {
		out.Append(result + "\n")
	}
	i.publishCompletions(s.collectCompletions())
}

// Reset discards the session and warms a fresh one. The reset takes
// its turn in the queue, so commands submitted before it finish
// against the old session and commands submitted after it see the new
// one.
func (i *Interp) Reset() {
	if i.closed.Load() {
		return
	}
	j := &job{name: "reset", fn: func() error {
		i.gen.Add(1)
		if i.session != nil {
			i.session.close()
			i.session = nil
		}
		i.publishCompletions(nil)
		i.setState(Cold)
		i.ensureSession()
		return nil
	}}

	select {
	case <-i.done:
	case i.queue <- j:
	default:
		// A full queue must not lose the reset or stall the frame
		// loop.
		go func() {
			select {
			case <-i.done:
			case i.queue <- j:
			}
		}()
	}
}

// Flush blocks until every job queued before it has run. Hosts use it
// as a barrier, for example when tearing down a scene.
func (i *Interp) Flush(ctx context.Context) error {
	return i.submit(ctx, "flush", func() error { return nil })
}

// Close stops the worker and releases the session. Pending jobs fail
// with ErrClosed.
func (i *Interp) Close() {
	i.closeOnce.Do(func() {
		i.closed.Store(true)
		i.gen.Add(1)
		close(i.done)
	})
}

// submit queues a job and waits for it to run. The job always runs to
// completion once started, even if ctx expires while waiting.
func (i *Interp) submit(ctx context.Context, name string, fn func() error) error {
	if i.closed.Load() {
		return ErrClosed
	}
	j := &job{name: name, fn: fn, done: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.done:
		return ErrClosed
	case i.queue <- j:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-j.done:
		if !ok {
			return ErrClosed
		}
		return err
	case <-i.done:
		// The worker may have finished the job right as it shut down.
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

func (i *Interp) run() {
	for {
		select {
		case <-i.done:
			i.drain()
			if i.session != nil {
				i.session.close()
				i.session = nil
			}
			i.setState(Cold)
			return
		case j := <-i.queue:
			i.handle(j)
		}
	}
}

// handle runs one job with panic recovery so a misbehaving binding
// cannot take down the worker.
func (i *Interp) handle(j *job) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				switch v := r.(type) {
				case error:
					err = v
				default:
					err = fmt.Errorf("lua panic: %v", v)
				}
			}
		}()
		i.ensureSession()
		return j.fn()
	}()
	if err != nil {
		i.logger.Debug("job failed", zap.String("job", j.name), zap.Error(err))
	}
	i.finish(j, err)
}

// ensureSession builds and primes the Lua session if none is live.
// Every job passes through here, so commands queued behind a cold
// start wait for the warm-up to finish before they evaluate.
func (i *Interp) ensureSession() {
	if i.session != nil {
		return
	}
	i.setState(WarmingUp)
	started := time.Now()

	s := newSession(i.logger)
	if _, err := s.eval("return true", i.timeout); err != nil {
		i.logger.Warn("warm-up evaluation failed", zap.Error(err))
	}
	i.session = s
	i.publishCompletions(s.collectCompletions())
	i.setState(Ready)

	i.logger.Debug("scripting session ready",
		zap.String("session", s.id),
		zap.Duration("took", time.Since(started)))
}

func (i *Interp) drain() {
	for {
		select {
		case j := <-i.queue:
			i.finish(j, ErrClosed)
		default:
			return
		}
	}
}

func (i *Interp) finish(j *job, err error) {
	if j.done == nil {
		return
	}
	select {
	case j.done <- err:
	default:
	}
	close(j.done)
}

func (i *Interp) setState(s State) {
	i.state.Store(int32(s))
}

func (i *Interp) publishCompletions(names []string) {
	i.completionsMu.Lock()
	i.completions = names
	i.completionsMu.Unlock()
}

// guardedSink forwards output only while the session that produced it
// is still the live one, so work abandoned by a reset cannot write
// into the scrollback afterward.
type guardedSink struct {
	interp *Interp
	gen    uint64
	sink   console.Sink
}

func (g *guardedSink) Append(text string) {
	if g.interp.gen.Load() != g.gen {
		g.interp.logger.Debug("dropping output from discarded session")
		return
	}
	g.sink.Append(text)
}
