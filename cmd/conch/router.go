package main

import (
	"context"
	"strings"

	"github.com/halfgrid/conch/pkg/commands"
	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/script"
)

// router splits console traffic between the two backends: lines
// starting with "/" address the command table, everything else runs
// as Lua. Completion and hints follow the same rule, so /sp<tab>
// completes command names while print<tab> completes Lua globals.
type router struct {
	table  *commands.Table
	interp *script.Interp
}

func newRouter(table *commands.Table, interp *script.Interp) *router {
	return &router{table: table, interp: interp}
}

func (r *router) Execute(sink console.Sink, command string) {
	if after, ok := strings.CutPrefix(command, "/"); ok {
		r.table.Execute(sink, after)
		return
	}
	r.interp.Execute(sink, command)
}

func (r *router) Complete(in console.CompletionInput, forward bool) {
	if strings.HasPrefix(in.Text(), "/") {
		r.table.Complete(slashInput{in}, forward)
		return
	}
	r.interp.Complete(in, forward)
}

func (r *router) Reset() {
	r.table.Reset()
	r.interp.Reset()
}

// Flush waits for both backends to drain their queues.
func (r *router) Flush(ctx context.Context) error {
	if err := r.table.Flush(ctx); err != nil {
		return err
	}
	return r.interp.Flush(ctx)
}

// Hint extends a partial "/command" with the best matching name. Lua
// lines get no hint.
func (r *router) Hint(text string, caret int) string {
	after, ok := strings.CutPrefix(text, "/")
	if !ok {
		return ""
	}
	hinted := r.table.Hint(after, caret-1)
	if hinted == "" {
		return ""
	}
	return "/" + hinted
}

// slashInput exposes a "/command" buffer to the command table with the
// slash hidden, keeping the table's caret arithmetic and recorded
// completion context in slashless coordinates.
type slashInput struct {
	in console.CompletionInput
}

func (s slashInput) Text() string {
	return strings.TrimPrefix(s.in.Text(), "/")
}

func (s slashInput) SetText(text string) {
	s.in.SetText("/" + text)
}

func (s slashInput) Caret() int {
	c := s.in.Caret() - 1
	if c < 0 {
		c = 0
	}
	return c
}

func (s slashInput) SetCaret(i int) {
	s.in.SetCaret(i + 1)
}

func (s slashInput) LastEntry() (string, bool) {
	return s.in.LastEntry()
}

func (s slashInput) SetLastEntry(entry string) {
	s.in.SetLastEntry(entry)
}
