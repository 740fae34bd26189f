package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/history"
)

// Clearer wipes a console scrollback.
type Clearer interface {
	Clear()
}

var processStart = time.Now()

// RegisterBuiltins installs the standard console commands: help,
// commands, echo, clear, history and stats. hist and scrollback may
// be nil; the commands that need them report that they are
// unavailable.
func RegisterBuiltins(t *Table, hist *history.Log, scrollback Clearer) error {
	builtins := []Command{
		{
			Name:  "help",
			Usage: "help [command]",
			Help:  "list commands, or show one command's usage",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				return t.helpHandler(args, out)
			},
		},
		{
			Name:  "commands",
			Usage: "commands",
			Help:  "list registered command names",
			Handler: func(_ context.Context, _ []string, out console.Sink) error {
				out.Append(strings.Join(t.Names(), "\n") + "\n")
				return nil
			},
		},
		{
			Name:  "echo",
			Usage: "echo [text...]",
			Help:  "print text to the console",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				out.Append(strings.Join(args, " ") + "\n")
				return nil
			},
		},
		{
			Name:  "clear",
			Usage: "clear",
			Help:  "clear the console scrollback",
			Handler: func(_ context.Context, _ []string, out console.Sink) error {
				if scrollback == nil {
					return errors.New("no scrollback attached")
				}
				scrollback.Clear()
				return nil
			},
		},
		{
			Name:  "history",
			Usage: "history [count]",
			Help:  "show recently executed commands",
			Handler: func(_ context.Context, args []string, out console.Sink) error {
				return historyHandler(hist, args, out)
			},
		},
		{
			Name:  "stats",
			Usage: "stats",
			Help:  "show console and runtime statistics",
			Handler: func(_ context.Context, _ []string, out console.Sink) error {
				return t.statsHandler(out)
			},
		},
	}

	for _, cmd := range builtins {
		if err := t.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) helpHandler(args []string, out console.Sink) error {
	if len(args) > 0 {
		cmd, ok := t.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown command %q", args[0])
		}
		out.Append("usage: " + cmd.Usage + "\n")
		if cmd.Help != "" {
			out.Append(cmd.Help + "\n")
		}
		return nil
	}

	cmds := t.Commands()
	width := 0
	for _, cmd := range cmds {
		if len(cmd.Name) > width {
			width = len(cmd.Name)
		}
	}
	var b strings.Builder
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "%-*s  %s\n", width, cmd.Name, cmd.Help)
	}
	out.Append(b.String())
	return nil
}

func historyHandler(hist *history.Log, args []string, out console.Sink) error {
	if hist == nil {
		return errors.New("no history attached")
	}

	limit := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("bad count %q", args[0])
		}
		limit = v
	}

	entries := hist.Entries()
	if len(entries) == 0 {
		out.Append("history is empty\n")
		return nil
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	base := hist.Len() - len(entries)
	var b strings.Builder
	for i, entry := range entries {
		fmt.Fprintf(&b, "%4d  %s\n", base+i+1, entry)
	}
	out.Append(b.String())
	return nil
}

func (t *Table) statsHandler(out console.Sink) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var b strings.Builder
	fmt.Fprintf(&b, "uptime:     started %s\n", humanize.Time(processStart))
	fmt.Fprintf(&b, "goroutines: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&b, "heap:       %s in use, %s allocated over time\n",
		humanize.Bytes(m.HeapAlloc), humanize.Bytes(m.TotalAlloc))
	fmt.Fprintf(&b, "commands:   %d registered\n", len(t.Commands()))
	out.Append(b.String())
	return nil
}
