package script

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/halfgrid/conch/pkg/console"
)

// maxCompletionCandidates caps the published completion snapshot.
const maxCompletionCandidates = 2000

// session owns one Lua state and the evaluation history accumulated
// against it. The LState is not goroutine-safe; all session methods
// run on the interpreter's worker goroutine.
type session struct {
	L      *lua.LState
	id     string
	logger *zap.Logger

	// out is the sink of the command currently evaluating, nil when
	// idle. print writes through it.
	out console.Sink
}

func newSession(logger *zap.Logger) *session {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	s := &session{
		L:      L,
		id:     uuid.NewString(),
		logger: logger,
	}
	openSafeLibraries(L)
	s.installPrint()
	return s
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Not opened: io and os (host access), debug (sandbox escape),
	// package (arbitrary module loading). The base loaders go too.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// installPrint redirects print into the sink of whichever command is
// currently evaluating, instead of the process's stdout.
func (s *session) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, top)
		for i := 1; i <= top; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		s.write(strings.Join(parts, "\t") + "\n")
		return 0
	}))
}

func (s *session) write(text string) {
	if s.out != nil {
		s.out.Append(text)
	}
}

// eval runs one command as an incremental continuation of the
// session, trying it as an expression first and as a statement
// second. The result is the command's return values rendered
// tab-separated, empty for statements. A command that fails to
// compile or raises at runtime leaves the session's globals as they
// were before it; the rollback is shallow, so mutations inside
// tables that predate the command are kept.
func (s *session) eval(src string, timeout time.Duration) (string, error) {
	fn, err := s.L.LoadString("return " + src)
	if err != nil {
		fn, err = s.L.LoadString(src)
		if err != nil {
			return "", err
		}
	}

	snapshot := s.snapshotGlobals()

	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	base := s.L.GetTop()
	s.L.Push(fn)
	if err := s.L.PCall(0, lua.MultRet, nil); err != nil {
		s.restoreGlobals(snapshot)
		return "", err
	}

	nret := s.L.GetTop() - base
	if nret <= 0 {
		return "", nil
	}
	parts := make([]string, nret)
	for i := 0; i < nret; i++ {
		parts[i] = s.L.ToStringMeta(s.L.Get(base + i + 1)).String()
	}
	s.L.Pop(nret)
	return strings.Join(parts, "\t"), nil
}

func (s *session) snapshotGlobals() map[string]lua.LValue {
	snapshot := make(map[string]lua.LValue)
	globals := s.L.Get(lua.GlobalsIndex).(*lua.LTable)
	globals.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			snapshot[string(ks)] = v
		}
	})
	return snapshot
}

func (s *session) restoreGlobals(snapshot map[string]lua.LValue) {
	globals := s.L.Get(lua.GlobalsIndex).(*lua.LTable)

	var added []string
	globals.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if _, present := snapshot[string(ks)]; !present {
				added = append(added, string(ks))
			}
		}
	})
	for _, name := range added {
		s.L.SetGlobal(name, lua.LNil)
	}
	for name, value := range snapshot {
		s.L.SetGlobal(name, value)
	}
}

// collectCompletions gathers completion candidates from the session:
// every global name, plus dotted members one level into global
// tables.
func (s *session) collectCompletions() []string {
	var names []string
	globals := s.L.Get(lua.GlobalsIndex).(*lua.LTable)
	globals.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		name := string(ks)
		if name == "_G" {
			return
		}
		names = append(names, name)

		tbl, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		tbl.ForEach(func(mk, _ lua.LValue) {
			if ms, ok := mk.(lua.LString); ok {
				names = append(names, name+"."+string(ms))
			}
		})
	})

	sort.Strings(names)
	if len(names) > maxCompletionCandidates {
		names = names[:maxCompletionCandidates]
	}
	return names
}

func (s *session) close() {
	s.L.Close()
	s.logger.Debug("scripting session closed", zap.String("session", s.id))
}
