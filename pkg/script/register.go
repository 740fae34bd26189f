package script

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// AddVariable binds value to name in the session's globals, so
// scripts can reference it without qualification. Composite values
// are converted depth levels deep; depth <= 0 uses
// DefaultRegistrationDepth. Bindings do not survive Reset.
//
// AddVariable blocks until the binding is applied, waiting behind any
// commands already queued.
func (i *Interp) AddVariable(ctx context.Context, name string, value any, depth int) error {
	if name == "" {
		return errors.New("script: variable name is required")
	}
	return i.submit(ctx, "add variable", func() error {
		s := i.session
		s.L.SetGlobal(name, toLua(s.L, value, registrationDepth(depth)))
		i.publishCompletions(s.collectCompletions())
		return nil
	})
}

// RemoveVariable deletes a binding added with AddVariable.
func (i *Interp) RemoveVariable(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("script: variable name is required")
	}
	return i.submit(ctx, "remove variable", func() error {
		s := i.session
		s.L.SetGlobal(name, lua.LNil)
		i.publishCompletions(s.collectCompletions())
		return nil
	})
}

// AddModule binds a named table of values and functions, the way a
// host exposes an engine subsystem: a "game" module with spawn and
// teleport functions, say. Like AddVariable it blocks until applied
// and does not survive Reset.
func (i *Interp) AddModule(ctx context.Context, name string, exports map[string]any, depth int) error {
	if name == "" {
		return errors.New("script: module name is required")
	}
	return i.submit(ctx, "add module", func() error {
		s := i.session
		mod := s.L.NewTable()
		d := registrationDepth(depth)
		for key, value := range exports {
			mod.RawSetString(key, toLua(s.L, value, d))
		}
		s.L.SetGlobal(name, mod)
		i.publishCompletions(s.collectCompletions())
		return nil
	})
}

func registrationDepth(depth int) int {
	if depth <= 0 {
		return DefaultRegistrationDepth
	}
	return depth
}
