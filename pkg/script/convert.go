package script

import (
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// Func is a Go function callable from scripts. Arguments arrive
// converted to Go values; the returned value is converted back for
// the script. A returned error is raised as a Lua error in the
// calling script.
type Func func(args []any) (any, error)

// toLua converts a Go value for the session. Composite values convert
// depth levels deep; nesting past the depth, and values already seen
// on the conversion path (cyclic structures), become nil.
func toLua(L *lua.LState, v any, depth int) lua.LValue {
	return toLuaBounded(L, v, depth, map[uintptr]bool{})
}

func toLuaBounded(L *lua.LState, v any, depth int, visited map[uintptr]bool) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case Func:
		return L.NewFunction(wrapFunc(L, val))
	case func(args []any) (any, error):
		return L.NewFunction(wrapFunc(L, val))
	case lua.LValue:
		return val
	default:
		return reflectToLua(L, reflect.ValueOf(v), depth, visited)
	}
}

func reflectToLua(L *lua.LState, rv reflect.Value, depth int, visited map[uintptr]bool) lua.LValue {
	if !rv.IsValid() {
		return lua.LNil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return lua.LNil
		}
		p := rv.Pointer()
		if visited[p] {
			return lua.LNil
		}
		visited[p] = true
		defer delete(visited, p)
		return toLuaBounded(L, rv.Elem().Interface(), depth, visited)

	case reflect.Slice:
		if rv.IsNil() || depth <= 0 {
			return lua.LNil
		}
		p := rv.Pointer()
		if visited[p] {
			return lua.LNil
		}
		visited[p] = true
		defer delete(visited, p)
		return sequenceToTable(L, rv, depth, visited)

	case reflect.Array:
		if depth <= 0 {
			return lua.LNil
		}
		return sequenceToTable(L, rv, depth, visited)

	case reflect.Map:
		if rv.IsNil() || depth <= 0 {
			return lua.LNil
		}
		p := rv.Pointer()
		if visited[p] {
			return lua.LNil
		}
		visited[p] = true
		defer delete(visited, p)

		t := L.NewTable()
		for _, key := range rv.MapKeys() {
			k := toLuaBounded(L, key.Interface(), depth-1, visited)
			if k == lua.LNil {
				continue
			}
			t.RawSet(k, toLuaBounded(L, rv.MapIndex(key).Interface(), depth-1, visited))
		}
		return t

	case reflect.Struct:
		if depth <= 0 {
			return lua.LNil
		}
		return structToTable(L, rv, depth, visited)

	default:
		ud := L.NewUserData()
		ud.Value = rv.Interface()
		return ud
	}
}

func sequenceToTable(L *lua.LState, rv reflect.Value, depth int, visited map[uintptr]bool) lua.LValue {
	t := L.NewTable()
	for i := 0; i < rv.Len(); i++ {
		t.RawSetInt(i+1, toLuaBounded(L, rv.Index(i).Interface(), depth-1, visited))
	}
	return t
}

// structToTable converts exported struct fields. A `lua` field tag
// renames the key; `lua:"-"` skips the field.
func structToTable(L *lua.LState, rv reflect.Value, depth int, visited map[uintptr]bool) lua.LValue {
	t := L.NewTable()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("lua"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}
		t.RawSetString(name, toLuaBounded(L, rv.Field(i).Interface(), depth-1, visited))
	}
	return t
}

func wrapFunc(L *lua.LState, fn Func) lua.LGFunction {
	return func(L *lua.LState) int {
		nargs := L.GetTop()
		args := make([]any, nargs)
		for i := 1; i <= nargs; i++ {
			args[i-1] = fromLua(L.Get(i))
		}

		result, err := fn(args)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		if result == nil {
			return 0
		}
		L.Push(toLua(L, result, DefaultRegistrationDepth))
		return 1
	}
}

// fromLua converts a Lua value to a Go value. Tables become []any
// when their keys are the contiguous sequence 1..n and map[string]any
// otherwise; cyclic tables are broken with nil.
func fromLua(lv lua.LValue) any {
	return fromLuaVisited(lv, map[*lua.LTable]bool{})
}

func fromLuaVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isSequence := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != float64(int(kn)) || int(kn) <= 0 {
			isSequence = false
			return
		}
		if int(kn) > maxN {
			maxN = int(kn)
		}
	})

	if isSequence && maxN > 0 && count == maxN {
		seq := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			seq[i-1] = fromLuaVisited(t.RawGetInt(i), visited)
		}
		return seq
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = fromLuaVisited(v, visited)
	})
	return m
}
