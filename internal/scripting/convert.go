package scripting

import (
	"fmt"

	"github.com/l1jgo/streamecs/internal/component"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
)

// toLua converts a stream, resource or seed value into a Lua value.
func (e *Engine) toLua(v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case component.Tag, ecs.Spawned:
		return lua.LTrue, nil
	case bool:
		return lua.LBool(x), nil
	case int:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case float32:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case string:
		return lua.LString(x), nil
	case ecs.Entity:
		return lua.LNumber(x), nil
	case ecs.Parent:
		return lua.LNumber(x.Entity), nil
	case component.Vec2:
		t := e.vm.NewTable()
		t.RawSetString("x", lua.LNumber(x.X))
		t.RawSetString("y", lua.LNumber(x.Y))
		return t, nil
	case []any:
		t := e.vm.NewTable()
		for _, item := range x {
			lv, err := e.toLua(item)
			if err != nil {
				return nil, err
			}
			t.Append(lv)
		}
		return t, nil
	case map[string]any:
		t := e.vm.NewTable()
		for k, item := range x {
			lv, err := e.toLua(item)
			if err != nil {
				return nil, err
			}
			t.RawSetString(k, lv)
		}
		return t, nil
	}
	return nil, fmt.Errorf("no lua conversion for %T", v)
}

// fromLuaAs converts lv into the Go type of zero.
func fromLuaAs(lv lua.LValue, zero any) (any, error) {
	switch zero.(type) {
	case component.Tag:
		return component.Tag{}, nil
	case ecs.Spawned:
		return ecs.Spawned{}, nil
	case bool:
		return lua.LVAsBool(lv), nil
	case int64:
		n, err := number(lv)
		return int64(n), err
	case float64:
		return number(lv)
	case float32:
		n, err := number(lv)
		return float32(n), err
	case string:
		s, ok := lv.(lua.LString)
		if !ok {
			return nil, fmt.Errorf("want string, got %s", lv.Type())
		}
		return string(s), nil
	case ecs.Entity:
		n, err := number(lv)
		return ecs.Entity(n), err
	case ecs.Parent:
		n, err := number(lv)
		return ecs.Parent{Entity: ecs.Entity(n)}, err
	case component.Vec2:
		t, ok := lv.(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("want vec2 table, got %s", lv.Type())
		}
		x, err := number(t.RawGetString("x"))
		if err != nil {
			return nil, fmt.Errorf("vec2.x: %w", err)
		}
		y, err := number(t.RawGetString("y"))
		if err != nil {
			return nil, fmt.Errorf("vec2.y: %w", err)
		}
		return component.Vec2{X: x, Y: y}, nil
	}
	return nil, fmt.Errorf("no lua conversion into %T", zero)
}

func number(lv lua.LValue) (float64, error) {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("want number, got %s", lv.Type())
	}
	return float64(n), nil
}

// fromLua converts lv into plain Go values. Tables with only a sequence part
// become []any, any other table becomes map[string]any.
func fromLua(lv lua.LValue) any {
	switch x := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		n := x.Len()
		if n > 0 && countKeys(x) == n {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		x.ForEach(func(k, v lua.LValue) {
			out[k.String()] = fromLua(v)
		})
		return out
	}
	return lv.String()
}

// fromLuaLike converts lv into the Go shape of like. A []any or
// map[string]any seed keeps its shape even when the table is empty; any
// other seed falls back to fromLua.
func fromLuaLike(lv lua.LValue, like any) any {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return fromLua(lv)
	}
	switch like.(type) {
	case []any:
		out := make([]any, 0, t.Len())
		for i := 1; i <= t.Len(); i++ {
			out = append(out, fromLua(t.RawGetInt(i)))
		}
		return out
	case map[string]any:
		out := map[string]any{}
		t.ForEach(func(k, v lua.LValue) {
			out[k.String()] = fromLua(v)
		})
		return out
	}
	return fromLua(lv)
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}
