package scripting

import (
	"fmt"
	"reflect"

	"github.com/l1jgo/streamecs/internal/component"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/l1jgo/streamecs/internal/schema"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Pass runs a Lua function as the per-entity body of an ecs.Pass.
//
// The function is called once per matching entity as
//
//	system: fn(entity, row, res, inputs...)
//	query:  fn(entity, row, res, acc, inputs...) -> acc
//
// row holds the declared streams by name and res the declared resources.
// After each call the write streams and every declared resource are copied
// back from the tables; setting a write stream to nil removes the component,
// and so does false for a tag stream.
// A query that returns nil keeps its previous accumulator.
type Pass struct {
	engine  *Engine
	def     schema.PassDef
	pass    *ecs.Pass
	fn      *lua.LFunction
	columns []ecs.Column
	writes  []ecs.Column
}

// Bind resolves a schema pass against the engine's world and its Lua body.
func (e *Engine) Bind(def schema.PassDef) (*Pass, error) {
	p, err := ecs.NewPass(e.world, def.Access())
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", def.Name, err)
	}
	fn, ok := e.vm.GetGlobal(def.Script).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("bind %s: lua function %q not found", def.Name, def.Script)
	}
	sp := &Pass{engine: e, def: def, pass: p, fn: fn}
	for _, name := range def.Read {
		c, _ := e.world.Column(name)
		sp.columns = append(sp.columns, c)
	}
	for _, name := range def.Write {
		c, _ := e.world.Column(name)
		sp.columns = append(sp.columns, c)
		sp.writes = append(sp.writes, c)
	}
	return sp, nil
}

func (p *Pass) Name() string        { return p.def.Name }
func (p *Pass) Def() schema.PassDef { return p.def }

// Run executes the pass as a system.
func (p *Pass) Run(inputs ...any) error {
	_, err := p.walk(nil, false, inputs)
	return err
}

// Fold executes the pass as a query and returns the final accumulator as
// plain Go values in the shape of seed (see fromLuaLike).
func (p *Pass) Fold(seed any, inputs ...any) (any, error) {
	acc, err := p.engine.toLua(seed)
	if err != nil {
		return nil, fmt.Errorf("%s seed: %w", p.def.Name, err)
	}
	out, err := p.walk(acc, true, inputs)
	if err != nil {
		return nil, err
	}
	return fromLuaLike(out, seed), nil
}

func (p *Pass) walk(acc lua.LValue, query bool, inputs []any) (lua.LValue, error) {
	e := p.engine
	if len(inputs) != len(p.def.Input) {
		return nil, fmt.Errorf("%s: want %d inputs, got %d", p.def.Name, len(p.def.Input), len(inputs))
	}
	args := make([]lua.LValue, 0, len(inputs))
	for i, in := range inputs {
		lv, err := e.toLua(in)
		if err != nil {
			return nil, fmt.Errorf("%s input %q: %w", p.def.Name, p.def.Input[i].Name, err)
		}
		args = append(args, lv)
	}

	res := e.vm.NewTable()
	fields := make(map[string]reflect.Value, len(p.def.Resources))
	for _, name := range p.def.Resources {
		ptr, _ := e.world.Resources().Get(name)
		field := reflect.ValueOf(ptr).Elem()
		lv, err := e.toLua(field.Interface())
		if err != nil {
			return nil, fmt.Errorf("%s resource %q: %w", p.def.Name, name, err)
		}
		res.RawSetString(name, lv)
		fields[name] = field
	}

	nret := 0
	if query {
		nret = 1
	}
	row := e.vm.NewTable()
	visited := 0
	e.active = p
	defer func() { e.active = nil }()
	err := p.pass.RunE(func(r ecs.Row) error {
		ent := r.Entity()
		for _, c := range p.columns {
			v, _ := c.GetAny(ent)
			lv, err := e.toLua(v)
			if err != nil {
				return fmt.Errorf("stream %q: %w", c.Name(), err)
			}
			row.RawSetString(c.Name(), lv)
		}

		call := []lua.LValue{lua.LNumber(ent), row, res}
		if query {
			call = append(call, acc)
		}
		call = append(call, args...)
		if err := e.vm.CallByParam(lua.P{Fn: p.fn, NRet: nret, Protect: true}, call...); err != nil {
			return err
		}
		if query {
			ret := e.vm.Get(-1)
			e.vm.Pop(1)
			if ret != lua.LNil {
				acc = ret
			}
		}

		for _, c := range p.writes {
			lv := row.RawGetString(c.Name())
			if lv == lua.LNil || (lv == lua.LFalse && isTag(c.Zero())) {
				c.Clear(ent)
				continue
			}
			v, err := fromLuaAs(lv, c.Zero())
			if err != nil {
				return fmt.Errorf("stream %q: %w", c.Name(), err)
			}
			if err := c.SetAny(ent, v); err != nil {
				return err
			}
		}
		for name, field := range fields {
			v, err := fromLuaAs(res.RawGetString(name), field.Interface())
			if err != nil {
				return fmt.Errorf("resource %q: %w", name, err)
			}
			field.Set(reflect.ValueOf(v))
		}
		visited++
		return nil
	})
	if err != nil {
		e.log.Error("lua pass failed", zap.String("pass", p.def.Name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", p.def.Name, err)
	}
	e.log.Debug("lua pass done", zap.String("pass", p.def.Name), zap.Int("visited", visited))
	return acc, nil
}

// isTag reports whether a stream holds presence-only markers.
func isTag(zero any) bool {
	_, ok := zero.(component.Tag)
	return ok
}
