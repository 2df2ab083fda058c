package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM bound to one World.
// Single-goroutine access only, like the World itself.
type Engine struct {
	vm     *lua.LState
	world  *ecs.World
	active *Pass // pass currently walking, nil between passes
	log    *zap.Logger
}

// NewEngine creates a Lua engine for w, installs the ecs API table and loads
// every .lua file in scriptsDir. An empty scriptsDir loads nothing.
func NewEngine(w *ecs.World, scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, world: w, log: log}
	e.installAPI()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Warn("scripts dir missing", zap.String("dir", dir))
			return nil
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's global scope.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// HasFunction reports whether a global Lua function is defined.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

func (e *Engine) Close() {
	e.vm.Close()
}

// installAPI exposes world operations to scripts as the global table "ecs".
//
//	ecs.has(stream, entity)     -> bool
//	ecs.is_spawned(entity)      -> bool
//	ecs.last_entity()           -> number
//	ecs.set(stream, entity, v)  -- user streams only, entity below the mark; false clears a tag
//	ecs.clear(stream, entity)
//	ecs.queue_despawn(entity)   -- applied by the cleanup system
//	ecs.log(message)
//
// While a pass runs, ecs.set and ecs.clear refuse the streams it declares as
// write: those are copied back from the row table after each call and would
// overwrite the change. Assign through the row instead.
func (e *Engine) installAPI() {
	mod := e.vm.NewTable()
	e.vm.SetFuncs(mod, map[string]lua.LGFunction{
		"has": func(L *lua.LState) int {
			name := L.CheckString(1)
			ent := ecs.Entity(L.CheckInt(2))
			L.Push(lua.LBool(e.world.HasComponent(name, ent)))
			return 1
		},
		"is_spawned": func(L *lua.LState) int {
			L.Push(lua.LBool(e.world.IsSpawned(ecs.Entity(L.CheckInt(1)))))
			return 1
		},
		"last_entity": func(L *lua.LState) int {
			L.Push(lua.LNumber(e.world.LastEntity()))
			return 1
		},
		"set": func(L *lua.LState) int {
			c, ent := e.checkColumn(L)
			lv := L.CheckAny(3)
			if lv == lua.LFalse && isTag(c.Zero()) {
				c.Clear(ent)
				return 0
			}
			v, err := fromLuaAs(lv, c.Zero())
			if err == nil {
				err = c.SetAny(ent, v)
			}
			if err != nil {
				L.RaiseError("ecs.set %s: %v", c.Name(), err)
			}
			return 0
		},
		"clear": func(L *lua.LState) int {
			c, ent := e.checkColumn(L)
			c.Clear(ent)
			return 0
		},
		"queue_despawn": func(L *lua.LState) int {
			e.world.QueueDespawn(ecs.Entity(L.CheckInt(1)))
			return 0
		},
		"log": func(L *lua.LState) int {
			e.log.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	e.vm.SetGlobal("ecs", mod)
}

// checkColumn resolves the (stream, entity) arguments of ecs.set and
// ecs.clear. The built-in streams are off limits: spawning and despawning
// go through the World.
func (e *Engine) checkColumn(L *lua.LState) (ecs.Column, ecs.Entity) {
	name := L.CheckString(1)
	ent := ecs.Entity(L.CheckInt(2))
	if name == ecs.SpawnedStream {
		L.RaiseError("stream %q is managed by spawn and despawn", name)
	}
	c, ok := e.world.Column(name)
	if !ok {
		L.RaiseError("unknown stream %q", name)
	}
	if ent < 0 || ent >= e.world.LastEntity() {
		L.RaiseError("entity %d out of range", ent)
	}
	if e.active != nil {
		for _, w := range e.active.writes {
			if w == c {
				L.RaiseError("stream %q is written by pass %q; assign it through the row", name, e.active.def.Name)
			}
		}
	}
	return c, ent
}
