package scripting

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/l1jgo/streamecs/internal/component"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/l1jgo/streamecs/internal/schema"
	"go.uber.org/zap/zaptest"
)

const testSchema = `
world: scripted
components:
  - {name: positions, type: vec2}
  - {name: velocities, type: vec2}
  - {name: health, type: int}
  - {name: names, type: string}
  - {name: frozen, type: tag}
resources:
  - {name: delta_time, type: float, default: 0.5}
  - {name: visits, type: int}
systems:
  - name: integrate
    read: [velocities]
    write: [positions]
    resources: [delta_time, visits]
    script: integrate
  - name: cull
    write: [health]
    script: cull
  - name: broken
    read: [spawned]
    script: broken
  - name: thaw
    write: [frozen]
    script: thaw
  - name: rename
    write: [names]
    script: rename
  - name: label_others
    read: [spawned]
    script: label_others
queries:
  - name: query_spawned
    read: [spawned]
    seed: []
    script: collect
  - name: count_above
    read: [health]
    input:
      - {name: threshold, type: int}
    seed: 0
    script: count_above
  - name: names_by_entity
    read: [names, parents]
    seed: {}
    script: names_by_entity
`

const testScripts = `
function integrate(e, row, res)
  row.positions.x = row.positions.x + row.velocities.x * res.delta_time
  row.positions.y = row.positions.y + row.velocities.y * res.delta_time
  res.visits = res.visits + 1
end

function cull(e, row, res)
  if row.health <= 0 then
    row.health = nil
    ecs.queue_despawn(e)
  end
end

function broken(e, row, res)
  error("boom at " .. e)
end

function thaw(e, row, res)
  if e % 2 == 0 then
    row.frozen = false
  end
end

function rename(e, row, res)
  ecs.set("names", e, "renamed")
end

function label_others(e, row, res)
  ecs.set("names", e, "label-" .. e)
end

function collect(e, row, res, acc)
  table.insert(acc, e)
  return acc
end

function count_above(e, row, res, acc, threshold)
  if row.health > threshold then
    return acc + 1
  end
end

function names_by_entity(e, row, res, acc)
  acc[row.names] = row.parents
  return acc
end
`

type fixture struct {
	def    *schema.Definition
	world  *ecs.World
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	def, err := schema.Parse([]byte(testSchema))
	if err != nil {
		t.Fatal(err)
	}
	w, err := schema.Build(def)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(w, "", zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	if err := e.DoString(testScripts); err != nil {
		t.Fatal(err)
	}
	return &fixture{def: def, world: w, engine: e}
}

func (f *fixture) bind(t *testing.T, name string) *Pass {
	t.Helper()
	def, ok := f.def.System(name)
	if !ok {
		def, ok = f.def.Query(name)
	}
	if !ok {
		t.Fatalf("no pass %q", name)
	}
	p, err := f.engine.Bind(def)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScriptedSystemWritesBack(t *testing.T) {
	f := newFixture(t)
	positions, _ := ecs.Lookup[component.Vec2](f.world, "positions")
	velocities, _ := ecs.Lookup[component.Vec2](f.world, "velocities")
	es := f.world.Spawn(3)
	for _, e := range es {
		positions.Set(e, component.Vec2{X: 1, Y: 1})
	}
	velocities.Set(es[0], component.Vec2{X: 2})
	velocities.Set(es[2], component.Vec2{Y: -4})

	if err := f.bind(t, "integrate").Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []component.Vec2{{X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: -1}}
	for i, e := range es {
		if got, _ := positions.Get(e); got != want[i] {
			t.Errorf("entity %d: expected %v, got %v", e, want[i], got)
		}
	}
	visits, _ := ecs.Resource[int64](f.world, "visits")
	if *visits != 2 {
		t.Errorf("expected visits resource 2, got %d", *visits)
	}
}

func TestScriptedSystemRemovesComponentAndQueuesDespawn(t *testing.T) {
	f := newFixture(t)
	health, _ := ecs.Lookup[int64](f.world, "health")
	es := f.world.Spawn(2)
	health.Set(es[0], 0)
	health.Set(es[1], 10)

	if err := f.bind(t, "cull").Run(); err != nil {
		t.Fatal(err)
	}
	if health.Has(es[0]) {
		t.Error("expected health removed when set to nil")
	}
	if v, _ := health.Get(es[1]); v != 10 {
		t.Errorf("expected untouched health 10, got %d", v)
	}
	if f.world.PendingDespawns() != 1 {
		t.Fatalf("expected one queued despawn, got %d", f.world.PendingDespawns())
	}
	f.world.FlushDespawns()
	if f.world.IsSpawned(es[0]) {
		t.Error("expected entity despawned after flush")
	}
}

func TestScriptedQueries(t *testing.T) {
	f := newFixture(t)
	health, _ := ecs.Lookup[int64](f.world, "health")
	names, _ := ecs.Lookup[string](f.world, "names")
	es := f.world.Spawn(4)
	f.world.Despawn(es[1])
	for i, e := range es {
		health.Set(e, int64(i*10))
	}
	names.Set(es[2], "child")
	f.world.Parents().Set(es[2], ecs.Parent{Entity: es[0]})

	got, err := f.bind(t, "query_spawned").Fold([]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{0.0, 2.0, 3.0}) {
		t.Errorf("expected spawned [0 2 3], got %v", got)
	}

	// health is 0,10,20,30; despawned 1 still matches because spawned is not declared.
	n, err := f.bind(t, "count_above").Fold(0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3.0 {
		t.Errorf("expected 3 above threshold, got %v", n)
	}

	m, err := f.bind(t, "names_by_entity").Fold(map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, map[string]any{"child": 0.0}) {
		t.Errorf("unexpected name map %v", m)
	}
}

func TestQueryKeepsSeedShapeWhenNothingMatches(t *testing.T) {
	f := newFixture(t)

	got, err := f.bind(t, "query_spawned").Fold([]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{}) {
		t.Errorf("expected empty list from an empty world, got %#v", got)
	}

	m, err := f.bind(t, "names_by_entity").Fold(map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, map[string]any{}) {
		t.Errorf("expected empty map, got %#v", m)
	}

	f.world.Spawn(1)
	got, err = f.bind(t, "query_spawned").Fold([]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{0.0}) {
		t.Errorf("expected [0], got %#v", got)
	}
}

func TestFalseClearsTagStream(t *testing.T) {
	f := newFixture(t)
	frozen, _ := ecs.Lookup[component.Tag](f.world, "frozen")
	es := f.world.Spawn(3)
	for _, e := range es {
		frozen.Set(e, component.Tag{})
	}

	if err := f.bind(t, "thaw").Run(); err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, false}
	for i, e := range es {
		if frozen.Has(e) != want[i] {
			t.Errorf("entity %d: expected frozen %v, got %v", e, want[i], frozen.Has(e))
		}
	}

	if err := f.engine.DoString(`ecs.set("frozen", 1, false)`); err != nil {
		t.Fatal(err)
	}
	if frozen.Has(es[1]) {
		t.Error("expected ecs.set with false to clear the tag")
	}
}

func TestSetRejectsStreamsTheRunningPassWrites(t *testing.T) {
	f := newFixture(t)
	names, _ := ecs.Lookup[string](f.world, "names")
	es := f.world.Spawn(2)
	names.Set(es[0], "a")
	names.Set(es[1], "b")

	err := f.bind(t, "rename").Run()
	if err == nil || !strings.Contains(err.Error(), `written by pass "rename"`) {
		t.Errorf("expected write-stream conflict, got %v", err)
	}
	if v, _ := names.Get(es[0]); v != "a" {
		t.Errorf("expected name untouched, got %q", v)
	}

	// streams the pass does not write stay open to ecs.set
	if err := f.bind(t, "label_others").Run(); err != nil {
		t.Fatal(err)
	}
	if v, _ := names.Get(es[1]); v != "label-1" {
		t.Errorf("expected label-1, got %q", v)
	}

	// and the restriction ends with the pass
	if err := f.engine.DoString(`ecs.set("names", 0, "after")`); err != nil {
		t.Errorf("expected ecs.set outside a pass to work, got %v", err)
	}
}

func TestPassErrors(t *testing.T) {
	f := newFixture(t)
	f.world.Spawn(2)

	err := f.bind(t, "broken").Run()
	if err == nil || !strings.Contains(err.Error(), "boom at 0") {
		t.Errorf("expected lua error from first entity, got %v", err)
	}

	if _, err := f.bind(t, "count_above").Fold(0); err == nil {
		t.Error("expected input count error")
	}

	def, _ := f.def.System("integrate")
	def.Script = "missing_fn"
	if _, err := f.engine.Bind(def); err == nil {
		t.Error("expected missing function error")
	}
	def.Script = "integrate"
	def.Read = []string{"ghosts"}
	if _, err := f.engine.Bind(def); err == nil {
		t.Error("expected unknown stream error")
	}
}

func TestEngineAPI(t *testing.T) {
	f := newFixture(t)
	names, _ := ecs.Lookup[string](f.world, "names")
	es := f.world.Spawn(2)
	names.Set(es[1], "b")

	err := f.engine.DoString(`
		has_b = ecs.has("names", 1)
		has_a = ecs.has("names", 0)
		alive = ecs.is_spawned(1)
		mark = ecs.last_entity()
		ecs.log("hello")
	`)
	if err != nil {
		t.Fatal(err)
	}
	vm := f.engine.vm
	if vm.GetGlobal("has_b").String() != "true" || vm.GetGlobal("has_a").String() != "false" {
		t.Error("unexpected ecs.has results")
	}
	if vm.GetGlobal("alive").String() != "true" {
		t.Error("expected entity 1 spawned")
	}
	if vm.GetGlobal("mark").String() != "2" {
		t.Errorf("expected mark 2, got %s", vm.GetGlobal("mark"))
	}
	err = f.engine.DoString(`
		ecs.set("names", 0, "a")
		ecs.set("parents", 1, 0)
		ecs.clear("names", 1)
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := names.Get(es[0]); v != "a" || names.Has(es[1]) {
		t.Errorf("unexpected names after ecs.set/clear: %q, %v", v, names.Has(es[1]))
	}
	if p, ok := f.world.Parents().Get(es[1]); !ok || p.Entity != es[0] {
		t.Errorf("expected parent link set from lua, got %v %v", p, ok)
	}
	for _, bad := range []string{
		`ecs.set("names", 5, "x")`,
		`ecs.set("ghosts", 0, 1)`,
		`ecs.set("spawned", 0, true)`,
		`ecs.set("names", 0, 42)`,
	} {
		if err := f.engine.DoString(bad); err == nil {
			t.Errorf("expected %s to fail", bad)
		}
	}

	if !f.engine.HasFunction("integrate") || f.engine.HasFunction("nope") {
		t.Error("unexpected HasFunction results")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.lua":     "order = 'a'",
		"b.lua":     "order = order .. 'b'",
		"notes.txt": "not lua",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(ecs.NewWorld(), dir, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if got := e.vm.GetGlobal("order").String(); got != "ab" {
		t.Errorf("expected files loaded in name order, got %q", got)
	}

	bad := t.TempDir()
	if err := os.WriteFile(filepath.Join(bad, "x.lua"), []byte("this is not lua"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(ecs.NewWorld(), bad, nil); err == nil {
		t.Error("expected syntax error")
	}
	missing, err := NewEngine(ecs.NewWorld(), filepath.Join(dir, "nope"), nil)
	if err != nil {
		t.Errorf("expected missing dir to be skipped, got %v", err)
	} else {
		missing.Close()
	}
}
