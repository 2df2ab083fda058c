package ecs

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type position struct {
	X, Y float32
}

type testWorld struct {
	*World
	positions *Stream[position]
	labels    *Stream[string]
	delta     *float32
}

func newTestWorld(t *testing.T, opts ...Option) *testWorld {
	t.Helper()
	w := NewWorld(opts...)
	positions, err := Register[position](w, "positions")
	if err != nil {
		t.Fatal(err)
	}
	labels, err := Register[string](w, "labels")
	if err != nil {
		t.Fatal(err)
	}
	delta, err := AddResource[float32](w, "delta_time", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	return &testWorld{World: w, positions: positions, labels: labels, delta: delta}
}

// snapshot captures every observable piece of world state.
type snapshot struct {
	Last    Entity
	Slots   map[string][]any
	Gens    []uint32
	Pending int
}

func takeSnapshot(w *World) snapshot {
	s := snapshot{Last: w.LastEntity(), Slots: map[string][]any{}, Pending: w.PendingDespawns()}
	for _, c := range w.Registry().Columns() {
		vals := make([]any, c.Len())
		for i := range vals {
			if v, ok := c.GetAny(Entity(i)); ok {
				vals[i] = v
			}
		}
		s.Slots[c.Name()] = vals
	}
	for e := Entity(0); e < w.LastEntity(); e++ {
		s.Gens = append(s.Gens, w.Generation(e))
	}
	return s
}

func TestNewWorld(t *testing.T) {
	w := NewWorld()
	if w.LastEntity() != 0 {
		t.Errorf("expected empty world, got last entity %d", w.LastEntity())
	}
	for _, name := range []string{SpawnedStream, ParentStream} {
		c, ok := w.Column(name)
		if !ok {
			t.Fatalf("expected built-in stream %q", name)
		}
		if c.Len() != 0 {
			t.Errorf("expected %q empty, got len %d", name, c.Len())
		}
	}
	if len(w.Resources().Names()) != 0 {
		t.Errorf("expected no resources, got %v", w.Resources().Names())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	tw := newTestWorld(t)
	tw.Spawn(2)

	late, err := Register[int](tw.World, "late")
	if err != nil {
		t.Fatal(err)
	}
	if late.Len() != 2 {
		t.Errorf("expected late stream sized to mark 2, got %d", late.Len())
	}
	if _, err := Register[int](tw.World, "late"); !errors.Is(err, ErrDuplicateStream) {
		t.Errorf("expected ErrDuplicateStream, got %v", err)
	}

	got, err := Lookup[position](tw.World, "positions")
	if err != nil || got != tw.positions {
		t.Errorf("expected positions stream, got %v %v", got, err)
	}
	if _, err := Lookup[int](tw.World, "positions"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Lookup[int](tw.World, "nope"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("expected ErrUnknownStream, got %v", err)
	}
}

func TestResources(t *testing.T) {
	tw := newTestWorld(t)

	p, err := Resource[float32](tw.World, "delta_time")
	if err != nil {
		t.Fatal(err)
	}
	if p != tw.delta || *p != 0.5 {
		t.Errorf("expected shared pointer holding 0.5, got %v", *p)
	}
	*p = 2
	if *tw.delta != 2 {
		t.Error("expected writes through resource pointer to be visible")
	}
	if _, err := AddResource[float32](tw.World, "delta_time", 1); !errors.Is(err, ErrDuplicateResource) {
		t.Errorf("expected ErrDuplicateResource, got %v", err)
	}
	if _, err := Resource[int](tw.World, "delta_time"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Resource[int](tw.World, "missing"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource, got %v", err)
	}
}

func TestClearEntity(t *testing.T) {
	tw := newTestWorld(t)
	e := tw.Spawn(1)[0]
	tw.positions.Set(e, position{1, 2})
	tw.labels.Set(e, "x")

	tw.ClearEntity(e)
	for _, c := range tw.Registry().Columns() {
		if c.Has(e) {
			t.Errorf("expected %q cleared at %d", c.Name(), e)
		}
	}

	t.Run("beyond mark panics", func(t *testing.T) {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic")
			}
		}()
		tw.ClearEntity(tw.LastEntity())
	})
}

func TestResizeComponentsKeepsStreamsAligned(t *testing.T) {
	tw := newTestWorld(t)
	tw.Spawn(5)
	for _, c := range tw.Registry().Columns() {
		if c.Len() < int(tw.LastEntity()) {
			t.Errorf("stream %q len %d below mark %d", c.Name(), c.Len(), tw.LastEntity())
		}
	}
}

func TestEntityRefs(t *testing.T) {
	tw := newTestWorld(t)
	es := tw.Spawn(2)
	ref := tw.Ref(es[1])
	if ref.Index() != 1 || ref.Generation() != 0 {
		t.Errorf("expected index 1 gen 0, got %d %d", ref.Index(), ref.Generation())
	}
	if e, ok := tw.Resolve(ref); !ok || e != es[1] {
		t.Errorf("expected ref to resolve to %d", es[1])
	}

	tw.Despawn(es[1])
	if _, ok := tw.Resolve(ref); ok {
		t.Error("expected despawned ref to be stale")
	}
	again := tw.Spawn(1)[0]
	if again != es[1] {
		t.Fatalf("expected slot %d reused, got %d", es[1], again)
	}
	if _, ok := tw.Resolve(ref); ok {
		t.Error("expected old ref to stay stale after reuse")
	}
	if _, ok := tw.Resolve(tw.Ref(again)); !ok {
		t.Error("expected fresh ref to resolve")
	}
	if _, ok := tw.Resolve(NewEntityRef(99, 0)); ok {
		t.Error("expected out of range ref to fail")
	}
}

func TestWorldLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tw := newTestWorld(t, WithLogger(zap.New(core)))
	es := tw.Spawn(2)
	tw.Despawn(es[0])

	spawned := logs.FilterMessage("entities spawned").All()
	if len(spawned) != 1 {
		t.Fatalf("expected one spawn log, got %d", len(spawned))
	}
	if got := spawned[0].ContextMap()["count"]; got != int64(2) {
		t.Errorf("expected count field 2, got %v", got)
	}
	if n := logs.FilterMessage("entity despawned").Len(); n != 1 {
		t.Errorf("expected one despawn log, got %d", n)
	}
}

type recordingObserver struct {
	spawned   []Entity
	reused    []bool
	despawned []Entity
	cascaded  []bool
}

func (o *recordingObserver) EntitySpawned(e Entity, reused bool) {
	o.spawned = append(o.spawned, e)
	o.reused = append(o.reused, reused)
}

func (o *recordingObserver) EntityDespawned(e Entity, cascaded bool) {
	o.despawned = append(o.despawned, e)
	o.cascaded = append(o.cascaded, cascaded)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	w := NewWorld(WithObserver(obs))
	es := w.Spawn(2)
	w.Parents().Set(es[1], Parent{Entity: es[0]})
	w.Despawn(es[0])
	w.Spawn(1)

	if !reflect.DeepEqual(obs.spawned, []Entity{0, 1, 0}) {
		t.Errorf("unexpected spawn sequence %v", obs.spawned)
	}
	if !reflect.DeepEqual(obs.reused, []bool{false, false, true}) {
		t.Errorf("unexpected reuse flags %v", obs.reused)
	}
	if !reflect.DeepEqual(obs.despawned, []Entity{0, 1}) {
		t.Errorf("unexpected despawn sequence %v", obs.despawned)
	}
	if !reflect.DeepEqual(obs.cascaded, []bool{false, true}) {
		t.Errorf("unexpected cascade flags %v", obs.cascaded)
	}
}
