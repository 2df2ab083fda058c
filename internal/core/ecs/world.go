package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// Observer is notified of entity lifecycle transitions.
type Observer interface {
	EntitySpawned(e Entity, reused bool)
	EntityDespawned(e Entity, cascaded bool)
}

type nopObserver struct{}

func (nopObserver) EntitySpawned(Entity, bool)   {}
func (nopObserver) EntityDespawned(Entity, bool) {}

// World is the top-level ECS container. It owns the high-water mark, the
// resource block, every component stream, and a deferred despawn queue
// flushed by CleanupSystem each tick.
//
// A World is not safe for concurrent use.
type World struct {
	lastEntity   Entity
	registry     *Registry
	resources    *Resources
	spawned      *Stream[Spawned]
	parents      *Stream[Parent]
	generations  []uint32
	despawnQueue []Entity
	capacity     int
	observer     Observer
	log          *zap.Logger
}

type Option func(*World)

func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithCapacity pre-allocates slot storage for n entities in every stream.
func WithCapacity(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.capacity = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(w *World) {
		if o != nil {
			w.observer = o
		}
	}
}

func NewWorld(opts ...Option) *World {
	w := &World{
		registry:     NewRegistry(),
		resources:    newResources(),
		despawnQueue: make([]Entity, 0, 64),
		capacity:     64,
		observer:     nopObserver{},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.generations = make([]uint32, 0, w.capacity)
	w.spawned, _ = Register[Spawned](w, SpawnedStream)
	w.parents, _ = Register[Parent](w, ParentStream)
	return w
}

// Register creates a stream for T under name, sized to the current mark.
func Register[T any](w *World, name string) (*Stream[T], error) {
	s := NewStream[T](name, w.capacity)
	if err := w.registry.Register(s); err != nil {
		return nil, err
	}
	s.ResizeTo(int(w.lastEntity))
	w.log.Debug("stream registered", zap.String("stream", name), zap.Int("len", s.Len()))
	return s, nil
}

// Lookup returns the typed stream registered under name.
func Lookup[T any](w *World, name string) (*Stream[T], error) {
	c, ok := w.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, name)
	}
	s, ok := c.(*Stream[T])
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: stream %q holds %T, want %T", ErrTypeMismatch, name, c.Zero(), zero)
	}
	return s, nil
}

// LastEntity is one past the largest index ever allocated. It is a
// high-water mark, not a count of live entities.
func (w *World) LastEntity() Entity                { return w.lastEntity }
func (w *World) Spawned() *Stream[Spawned]         { return w.spawned }
func (w *World) Parents() *Stream[Parent]          { return w.parents }
func (w *World) Registry() *Registry               { return w.registry }
func (w *World) Resources() *Resources             { return w.resources }
func (w *World) Logger() *zap.Logger               { return w.log }
func (w *World) Column(name string) (Column, bool) { return w.registry.Get(name) }

// ResizeComponents grows every stream to the current mark in lockstep.
func (w *World) ResizeComponents() {
	n := int(w.lastEntity)
	w.registry.ResizeAll(n)
	if n > len(w.generations) {
		w.generations = append(w.generations, make([]uint32, n-len(w.generations))...)
	}
}

// ClearEntity resets every component of e, Spawned included. Resetting a
// slot that was never allocated is a caller bug and panics.
func (w *World) ClearEntity(e Entity) {
	if e < 0 || e >= w.lastEntity {
		panic(fmt.Sprintf("%v: clear entity %d, last entity %d", ErrEntityOutOfRange, e, w.lastEntity))
	}
	w.registry.ClearAll(e)
}

func (w *World) IsSpawned(e Entity) bool {
	return w.spawned.Has(e)
}

// HasComponent reports whether the named stream is present at e. Unknown
// streams report false.
func (w *World) HasComponent(name string, e Entity) bool {
	c, ok := w.registry.Get(name)
	return ok && c.Has(e)
}

// Generation returns the despawn count of slot e.
func (w *World) Generation(e Entity) uint32 {
	if e < 0 || int(e) >= len(w.generations) {
		return 0
	}
	return w.generations[e]
}

// Ref captures e together with its current generation.
func (w *World) Ref(e Entity) EntityRef {
	return NewEntityRef(uint32(e), w.Generation(e))
}

// Resolve returns the entity behind ref if it is still spawned and has not
// been despawned since the ref was taken.
func (w *World) Resolve(ref EntityRef) (Entity, bool) {
	e := ref.Entity()
	if e >= w.lastEntity || !w.IsSpawned(e) {
		return 0, false
	}
	if w.generations[e] != ref.Generation() {
		return 0, false
	}
	return e, true
}
