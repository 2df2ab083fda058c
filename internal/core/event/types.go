package event

import "github.com/l1jgo/streamecs/internal/core/ecs"

// Entity lifecycle events, emitted through WorldObserver.

type EntitySpawned struct {
	Entity ecs.Entity
	Reused bool // slot was recycled rather than appended
}

type EntityDespawned struct {
	Entity   ecs.Entity
	Cascaded bool // despawned because an ancestor was
}

// WorldObserver forwards a World's lifecycle notifications onto a Bus.
type WorldObserver struct {
	bus *Bus
}

func NewWorldObserver(b *Bus) *WorldObserver {
	return &WorldObserver{bus: b}
}

func (o *WorldObserver) EntitySpawned(e ecs.Entity, reused bool) {
	Emit(o.bus, EntitySpawned{Entity: e, Reused: reused})
}

func (o *WorldObserver) EntityDespawned(e ecs.Entity, cascaded bool) {
	Emit(o.bus, EntityDespawned{Entity: e, Cascaded: cascaded})
}
