package ecs

// Entity is a plain slot index shared by every component stream of the World
// that produced it. It is only meaningful while 0 <= e < World.LastEntity().
type Entity int

// EntityRef encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on despawn to invalidate stale refs.
type EntityRef uint64

func NewEntityRef(index uint32, generation uint32) EntityRef {
	return EntityRef(uint64(generation)<<32 | uint64(index))
}

func (r EntityRef) Index() uint32      { return uint32(r) }
func (r EntityRef) Generation() uint32 { return uint32(r >> 32) }
func (r EntityRef) Entity() Entity     { return Entity(r.Index()) }

// Spawned marks a live entity. Its stream is the only liveness signal.
type Spawned struct{}

// Parent links an entity to its parent. Nothing prevents cycles.
type Parent struct {
	Entity Entity
}

// Names of the streams every World registers up front.
const (
	SpawnedStream = "spawned"
	ParentStream  = "parents"
)
