package ecs

import "fmt"

// Column is the type-erased view of a Stream. The Registry and the World use
// it to reset and resize every stream in lockstep; the schema and scripting
// layers use GetAny/SetAny to move values without knowing T.
type Column interface {
	Name() string
	Len() int
	Has(e Entity) bool
	Clear(e Entity)
	ResizeTo(n int)
	GetAny(e Entity) (any, bool)
	SetAny(e Entity, v any) error
	// Zero returns the zero value of the element type.
	Zero() any
}

type slot[T any] struct {
	value T
	ok    bool
}

// Stream is the storage for one component type across all entities of a
// World. Slot i holds entity i's value or is absent. No reflect; pure generics.
type Stream[T any] struct {
	name  string
	slots []slot[T]
	count int
}

func NewStream[T any](name string, capacity int) *Stream[T] {
	return &Stream[T]{
		name:  name,
		slots: make([]slot[T], 0, capacity),
	}
}

func (s *Stream[T]) Name() string { return s.name }
func (s *Stream[T]) Len() int     { return len(s.slots) }

// Count returns the number of present slots.
func (s *Stream[T]) Count() int { return s.count }

func (s *Stream[T]) inRange(e Entity) bool {
	return e >= 0 && int(e) < len(s.slots)
}

// Get returns the value at e. Out-of-range reads report absent.
func (s *Stream[T]) Get(e Entity) (T, bool) {
	if !s.inRange(e) || !s.slots[e].ok {
		var zero T
		return zero, false
	}
	return s.slots[e].value, true
}

// GetMut returns a pointer into the stream. The pointer is only valid until
// the stream next grows.
func (s *Stream[T]) GetMut(e Entity) (*T, bool) {
	if !s.inRange(e) || !s.slots[e].ok {
		return nil, false
	}
	return &s.slots[e].value, true
}

func (s *Stream[T]) Has(e Entity) bool {
	return s.inRange(e) && s.slots[e].ok
}

// Set stores v at e. Streams only grow through the World, so writing past
// Len is a programming error.
func (s *Stream[T]) Set(e Entity, v T) {
	if !s.inRange(e) {
		panic(fmt.Sprintf("%v: set %s[%d], len %d", ErrEntityOutOfRange, s.name, e, len(s.slots)))
	}
	sl := &s.slots[e]
	if !sl.ok {
		s.count++
	}
	sl.value = v
	sl.ok = true
}

func (s *Stream[T]) Clear(e Entity) {
	if !s.inRange(e) {
		return
	}
	sl := &s.slots[e]
	if sl.ok {
		s.count--
	}
	var zero T
	sl.value = zero
	sl.ok = false
}

// ResizeTo grows the stream to n slots, new slots absent. It never shrinks.
func (s *Stream[T]) ResizeTo(n int) {
	if n <= len(s.slots) {
		return
	}
	s.slots = append(s.slots, make([]slot[T], n-len(s.slots))...)
}

func (s *Stream[T]) GetAny(e Entity) (any, bool) {
	v, ok := s.Get(e)
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *Stream[T]) SetAny(e Entity, v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: stream %q holds %T, got %T", ErrTypeMismatch, s.name, s.Zero(), v)
	}
	if !s.inRange(e) {
		return fmt.Errorf("%w: set %s[%d], len %d", ErrEntityOutOfRange, s.name, e, len(s.slots))
	}
	s.Set(e, tv)
	return nil
}

func (s *Stream[T]) Zero() any {
	var zero T
	return zero
}

// Each calls fn for every present slot in ascending index order.
func (s *Stream[T]) Each(fn func(Entity, *T)) {
	for i := range s.slots {
		if s.slots[i].ok {
			fn(Entity(i), &s.slots[i].value)
		}
	}
}
