package ecs

import "fmt"

// Access declares what a pass touches: streams read, streams written, and
// resource fields. A stream may appear at most once across Read and Write.
type Access struct {
	Read      []string
	Write     []string
	Resources []string
}

type accessMode uint8

const (
	modeRead accessMode = iota + 1
	modeWrite
)

// Pass is one bound iteration over a World. It walks every slot below the
// mark in ascending order and visits the slots where every declared stream
// is present.
type Pass struct {
	world   *World
	access  Access
	columns []Column
	modes   map[Column]accessMode
	res     map[string]any
}

// NewPass binds the declared streams and resources of w.
func NewPass(w *World, a Access) (*Pass, error) {
	p := &Pass{
		world:   w,
		access:  a,
		columns: make([]Column, 0, len(a.Read)+len(a.Write)),
		modes:   make(map[Column]accessMode, len(a.Read)+len(a.Write)),
		res:     make(map[string]any, len(a.Resources)),
	}
	if err := p.bind(a.Read, modeRead); err != nil {
		return nil, err
	}
	if err := p.bind(a.Write, modeWrite); err != nil {
		return nil, err
	}
	for _, name := range a.Resources {
		ptr, ok := w.resources.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
		}
		p.res[name] = ptr
	}
	return p, nil
}

// MustPass is NewPass for accesses fixed at compile time.
func MustPass(w *World, a Access) *Pass {
	p, err := NewPass(w, a)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pass) bind(names []string, mode accessMode) error {
	for _, name := range names {
		c, ok := p.world.registry.Get(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStream, name)
		}
		if _, dup := p.modes[c]; dup {
			return fmt.Errorf("%w: %q", ErrAliasedStream, name)
		}
		p.modes[c] = mode
		p.columns = append(p.columns, c)
	}
	return nil
}

func (p *Pass) World() *World  { return p.world }
func (p *Pass) Access() Access { return p.access }

// Matches reports whether every declared stream is present at e.
func (p *Pass) Matches(e Entity) bool {
	if e < 0 || e >= p.world.lastEntity {
		return false
	}
	for _, c := range p.columns {
		if !c.Has(e) {
			return false
		}
	}
	return true
}

// Run is the system form: fn is called for each matching entity and nothing
// is returned. Entities spawned during the walk are not visited.
func (p *Pass) Run(fn func(Row)) {
	last := p.world.lastEntity
	for e := Entity(0); e < last; e++ {
		if p.Matches(e) {
			fn(Row{pass: p, entity: e})
		}
	}
}

// RunE is Run for bodies that can fail. The walk stops at the first error.
func (p *Pass) RunE(fn func(Row) error) error {
	last := p.world.lastEntity
	for e := Entity(0); e < last; e++ {
		if !p.Matches(e) {
			continue
		}
		if err := fn(Row{pass: p, entity: e}); err != nil {
			return fmt.Errorf("entity %d: %w", e, err)
		}
	}
	return nil
}

// Count returns the number of matching entities.
func (p *Pass) Count() int {
	return Fold(p, 0, func(_ Row, n *int) { *n++ })
}

// Fold is the query form: fn folds every matching entity into an
// accumulator that starts at seed, and the final value is returned.
func Fold[A any](p *Pass, seed A, fn func(Row, *A)) A {
	acc := seed
	p.Run(func(r Row) { fn(r, &acc) })
	return acc
}

// Row is the per-entity view handed to pass bodies.
type Row struct {
	pass   *Pass
	entity Entity
}

func (r Row) Entity() Entity { return r.entity }
func (r Row) World() *World  { return r.pass.world }

// Read returns the value of s at the current entity. s must be declared by
// the pass, either as read or write.
func Read[T any](r Row, s *Stream[T]) T {
	if _, ok := r.pass.modes[s]; !ok {
		panic(fmt.Sprintf("%v: read %q", ErrUndeclaredAccess, s.Name()))
	}
	v, _ := s.Get(r.entity)
	return v
}

// Write returns a mutable pointer into s at the current entity. s must be
// declared as write.
func Write[T any](r Row, s *Stream[T]) *T {
	if r.pass.modes[s] != modeWrite {
		panic(fmt.Sprintf("%v: write %q", ErrUndeclaredAccess, s.Name()))
	}
	v, _ := s.GetMut(r.entity)
	return v
}

// Res returns a declared resource field.
func Res[T any](r Row, name string) *T {
	raw, ok := r.pass.res[name]
	if !ok {
		panic(fmt.Sprintf("%v: resource %q", ErrUndeclaredAccess, name))
	}
	v, ok := raw.(*T)
	if !ok {
		panic(fmt.Sprintf("%v: resource %q is %T", ErrTypeMismatch, name, raw))
	}
	return v
}

// Resource returns the declared resource pointer without a type, for callers
// that convert values dynamically.
func (r Row) Resource(name string) (any, bool) {
	v, ok := r.pass.res[name]
	return v, ok
}

// Column returns a declared stream and whether it was declared writable.
func (r Row) Column(name string) (Column, bool, bool) {
	c, ok := r.pass.world.registry.Get(name)
	if !ok {
		return nil, false, false
	}
	mode, ok := r.pass.modes[c]
	return c, mode == modeWrite, ok
}

// SpawnedEntities returns every live entity in ascending order.
func SpawnedEntities(w *World) []Entity {
	p := MustPass(w, Access{Read: []string{SpawnedStream}})
	return Fold(p, []Entity{}, func(r Row, out *[]Entity) {
		*out = append(*out, r.Entity())
	})
}

// DespawnedEntities returns every slot below the mark whose Spawned marker is
// absent, in ascending order.
func DespawnedEntities(w *World) []Entity {
	p := MustPass(w, Access{})
	return Fold(p, []Entity{}, func(r Row, out *[]Entity) {
		if !r.World().IsSpawned(r.Entity()) {
			*out = append(*out, r.Entity())
		}
	})
}
