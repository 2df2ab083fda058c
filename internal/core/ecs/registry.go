package ecs

import "fmt"

// Registry tracks all component streams of a World and supports bulk reset
// and lockstep growth.
type Registry struct {
	columns []Column
	byName  map[string]Column
}

func NewRegistry() *Registry {
	return &Registry{
		columns: make([]Column, 0, 16),
		byName:  make(map[string]Column, 16),
	}
}

// Register adds a stream to the registry. Names are unique per World.
func (r *Registry) Register(c Column) error {
	if _, ok := r.byName[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStream, c.Name())
	}
	r.columns = append(r.columns, c)
	r.byName[c.Name()] = c
	return nil
}

func (r *Registry) Get(name string) (Column, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Columns returns the registered streams in registration order.
func (r *Registry) Columns() []Column {
	out := make([]Column, len(r.columns))
	copy(out, r.columns)
	return out
}

// ClearAll clears the given entity in every registered stream.
func (r *Registry) ClearAll(e Entity) {
	for _, c := range r.columns {
		c.Clear(e)
	}
}

// ResizeAll grows every registered stream to at least n slots.
func (r *Registry) ResizeAll(n int) {
	for _, c := range r.columns {
		c.ResizeTo(n)
	}
}
