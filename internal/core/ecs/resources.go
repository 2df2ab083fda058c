package ecs

import "fmt"

// Resources is the World's block of named singleton fields. Each field is
// stored behind a pointer so passes can mutate it in place.
type Resources struct {
	fields map[string]any
	order  []string
}

func newResources() *Resources {
	return &Resources{fields: make(map[string]any, 8)}
}

// Names returns the resource names in declaration order.
func (r *Resources) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the field pointer (as *T) for name.
func (r *Resources) Get(name string) (any, bool) {
	p, ok := r.fields[name]
	return p, ok
}

func (r *Resources) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// AddResource declares a resource field initialised to init.
func AddResource[T any](w *World, name string, init T) (*T, error) {
	if w.resources.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateResource, name)
	}
	p := new(T)
	*p = init
	w.resources.fields[name] = p
	w.resources.order = append(w.resources.order, name)
	return p, nil
}

// Resource returns the typed pointer for a declared resource field.
func Resource[T any](w *World, name string) (*T, error) {
	return resourceAs[T](w.resources, name)
}

func resourceAs[T any](r *Resources, name string) (*T, error) {
	raw, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	p, ok := raw.(*T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: resource %q is %T, want *%T", ErrTypeMismatch, name, raw, zero)
	}
	return p, nil
}
