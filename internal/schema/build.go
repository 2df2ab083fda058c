package schema

import (
	"fmt"

	"github.com/l1jgo/streamecs/internal/core/ecs"
)

// Build creates a World with every stream and resource the definition
// declares. Resources start at their declared defaults.
func Build(d *Definition, opts ...ecs.Option) (*ecs.World, error) {
	w := ecs.NewWorld(opts...)
	for _, c := range d.Components {
		ops, ok := kinds[c.Type]
		if !ok {
			return nil, fmt.Errorf("component %q: unknown type %q", c.Name, c.Type)
		}
		if err := ops.register(w, c.Name); err != nil {
			return nil, fmt.Errorf("component %q: %w", c.Name, err)
		}
	}
	for i := range d.Resources {
		r := &d.Resources[i]
		ops, ok := kinds[r.Type]
		if !ok {
			return nil, fmt.Errorf("resource %q: unknown type %q", r.Name, r.Type)
		}
		if err := ops.addResource(w, r.Name, &r.Default); err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.Name, err)
		}
	}
	return w, nil
}
