package schema

import (
	"fmt"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/l1jgo/streamecs/internal/core/system"
	"go.uber.org/multierr"
)

// Validate reports every problem in the definition, not just the first.
func (d *Definition) Validate() error {
	var errs error
	streams := map[string]bool{ecs.SpawnedStream: true, ecs.ParentStream: true}
	for _, c := range d.Components {
		switch {
		case c.Name == "":
			errs = multierr.Append(errs, fmt.Errorf("component with empty name"))
		case streams[c.Name]:
			errs = multierr.Append(errs, fmt.Errorf("component %q declared twice or shadows a built-in stream", c.Name))
		}
		if !c.Type.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("component %q: unknown type %q", c.Name, c.Type))
		}
		streams[c.Name] = true
	}

	resources := map[string]bool{}
	for _, r := range d.Resources {
		switch {
		case r.Name == "":
			errs = multierr.Append(errs, fmt.Errorf("resource with empty name"))
		case resources[r.Name]:
			errs = multierr.Append(errs, fmt.Errorf("resource %q declared twice", r.Name))
		}
		if !r.Type.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("resource %q: unknown type %q", r.Name, r.Type))
		} else if _, err := r.Type.Decode(&r.Default); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resource %q default: %w", r.Name, err))
		}
		resources[r.Name] = true
	}

	passes := map[string]bool{}
	check := func(kind string, p PassDef) {
		if p.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s with empty name", kind))
		} else if passes[p.Name] {
			errs = multierr.Append(errs, fmt.Errorf("%s %q: name already used", kind, p.Name))
		}
		passes[p.Name] = true
		if p.Script == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s %q: missing script", kind, p.Name))
		}
		seen := map[string]bool{}
		for _, name := range append(append([]string{}, p.Read...), p.Write...) {
			if !streams[name] {
				errs = multierr.Append(errs, fmt.Errorf("%s %q: unknown stream %q", kind, p.Name, name))
			}
			if seen[name] {
				errs = multierr.Append(errs, fmt.Errorf("%s %q: stream %q declared more than once", kind, p.Name, name))
			}
			seen[name] = true
		}
		for _, name := range p.Write {
			if name == ecs.SpawnedStream {
				errs = multierr.Append(errs, fmt.Errorf("%s %q: stream %q is managed by spawn and despawn", kind, p.Name, name))
			}
		}
		for _, name := range p.Resources {
			if !resources[name] {
				errs = multierr.Append(errs, fmt.Errorf("%s %q: unknown resource %q", kind, p.Name, name))
			}
		}
		for _, in := range p.Input {
			if in.Name == "" || !in.Type.Valid() {
				errs = multierr.Append(errs, fmt.Errorf("%s %q: bad input %q of type %q", kind, p.Name, in.Name, in.Type))
			}
		}
	}
	for _, s := range d.Systems {
		check("system", s)
		if _, err := system.ParsePhase(s.Phase); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", s.Name, err))
		}
		if s.Seed.Kind != 0 {
			errs = multierr.Append(errs, fmt.Errorf("system %q: systems take no seed", s.Name))
		}
		if len(s.Input) > 0 {
			errs = multierr.Append(errs, fmt.Errorf("system %q: systems take no input", s.Name))
		}
	}
	for _, q := range d.Queries {
		check("query", q)
		if q.Phase != "" {
			errs = multierr.Append(errs, fmt.Errorf("query %q: queries have no phase", q.Name))
		}
	}
	return errs
}
