package schema

import (
	"fmt"
	"os"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// Definition describes the shape of one World: its component streams, its
// resource fields, and the systems and queries that run over them.
type Definition struct {
	World      string         `yaml:"world"`
	Components []ComponentDef `yaml:"components"`
	Resources  []ResourceDef  `yaml:"resources"`
	Systems    []PassDef      `yaml:"systems"`
	Queries    []PassDef      `yaml:"queries"`
}

type ComponentDef struct {
	Name string `yaml:"name"`
	Type Kind   `yaml:"type"`
}

type ResourceDef struct {
	Name    string    `yaml:"name"`
	Type    Kind      `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

// PassDef describes a system (phase set, no seed) or a query (seed set).
// Script names the Lua global function that forms the per-entity body.
type PassDef struct {
	Name      string     `yaml:"name"`
	Phase     string     `yaml:"phase"`
	Read      []string   `yaml:"read"`
	Write     []string   `yaml:"write"`
	Resources []string   `yaml:"resources"`
	Input     []ParamDef `yaml:"input"`
	Seed      yaml.Node  `yaml:"seed"`
	Script    string     `yaml:"script"`
}

type ParamDef struct {
	Name string `yaml:"name"`
	Type Kind   `yaml:"type"`
}

func (p PassDef) Access() ecs.Access {
	return ecs.Access{Read: p.Read, Write: p.Write, Resources: p.Resources}
}

// SeedValue decodes the query seed into plain Go values (numbers, strings,
// bools, []any, map[string]any). A missing seed is nil.
func (p PassDef) SeedValue() (any, error) {
	if p.Seed.Kind == 0 {
		return nil, nil
	}
	var v any
	if err := p.Seed.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode seed of %q: %w", p.Name, err)
	}
	return v, nil
}

// Load reads and validates a schema file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	def, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a schema document.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// System returns the named system definition.
func (d *Definition) System(name string) (PassDef, bool) {
	return findPass(d.Systems, name)
}

// Query returns the named query definition.
func (d *Definition) Query(name string) (PassDef, bool) {
	return findPass(d.Queries, name)
}

func findPass(defs []PassDef, name string) (PassDef, bool) {
	for _, p := range defs {
		if p.Name == name {
			return p, true
		}
	}
	return PassDef{}, false
}
