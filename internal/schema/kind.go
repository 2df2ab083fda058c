package schema

import (
	"fmt"

	"github.com/l1jgo/streamecs/internal/component"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// Kind names the element type of a component stream, resource field or
// pass input in a schema file.
type Kind string

const (
	KindTag    Kind = "tag"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindEntity Kind = "entity"
	KindVec2   Kind = "vec2"
)

type kindOps struct {
	register    func(w *ecs.World, name string) error
	addResource func(w *ecs.World, name string, def *yaml.Node) error
	decode      func(node *yaml.Node) (any, error)
}

var kinds = map[Kind]kindOps{
	KindTag:    opsFor[component.Tag](),
	KindBool:   opsFor[bool](),
	KindInt:    opsFor[int64](),
	KindFloat:  opsFor[float64](),
	KindString: opsFor[string](),
	KindEntity: opsFor[ecs.Entity](),
	KindVec2:   opsFor[component.Vec2](),
}

func opsFor[T any]() kindOps {
	return kindOps{
		register: func(w *ecs.World, name string) error {
			_, err := ecs.Register[T](w, name)
			return err
		},
		addResource: func(w *ecs.World, name string, def *yaml.Node) error {
			v, err := decodeAs[T](def)
			if err != nil {
				return err
			}
			_, err = ecs.AddResource(w, name, v)
			return err
		},
		decode: func(node *yaml.Node) (any, error) {
			return decodeAs[T](node)
		},
	}
}

// decodeAs decodes node into T. A missing node yields the zero value.
func decodeAs[T any](node *yaml.Node) (T, error) {
	var v T
	if node == nil || node.Kind == 0 {
		return v, nil
	}
	if err := node.Decode(&v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Decode converts a YAML value into the Go type backing k.
func (k Kind) Decode(node *yaml.Node) (any, error) {
	ops, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", k)
	}
	return ops.decode(node)
}
