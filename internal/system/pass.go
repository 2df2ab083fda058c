package system

import (
	"time"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	coresys "github.com/l1jgo/streamecs/internal/core/system"
)

// PassSystem runs a Go function over every entity matching an ecs.Pass.
type PassSystem struct {
	name  string
	phase coresys.Phase
	pass  *ecs.Pass
	fn    func(r ecs.Row, dt time.Duration)
}

func NewPassSystem(name string, phase coresys.Phase, pass *ecs.Pass, fn func(ecs.Row, time.Duration)) *PassSystem {
	return &PassSystem{name: name, phase: phase, pass: pass, fn: fn}
}

func (s *PassSystem) Name() string         { return s.name }
func (s *PassSystem) Phase() coresys.Phase { return s.phase }

func (s *PassSystem) Update(dt time.Duration) {
	s.pass.Run(func(r ecs.Row) { s.fn(r, dt) })
}
