package system

import (
	"fmt"
	"time"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	coresys "github.com/l1jgo/streamecs/internal/core/system"
)

// ClockSystem publishes the tick delta, in seconds, into a float resource
// before any simulation system reads it. Phase 0 (PreUpdate).
type ClockSystem struct {
	dt      *float64
	elapsed time.Duration
}

// NewClockSystem binds the clock to the named float resource of w.
func NewClockSystem(w *ecs.World, resource string) (*ClockSystem, error) {
	dt, err := ecs.Resource[float64](w, resource)
	if err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	return &ClockSystem{dt: dt}, nil
}

func (s *ClockSystem) Name() string         { return "clock" }
func (s *ClockSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

// Elapsed returns the sum of every delta seen so far.
func (s *ClockSystem) Elapsed() time.Duration { return s.elapsed }

func (s *ClockSystem) Update(dt time.Duration) {
	*s.dt = dt.Seconds()
	s.elapsed += dt
}
