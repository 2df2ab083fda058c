package system

import (
	"time"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	coresys "github.com/l1jgo/streamecs/internal/core/system"
)

// CleanupSystem flushes the deferred despawn queue at tick end.
// Phase 3 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Name() string         { return "cleanup" }
func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDespawns()
}
