package system

import (
	"fmt"
	"strings"
	"time"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhasePreUpdate  Phase = iota // 0: apply commands queued before the tick
	PhaseUpdate                  // 1: simulation logic
	PhasePostUpdate              // 2: derived state, bookkeeping queries
	PhaseCleanup                 // 3: flush queued despawns
)

var phaseNames = [...]string{"pre_update", "update", "post_update", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase maps a schema phase name to a Phase. Empty means PhaseUpdate.
func ParsePhase(s string) (Phase, error) {
	if s == "" {
		return PhaseUpdate, nil
	}
	for i, name := range phaseNames {
		if strings.EqualFold(s, name) {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// System is the interface every ECS system implements.
type System interface {
	Name() string
	Phase() Phase
	Update(dt time.Duration)
}
