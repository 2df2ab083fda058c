package system

import (
	"fmt"
	"time"

	coresys "github.com/l1jgo/streamecs/internal/core/system"
	"github.com/l1jgo/streamecs/internal/scripting"
	"go.uber.org/zap"
)

// ScriptSystem runs a schema-declared Lua system each tick. A failing
// script is logged and counted; the tick carries on with the next system.
type ScriptSystem struct {
	pass     *scripting.Pass
	phase    coresys.Phase
	failures int
	lastErr  error
	log      *zap.Logger
}

func NewScriptSystem(pass *scripting.Pass, log *zap.Logger) (*ScriptSystem, error) {
	phase, err := coresys.ParsePhase(pass.Def().Phase)
	if err != nil {
		return nil, fmt.Errorf("system %s: %w", pass.Name(), err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptSystem{pass: pass, phase: phase, log: log}, nil
}

func (s *ScriptSystem) Name() string         { return s.pass.Name() }
func (s *ScriptSystem) Phase() coresys.Phase { return s.phase }

// Failures returns how many ticks the script has failed, and the last error.
func (s *ScriptSystem) Failures() (int, error) { return s.failures, s.lastErr }

func (s *ScriptSystem) Update(_ time.Duration) {
	if err := s.pass.Run(); err != nil {
		s.failures++
		s.lastErr = err
		s.log.Warn("script system failed", zap.String("system", s.Name()), zap.Int("failures", s.failures))
	}
}
