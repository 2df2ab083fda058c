// Package runtime assembles a World, its scripts and its systems from a
// config file and a schema file into something that can be ticked.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/streamecs/internal/config"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/l1jgo/streamecs/internal/core/event"
	coresys "github.com/l1jgo/streamecs/internal/core/system"
	"github.com/l1jgo/streamecs/internal/schema"
	"github.com/l1jgo/streamecs/internal/scripting"
	"github.com/l1jgo/streamecs/internal/system"
	"go.uber.org/zap"
)

// Stats counts lifecycle events as delivered by the event bus, so they lag
// the World by one tick.
type Stats struct {
	Spawned   int
	Reused    int
	Despawned int
	Cascaded  int
}

type Runtime struct {
	id      uuid.UUID
	cfg     *config.Config
	def     *schema.Definition
	world   *ecs.World
	bus     *event.Bus
	runner  *coresys.Runner
	engine  *scripting.Engine
	clock   *system.ClockSystem
	scripts []*system.ScriptSystem
	queries map[string]*scripting.Pass
	stats   Stats
	log     *zap.Logger
}

// New loads the schema named by cfg and builds a runtime from it.
func New(cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	def, err := schema.Load(cfg.World.Schema)
	if err != nil {
		return nil, err
	}
	return FromDefinition(cfg, def, log)
}

// FromDefinition builds a runtime from an already parsed schema.
//
// Systems are registered as: event dispatch and clock (pre_update), the
// schema's scripted systems in declaration order within their phase, the
// spawn announcer (post_update), and cleanup.
func FromDefinition(cfg *config.Config, def *schema.Definition, log *zap.Logger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	log = log.With(zap.String("run", id.String()))

	bus := event.NewBus()
	w, err := schema.Build(def,
		ecs.WithLogger(log.Named("ecs")),
		ecs.WithCapacity(cfg.World.InitialCapacity),
		ecs.WithObserver(event.NewWorldObserver(bus)),
	)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	engine, err := scripting.NewEngine(w, cfg.Scripts.Dir, log.Named("lua"))
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		id:      id,
		cfg:     cfg,
		def:     def,
		world:   w,
		bus:     bus,
		runner:  coresys.NewRunner(log.Named("runner")),
		engine:  engine,
		queries: make(map[string]*scripting.Pass, len(def.Queries)),
		log:     log,
	}
	rt.subscribe()
	if err := rt.registerSystems(); err != nil {
		engine.Close()
		return nil, err
	}
	for _, qd := range def.Queries {
		p, err := engine.Bind(qd)
		if err != nil {
			engine.Close()
			return nil, fmt.Errorf("query %s: %w", qd.Name, err)
		}
		rt.queries[qd.Name] = p
	}

	log.Info("runtime ready",
		zap.String("world", def.World),
		zap.Int("streams", len(w.Registry().Columns())),
		zap.Int("resources", len(w.Resources().Names())),
		zap.Int("systems", len(rt.runner.Systems())),
		zap.Int("queries", len(rt.queries)),
	)
	return rt, nil
}

func (rt *Runtime) subscribe() {
	event.Subscribe(rt.bus, func(ev event.EntitySpawned) {
		rt.stats.Spawned++
		if ev.Reused {
			rt.stats.Reused++
		}
	})
	event.Subscribe(rt.bus, func(ev event.EntityDespawned) {
		rt.stats.Despawned++
		if ev.Cascaded {
			rt.stats.Cascaded++
		}
	})
}

func (rt *Runtime) registerSystems() error {
	rt.runner.Register(system.NewEventDispatchSystem(rt.bus))

	if name := rt.cfg.Sim.DeltaResource; name != "" && rt.world.Resources().Has(name) {
		clock, err := system.NewClockSystem(rt.world, name)
		if err != nil {
			return err
		}
		rt.clock = clock
		rt.runner.Register(clock)
	}

	for _, sd := range rt.def.Systems {
		p, err := rt.engine.Bind(sd)
		if err != nil {
			return fmt.Errorf("system %s: %w", sd.Name, err)
		}
		s, err := system.NewScriptSystem(p, rt.log)
		if err != nil {
			return err
		}
		rt.scripts = append(rt.scripts, s)
		rt.runner.Register(s)
	}

	rt.runner.Register(rt.announcer())
	rt.runner.Register(system.NewCleanupSystem(rt.world))
	return nil
}

// announcer logs every spawned entity together with the clock's delta.
func (rt *Runtime) announcer() coresys.System {
	access := ecs.Access{Read: []string{ecs.SpawnedStream}}
	if rt.clock != nil {
		access.Resources = []string{rt.cfg.Sim.DeltaResource}
	}
	pass := ecs.MustPass(rt.world, access)
	return system.NewPassSystem("announce_spawned", coresys.PhasePostUpdate, pass, func(r ecs.Row, _ time.Duration) {
		fields := []zap.Field{zap.Int("entity", int(r.Entity()))}
		if rt.clock != nil {
			fields = append(fields, zap.Float64("delta_time", *ecs.Res[float64](r, rt.cfg.Sim.DeltaResource)))
		}
		rt.log.Debug("spawned entity", fields...)
	})
}

func (rt *Runtime) ID() uuid.UUID                  { return rt.id }
func (rt *Runtime) World() *ecs.World              { return rt.world }
func (rt *Runtime) Definition() *schema.Definition { return rt.def }
func (rt *Runtime) Runner() *coresys.Runner        { return rt.runner }
func (rt *Runtime) Engine() *scripting.Engine      { return rt.engine }
func (rt *Runtime) Stats() Stats                   { return rt.stats }
func (rt *Runtime) Logger() *zap.Logger            { return rt.log }

// ScriptFailures sums the failed runs of every scripted system.
func (rt *Runtime) ScriptFailures() int {
	n := 0
	for _, s := range rt.scripts {
		f, _ := s.Failures()
		n += f
	}
	return n
}

// Query runs a schema query from its declared seed.
func (rt *Runtime) Query(name string, inputs ...any) (any, error) {
	p, ok := rt.queries[name]
	if !ok {
		return nil, fmt.Errorf("unknown query %q", name)
	}
	seed, err := p.Def().SeedValue()
	if err != nil {
		return nil, err
	}
	return p.Fold(seed, inputs...)
}

// Step runs one tick with the configured tick rate as delta.
func (rt *Runtime) Step() {
	rt.runner.Tick(rt.cfg.Sim.TickRate)
}

// Run steps n ticks. In realtime mode ticks are paced by a ticker at the
// configured rate; otherwise they run back to back. It stops early when ctx
// is done.
func (rt *Runtime) Run(ctx context.Context, n int) error {
	if !rt.cfg.Sim.Realtime {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			rt.Step()
		}
		return nil
	}

	ticker := time.NewTicker(rt.cfg.Sim.TickRate)
	defer ticker.Stop()
	for i := 0; i < n; {
		select {
		case <-ticker.C:
			rt.Step()
			i++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (rt *Runtime) Close() {
	rt.engine.Close()
}
