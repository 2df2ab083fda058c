package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/l1jgo/streamecs/internal/config"
	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/l1jgo/streamecs/internal/runtime"
	"github.com/l1jgo/streamecs/internal/schema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Display helpers ───────────────────────────────────────────────

func printBanner(world string, runID string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             streamecs  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      stream-backed entity runtime         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s \033[90m(run %s)\033[0m\n\n", world, runID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Demo ──────────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/streamecs.toml"
	if p := os.Getenv("STREAMECS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Build world, scripts and systems
	rt, err := runtime.New(cfg, log)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer rt.Close()
	w := rt.World()
	def := rt.Definition()

	printBanner(def.World, rt.ID().String())
	printSection("Schema")
	printStat("Component streams", len(w.Registry().Columns()))
	printStat("Resources", len(w.Resources().Names()))
	printStat("Systems", len(rt.Runner().Systems()))
	printStat("Queries", len(def.Queries))
	fmt.Println()

	// 4. Spawn, link and despawn the way the lifecycle commands describe
	printSection("Lifecycle")
	printStat("Spawned before", len(ecs.SpawnedEntities(w)))
	spawned := w.Spawn(cfg.Sim.SpawnCount)
	printOK(fmt.Sprintf("spawned %v", spawned))
	for i := 1; i < len(spawned); i++ {
		w.Parents().Set(spawned[i], ecs.Parent{Entity: spawned[i-1]})
	}
	if len(spawned) > 0 {
		for _, name := range queryNames(def.Queries) {
			out, err := rt.Query(name)
			if err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			printOK(fmt.Sprintf("%s → %v", name, out))
		}
		printOK(fmt.Sprintf("descendants of %d: %v", spawned[0], ecs.Descendants(w, spawned[0])))
	}
	printStat("Spawned after", len(ecs.SpawnedEntities(w)))
	fmt.Println()

	// 5. Tick loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("Simulation")
	printReady(fmt.Sprintf("running %d ticks (tick: %s)", cfg.Sim.Ticks, cfg.Sim.TickRate))
	if err := rt.Run(ctx, cfg.Sim.Ticks); err != nil {
		log.Info("simulation interrupted", zap.Error(err))
	}

	if len(spawned) > 0 {
		w.Despawn(spawned[0])
		rt.Step()
		printOK(fmt.Sprintf("despawned %d with cascade", spawned[0]))
	}
	fmt.Println()

	// 6. Summary
	stats := rt.Stats()
	printSection("Summary")
	printStat("Ticks", int(rt.Runner().Ticks()))
	printStat("High-water mark", int(w.LastEntity()))
	printStat("Spawn events", stats.Spawned)
	printStat("Reused slots", stats.Reused)
	printStat("Despawn events", stats.Despawned)
	printStat("Cascaded despawns", stats.Cascaded)
	printStat("Despawned slots", len(ecs.DespawnedEntities(w)))
	printStat("Script failures", rt.ScriptFailures())
	fmt.Println()
	return nil
}

// queryNames returns the schema queries the demo can run without inputs.
func queryNames(queries []schema.PassDef) []string {
	var names []string
	for _, q := range queries {
		if len(q.Input) == 0 {
			names = append(names, q.Name)
		}
	}
	return names
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
