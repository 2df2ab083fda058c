// Profiling:
// go build ./cmd/ecsprofile
// ./ecsprofile -mode mem
// go tool pprof -http=":8000" -nodefraction=0.001 ./ecsprofile mem.pprof

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/l1jgo/streamecs/internal/core/ecs"
	"github.com/pkg/profile"
)

type position struct{ X, Y float64 }

type velocity struct{ X, Y float64 }

func main() {
	mode := flag.String("mode", "mem", "profile mode: cpu or mem")
	rounds := flag.Int("rounds", 20, "worlds to build")
	iters := flag.Int("iters", 1000, "spawn/query/despawn cycles per world")
	entities := flag.Int("entities", 1000, "entities spawned per cycle")
	flag.Parse()

	var opt func(*profile.Profile)
	switch *mode {
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfileAllocs
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	moved := run(*rounds, *iters, *entities)
	p.Stop()
	fmt.Printf("moved %d entities\n", moved)
}

// run churns the allocator and the whole-match walk: every cycle spawns a
// batch (reusing the slots the previous cycle freed), integrates positions
// for entities that carry a velocity, and despawns the batch through a
// single root so the hierarchy cascade does the rest.
func run(rounds, iters, numEntities int) int {
	moved := 0
	for r := 0; r < rounds; r++ {
		w := ecs.NewWorld(ecs.WithCapacity(numEntities))
		positions, _ := ecs.Register[position](w, "positions")
		velocities, _ := ecs.Register[velocity](w, "velocities")
		pass := ecs.MustPass(w, ecs.Access{
			Read:  []string{ecs.SpawnedStream, "velocities"},
			Write: []string{"positions"},
		})

		for it := 0; it < iters; it++ {
			batch := w.Spawn(numEntities)
			for i, e := range batch {
				positions.Set(e, position{})
				if i%2 == 0 {
					velocities.Set(e, velocity{X: 1, Y: 1})
				}
				if i > 0 {
					w.Parents().Set(e, ecs.Parent{Entity: batch[0]})
				}
			}
			pass.Run(func(r ecs.Row) {
				v := ecs.Read(r, velocities)
				p := ecs.Write(r, positions)
				p.X += v.X
				p.Y += v.Y
				moved++
			})
			w.Despawn(batch[0])
		}
	}
	return moved
}
