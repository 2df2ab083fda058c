package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Sim     SimConfig     `toml:"sim"`
	Scripts ScriptsConfig `toml:"scripts"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	Schema          string `toml:"schema"`           // path to the YAML world schema
	InitialCapacity int    `toml:"initial_capacity"` // pre-allocated slots per stream
}

type SimConfig struct {
	TickRate      time.Duration `toml:"tick_rate"`
	Ticks         int           `toml:"ticks"`          // ticks run by the demo, 0 = none
	SpawnCount    int           `toml:"spawn_count"`    // entities spawned by the demo
	DeltaResource string        `toml:"delta_resource"` // float resource the clock writes
	Realtime      bool          `toml:"realtime"`       // sleep tick_rate between ticks
}

type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Schema:          "schema/world.yaml",
			InitialCapacity: 64,
		},
		Sim: SimConfig{
			TickRate:      200 * time.Millisecond,
			Ticks:         5,
			SpawnCount:    3,
			DeltaResource: "delta_time",
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) validate() error {
	switch {
	case c.World.Schema == "":
		return fmt.Errorf("world.schema is required")
	case c.World.InitialCapacity < 0:
		return fmt.Errorf("world.initial_capacity must not be negative")
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("sim.tick_rate must be positive")
	case c.Sim.Ticks < 0 || c.Sim.SpawnCount < 0:
		return fmt.Errorf("sim.ticks and sim.spawn_count must not be negative")
	}
	return nil
}
