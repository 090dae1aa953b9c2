// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig       `yaml:"world"`
	Environment EnvironmentConfig `yaml:"environment"`
	Population  PopulationConfig  `yaml:"population"`
	Plant       PlantConfig       `yaml:"plant"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Species     SpeciesConfig     `yaml:"species"`
	Debug       DebugConfig       `yaml:"debug"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the extent of the soil grid and the light setting.
type WorldConfig struct {
	SoilRange      float64 `yaml:"soil_range"`      // Soil is populated for x,z in [-range, range)
	CellSize       float64 `yaml:"cell_size"`       // Edge length of one grid cell in world units
	LightIntensity float64 `yaml:"light_intensity"` // Global light scalar at startup
	MinLight       float64 `yaml:"min_light"`       // Lower clamp for AdjustLight
	MaxLight       float64 `yaml:"max_light"`       // Upper clamp for AdjustLight
}

// EnvironmentConfig holds soil dynamics parameters (all per tick).
type EnvironmentConfig struct {
	Drying                float64 `yaml:"drying"`                  // Moisture multiplier per tick
	RainChance            float64 `yaml:"rain_chance"`             // Probability that all cells reset to full moisture
	NutrientRegen         float64 `yaml:"nutrient_regen"`          // Additive regrowth toward NutrientCap
	NutrientCap           float64 `yaml:"nutrient_cap"`            // Ambient regeneration ceiling
	DecompositionPerOrgan float64 `yaml:"decomposition_per_organ"` // Nutrient returned per organ of a dead plant
	DecompositionCap      float64 `yaml:"decomposition_cap"`       // Ceiling for decomposition enrichment
	ShadowTolerance       float64 `yaml:"shadow_tolerance"`        // Height margin before canopy casts shade
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial    int     `yaml:"initial"`     // Seeds planted by Initialize
	MaxPlants  int     `yaml:"max_plants"`  // Hard cap; excess seeds are discarded
	SeedHeight float64 `yaml:"seed_height"` // Altitude new seeds are placed at
}

// PlantConfig holds per-plant construction parameters.
type PlantConfig struct {
	InitialEnergy float64 `yaml:"initial_energy"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Ticks per stats window
	PerfWindow  int `yaml:"perf_window"`  // Ticks averaged by the perf collector
}

// SpeciesConfig selects the species catalog.
type SpeciesConfig struct {
	Path string `yaml:"path"` // Catalog YAML file (empty = embedded catalog)
}

// DebugConfig holds developer switches.
type DebugConfig struct {
	ValidateInvariants bool `yaml:"validate_invariants"` // Check every plant's organ tree after each tick
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	CellsPerAxis int     // Soil cells along each axis
	MinCell      int     // Lowest populated cell index on each axis
	HalfRange    float64 // Founders are planted within ±HalfRange on x and z
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	switch {
	case c.World.CellSize <= 0:
		return fmt.Errorf("world.cell_size must be positive, got %v", c.World.CellSize)
	case c.World.SoilRange < 0:
		return fmt.Errorf("world.soil_range must not be negative, got %v", c.World.SoilRange)
	case c.World.MinLight > c.World.MaxLight:
		return fmt.Errorf("world.min_light %v exceeds world.max_light %v", c.World.MinLight, c.World.MaxLight)
	case c.Population.MaxPlants < 0:
		return fmt.Errorf("population.max_plants must not be negative, got %d", c.Population.MaxPlants)
	case c.Environment.RainChance < 0 || c.Environment.RainChance > 1:
		return fmt.Errorf("environment.rain_chance must be in [0,1], got %v", c.Environment.RainChance)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// Matches truncation of -range/size and range/size used for the soil loop bounds.
	lo := int(-c.World.SoilRange / c.World.CellSize)
	hi := int(c.World.SoilRange / c.World.CellSize)
	c.Derived.MinCell = lo
	c.Derived.CellsPerAxis = hi - lo
	c.Derived.HalfRange = c.World.SoilRange / 2
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
