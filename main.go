package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/plantsim/config"
	"github.com/pthm-cable/plantsim/sim"
	"github.com/pthm-cable/plantsim/species"
	"github.com/pthm-cable/plantsim/strategy"
	"github.com/pthm-cable/plantsim/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	speciesPath := flag.String("species", "", "Species catalog YAML (empty = use config, then built-in catalog)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	initial := flag.Int("initial", -1, "Founder plants (-1 = use config)")
	light := flag.Float64("light", 0, "Global light intensity (0 = use config)")
	debug := flag.Bool("debug", false, "Debug logging and per-tick organ tree validation")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *speciesPath != "" {
		cfg.Species.Path = *speciesPath
	}
	if *debug {
		cfg.Debug.ValidateInvariants = true
	}

	// Species must resolve completely before the first tick.
	registry := strategy.NewRegistry()
	catalog, err := species.Open(cfg.Species.Path, registry)
	if err != nil {
		slog.Error("failed to load species", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	s := sim.New(cfg, catalog, rand.New(rand.NewSource(rngSeed)), sim.Options{
		Logger:   logger,
		LogStats: *logStats,
		Output:   output,
	})
	if *light > 0 {
		if got := s.World().SetLight(*light); got != *light {
			slog.Warn("light intensity clamped", "requested", *light, "applied", got)
		}
	}

	founders := cfg.Population.Initial
	if *initial >= 0 {
		founders = *initial
	}
	s.Initialize(founders)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"species", catalog.Len(),
		"strategies", registry.Names(),
		"founders", s.Population(),
		"max_plants", cfg.Population.MaxPlants,
		"max_ticks", *maxTicks,
		"output_dir", output.Dir(),
	)

	for {
		s.Step()

		if *maxTicks > 0 && s.Tick() >= int64(*maxTicks) {
			slog.Info("max ticks reached", "tick", s.Tick(), "population", s.Population())
			return
		}
		if s.Population() == 0 {
			slog.Info("population extinct", "tick", s.Tick())
			return
		}
	}
}
