// Package sim runs the plant population: it owns the environment grid and
// the plant list, drives each tick and admits new seeds under the cap.
package sim

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/config"
	"github.com/pthm-cable/plantsim/environment"
	"github.com/pthm-cable/plantsim/plant"
	"github.com/pthm-cable/plantsim/telemetry"
)

// SpeciesSource supplies species definitions for founder plants.
type SpeciesSource interface {
	RandomDefinition(rng *rand.Rand) *plant.Species
}

// Options configures optional simulation behavior.
type Options struct {
	Logger   *slog.Logger
	LogStats bool                     // Log window and perf stats via slog
	Output   *telemetry.OutputManager // CSV output (nil = disabled)

	// StatsCallback is called with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// StepResult summarizes population changes in one tick.
type StepResult struct {
	Births  int // seeds admitted into the population
	Deaths  int // dead plants removed
	Dropped int // seeds discarded at the cap
}

// Simulation holds the world and every live plant.
type Simulation struct {
	cfg     *config.Config
	species SpeciesSource
	rng     *rand.Rand
	logger  *slog.Logger

	world  *environment.Grid
	plants []*plant.Plant
	tick   int64

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// New creates a simulation with a fresh environment and no plants. Call
// Initialize to plant the founders.
func New(cfg *config.Config, species SpeciesSource, rng *rand.Rand, opts Options) *Simulation {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulation{
		cfg:           cfg,
		species:       species,
		rng:           rng,
		logger:        logger,
		world:         environment.NewGrid(cfg, rng),
		output:        opts.Output,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	s.resetTelemetry()
	return s
}

func (s *Simulation) resetTelemetry() {
	s.collector = telemetry.NewCollector(s.cfg.Telemetry.StatsWindow)
	s.perfCollector = telemetry.NewPerfCollector(s.cfg.Telemetry.PerfWindow)
	s.bookmarks = telemetry.NewBookmarkDetector(10)
}

// Initialize discards the population, rewinds the tick counter and plants
// n founders of random species spread uniformly over the central half of
// the soil. n is clamped to the population cap.
func (s *Simulation) Initialize(n int) {
	s.plants = nil
	s.tick = 0
	s.resetTelemetry()

	if limit := s.cfg.Population.MaxPlants; n > limit {
		s.logger.Warn("initial population exceeds cap", "requested", n, "max_plants", limit)
		n = limit
	}

	half := s.cfg.Derived.HalfRange
	for range n {
		def := s.species.RandomDefinition(s.rng)
		pos := r3.Vec{
			X: (2*s.rng.Float64() - 1) * half,
			Y: s.cfg.Population.SeedHeight,
		}
		pos.Z = (2*s.rng.Float64() - 1) * half
		s.plants = append(s.plants, plant.Sprout(pos, def, s.rng, s.cfg.Plant.InitialEnergy))
	}

	s.logger.Info("population initialized", "plants", len(s.plants))
}

// Reset rebuilds the environment grid and re-initializes with n founders.
func (s *Simulation) Reset(n int) {
	s.world = environment.NewGrid(s.cfg, s.rng)
	s.Initialize(n)
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() StepResult {
	var res StepResult
	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseEnvironment)
	s.world.Update()

	s.perfCollector.StartPhase(telemetry.PhaseCanopy)
	s.world.BuildCanopyMap(s.leafPositions())

	s.perfCollector.StartPhase(telemetry.PhasePlants)
	ctx := &plant.Context{
		World:         s.world,
		Rand:          s.rng,
		Tick:          s.tick,
		Logger:        s.logger,
		InitialEnergy: s.cfg.Plant.InitialEnergy,
		SeedHeight:    s.cfg.Population.SeedHeight,
	}
	for _, p := range s.plants {
		p.Update(ctx)
	}

	// The population list only changes once every plant has updated.
	s.perfCollector.StartPhase(telemetry.PhaseCleanup)
	res.Deaths = s.removeDead()

	s.perfCollector.StartPhase(telemetry.PhaseSeeds)
	res.Births, res.Dropped = s.admitSeeds()

	if s.cfg.Debug.ValidateInvariants {
		s.validate()
	}

	s.tick++

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordBirths(res.Births)
	s.collector.RecordSeedsDropped(res.Dropped)
	s.flushTelemetry()

	s.perfCollector.EndTick()
	return res
}

// leafPositions yields every leaf of every plant in population order.
func (s *Simulation) leafPositions() iter.Seq[r3.Vec] {
	return func(yield func(r3.Vec) bool) {
		for _, p := range s.plants {
			for pos := range p.LeafPositions() {
				if !yield(pos) {
					return
				}
			}
		}
	}
}

// removeDead drops dead plants, returning their nutrients to the soil at
// their root cell. Seeds still queued on a dead plant are lost with it.
func (s *Simulation) removeDead() int {
	live := s.plants[:0]
	deaths := 0
	for _, p := range s.plants {
		if !p.IsDead() {
			live = append(live, p)
			continue
		}
		s.world.ReturnNutrientsToSoil(p.RootPosition(), p.OrganCount())
		s.collector.RecordDeath(p.Energy <= 0)
		deaths++
	}
	clear(s.plants[len(live):])
	s.plants = live
	return deaths
}

// admitSeeds appends queued seeds up to the population cap in plant order,
// then queue order within a plant. Seeds past the cap are discarded.
func (s *Simulation) admitSeeds() (admitted, dropped int) {
	var seeds []*plant.Plant
	for _, p := range s.plants {
		if p.HasNewSeeds() {
			seeds = append(seeds, p.HarvestSeeds()...)
		}
	}
	if len(seeds) == 0 {
		return 0, 0
	}

	room := max(0, s.cfg.Population.MaxPlants-len(s.plants))
	admitted = min(room, len(seeds))
	dropped = len(seeds) - admitted
	s.plants = append(s.plants, seeds[:admitted]...)

	if dropped > 0 {
		s.logger.Debug("population cap reached",
			"tick", s.tick,
			"admitted", admitted,
			"dropped", dropped,
			"population", len(s.plants),
		)
	}
	return admitted, dropped
}

// validate panics on the first plant whose organ tree is corrupt.
func (s *Simulation) validate() {
	for _, p := range s.plants {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("sim: tick %d: plant %s (%s): %v", s.tick, p.ID, p.Species().ID, err))
		}
	}
}

// Plants returns a snapshot of the live population.
func (s *Simulation) Plants() []*plant.Plant {
	return append([]*plant.Plant(nil), s.plants...)
}

// Population returns the number of live plants.
func (s *Simulation) Population() int { return len(s.plants) }

// World returns the shared environment grid.
func (s *Simulation) World() *environment.Grid { return s.world }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 { return s.tick }

// PerfStats returns timing aggregated over the perf window.
func (s *Simulation) PerfStats() telemetry.PerfStats { return s.perfCollector.Stats() }
