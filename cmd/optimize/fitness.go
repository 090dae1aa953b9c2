package main

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/plantsim/config"
	"github.com/pthm-cable/plantsim/sim"
	"github.com/pthm-cable/plantsim/species"
	"github.com/pthm-cable/plantsim/telemetry"
)

// FitnessEvaluator runs simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	baseConfig *config.Config
	catalog    *species.Catalog

	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config, catalog *species.Catalog) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		catalog:     catalog,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the stats windows of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: below this for extinctionGraceTicks consecutive
// ticks counts as functional extinction.
const (
	minViablePop         = 3
	extinctionGraceTicks = 1000
	warmupTicks          = 200 // founders are still germinating
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Seeds are independent simulations; run them in parallel.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			results[idx] = seedResult{
				fitness: computeFitness(result, fe.catalog.Len()),
				quality: computeQuality(result.windowStats, fe.catalog.Len()),
				windows: result.windowStats,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedWindows = r.windows
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single run until functional extinction or
// maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	s := sim.New(cfg, fe.catalog, rand.New(rand.NewSource(seed)), sim.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	s.Initialize(cfg.Population.Initial)

	var belowTicks int64
	for s.Tick() < fe.maxTicks {
		s.Step()

		tick := s.Tick()
		pop := s.Population()

		// Hard extinction
		if pop == 0 {
			result.survivalTicks = tick
			return result
		}
		if tick < warmupTicks {
			continue
		}

		// Functional extinction
		if pop < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= extinctionGraceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// copyConfig returns a private copy of the base config for one run.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(r *runResult, speciesTotal int) float64 {
	survival := float64(r.survivalTicks)
	quality := computeQuality(r.windowStats, speciesTotal)
	return -(survival * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightDiversity    = 0.30
	qualityWeightStability    = 0.25
	qualityWeightEnergy       = 0.25
	qualityWeightReproduction = 0.20

	qualityWarmupWindows = 1 // skip first N windows (germination)
	qualityMinPop        = 3 // exclude windows below this population
	energyTarget         = 50.0
	energyTolerance      = 40.0
)

// computeQuality computes population quality ∈ [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats, speciesTotal int) float64 {
	if len(windows) <= qualityWarmupWindows || speciesTotal == 0 {
		return 0
	}

	var diversitySum, energySum, reproSum float64
	counts := make([]float64, 0, len(windows))

	for _, w := range windows[qualityWarmupWindows:] {
		if w.Population < qualityMinPop {
			continue
		}
		counts = append(counts, float64(w.Population))

		// 1. Species retained
		diversitySum += float64(w.Species) / float64(speciesTotal)

		// 2. Median energy near a healthy reserve
		energySum += math.Exp(-math.Pow((w.EnergyP50-energyTarget)/energyTolerance, 2))

		// 3. Share of the population flowering or fruiting
		reproducing := float64(w.Flowering+w.Fruiting) / float64(w.Population)
		reproSum += 1.0 - math.Exp(-reproducing/0.1)
	}

	if len(counts) == 0 {
		return 0
	}
	n := float64(len(counts))

	// 4. Population stability (coefficient of variation across windows)
	stabilityScore := 0.0
	if len(counts) >= 2 {
		mean, std := stat.PopMeanStdDev(counts, nil)
		if mean > 0 {
			cv := std / mean
			stabilityScore = math.Exp(-cv * cv)
		}
	}

	quality := qualityWeightDiversity*diversitySum/n +
		qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/n +
		qualityWeightReproduction*reproSum/n

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
