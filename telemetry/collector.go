// Package telemetry provides windowed population statistics, phase timing,
// bookmarks and CSV output for simulation runs.
package telemetry

import (
	"github.com/pthm-cable/plantsim/environment"
	"github.com/pthm-cable/plantsim/nutrient"
)

// Collector accumulates events within tick windows and produces WindowStats.
// A nil Collector ignores every call.
type Collector struct {
	windowTicks int64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	births       int
	starved      int
	senesced     int
	seedsDropped int
}

// NewCollector creates a collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordBirths records seeds admitted into the population.
func (c *Collector) RecordBirths(n int) {
	if c == nil {
		return
	}
	c.births += n
}

// RecordDeath records a removed plant. Plants with no energy left count as
// starved, the rest as senesced.
func (c *Collector) RecordDeath(starved bool) {
	if c == nil {
		return
	}
	if starved {
		c.starved++
	} else {
		c.senesced++
	}
}

// RecordSeedsDropped records seeds discarded at the population cap.
func (c *Collector) RecordSeedsDropped(n int) {
	if c == nil {
		return
	}
	c.seedsDropped += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	if c == nil {
		return false
	}
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Sample is the population state at the end of a window, gathered by the caller.
type Sample struct {
	Population int
	Species    int // distinct species IDs alive
	States     StateCounts
	Energies   []float64
	Organs     []float64
	Leaves     []float64
	Soil       environment.Summary
	Light      float64
}

// StateCounts counts live plants per lifecycle stage.
type StateCounts struct {
	Seed, Germinating, Vegetative, Dormant, Flowering, Fruiting int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, s Sample) WindowStats {
	if c == nil {
		return WindowStats{}
	}

	energyMean, energyStd, p10, p50, p90 := ComputeDistribution(s.Energies)
	organsMean, _, _, _, _ := ComputeDistribution(s.Organs)
	leavesMean, _, _, _, _ := ComputeDistribution(s.Leaves)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Population: s.Population,
		Species:    s.Species,

		Births:       c.births,
		Deaths:       c.starved + c.senesced,
		Starved:      c.starved,
		Senesced:     c.senesced,
		SeedsDropped: c.seedsDropped,

		Germinating: s.States.Seed + s.States.Germinating,
		Vegetative:  s.States.Vegetative,
		Dormant:     s.States.Dormant,
		Flowering:   s.States.Flowering,
		Fruiting:    s.States.Fruiting,

		EnergyMean: energyMean,
		EnergyStd:  energyStd,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,
		OrgansMean: organsMean,
		LeavesMean: leavesMean,

		MoistureMean:   s.Soil.MeanMoisture,
		MoistureMin:    s.Soil.MinMoisture,
		NitrogenMean:   s.Soil.MeanNutrient[nutrient.Nitrogen],
		PhosphorusMean: s.Soil.MeanNutrient[nutrient.Phosphorus],
		PotassiumMean:  s.Soil.MeanNutrient[nutrient.Potassium],
		MagnesiumMean:  s.Soil.MeanNutrient[nutrient.Magnesium],
		NutrientMax:    maxOf(s.Soil.MaxNutrient[:]),
		CanopyCells:    s.Soil.CanopyCells,
		Light:          s.Light,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.starved = 0
	c.senesced = 0
	c.seedsDropped = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	if c == nil {
		return 0
	}
	return c.windowTicks
}

func maxOf(xs []float64) float64 {
	var m float64
	for i, x := range xs {
		if i == 0 || x > m {
			m = x
		}
	}
	return m
}
