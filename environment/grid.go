// Package environment holds the shared soil and light field plants draw on.
package environment

import (
	"iter"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/config"
	"github.com/pthm-cable/plantsim/nutrient"
)

// Health factor bounds.
const (
	minFactor = 0.1
	maxFactor = 1.0
)

// Cell addresses one horizontal grid cell.
type Cell struct {
	X, Z int
}

// Grid is a uniform horizontal grid tracking soil moisture, per-nutrient
// levels and a per-tick canopy height map. Light is a single global scalar.
type Grid struct {
	// LightIntensity scales photosynthesis everywhere. Hosts may set it directly.
	LightIntensity float64

	cellSize float64
	minCell  int
	n        int // cells per axis

	moisture  []float64
	nutrients [nutrient.NumTypes][]float64
	canopy    map[Cell]float64

	// Parameters
	drying          float64
	rainChance      float64
	regen           float64
	regenCap        float64
	returnPerOrgan  float64
	returnCap       float64
	shadowTolerance float64
	minLight        float64
	maxLight        float64

	rng *rand.Rand
}

// NewGrid creates a grid covering the configured soil range with full
// moisture and full nutrients in every cell.
func NewGrid(cfg *config.Config, rng *rand.Rand) *Grid {
	n := cfg.Derived.CellsPerAxis
	if n < 0 {
		n = 0
	}
	g := &Grid{
		LightIntensity: cfg.World.LightIntensity,

		cellSize: cfg.World.CellSize,
		minCell:  cfg.Derived.MinCell,
		n:        n,

		moisture: make([]float64, n*n),
		canopy:   make(map[Cell]float64),

		drying:          cfg.Environment.Drying,
		rainChance:      cfg.Environment.RainChance,
		regen:           cfg.Environment.NutrientRegen,
		regenCap:        cfg.Environment.NutrientCap,
		returnPerOrgan:  cfg.Environment.DecompositionPerOrgan,
		returnCap:       cfg.Environment.DecompositionCap,
		shadowTolerance: cfg.Environment.ShadowTolerance,
		minLight:        cfg.World.MinLight,
		maxLight:        cfg.World.MaxLight,

		rng: rng,
	}
	for i := range g.moisture {
		g.moisture[i] = 1.0
	}
	for t := range g.nutrients {
		g.nutrients[t] = make([]float64, n*n)
		for i := range g.nutrients[t] {
			g.nutrients[t][i] = 1.0
		}
	}
	return g
}

// CellOf returns the cell containing a world position (x and z axes).
func (g *Grid) CellOf(pos r3.Vec) Cell {
	return Cell{
		X: int(math.Floor(pos.X / g.cellSize)),
		Z: int(math.Floor(pos.Z / g.cellSize)),
	}
}

// index returns the flat soil index of c, or -1 outside the soil range.
func (g *Grid) index(c Cell) int {
	x := c.X - g.minCell
	z := c.Z - g.minCell
	if x < 0 || z < 0 || x >= g.n || z >= g.n {
		return -1
	}
	return z*g.n + x
}

// InSoil reports whether c lies inside the populated soil range.
func (g *Grid) InSoil(c Cell) bool {
	return g.index(c) >= 0
}

// CellsPerAxis returns the number of soil cells along x (and z).
func (g *Grid) CellsPerAxis() int { return g.n }

// Update advances soil dynamics by one tick: drying, occasional rain that
// refills every cell at once, and nutrient regeneration toward the cap.
func (g *Grid) Update() {
	for i := range g.moisture {
		g.moisture[i] *= g.drying
	}
	if g.rng.Float64() < g.rainChance {
		for i := range g.moisture {
			g.moisture[i] = 1.0
		}
	}

	for t := range g.nutrients {
		levels := g.nutrients[t]
		for i := range levels {
			levels[i] = math.Min(g.regenCap, levels[i]+g.regen)
		}
	}
}

// Moisture returns soil moisture at pos, or 0 outside the soil range.
func (g *Grid) Moisture(pos r3.Vec) float64 {
	i := g.index(g.CellOf(pos))
	if i < 0 {
		return 0
	}
	return g.moisture[i]
}

// Nutrient returns the level of nutrient t at pos, or 0 outside the soil range.
func (g *Grid) Nutrient(pos r3.Vec, t nutrient.Type) float64 {
	i := g.index(g.CellOf(pos))
	if i < 0 {
		return 0
	}
	return g.nutrients[t][i]
}

// Nutrients returns every nutrient level at pos.
func (g *Grid) Nutrients(pos r3.Vec) nutrient.Rates {
	var levels nutrient.Rates
	i := g.index(g.CellOf(pos))
	if i < 0 {
		return levels
	}
	for t := range g.nutrients {
		levels[t] = g.nutrients[t][i]
	}
	return levels
}

// Health scores soil suitability at pos for a plant with the given required
// uptake rates. It is the product of a moisture factor and a nutrient
// sufficiency factor, each clamped to [0.1, 1]. Nutrients with a zero rate
// are ignored; with none required the nutrient factor is 1.
func (g *Grid) Health(pos r3.Vec, required nutrient.Rates) float64 {
	moisture := g.Moisture(pos)
	levels := g.Nutrients(pos)

	ratio := 1.0
	for t, rate := range required {
		if rate > 0 {
			ratio = math.Min(ratio, levels[t]/rate)
		}
	}
	return clamp(moisture, minFactor, maxFactor) * clamp(ratio, minFactor, maxFactor)
}

// ConsumeNutrients removes amount*rate of each nutrient at pos, floored at 0.
func (g *Grid) ConsumeNutrients(pos r3.Vec, rates nutrient.Rates, amount float64) {
	i := g.index(g.CellOf(pos))
	if i < 0 {
		return
	}
	for t, rate := range rates {
		g.nutrients[t][i] = math.Max(0, g.nutrients[t][i]-amount*rate)
	}
}

// ReturnNutrientsToSoil enriches the cell at rootPos when a plant with
// organCount organs decomposes. Enrichment may exceed the regeneration cap
// up to the decomposition cap.
func (g *Grid) ReturnNutrientsToSoil(rootPos r3.Vec, organCount int) {
	i := g.index(g.CellOf(rootPos))
	if i < 0 {
		return
	}
	amount := float64(organCount) * g.returnPerOrgan
	for t := range g.nutrients {
		g.nutrients[t][i] = math.Min(g.returnCap, g.nutrients[t][i]+amount)
	}
}

// BuildCanopyMap discards last tick's canopy and records the highest leaf
// altitude per cell from the given leaf positions.
func (g *Grid) BuildCanopyMap(leaves iter.Seq[r3.Vec]) {
	clear(g.canopy)
	for pos := range leaves {
		c := g.CellOf(pos)
		if h, ok := g.canopy[c]; !ok || pos.Y > h {
			g.canopy[c] = pos.Y
		}
	}
}

// CanopyHeight returns the recorded canopy height at pos for this tick.
func (g *Grid) CanopyHeight(pos r3.Vec) (float64, bool) {
	h, ok := g.canopy[g.CellOf(pos)]
	return h, ok
}

// IsShadowed reports whether recorded canopy in pos's cell rises more than
// the shadow tolerance above pos.
func (g *Grid) IsShadowed(pos r3.Vec) bool {
	h, ok := g.CanopyHeight(pos)
	return ok && pos.Y < h-g.shadowTolerance
}

// AdjustLight changes the global light by delta within the configured
// bounds and returns the new value.
func (g *Grid) AdjustLight(delta float64) float64 {
	return g.SetLight(g.LightIntensity + delta)
}

// SetLight sets the global light, clamped to the configured range, and
// returns the value applied.
func (g *Grid) SetLight(v float64) float64 {
	g.LightIntensity = clamp(v, g.minLight, g.maxLight)
	return g.LightIntensity
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
