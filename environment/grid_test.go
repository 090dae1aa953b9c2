package environment

import (
	"maps"
	"math"
	"math/rand"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/config"
	"github.com/pthm-cable/plantsim/nutrient"
)

func newTestGrid(t *testing.T, mutate func(*config.Config)) *Grid {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewGrid(cfg, rand.New(rand.NewSource(42)))
}

func TestGridPrepopulated(t *testing.T) {
	g := newTestGrid(t, nil)

	if g.CellsPerAxis() != 80 {
		t.Fatalf("expected 80 cells per axis, got %d", g.CellsPerAxis())
	}

	for cz := -40; cz < 40; cz++ {
		for cx := -40; cx < 40; cx++ {
			pos := r3.Vec{X: float64(cx)*2 + 1, Y: 0, Z: float64(cz)*2 + 1}
			if m := g.Moisture(pos); m != 1.0 {
				t.Fatalf("cell (%d,%d) moisture = %v, want 1.0", cx, cz, m)
			}
			for _, nt := range nutrient.All() {
				if v := g.Nutrient(pos, nt); v != 1.0 {
					t.Fatalf("cell (%d,%d) %s = %v, want 1.0", cx, cz, nt, v)
				}
			}
			if h := g.Health(pos, nutrient.Rates{}); h != 1.0 {
				t.Fatalf("cell (%d,%d) health with no requirements = %v, want 1.0", cx, cz, h)
			}
		}
	}
}

func TestCellOfFloors(t *testing.T) {
	g := newTestGrid(t, nil)

	tests := []struct {
		pos  r3.Vec
		want Cell
	}{
		{r3.Vec{X: 0.5, Z: 0.5}, Cell{0, 0}},
		{r3.Vec{X: 1.99, Z: 2.0}, Cell{0, 1}},
		{r3.Vec{X: -0.5, Z: -0.1}, Cell{-1, -1}},
		{r3.Vec{X: -2.0, Z: -2.01}, Cell{-1, -2}},
		{r3.Vec{X: 79.9, Z: -80}, Cell{39, -40}},
	}
	for _, tt := range tests {
		if got := g.CellOf(tt.pos); got != tt.want {
			t.Errorf("CellOf(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestOutsideSoilRange(t *testing.T) {
	g := newTestGrid(t, nil)
	outside := r3.Vec{X: 80.5, Z: 0}

	if g.InSoil(g.CellOf(outside)) {
		t.Fatal("x=80.5 should be outside the soil range")
	}
	if g.Moisture(outside) != 0 {
		t.Errorf("moisture outside range should be 0")
	}
	if g.Nutrient(outside, nutrient.Nitrogen) != 0 {
		t.Errorf("nutrient outside range should be 0")
	}

	// Both factors clamp to the floor.
	h := g.Health(outside, nutrient.Rates{0.5, 0, 0, 0})
	if math.Abs(h-0.01) > 1e-12 {
		t.Errorf("health outside range = %v, want 0.01", h)
	}

	// Mutations outside the range are ignored rather than panicking.
	g.ConsumeNutrients(outside, nutrient.Rates{1, 1, 1, 1}, 1)
	g.ReturnNutrientsToSoil(outside, 10)
}

func TestUpdateDrying(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Environment.RainChance = 0 })
	pos := r3.Vec{X: 3, Z: 3}

	for i := 0; i < 10; i++ {
		g.Update()
	}
	want := math.Pow(0.9995, 10)
	if got := g.Moisture(pos); math.Abs(got-want) > 1e-12 {
		t.Errorf("moisture after 10 ticks = %v, want %v", got, want)
	}
}

func TestUpdateRainRefillsEveryCell(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Environment.RainChance = 1 })

	g.moisture[0] = 0.2
	g.moisture[len(g.moisture)-1] = 0.5
	g.Update()

	for i, m := range g.moisture {
		if m != 1.0 {
			t.Fatalf("cell %d moisture = %v after rain, want 1.0", i, m)
		}
	}
}

func TestUpdateNutrientRegeneration(t *testing.T) {
	g := newTestGrid(t, nil)
	pos := r3.Vec{X: 1, Z: 1}

	g.ConsumeNutrients(pos, nutrient.Rates{1, 0, 0, 0}, 0.5)
	if got := g.Nutrient(pos, nutrient.Nitrogen); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("after consumption nitrogen = %v, want 0.5", got)
	}

	g.Update()
	if got := g.Nutrient(pos, nutrient.Nitrogen); math.Abs(got-0.50008) > 1e-12 {
		t.Errorf("after one regen tick nitrogen = %v, want 0.50008", got)
	}
	if got := g.Nutrient(pos, nutrient.Phosphorus); got != 1.0 {
		t.Errorf("full cell should stay at cap, got %v", got)
	}
}

func TestConsumeFloorsAtZero(t *testing.T) {
	g := newTestGrid(t, nil)
	pos := r3.Vec{X: -5, Z: 7}

	g.ConsumeNutrients(pos, nutrient.Rates{2, 0.5, 0, 0}, 1)
	levels := g.Nutrients(pos)
	if levels[nutrient.Nitrogen] != 0 {
		t.Errorf("nitrogen should floor at 0, got %v", levels[nutrient.Nitrogen])
	}
	if math.Abs(levels[nutrient.Phosphorus]-0.5) > 1e-12 {
		t.Errorf("phosphorus = %v, want 0.5", levels[nutrient.Phosphorus])
	}
	if levels[nutrient.Potassium] != 1 {
		t.Errorf("zero-rate nutrient should be untouched, got %v", levels[nutrient.Potassium])
	}
}

func TestReturnNutrientsCapped(t *testing.T) {
	g := newTestGrid(t, nil)
	pos := r3.Vec{X: 10, Z: 10}

	g.ReturnNutrientsToSoil(pos, 3)
	for _, nt := range nutrient.All() {
		if got := g.Nutrient(pos, nt); math.Abs(got-1.3) > 1e-12 {
			t.Errorf("%s = %v after returning 3 organs, want 1.3", nt, got)
		}
	}

	g.ReturnNutrientsToSoil(pos, 50)
	for _, nt := range nutrient.All() {
		if got := g.Nutrient(pos, nt); got != 1.5 {
			t.Errorf("%s = %v, want decomposition cap 1.5", nt, got)
		}
	}
}

func TestHealth(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Environment.RainChance = 0 })
	pos := r3.Vec{X: 0.5, Z: 0.5}
	i := g.index(g.CellOf(pos))

	tests := []struct {
		name     string
		moisture float64
		levels   nutrient.Rates
		required nutrient.Rates
		want     float64
	}{
		{"no requirements", 0.6, nutrient.Rates{0, 0, 0, 0}, nutrient.Rates{}, 0.6},
		{"dry soil floors", 0.01, nutrient.Rates{1, 1, 1, 1}, nutrient.Rates{}, 0.1},
		{"sufficient nutrients", 1, nutrient.Rates{1, 1, 1, 1}, nutrient.Rates{0.5, 0.5, 0, 0}, 1},
		{"limiting nutrient", 1, nutrient.Rates{0.2, 1, 1, 1}, nutrient.Rates{0.5, 0.1, 0, 0}, 0.4},
		{"starved floors", 0.5, nutrient.Rates{0, 1, 1, 1}, nutrient.Rates{0.5, 0, 0, 0}, 0.05},
		{"zero rate ignored", 1, nutrient.Rates{0, 1, 1, 1}, nutrient.Rates{0, 0.2, 0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.moisture[i] = tt.moisture
			for nt := range g.nutrients {
				g.nutrients[nt][i] = tt.levels[nt]
			}
			if got := g.Health(pos, tt.required); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Health = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanopyMapRebuiltEachTick(t *testing.T) {
	g := newTestGrid(t, nil)
	leaves := []r3.Vec{
		{X: 1, Y: 2.0, Z: 1},
		{X: 1.5, Y: 5.0, Z: 0.5},
		{X: 9, Y: 1.0, Z: 9},
	}
	g.BuildCanopyMap(slices.Values(leaves))

	if h, ok := g.CanopyHeight(r3.Vec{X: 0.2, Z: 0.2}); !ok || h != 5.0 {
		t.Errorf("canopy at (0,0) = %v,%v want 5,true", h, ok)
	}
	if !g.IsShadowed(r3.Vec{X: 1, Y: 2.0, Z: 1}) {
		t.Error("low leaf under a taller one should be shadowed")
	}
	if g.IsShadowed(r3.Vec{X: 1.5, Y: 5.0, Z: 0.5}) {
		t.Error("the tallest leaf must not shade itself")
	}
	if g.IsShadowed(r3.Vec{X: 1, Y: 4.95, Z: 1}) {
		t.Error("leaf within the shadow tolerance should not be shadowed")
	}

	g.BuildCanopyMap(slices.Values(leaves[2:]))
	if _, ok := g.CanopyHeight(r3.Vec{X: 1, Z: 1}); ok {
		t.Error("canopy from the previous tick should not persist")
	}
	if g.IsShadowed(r3.Vec{X: 1, Y: 0, Z: 1}) {
		t.Error("cell without leaves this tick should never be shadowed")
	}
}

func TestCanopyOutsideSoilRange(t *testing.T) {
	g := newTestGrid(t, nil)
	far := r3.Vec{X: 500, Y: 3, Z: 500}
	g.BuildCanopyMap(maps.Values(map[int]r3.Vec{0: far}))
	if !g.IsShadowed(r3.Vec{X: 500, Y: 0, Z: 500}) {
		t.Error("canopy should be recorded even outside the soil range")
	}
}

func TestFieldBoundsOverManyTicks(t *testing.T) {
	g := newTestGrid(t, nil)
	rng := rand.New(rand.NewSource(9))

	for tick := 0; tick < 2000; tick++ {
		g.Update()
		pos := r3.Vec{X: (rng.Float64() - 0.5) * 160, Z: (rng.Float64() - 0.5) * 160}
		g.ConsumeNutrients(pos, nutrient.Rates{0.3, 0.2, 0.1, 0.05}, rng.Float64())
		if tick%50 == 0 {
			g.ReturnNutrientsToSoil(pos, rng.Intn(40))
		}

		for i, m := range g.moisture {
			if m < 0 || m > 1 {
				t.Fatalf("tick %d: moisture[%d]=%v out of [0,1]", tick, i, m)
			}
		}
		for nt, levels := range g.nutrients {
			for i, v := range levels {
				if v < 0 || v > 1.5 {
					t.Fatalf("tick %d: nutrient %d [%d]=%v out of [0,1.5]", tick, nt, i, v)
				}
			}
		}
	}
}

func TestAdjustLightClamps(t *testing.T) {
	g := newTestGrid(t, nil)

	if got := g.AdjustLight(0.5); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("AdjustLight(+0.5) = %v, want 1.5", got)
	}
	if got := g.AdjustLight(10); got != 3.0 {
		t.Errorf("light should clamp to 3.0, got %v", got)
	}
	if got := g.AdjustLight(-10); got != 0.1 {
		t.Errorf("light should clamp to 0.1, got %v", got)
	}

	g.LightIntensity = 7
	if g.LightIntensity != 7 {
		t.Error("direct assignment should bypass the clamp")
	}
}

func TestSetLightClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.0, 2.0},
		{5.0, 3.0},
		{0.01, 0.1},
	}
	for _, tt := range tests {
		g := newTestGrid(t, nil)
		if got := g.SetLight(tt.in); got != tt.want || g.LightIntensity != tt.want {
			t.Errorf("SetLight(%v) = %v (light %v), want %v", tt.in, got, g.LightIntensity, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	g := newTestGrid(t, func(c *config.Config) { c.Environment.RainChance = 0 })
	pos := r3.Vec{X: 0.5, Z: 0.5}
	g.ConsumeNutrients(pos, nutrient.Rates{1, 0, 0, 0}, 1)

	s := g.Summarize()
	cells := float64(80 * 80)
	if s.MeanMoisture != 1 {
		t.Errorf("mean moisture = %v, want 1", s.MeanMoisture)
	}
	if want := (cells - 1) / cells; math.Abs(s.MeanNutrient[nutrient.Nitrogen]-want) > 1e-12 {
		t.Errorf("mean nitrogen = %v, want %v", s.MeanNutrient[nutrient.Nitrogen], want)
	}
	if s.MinNutrient[nutrient.Nitrogen] != 0 || s.MaxNutrient[nutrient.Nitrogen] != 1 {
		t.Errorf("nitrogen min/max = %v/%v, want 0/1", s.MinNutrient[nutrient.Nitrogen], s.MaxNutrient[nutrient.Nitrogen])
	}
}
