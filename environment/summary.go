package environment

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/plantsim/nutrient"
)

// Summary aggregates the soil fields for telemetry.
type Summary struct {
	MeanMoisture float64
	MinMoisture  float64
	MeanNutrient nutrient.Rates
	MinNutrient  nutrient.Rates
	MaxNutrient  nutrient.Rates
	CanopyCells  int
}

// Summarize computes field aggregates over every soil cell.
func (g *Grid) Summarize() Summary {
	s := Summary{CanopyCells: len(g.canopy)}
	cells := len(g.moisture)
	if cells == 0 {
		return s
	}

	s.MeanMoisture = floats.Sum(g.moisture) / float64(cells)
	s.MinMoisture = floats.Min(g.moisture)
	for t, levels := range g.nutrients {
		s.MeanNutrient[t] = floats.Sum(levels) / float64(cells)
		s.MinNutrient[t] = floats.Min(levels)
		s.MaxNutrient[t] = floats.Max(levels)
	}
	return s
}
