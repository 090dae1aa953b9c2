package main

import (
	"github.com/pthm-cable/plantsim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Soil dynamics (nutrient_cap and decomposition_cap locked)
			{Name: "drying", Path: "environment.drying", Min: 0.999, Max: 0.99995, Default: 0.9995},
			{Name: "rain_chance", Path: "environment.rain_chance", Min: 0.0005, Max: 0.01, Default: 0.0025},
			{Name: "nutrient_regen", Path: "environment.nutrient_regen", Min: 0.00001, Max: 0.0005, Default: 0.00008},
			{Name: "decomposition", Path: "environment.decomposition_per_organ", Min: 0.02, Max: 0.3, Default: 0.1},
			{Name: "shadow_tolerance", Path: "environment.shadow_tolerance", Min: 0.0, Max: 0.5, Default: 0.1},
			// Light
			{Name: "light_intensity", Path: "world.light_intensity", Min: 0.5, Max: 2.0, Default: 1.0},
			// Plants
			{Name: "initial_energy", Path: "plant.initial_energy", Min: 20, Max: 120, Default: 50},
			// Population
			{Name: "initial_plants", Path: "population.initial", Min: 10, Max: 100, Default: 30},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Environment.Drying = c[0]
	cfg.Environment.RainChance = c[1]
	cfg.Environment.NutrientRegen = c[2]
	cfg.Environment.DecompositionPerOrgan = c[3]
	cfg.Environment.ShadowTolerance = c[4]

	cfg.World.LightIntensity = c[5]

	cfg.Plant.InitialEnergy = c[6]

	cfg.Population.Initial = int(c[7])
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Environment.Drying,
		cfg.Environment.RainChance,
		cfg.Environment.NutrientRegen,
		cfg.Environment.DecompositionPerOrgan,
		cfg.Environment.ShadowTolerance,
		cfg.World.LightIntensity,
		cfg.Plant.InitialEnergy,
		float64(cfg.Population.Initial),
	}
}
