// Package genetics derives per-plant trait sets from species baselines and
// produces mutated offspring genes.
package genetics

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/plantsim/nutrient"
)

// DefaultFlowerColor is used when a profile lists no flower colors.
const DefaultFlowerColor = "Default"

// Trait spread applied around a baseline value during derivation.
const (
	traitSpread  = 0.2
	maxAgeSpread = 0.3
)

// Mutation parameters applied by Gene.Mutate before re-deriving.
const (
	mutationChance        = 0.1
	growthSpeedNudge      = 0.05
	leafSizeNudge         = 0.1
	fruitSizeNudge        = 0.1
	minGrowthSpeed        = 0.01
	minLeafSize           = 0.1
	minFruitSize          = 0.1
	variegatedInherit     = 0.8
	variegatedSpontaneous = 0.01
)

// Profile is the baseline template a Gene is derived from. Species and
// cultivars carry one each; mutation builds one from a parent gene.
type Profile struct {
	GrowthSpeed       float64        `yaml:"growth_speed"`
	BranchingChance   float64        `yaml:"branching_chance"`
	LeafSize          float64        `yaml:"leaf_size"`
	FlowerChance      float64        `yaml:"flower_chance"`
	ApicalDominance   float64        `yaml:"apical_dominance"`
	TrunkThickness    float64        `yaml:"trunk_thickness"`
	MaxAge            int            `yaml:"max_age"`
	EnergyToFlower    int            `yaml:"energy_to_flower"`
	SeedCount         int            `yaml:"seed_count"`
	FruitSize         float64        `yaml:"fruit_size"`
	NutrientUptake    nutrient.Rates `yaml:"nutrient_uptake"`
	FlowerColors      []string       `yaml:"flower_colors"`
	VariegationChance float64        `yaml:"variegation_chance"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	p.FlowerColors = append([]string(nil), p.FlowerColors...)
	return p
}

// Gene is the immutable trait set of one plant.
type Gene struct {
	growthSpeed     float64
	branchingChance float64
	leafSize        float64
	flowerChance    float64
	apicalDominance float64
	trunkThickness  float64
	maxAge          int
	energyToFlower  int
	seedCount       int
	fruitSize       float64
	uptake          nutrient.Rates
	flowerColor     string
	variegated      bool
}

// Derive draws a Gene around the baseline in p. Every quantitative trait is
// baseline*(1+(u-0.5)*spread) with u uniform in [0,1). The number and order
// of draws from rng is fixed, so equal generator states give equal genes.
func Derive(p Profile, rng *rand.Rand) Gene {
	g := Gene{
		growthSpeed:     vary(p.GrowthSpeed, traitSpread, rng),
		branchingChance: vary(p.BranchingChance, traitSpread, rng),
		leafSize:        vary(p.LeafSize, traitSpread, rng),
		flowerChance:    vary(p.FlowerChance, traitSpread, rng),
		apicalDominance: vary(p.ApicalDominance, traitSpread, rng),
		trunkThickness:  vary(p.TrunkThickness, traitSpread, rng),
		maxAge:          int(vary(float64(p.MaxAge), maxAgeSpread, rng)),
		energyToFlower:  int(vary(float64(p.EnergyToFlower), traitSpread, rng)),
		seedCount:       int(vary(float64(p.SeedCount), traitSpread, rng)),
		fruitSize:       vary(p.FruitSize, traitSpread, rng),
		uptake:          p.NutrientUptake,
		flowerColor:     DefaultFlowerColor,
	}
	if len(p.FlowerColors) > 0 {
		g.flowerColor = p.FlowerColors[rng.Intn(len(p.FlowerColors))]
	}
	g.variegated = rng.Float64() < p.VariegationChance
	return g
}

func vary(base, spread float64, rng *rand.Rand) float64 {
	return base * (1 + (rng.Float64()-0.5)*spread)
}

// Mutate produces an offspring gene. The parent's own derived values become
// the new baseline, a few traits are nudged with small probability, and the
// result is derived again, so the derivation spread compounds per generation.
func (g Gene) Mutate(rng *rand.Rand) Gene {
	p := g.Profile()

	if rng.Float64() < mutationChance {
		p.GrowthSpeed = math.Max(minGrowthSpeed, g.growthSpeed+(rng.Float64()-0.5)*growthSpeedNudge)
	}
	if rng.Float64() < mutationChance {
		p.LeafSize = math.Max(minLeafSize, g.leafSize+(rng.Float64()-0.5)*leafSizeNudge)
	}
	if rng.Float64() < mutationChance {
		p.FruitSize = math.Max(minFruitSize, g.fruitSize+(rng.Float64()-0.5)*fruitSizeNudge)
	}

	return Derive(p, rng)
}

// Profile returns a baseline whose fields equal this gene's derived values.
func (g Gene) Profile() Profile {
	variegation := variegatedSpontaneous
	if g.variegated {
		variegation = variegatedInherit
	}
	return Profile{
		GrowthSpeed:       g.growthSpeed,
		BranchingChance:   g.branchingChance,
		LeafSize:          g.leafSize,
		FlowerChance:      g.flowerChance,
		ApicalDominance:   g.apicalDominance,
		TrunkThickness:    g.trunkThickness,
		MaxAge:            g.maxAge,
		EnergyToFlower:    g.energyToFlower,
		SeedCount:         g.seedCount,
		FruitSize:         g.fruitSize,
		NutrientUptake:    g.uptake,
		FlowerColors:      []string{g.flowerColor},
		VariegationChance: variegation,
	}
}

func (g Gene) GrowthSpeed() float64     { return g.growthSpeed }
func (g Gene) BranchingChance() float64 { return g.branchingChance }
func (g Gene) LeafSize() float64        { return g.leafSize }
func (g Gene) FlowerChance() float64    { return g.flowerChance }
func (g Gene) ApicalDominance() float64 { return g.apicalDominance }
func (g Gene) TrunkThickness() float64  { return g.trunkThickness }
func (g Gene) MaxAge() int              { return g.maxAge }
func (g Gene) EnergyToFlower() int      { return g.energyToFlower }
func (g Gene) SeedCount() int           { return g.seedCount }
func (g Gene) FruitSize() float64       { return g.fruitSize }
func (g Gene) FlowerColor() string      { return g.flowerColor }
func (g Gene) IsVariegated() bool       { return g.variegated }

// NutrientUptake returns the per-nutrient uptake rates (a copy).
func (g Gene) NutrientUptake() nutrient.Rates { return g.uptake }

// FromProfile returns a gene whose traits equal p exactly, without spread.
// The flower color is the first listed one and variegation is set when the
// chance is at least one half.
func FromProfile(p Profile) Gene {
	g := Gene{
		growthSpeed:     p.GrowthSpeed,
		branchingChance: p.BranchingChance,
		leafSize:        p.LeafSize,
		flowerChance:    p.FlowerChance,
		apicalDominance: p.ApicalDominance,
		trunkThickness:  p.TrunkThickness,
		maxAge:          p.MaxAge,
		energyToFlower:  p.EnergyToFlower,
		seedCount:       p.SeedCount,
		fruitSize:       p.FruitSize,
		uptake:          p.NutrientUptake,
		flowerColor:     DefaultFlowerColor,
		variegated:      p.VariegationChance >= 0.5,
	}
	if len(p.FlowerColors) > 0 {
		g.flowerColor = p.FlowerColors[0]
	}
	return g
}
