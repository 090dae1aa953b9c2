package strategy

import (
	"github.com/pthm-cable/plantsim/plant"
)

// Energy economy coefficients.
const (
	upkeepPerOrgan      = 0.012
	stressHealth        = 0.3
	stressPenalty       = 1.0
	consumptionPerOrgan = 0.0001
	leafEfficiency      = 0.95
	shadedFraction      = 0.25
)

// Photosynthesis charges organ upkeep, applies soil stress, draws nutrients
// and credits light captured by every leaf.
type Photosynthesis struct{}

func (Photosynthesis) Role() plant.Role { return plant.RoleEnergy }

func (Photosynthesis) Execute(p *plant.Plant, ctx *plant.Context) {
	world := ctx.World
	organs := float64(p.OrganCount())
	rootPos := p.RootPosition()

	p.Energy -= organs * upkeepPerOrgan

	// Soil suitability is judged against the species baseline needs.
	health := world.Health(rootPos, p.Species().BaseGene.NutrientUptake)
	if health < stressHealth {
		p.Energy -= (1 - health) * stressPenalty
	}

	world.ConsumeNutrients(rootPos, p.Gene().NutrientUptake(), organs*consumptionPerOrgan)

	for o := range p.Organs() {
		if o.Kind != plant.OrganLeaf {
			continue
		}
		exposure := 1.0
		if world.IsShadowed(o.Position) {
			exposure = shadedFraction
		}
		p.Energy += exposure * o.Area * leafEfficiency * world.LightIntensity * health
	}
}
