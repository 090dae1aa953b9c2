package strategy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/plant"
)

const (
	ripeAge    = 50
	seedSpread = 3.0
	seedLift   = 0.5
)

// WindDispersal scatters seeds from ripe fruit around the parent.
type WindDispersal struct{}

func (WindDispersal) Role() plant.Role { return plant.RoleReproduction }

// Execute harvests ripe fruit while fruiting: each yields SeedCount mutated
// offspring near the fruit, the fruit is removed and flowered tips resume
// growing.
func (WindDispersal) Execute(p *plant.Plant, ctx *plant.Context) {
	if p.State != plant.StateFruiting {
		return
	}

	var ripe []*plant.Organ
	for _, f := range p.OrgansOf(plant.OrganFruit) {
		if f.Age > ripeAge {
			ripe = append(ripe, f)
		}
	}
	if len(ripe) == 0 {
		return
	}

	seeds := p.Gene().SeedCount()
	for _, f := range ripe {
		for range seeds {
			pos := r3.Add(f.Position, r3.Vec{
				X: (ctx.Rand.Float64() - 0.5) * seedSpread,
				Y: seedLift,
				Z: (ctx.Rand.Float64() - 0.5) * seedSpread,
			})
			pos.Y = ctx.SeedHeight
			p.QueueSeed(p.Offspring(pos, ctx.Rand, ctx.InitialEnergy))
		}
	}
	for _, f := range ripe {
		p.RemoveOrgan(f.ID)
	}

	for _, m := range p.OrgansOf(plant.OrganMeristem) {
		m.Active = true
	}
}
