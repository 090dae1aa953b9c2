// Package strategy implements the built-in per-tick plant behaviors and the
// registry that resolves them by name.
package strategy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/plant"
)

// Lifecycle thresholds.
const (
	germinationCost   = 5.0
	germinationHeight = 0.2
	dormancyEnergy    = 10.0
	dormancyAge       = 50
	wakeEnergy        = 50.0
	flowerCost        = 20.0
	flowerMaturity    = 20
)

var up = r3.Vec{X: 0, Y: 1, Z: 0}

// Lifecycle advances the plant's state machine.
type Lifecycle struct{}

func (Lifecycle) Role() plant.Role { return plant.RoleLifecycle }

// Execute runs the branch for the plant's current state.
func (Lifecycle) Execute(p *plant.Plant, ctx *plant.Context) {
	switch p.State {
	case plant.StateSeed:
		p.State = plant.StateGerminating

	case plant.StateGerminating:
		germinate(p)
		p.State = plant.StateVegetative

	case plant.StateVegetative:
		if p.Energy < dormancyEnergy && p.Age > dormancyAge {
			p.State = plant.StateDormant
		}
		gene := p.Gene()
		if p.Energy > float64(gene.EnergyToFlower()) && ctx.Rand.Float64() < gene.FlowerChance() {
			bloom(p)
			if p.CountOf(plant.OrganFlower) > 0 {
				p.State = plant.StateFlowering
			}
		}

	case plant.StateDormant:
		if p.Energy > wakeEnergy {
			p.State = plant.StateVegetative
		}

	case plant.StateFlowering:
		if setFruit(p) > 0 && p.CountOf(plant.OrganFruit) > 0 {
			p.State = plant.StateFruiting
		}

	case plant.StateFruiting:
		if p.CountOf(plant.OrganFruit) == 0 {
			p.State = plant.StateVegetative
		}
	}
}

// germinate grows the first stem segment straight up from the root and puts
// a growth tip on it.
func germinate(p *plant.Plant) {
	p.Energy -= germinationCost

	root := p.Root()
	end := r3.Add(root.Position, r3.Scale(germinationHeight, up))
	stem := p.AddOrgan(plant.NewStem(root.ID, root.Position, up, p.Gene().TrunkThickness(), end), true)
	p.AddOrgan(plant.NewMeristem(stem, end, up), true)
}

// bloom turns every affordable active tip into a flower.
func bloom(p *plant.Plant) {
	for _, tip := range p.OrgansOf(plant.OrganMeristem) {
		if !tip.Active || p.Energy <= flowerCost {
			continue
		}
		p.Energy -= flowerCost
		p.AddOrgan(plant.NewFlower(tip.Parent, tip.Position, tip.Direction), true)
		tip.Active = false
	}
}

// setFruit converts every mature flower into a fruit and returns how many
// were converted.
func setFruit(p *plant.Plant) int {
	n := 0
	size := p.Gene().FruitSize()
	for _, f := range p.OrgansOf(plant.OrganFlower) {
		if f.Age <= flowerMaturity {
			continue
		}
		p.AddOrgan(plant.NewFruit(f.Parent, f.Position, f.Direction, size), true)
		p.RemoveOrgan(f.ID)
		n++
	}
	return n
}
