package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/plant"
)

// GrowthType selects the morphogenesis algorithm.
type GrowthType uint8

const (
	Apical GrowthType = iota
	Basal
	Vine
	Rosette
)

func (t GrowthType) String() string {
	switch t {
	case Apical:
		return "apical"
	case Basal:
		return "basal"
	case Vine:
		return "vine"
	case Rosette:
		return "rosette"
	}
	return fmt.Sprintf("growth(%d)", uint8(t))
}

// Per-variant energy cost.
const (
	apicalCost = 10.0
	basalCost  = 5.0
	vineCost   = 8.0
)

// Geometry coefficients.
const (
	apicalJitter      = 0.4
	apicalTaper       = 0.98
	trunkTaper        = 0.8
	branchLength      = 0.8
	branchTaper       = 0.7
	basalJitter       = 0.5
	rosetteTiltDeg    = 30.0
	vineJitter        = 1.5
	vineLift          = 0.2
	vineTaper         = 0.99
	vineLeafChance    = 0.5
	defaultDominance  = 0.5
	defaultBranchDeg  = 60.0
	branchAngleSpread = 0.5
)

var xAxis = r3.Vec{X: 1}

// Growth extends the organ tree while the plant is vegetative.
type Growth struct {
	Type GrowthType
	// Vertical pull added to apical tips before scaling by the gene's
	// apical dominance.
	Dominance float64
	// Mean side-branch angle in degrees, randomized by ±25%.
	BranchAngle float64
}

// NewGrowth returns a growth strategy of the given type with the default
// dominance and branching angle.
func NewGrowth(t GrowthType) Growth {
	return Growth{Type: t, Dominance: defaultDominance, BranchAngle: defaultBranchDeg}
}

func (Growth) Role() plant.Role { return plant.RoleGrowth }

func (g Growth) Execute(p *plant.Plant, ctx *plant.Context) {
	if p.State != plant.StateVegetative {
		return
	}
	switch g.Type {
	case Apical:
		g.apical(p, ctx)
	case Basal, Rosette:
		g.basal(p, ctx)
	case Vine:
		g.vine(p, ctx)
	}
}

// basal sprouts one leaf from the root, tilted further for rosettes.
func (g Growth) basal(p *plant.Plant, ctx *plant.Context) {
	if p.Energy < basalCost {
		return
	}
	p.Energy -= basalCost

	root := p.Root()
	tilt := 0.0
	if g.Type == Rosette {
		tilt = (ctx.Rand.Float64() - 0.5) * rosetteTiltDeg
	}
	dir := r3.Vec{
		X: (ctx.Rand.Float64() - 0.5) * basalJitter,
		Y: 1,
		Z: (ctx.Rand.Float64() - 0.5) * basalJitter,
	}
	if tilt != 0 {
		dir = r3.Rotate(dir, radians(tilt), xAxis)
	}
	p.AddOrgan(plant.NewLeaf(root.ID, root.Position, r3.Unit(dir), p.Gene().LeafSize()), true)
}

// apical extends every active tip by one segment, leaving a leaf at the new
// tip and occasionally a side branch from the old one.
func (g Growth) apical(p *plant.Plant, ctx *plant.Context) {
	if p.Energy < apicalCost {
		return
	}
	gene := p.Gene()

	for _, tip := range activeTips(p) {
		if p.Energy < apicalCost {
			break
		}
		p.Energy -= apicalCost

		pull := r3.Vec{
			X: (ctx.Rand.Float64() - 0.5) * apicalJitter,
			Y: g.Dominance,
			Z: (ctx.Rand.Float64() - 0.5) * apicalJitter,
		}
		dir := r3.Unit(r3.Add(tip.Direction, r3.Scale(gene.ApicalDominance(), pull)))

		oldParent := tip.Parent
		from := tip.Position
		thickness := taper(p, oldParent, apicalTaper, gene.TrunkThickness()*trunkTaper)
		stem := extend(p, tip, dir, thickness)
		p.AddOrgan(plant.NewLeaf(stem, tip.Position, dir, gene.LeafSize()), true)

		if ctx.Rand.Float64() < gene.BranchingChance() {
			g.branch(p, ctx, oldParent, from, dir, thickness*branchTaper)
		}
	}
}

// branch grows a shorter side stem from the old tip position, rotated away
// from the main direction about a random axis, and gives it its own tip.
func (g Growth) branch(p *plant.Plant, ctx *plant.Context, parent plant.OrganID, from, dir r3.Vec, thickness float64) {
	axis := r3.Vec{
		X: ctx.Rand.Float64() - 0.5,
		Y: ctx.Rand.Float64() - 0.5,
		Z: ctx.Rand.Float64() - 0.5,
	}
	if r3.Norm2(axis) > 0 {
		axis = r3.Unit(axis)
	} else {
		axis = xAxis
	}
	angle := g.BranchAngle * (ctx.Rand.Float64()*branchAngleSpread + 1 - branchAngleSpread/2)
	branchDir := r3.Rotate(dir, radians(angle), axis)

	end := r3.Add(from, r3.Scale(p.Gene().GrowthSpeed()*branchLength, branchDir))
	stem := p.AddOrgan(plant.NewStem(parent, from, branchDir, thickness, end), true)
	p.AddOrgan(plant.NewMeristem(stem, end, branchDir), true)
}

// vine advances only the first active tip, mostly sideways.
func (g Growth) vine(p *plant.Plant, ctx *plant.Context) {
	if p.Energy < vineCost {
		return
	}
	tips := activeTips(p)
	if len(tips) == 0 {
		return
	}
	p.Energy -= vineCost

	tip := tips[0]
	gene := p.Gene()
	jitter := r3.Vec{
		X: (ctx.Rand.Float64() - 0.5) * vineJitter,
		Y: (ctx.Rand.Float64() - 0.5) * vineLift,
		Z: (ctx.Rand.Float64() - 0.5) * vineJitter,
	}
	dir := r3.Unit(r3.Add(tip.Direction, jitter))

	thickness := taper(p, tip.Parent, vineTaper, gene.TrunkThickness())
	stem := extend(p, tip, dir, thickness)
	if ctx.Rand.Float64() < vineLeafChance {
		p.AddOrgan(plant.NewLeaf(stem, tip.Position, dir, gene.LeafSize()), true)
	}
}

// extend adds a stem from tip along dir, then moves the tip to the stem's
// end and hangs it from the new stem. It returns the stem.
func extend(p *plant.Plant, tip *plant.Organ, dir r3.Vec, thickness float64) plant.OrganID {
	end := r3.Add(tip.Position, r3.Scale(p.Gene().GrowthSpeed(), dir))
	stem := p.AddOrgan(plant.NewStem(tip.Parent, tip.Position, dir, thickness, end), true)

	tip.Position = end
	tip.Direction = dir
	p.Reparent(tip.ID, stem)
	return stem
}

// taper returns parent stem thickness times factor, or fallback when the
// parent is not a stem.
func taper(p *plant.Plant, parent plant.OrganID, factor, fallback float64) float64 {
	if o := p.Organ(parent); o != nil && o.Kind == plant.OrganStem {
		return o.Thickness * factor
	}
	return fallback
}

func activeTips(p *plant.Plant) []*plant.Organ {
	var tips []*plant.Organ
	for _, m := range p.OrgansOf(plant.OrganMeristem) {
		if m.Active {
			tips = append(tips, m)
		}
	}
	return tips
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
