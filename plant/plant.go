// Package plant defines plants, their organ trees and the species
// definitions that drive them.
package plant

import (
	"fmt"
	"iter"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/genetics"
)

// State is a plant's lifecycle stage.
type State uint8

const (
	StateSeed State = iota
	StateGerminating
	StateVegetative
	StateDormant
	StateFlowering
	StateFruiting
	StateDead
)

var stateNames = [...]string{
	StateSeed:        "seed",
	StateGerminating: "germinating",
	StateVegetative:  "vegetative",
	StateDormant:     "dormant",
	StateFlowering:   "flowering",
	StateFruiting:    "fruiting",
	StateDead:        "dead",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Roots grow straight down.
var rootDirection = r3.Vec{X: 0, Y: -1, Z: 0}

// Plant is one individual: its gene, resource state and organ tree.
//
// Organs live in an arena indexed by OrganID. Removed organs stay in the
// arena as tombstones so handles never shift.
type Plant struct {
	ID     uuid.UUID
	State  State
	Energy float64
	Age    int

	species *Species
	gene    genetics.Gene

	organs    []*Organ
	live      int
	root      OrganID
	newOrgans []OrganID
	newSeeds  []*Plant
}

// New creates a seed-state plant with the given gene and a root at pos.
// The ID is random; Sprout and Offspring draw it from the simulation rng.
func New(pos r3.Vec, species *Species, gene genetics.Gene, energy float64) *Plant {
	return newPlant(uuid.New(), pos, species, gene, energy)
}

func newPlant(id uuid.UUID, pos r3.Vec, species *Species, gene genetics.Gene, energy float64) *Plant {
	p := &Plant{
		ID:      id,
		State:   StateSeed,
		Energy:  energy,
		species: species,
		gene:    gene,
		root:    NoOrgan,
	}
	p.root = p.AddOrgan(NewRoot(pos, rootDirection, gene.TrunkThickness()), false)
	return p
}

// Sprout creates a founder plant whose gene is derived from the species baseline.
func Sprout(pos r3.Vec, species *Species, rng *rand.Rand, energy float64) *Plant {
	gene := genetics.Derive(species.BaseGene, rng)
	return newPlant(seededID(rng), pos, species, gene, energy)
}

// Offspring creates a seed of the same species with a mutated copy of p's gene.
func (p *Plant) Offspring(pos r3.Vec, rng *rand.Rand, energy float64) *Plant {
	gene := p.gene.Mutate(rng)
	return newPlant(seededID(rng), pos, p.species, gene, energy)
}

// seededID draws a version 4 UUID from rng so replays reproduce plant IDs.
func seededID(rng *rand.Rand) uuid.UUID {
	return uuid.Must(uuid.NewRandomFromReader(rng))
}

// Species returns the shared species definition.
func (p *Plant) Species() *Species { return p.species }

// Gene returns the plant's immutable trait set.
func (p *Plant) Gene() genetics.Gene { return p.gene }

// IsDead reports whether the plant reached its terminal state.
func (p *Plant) IsDead() bool { return p.State == StateDead }

// Update advances the plant by one tick: ages it and its organs, runs the
// species strategies in order, then applies the death check.
func (p *Plant) Update(ctx *Context) {
	if p.State == StateDead {
		return
	}
	p.Age++
	for o := range p.Organs() {
		o.Age++
	}

	for _, s := range p.species.Strategies() {
		s.Execute(p, ctx)
	}

	if p.Energy <= 0 || p.Age > p.gene.MaxAge() {
		cause := "old_age"
		if p.Energy <= 0 {
			cause = "starvation"
		}
		ctx.Log().Info("plant died",
			"species", p.species.ID,
			"age", p.Age,
			"energy", p.Energy,
			"cause", cause,
			"tick", ctx.Tick,
		)
		p.State = StateDead
	}
}

// AddOrgan places o in the arena and returns its handle. Renderable organs
// are queued for FlushNewOrgans. The parent must be a live organ of this
// plant, and only the first organ may be a root.
func (p *Plant) AddOrgan(o Organ, renderable bool) OrganID {
	id := OrganID(len(p.organs))
	if o.Kind == OrganRoot {
		if p.root != NoOrgan {
			panic(fmt.Sprintf("plant %s: second root organ", p.ID))
		}
		o.Parent = NoOrgan
	} else if p.Organ(o.Parent) == nil {
		panic(fmt.Sprintf("plant %s: %s attached to missing parent %d", p.ID, o.Kind, o.Parent))
	}

	o.ID = id
	o.Owner = p.ID
	o.removed = false
	p.organs = append(p.organs, &o)
	p.live++
	if renderable {
		p.newOrgans = append(p.newOrgans, id)
	}
	return id
}

// Organ returns the live organ with the given handle, or nil.
func (p *Plant) Organ(id OrganID) *Organ {
	if id < 0 || int(id) >= len(p.organs) {
		return nil
	}
	o := p.organs[id]
	if o.removed {
		return nil
	}
	return o
}

// Root returns the plant's root organ.
func (p *Plant) Root() *Organ {
	o := p.Organ(p.root)
	if o == nil || o.Kind != OrganRoot {
		panic(fmt.Sprintf("plant %s: root organ missing", p.ID))
	}
	return o
}

// RootPosition returns where the plant is anchored.
func (p *Plant) RootPosition() r3.Vec {
	return p.Root().Position
}

// RemoveOrgan detaches a leaf-of-tree organ. Removing the root or an organ
// that still has live children is a programming error.
func (p *Plant) RemoveOrgan(id OrganID) {
	o := p.Organ(id)
	if o == nil {
		panic(fmt.Sprintf("plant %s: remove of missing organ %d", p.ID, id))
	}
	if id == p.root {
		panic(fmt.Sprintf("plant %s: root organ cannot be removed", p.ID))
	}
	for c := range p.Organs() {
		if c.Parent == id {
			panic(fmt.Sprintf("plant %s: removing %s %d would orphan %s %d", p.ID, o.Kind, id, c.Kind, c.ID))
		}
	}
	o.removed = true
	p.live--
}

// Reparent moves organ id under parent.
func (p *Plant) Reparent(id, parent OrganID) {
	o := p.Organ(id)
	if o == nil || id == p.root {
		panic(fmt.Sprintf("plant %s: cannot reparent organ %d", p.ID, id))
	}
	for cur := parent; cur != NoOrgan; {
		if cur == id {
			panic(fmt.Sprintf("plant %s: reparenting %d under %d forms a cycle", p.ID, id, parent))
		}
		c := p.Organ(cur)
		if c == nil {
			panic(fmt.Sprintf("plant %s: reparent target %d missing", p.ID, parent))
		}
		cur = c.Parent
	}
	o.Parent = parent
}

// Organs yields the live organs in creation order.
func (p *Plant) Organs() iter.Seq[*Organ] {
	return func(yield func(*Organ) bool) {
		for _, o := range p.organs {
			if o.removed {
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}

// OrgansOf returns a snapshot of the live organs of one kind.
func (p *Plant) OrgansOf(kind OrganKind) []*Organ {
	var out []*Organ
	for o := range p.Organs() {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// CountOf counts the live organs of one kind.
func (p *Plant) CountOf(kind OrganKind) int {
	n := 0
	for o := range p.Organs() {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// OrganCount returns the number of live organs.
func (p *Plant) OrganCount() int { return p.live }

// LeafPositions yields the position of every live leaf.
func (p *Plant) LeafPositions() iter.Seq[r3.Vec] {
	return func(yield func(r3.Vec) bool) {
		for o := range p.Organs() {
			if o.Kind == OrganLeaf && !yield(o.Position) {
				return
			}
		}
	}
}

// FlushNewOrgans drains the queue of renderable organs created since the
// last call. Organs removed in the meantime are skipped.
func (p *Plant) FlushNewOrgans() []*Organ {
	out := make([]*Organ, 0, len(p.newOrgans))
	for _, id := range p.newOrgans {
		if o := p.Organ(id); o != nil {
			out = append(out, o)
		}
	}
	p.newOrgans = p.newOrgans[:0]
	return out
}

// QueueSeed records a newly conceived plant for the population manager.
func (p *Plant) QueueSeed(seed *Plant) {
	p.newSeeds = append(p.newSeeds, seed)
}

// HasNewSeeds reports whether seeds are waiting to be harvested.
func (p *Plant) HasNewSeeds() bool { return len(p.newSeeds) > 0 }

// HarvestSeeds drains the queued seeds in creation order.
func (p *Plant) HarvestSeeds() []*Plant {
	out := p.newSeeds
	p.newSeeds = nil
	return out
}
