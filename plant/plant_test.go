package plant

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/plantsim/genetics"
)

// stub records calls and optionally mutates the plant.
type stub struct {
	role  Role
	calls *[]Role
	fn    func(p *Plant)
}

func (s stub) Role() Role { return s.role }

func (s stub) Execute(p *Plant, _ *Context) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.role)
	}
	if s.fn != nil {
		s.fn(p)
	}
}

func testProfile() genetics.Profile {
	return genetics.Profile{
		GrowthSpeed:     0.5,
		BranchingChance: 0.1,
		LeafSize:        0.5,
		FlowerChance:    0.05,
		ApicalDominance: 0.7,
		TrunkThickness:  0.2,
		MaxAge:          100,
		EnergyToFlower:  80,
		SeedCount:       4,
		FruitSize:       0.3,
	}
}

func testSpecies(calls *[]Role) *Species {
	return &Species{
		ID:           "Test",
		BaseGene:     testProfile(),
		Lifecycle:    stub{role: RoleLifecycle, calls: calls},
		Energy:       stub{role: RoleEnergy, calls: calls},
		Growth:       stub{role: RoleGrowth, calls: calls},
		Reproduction: stub{role: RoleReproduction, calls: calls},
	}
}

func newTestPlant() *Plant {
	sp := testSpecies(nil)
	return New(r3.Vec{X: 1, Y: 0.1, Z: 2}, sp, genetics.FromProfile(sp.BaseGene), 50)
}

func TestNew_SingleRoot(t *testing.T) {
	p := newTestPlant()

	if p.State != StateSeed {
		t.Errorf("state = %s, want seed", p.State)
	}
	if p.Energy != 50 {
		t.Errorf("energy = %v, want 50", p.Energy)
	}
	if got := p.CountOf(OrganRoot); got != 1 {
		t.Fatalf("root count = %d, want 1", got)
	}
	root := p.Root()
	if root.Parent != NoOrgan {
		t.Errorf("root parent = %d, want NoOrgan", root.Parent)
	}
	if root.Direction != (r3.Vec{Y: -1}) {
		t.Errorf("root direction = %v, want down", root.Direction)
	}
	if root.Thickness != 0.2 {
		t.Errorf("root thickness = %v, want trunk thickness 0.2", root.Thickness)
	}
	if root.Owner != p.ID {
		t.Errorf("root owner = %s, want %s", root.Owner, p.ID)
	}
	if got := p.FlushNewOrgans(); len(got) != 0 {
		t.Errorf("root should not be queued for rendering, got %d organs", len(got))
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFlushNewOrgans_Idempotent(t *testing.T) {
	p := newTestPlant()
	rootID := p.Root().ID
	stem := p.AddOrgan(NewStem(rootID, r3.Vec{}, r3.Vec{Y: 1}, 0.2, r3.Vec{Y: 0.2}), true)
	p.AddOrgan(NewMeristem(stem, r3.Vec{Y: 0.2}, r3.Vec{Y: 1}), true)

	first := p.FlushNewOrgans()
	if len(first) != 2 {
		t.Fatalf("first flush returned %d organs, want 2", len(first))
	}
	if first[0].Kind != OrganStem || first[1].Kind != OrganMeristem {
		t.Errorf("flush order = %s, %s; want stem, meristem", first[0].Kind, first[1].Kind)
	}
	if second := p.FlushNewOrgans(); len(second) != 0 {
		t.Errorf("second flush returned %d organs, want 0", len(second))
	}
}

func TestFlushNewOrgans_SkipsRemoved(t *testing.T) {
	p := newTestPlant()
	flower := p.AddOrgan(NewFlower(p.Root().ID, r3.Vec{}, r3.Vec{Y: 1}), true)
	p.RemoveOrgan(flower)

	if got := p.FlushNewOrgans(); len(got) != 0 {
		t.Errorf("flush returned %d organs, want removed flower skipped", len(got))
	}
	if p.OrganCount() != 1 {
		t.Errorf("organ count = %d, want 1", p.OrganCount())
	}
}

func TestAddOrgan_Panics(t *testing.T) {
	tests := []struct {
		name string
		add  func(p *Plant)
	}{
		{"second root", func(p *Plant) { p.AddOrgan(NewRoot(r3.Vec{}, r3.Vec{Y: -1}, 1), false) }},
		{"missing parent", func(p *Plant) { p.AddOrgan(NewLeaf(42, r3.Vec{}, r3.Vec{Y: 1}, 1), true) }},
		{"no parent", func(p *Plant) { p.AddOrgan(NewLeaf(NoOrgan, r3.Vec{}, r3.Vec{Y: 1}, 1), true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlant()
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.add(p)
		})
	}
}

func TestRemoveOrgan_Panics(t *testing.T) {
	p := newTestPlant()
	rootID := p.Root().ID
	stem := p.AddOrgan(NewStem(rootID, r3.Vec{}, r3.Vec{Y: 1}, 0.2, r3.Vec{Y: 0.2}), true)
	p.AddOrgan(NewLeaf(stem, r3.Vec{Y: 0.2}, r3.Vec{Y: 1}, 0.5), true)

	tests := []struct {
		name string
		id   OrganID
	}{
		{"root", rootID},
		{"has children", stem},
		{"missing", 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			p.RemoveOrgan(tt.id)
		})
	}
}

func TestReparent(t *testing.T) {
	p := newTestPlant()
	rootID := p.Root().ID
	s1 := p.AddOrgan(NewStem(rootID, r3.Vec{}, r3.Vec{Y: 1}, 0.2, r3.Vec{Y: 1}), true)
	tip := p.AddOrgan(NewMeristem(s1, r3.Vec{Y: 1}, r3.Vec{Y: 1}), true)
	s2 := p.AddOrgan(NewStem(s1, r3.Vec{Y: 1}, r3.Vec{Y: 1}, 0.2, r3.Vec{Y: 2}), true)

	p.Reparent(tip, s2)
	if got := p.Organ(tip).Parent; got != s2 {
		t.Errorf("parent = %d, want %d", got, s2)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate after reparent: %v", err)
	}

	t.Run("cycle", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic reparenting a stem under its descendant")
			}
		}()
		p.Reparent(s1, s2)
	})
}

func TestValidate_DetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(p *Plant, stem OrganID)
	}{
		{"cycle", func(p *Plant, stem OrganID) { p.organs[stem].Parent = stem }},
		{"dangling parent", func(p *Plant, stem OrganID) { p.organs[stem].Parent = 77 }},
		{"owner mismatch", func(p *Plant, stem OrganID) { p.organs[stem].Owner[0] ^= 0xff }},
		{"root removed", func(p *Plant, _ OrganID) { p.organs[p.root].removed = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlant()
			stem := p.AddOrgan(NewStem(p.Root().ID, r3.Vec{}, r3.Vec{Y: 1}, 0.2, r3.Vec{Y: 1}), true)
			tt.corrupt(p, stem)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdate_OrderAndAging(t *testing.T) {
	var calls []Role
	sp := testSpecies(&calls)
	p := New(r3.Vec{}, sp, genetics.FromProfile(sp.BaseGene), 50)
	leaf := p.AddOrgan(NewLeaf(p.Root().ID, r3.Vec{}, r3.Vec{Y: 1}, 0.5), true)

	p.Update(&Context{Rand: rand.New(rand.NewSource(1))})

	want := []Role{RoleLifecycle, RoleEnergy, RoleGrowth, RoleReproduction}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
	if p.Age != 1 {
		t.Errorf("plant age = %d, want 1", p.Age)
	}
	if p.Root().Age != 1 || p.Organ(leaf).Age != 1 {
		t.Errorf("organ ages = %d, %d; want 1, 1", p.Root().Age, p.Organ(leaf).Age)
	}
}

func TestUpdate_DeathCheck(t *testing.T) {
	tests := []struct {
		name   string
		energy float64
		age    int
		drain  float64
		dead   bool
	}{
		{"healthy", 50, 0, 0, false},
		{"starved by strategy", 5, 0, 5, true},
		{"negative energy", -1, 0, 0, true},
		{"at max age", 50, 99, 0, false},
		{"past max age", 50, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := testSpecies(nil)
			drain := tt.drain
			sp.Energy = stub{role: RoleEnergy, fn: func(p *Plant) { p.Energy -= drain }}
			p := New(r3.Vec{}, sp, genetics.FromProfile(sp.BaseGene), tt.energy)
			p.Age = tt.age

			p.Update(&Context{})

			if p.IsDead() != tt.dead {
				t.Errorf("dead = %v, want %v (energy %v, age %d)", p.IsDead(), tt.dead, p.Energy, p.Age)
			}
		})
	}
}

func TestUpdate_DeadIsTerminal(t *testing.T) {
	var calls []Role
	sp := testSpecies(&calls)
	p := New(r3.Vec{}, sp, genetics.FromProfile(sp.BaseGene), 50)
	p.State = StateDead

	p.Update(&Context{})

	if len(calls) != 0 {
		t.Errorf("dead plant ran %d strategies", len(calls))
	}
	if p.Age != 0 {
		t.Errorf("dead plant aged to %d", p.Age)
	}
}

func TestSeedQueue(t *testing.T) {
	p := newTestPlant()
	rng := rand.New(rand.NewSource(3))
	if p.HasNewSeeds() {
		t.Fatal("new plant should have no seeds")
	}
	a := p.Offspring(r3.Vec{X: 1}, rng, 50)
	b := p.Offspring(r3.Vec{X: 2}, rng, 50)
	p.QueueSeed(a)
	p.QueueSeed(b)

	got := p.HarvestSeeds()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("harvest = %v, want [a b] in order", got)
	}
	if p.HasNewSeeds() || len(p.HarvestSeeds()) != 0 {
		t.Error("harvest should drain the queue")
	}
	if a.Species() != p.Species() {
		t.Error("offspring should share the parent species")
	}
	if a.ID == b.ID || a.ID == p.ID {
		t.Error("plant IDs should be unique")
	}
}

func TestIDs_ReplayWithSeed(t *testing.T) {
	sp := testSpecies(nil)
	run := func() []*Plant {
		rng := rand.New(rand.NewSource(11))
		founder := Sprout(r3.Vec{X: 1, Y: 0.1}, sp, rng, 50)
		return []*Plant{founder, founder.Offspring(r3.Vec{X: 2}, rng, 50)}
	}
	a, b := run(), run()
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("plant %d: ID %s vs %s with the same seed", i, a[i].ID, b[i].ID)
		}
		if a[i].Root().Owner != a[i].ID {
			t.Errorf("plant %d: root owner %s, want %s", i, a[i].Root().Owner, a[i].ID)
		}
	}
	if a[0].ID == a[1].ID {
		t.Error("founder and offspring share an ID")
	}
}

func TestSpeciesValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Species)
		want   error
	}{
		{"complete", func(*Species) {}, nil},
		{"missing growth", func(s *Species) { s.Growth = nil }, ErrIncompleteSpecies},
		{"swapped", func(s *Species) { s.Energy, s.Growth = s.Growth, s.Energy }, ErrRoleMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSpecies(nil)
			tt.modify(s)
			err := s.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}
