package plant

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/plantsim/environment"
	"github.com/pthm-cable/plantsim/genetics"
)

// Role is the slot a strategy fills in a species definition.
type Role uint8

const (
	RoleLifecycle Role = iota
	RoleEnergy
	RoleGrowth
	RoleReproduction
)

func (r Role) String() string {
	switch r {
	case RoleLifecycle:
		return "lifecycle"
	case RoleEnergy:
		return "energy"
	case RoleGrowth:
		return "growth"
	case RoleReproduction:
		return "reproduction"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Strategy is one pluggable per-tick behavior.
type Strategy interface {
	Role() Role
	Execute(p *Plant, ctx *Context)
}

// Context is the per-tick state shared by every strategy call.
type Context struct {
	World  *environment.Grid
	Rand   *rand.Rand
	Tick   int64
	Logger *slog.Logger

	// Energy given to plants conceived during this tick.
	InitialEnergy float64
	// Altitude seeds are placed at.
	SeedHeight float64
}

// Log returns the context logger, falling back to the default logger.
func (c *Context) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

var (
	// ErrIncompleteSpecies is returned when a species lacks a strategy.
	ErrIncompleteSpecies = errors.New("species has no strategy for role")
	// ErrRoleMismatch is returned when a strategy is assigned to the wrong slot.
	ErrRoleMismatch = errors.New("strategy assigned to wrong role")
)

// Species is an immutable species or cultivar definition shared by all its plants.
type Species struct {
	ID       string
	BaseGene genetics.Profile

	Lifecycle    Strategy
	Energy       Strategy
	Growth       Strategy
	Reproduction Strategy

	// Opaque to the simulation; consumed by renderers.
	Appearance string
	LeafShape  string
}

// Strategies returns the four strategies in execution order.
func (s *Species) Strategies() [4]Strategy {
	return [4]Strategy{s.Lifecycle, s.Energy, s.Growth, s.Reproduction}
}

// Validate checks that every slot holds a strategy of the matching role.
func (s *Species) Validate() error {
	for i, st := range s.Strategies() {
		want := Role(i)
		if st == nil {
			return fmt.Errorf("species %q: %w %s", s.ID, ErrIncompleteSpecies, want)
		}
		if got := st.Role(); got != want {
			return fmt.Errorf("species %q: %w: %s strategy in %s slot", s.ID, ErrRoleMismatch, got, want)
		}
	}
	return nil
}
