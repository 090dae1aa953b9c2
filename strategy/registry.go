package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/plantsim/plant"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrWrongRole       = errors.New("strategy has wrong role")
	ErrDuplicate       = errors.New("strategy already registered")
)

// Registry maps strategy names to implementations. Names are matched
// case-insensitively. Hosts add their own variants with Register before
// loading species.
type Registry struct {
	names  []string
	byName map[string]plant.Strategy
}

// NewRegistry creates a registry holding the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]plant.Strategy),
	}
	r.registerDefaults()
	return r
}

// registerDefaults adds the built-in strategies.
func (r *Registry) registerDefaults() {
	r.mustRegister("Standard", Lifecycle{})
	r.mustRegister("Photosynthesis", Photosynthesis{})
	r.mustRegister("WindDispersal", WindDispersal{})

	// Growth
	r.mustRegister("Tree", Growth{Type: Apical, Dominance: 0.7, BranchAngle: 45})
	r.mustRegister("Conifer", Growth{Type: Apical, Dominance: 0.9, BranchAngle: 70})
	r.mustRegister("Shrub", Growth{Type: Apical, Dominance: 0.4, BranchAngle: 50})
	r.mustRegister("Herbaceous", NewGrowth(Basal))
	r.mustRegister("Vine", NewGrowth(Vine))
	r.mustRegister("Rosette", NewGrowth(Rosette))
}

func (r *Registry) mustRegister(name string, s plant.Strategy) {
	if err := r.Register(name, s); err != nil {
		panic(err)
	}
}

// Register adds a strategy under name. Registering a name twice, in any
// letter case, is an error.
func (r *Registry) Register(name string, s plant.Strategy) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("registering strategy: empty name")
	}
	if s == nil {
		return fmt.Errorf("registering strategy %q: nil strategy", name)
	}
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("registering strategy %q: %w", name, ErrDuplicate)
	}
	r.byName[key] = s
	r.names = append(r.names, strings.TrimSpace(name))
	return nil
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (plant.Strategy, error) {
	s, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Resolve looks up name and checks that it fills the given role.
func (r *Registry) Resolve(name string, role plant.Role) (plant.Strategy, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w (%s strategies: %s)", err, role, strings.Join(r.NamesFor(role), ", "))
	}
	if got := s.Role(); got != role {
		return nil, fmt.Errorf("%w: %q is a %s strategy, want %s", ErrWrongRole, name, got, role)
	}
	return s, nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// NamesFor returns the registered names that fill role.
func (r *Registry) NamesFor(role plant.Role) []string {
	var out []string
	for _, name := range r.names {
		if r.byName[strings.ToLower(name)].Role() == role {
			out = append(out, name)
		}
	}
	return out
}
