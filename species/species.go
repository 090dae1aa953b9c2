// Package species loads species and cultivar definitions from YAML and
// resolves their strategies against a registry.
package species

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/plantsim/genetics"
	"github.com/pthm-cable/plantsim/plant"
	"github.com/pthm-cable/plantsim/strategy"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrEmptyCatalog is returned when a catalog defines no species.
var ErrEmptyCatalog = errors.New("species catalog is empty")

// Leaf shapes understood by renderers.
var leafShapes = []string{"Simple", "Lobed", "Palmate", "Needle"}

// Blueprint is one species entry as written in a catalog file.
type Blueprint struct {
	Species      string           `yaml:"species"`
	Appearance   string           `yaml:"appearance"`
	LeafShape    string           `yaml:"leaf_shape"`
	Lifecycle    string           `yaml:"lifecycle"`
	Energy       string           `yaml:"energy"`
	Growth       string           `yaml:"growth"`
	Reproduction string           `yaml:"reproduction"`
	BaseGene     genetics.Profile `yaml:"base_gene"`
	Cultivars    []Cultivar       `yaml:"cultivars"`
}

// Cultivar names a variety and the gene fields it changes. Overrides are
// kept as a raw node so only the fields actually written replace the
// species baseline.
type Cultivar struct {
	Name      string    `yaml:"name"`
	Overrides yaml.Node `yaml:"gene_overrides"`
}

type catalogFile struct {
	Species []Blueprint `yaml:"species"`
}

// Catalog holds resolved definitions in file order.
type Catalog struct {
	defs []*plant.Species
	byID map[string]*plant.Species
}

// Open loads the catalog at path, or the built-in catalog when path is empty.
func Open(path string, reg *strategy.Registry) (*Catalog, error) {
	if path == "" {
		return Default(reg)
	}
	return LoadFile(path, reg)
}

// Default loads the built-in catalog.
func Default(reg *strategy.Registry) (*Catalog, error) {
	c, err := Load(defaultCatalog, reg)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads and loads a catalog file.
func LoadFile(path string, reg *strategy.Registry) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading species catalog: %w", err)
	}
	c, err := Load(data, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses a YAML catalog and resolves every strategy name. Any error
// rejects the whole catalog.
func Load(data []byte, reg *strategy.Registry) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing species catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]*plant.Species)}
	for i := range f.Species {
		bp := &f.Species[i]
		base, err := resolve(bp, reg)
		if err != nil {
			return nil, err
		}
		if err := c.add(base); err != nil {
			return nil, err
		}

		for _, cv := range bp.Cultivars {
			def, err := cultivar(base, cv)
			if err != nil {
				return nil, err
			}
			if err := c.add(def); err != nil {
				return nil, err
			}
		}
	}
	if len(c.defs) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

// resolve builds the species-level definition of a blueprint.
func resolve(bp *Blueprint, reg *strategy.Registry) (*plant.Species, error) {
	id := strings.TrimSpace(bp.Species)
	if id == "" {
		return nil, fmt.Errorf("species entry without a name")
	}

	shape := bp.LeafShape
	if shape == "" {
		shape = leafShapes[0]
	}
	if !slices.Contains(leafShapes, shape) {
		return nil, fmt.Errorf("species %q: unknown leaf shape %q", id, shape)
	}

	def := &plant.Species{
		ID:         id,
		BaseGene:   bp.BaseGene.Clone(),
		Appearance: bp.Appearance,
		LeafShape:  shape,
	}
	slots := []struct {
		role plant.Role
		name string
		dst  *plant.Strategy
	}{
		{plant.RoleLifecycle, bp.Lifecycle, &def.Lifecycle},
		{plant.RoleEnergy, bp.Energy, &def.Energy},
		{plant.RoleGrowth, bp.Growth, &def.Growth},
		{plant.RoleReproduction, bp.Reproduction, &def.Reproduction},
	}
	for _, s := range slots {
		st, err := reg.Resolve(s.name, s.role)
		if err != nil {
			return nil, fmt.Errorf("species %q: %s strategy: %w", id, s.role, err)
		}
		*s.dst = st
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// cultivar derives a definition from base with the cultivar's overrides
// applied to a copy of the base gene profile.
func cultivar(base *plant.Species, cv Cultivar) (*plant.Species, error) {
	name := strings.TrimSpace(cv.Name)
	if name == "" {
		return nil, fmt.Errorf("species %q: cultivar without a name", base.ID)
	}

	def := *base
	def.ID = fmt.Sprintf("%s '%s'", base.ID, name)
	def.BaseGene = base.BaseGene.Clone()
	if cv.Overrides.Kind != 0 {
		if err := cv.Overrides.Decode(&def.BaseGene); err != nil {
			return nil, fmt.Errorf("cultivar %q: gene overrides: %w", def.ID, err)
		}
	}
	return &def, nil
}

func (c *Catalog) add(def *plant.Species) error {
	if _, ok := c.byID[def.ID]; ok {
		return fmt.Errorf("species %q defined twice", def.ID)
	}
	c.byID[def.ID] = def
	c.defs = append(c.defs, def)
	return nil
}

// RandomDefinition picks a definition uniformly.
func (c *Catalog) RandomDefinition(rng *rand.Rand) *plant.Species {
	return c.defs[rng.Intn(len(c.defs))]
}

// Get returns the definition with the given ID.
func (c *Catalog) Get(id string) (*plant.Species, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// Definitions returns the definitions in file order.
func (c *Catalog) Definitions() []*plant.Species {
	return append([]*plant.Species(nil), c.defs...)
}
