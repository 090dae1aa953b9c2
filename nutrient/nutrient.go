// Package nutrient defines the soil nutrient types shared by genetics and the environment grid.
package nutrient

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies a soil nutrient.
type Type uint8

const (
	Nitrogen Type = iota
	Phosphorus
	Potassium
	Magnesium

	NumTypes = 4
)

var typeNames = [NumTypes]string{"nitrogen", "phosphorus", "potassium", "magnesium"}

// All returns every nutrient type in declaration order.
func All() [NumTypes]Type {
	return [NumTypes]Type{Nitrogen, Phosphorus, Potassium, Magnesium}
}

func (t Type) String() string {
	if int(t) < NumTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("nutrient(%d)", uint8(t))
}

// ParseType resolves a nutrient name (case-insensitive).
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown nutrient %q", s)
}

// Rates holds one value per nutrient type. A zero entry means "not required".
type Rates [NumTypes]float64

// UnmarshalYAML decodes a name->rate mapping. Only the named entries are
// written, so decoding on top of an existing value acts as an overlay.
func (r *Rates) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]float64
	if err := value.Decode(&m); err != nil {
		return fmt.Errorf("decoding nutrient rates: %w", err)
	}
	for name, v := range m {
		t, err := ParseType(name)
		if err != nil {
			return err
		}
		r[t] = v
	}
	return nil
}

// MarshalYAML encodes the non-zero entries as a name->rate mapping.
func (r Rates) MarshalYAML() (interface{}, error) {
	m := make(map[string]float64, NumTypes)
	for i, v := range r {
		if v != 0 {
			m[typeNames[i]] = v
		}
	}
	return m, nil
}
