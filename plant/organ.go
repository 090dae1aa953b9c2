package plant

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// OrganKind identifies an organ variant.
type OrganKind uint8

const (
	OrganRoot OrganKind = iota
	OrganStem
	OrganLeaf
	OrganFlower
	OrganFruit
	OrganMeristem

	// Reserved variants. Declared for catalog and renderer compatibility;
	// no strategy creates them.
	OrganCotyledon
	OrganVine
	OrganThorn
)

var organKindNames = [...]string{
	OrganRoot:      "root",
	OrganStem:      "stem",
	OrganLeaf:      "leaf",
	OrganFlower:    "flower",
	OrganFruit:     "fruit",
	OrganMeristem:  "meristem",
	OrganCotyledon: "cotyledon",
	OrganVine:      "vine",
	OrganThorn:     "thorn",
}

func (k OrganKind) String() string {
	if int(k) < len(organKindNames) {
		return organKindNames[k]
	}
	return fmt.Sprintf("organ(%d)", uint8(k))
}

// OrganID is a stable handle into a plant's organ arena.
type OrganID int32

// NoOrgan is the parent of the root.
const NoOrgan OrganID = -1

// Organ is one structural unit of a plant. Variant-specific fields are only
// meaningful for the kinds noted beside them.
type Organ struct {
	ID     OrganID
	Kind   OrganKind
	Owner  uuid.UUID // Owning plant, constant for the organ's lifetime
	Parent OrganID   // NoOrgan only for the root

	Position  r3.Vec
	Direction r3.Vec
	Age       int

	Thickness   float64 // root, stem
	EndPosition r3.Vec  // stem
	Area        float64 // leaf
	Size        float64 // fruit
	Active      bool    // meristem: still a growable tip

	removed bool
}

// Removed reports whether the organ has been detached from its plant
// (flowers become fruit, fruit become seeds).
func (o *Organ) Removed() bool { return o.removed }

// NewRoot builds a root organ.
func NewRoot(pos, dir r3.Vec, thickness float64) Organ {
	return Organ{Kind: OrganRoot, Parent: NoOrgan, Position: pos, Direction: dir, Thickness: thickness}
}

// NewStem builds a stem running from pos to end.
func NewStem(parent OrganID, pos, dir r3.Vec, thickness float64, end r3.Vec) Organ {
	return Organ{Kind: OrganStem, Parent: parent, Position: pos, Direction: dir, Thickness: thickness, EndPosition: end}
}

// NewLeaf builds a leaf.
func NewLeaf(parent OrganID, pos, dir r3.Vec, area float64) Organ {
	return Organ{Kind: OrganLeaf, Parent: parent, Position: pos, Direction: dir, Area: area}
}

// NewFlower builds a flower.
func NewFlower(parent OrganID, pos, dir r3.Vec) Organ {
	return Organ{Kind: OrganFlower, Parent: parent, Position: pos, Direction: dir}
}

// NewFruit builds a fruit.
func NewFruit(parent OrganID, pos, dir r3.Vec, size float64) Organ {
	return Organ{Kind: OrganFruit, Parent: parent, Position: pos, Direction: dir, Size: size}
}

// NewMeristem builds an active growth tip.
func NewMeristem(parent OrganID, pos, dir r3.Vec) Organ {
	return Organ{Kind: OrganMeristem, Parent: parent, Position: pos, Direction: dir, Active: true}
}
