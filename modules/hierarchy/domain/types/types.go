package types

import "time"

type EntityKind string

const (
	KindUnion       EntityKind = "union"
	KindAssociation EntityKind = "association"
	KindDistrict    EntityKind = "district"
	KindChurch      EntityKind = "church"
)

// KindSpec describes one level of the hierarchy: its parent kind, the
// JSON field carrying the parent reference, and its depth below the root.
type KindSpec struct {
	Kind        EntityKind
	Parent      EntityKind
	ParentField string
	Depth       int
}

var kindSpecs = map[EntityKind]KindSpec{
	KindUnion:       {Kind: KindUnion, Depth: 0},
	KindAssociation: {Kind: KindAssociation, Parent: KindUnion, ParentField: "union", Depth: 1},
	KindDistrict:    {Kind: KindDistrict, Parent: KindAssociation, ParentField: "association", Depth: 2},
	KindChurch:      {Kind: KindChurch, Parent: KindDistrict, ParentField: "district", Depth: 3},
}

func SpecFor(kind EntityKind) (KindSpec, bool) {
	s, ok := kindSpecs[kind]
	return s, ok
}

// Kinds returns the hierarchy kinds in root-first order.
func Kinds() []EntityKind {
	return []EntityKind{KindUnion, KindAssociation, KindDistrict, KindChurch}
}

// Node is the uniform representation of a hierarchy record. ParentID is
// empty for unions.
type Node struct {
	ID        string
	Kind      EntityKind
	Name      string
	ParentID  string
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// AncestorRef is a resolved ancestor, for display on single-record reads.
type AncestorRef struct {
	Kind EntityKind
	ID   string
	Name string
}

type NodeDetail struct {
	Node
	Ancestors []AncestorRef
}

// Lineage holds the IDs along a record's chain up to the root, including
// the record itself at its own level. Unset levels are empty.
type Lineage struct {
	Union       string
	Association string
	District    string
	Church      string
}

// At returns the lineage ID at the given depth (0 = union).
func (l Lineage) At(depth int) string {
	switch depth {
	case 0:
		return l.Union
	case 1:
		return l.Association
	case 2:
		return l.District
	case 3:
		return l.Church
	default:
		return ""
	}
}

func (l *Lineage) set(depth int, id string) {
	switch depth {
	case 0:
		l.Union = id
	case 1:
		l.Association = id
	case 2:
		l.District = id
	case 3:
		l.Church = id
	}
}

// SetAt records the lineage ID for the given depth.
func (l *Lineage) SetAt(depth int, id string) { l.set(depth, id) }

// Parishioner is loosely coupled to the hierarchy: it names its church as
// free text and is excluded from scope enforcement.
type Parishioner struct {
	ID                  string
	ChurchName          string
	Name                string
	Address             string
	Telephone           string
	Cellphone           string
	Whatsapp            string
	BloodType           string
	BirthDate           *time.Time
	Sex                 string
	Baptized            bool
	BaptizedDate        *time.Time
	ParishionerInChurch bool
	ReunionGroup        bool
	Positions           []string
	RelationStatus      string
	FamilyMembers       []string
	HouseOwner          bool
	Occupation          string
	Studies             string
	CreatedBy           string
	UpdatedBy           string
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}
