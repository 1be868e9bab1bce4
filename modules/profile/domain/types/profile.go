package types

import "time"

type Level string

const (
	LevelAdmin      Level = "Admin"
	LevelPastor     Level = "Pastor"
	LevelSecretaria Level = "Secretaria"
)

func ValidLevel(l Level) bool {
	switch l {
	case LevelAdmin, LevelPastor, LevelSecretaria:
		return true
	default:
		return false
	}
}

// Profile records a user's level, authority flags and scope anchors.
// One profile per user, enforced by lookup-by-user semantics.
type Profile struct {
	ID     string
	UserID string
	Level  Level

	CreateUnion       bool
	CreateAssociation bool
	CreateDistrict    bool
	CreateChurch      bool
	// Deprecated: parishioner records are managed through the church
	// anchor; the flag is kept for stored profiles that still carry it.
	CreateParishioner bool

	UnionID       string
	AssociationID string
	DistrictID    string
	ChurchID      string

	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
