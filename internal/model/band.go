package model

import (
	"github.com/gerow/go-color"
	"github.com/google/uuid"
)

type BandCreate struct {
	Name        string
	Description string
	OwnerID     uuid.UUID
}

type Band struct {
	ID        uuid.UUID
	MemberIDs []uuid.UUID
	BandCreate
}

// IsMember reports whether the user belongs to the band. The owner is always
// a member.
func (b *Band) IsMember(userID uuid.UUID) bool {
	if b.OwnerID == userID {
		return true
	}
	for _, id := range b.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Membership is the band_members join row. It carries per-member display
// settings rather than relying on an implicit pivot table.
type Membership struct {
	BandID uuid.UUID
	UserID uuid.UUID
	Color  color.RGB
	Notify bool
}

type MembershipFilter struct {
	BandIDs []uuid.UUID
	UserIDs []uuid.UUID
}
