package band

import (
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/gerow/go-color"
	"github.com/google/uuid"
)

type bandDTO struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string `db:"member_ids"`
}

func mapToBand(d *bandDTO) (*model.Band, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse band id %q: %w", d.ID, err)
	}

	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("parse owner id %q: %w", d.OwnerID, err)
	}

	members := make([]uuid.UUID, len(d.MemberIDs))
	for i, m := range d.MemberIDs {
		members[i], err = uuid.Parse(m)
		if err != nil {
			return nil, fmt.Errorf("parse member id %q: %w", m, err)
		}
	}

	return &model.Band{
		ID:        id,
		MemberIDs: members,
		BandCreate: model.BandCreate{
			Name:        d.Name,
			Description: d.Description,
			OwnerID:     ownerID,
		},
	}, nil
}

type membershipDTO struct {
	BandID string
	UserID string
	Color  string
	Notify bool
}

func mapToMembership(d *membershipDTO) (*model.Membership, error) {
	bandID, err := uuid.Parse(d.BandID)
	if err != nil {
		return nil, fmt.Errorf("parse band id %q: %w", d.BandID, err)
	}

	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.UserID, err)
	}

	colorRGB, err := color.HTMLToRGB(d.Color)
	if err != nil {
		return nil, fmt.Errorf("map color from %v", d.Color)
	}

	return &model.Membership{
		BandID: bandID,
		UserID: userID,
		Color:  colorRGB,
		Notify: d.Notify,
	}, nil
}
