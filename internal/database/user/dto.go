package user

import (
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

type userDTO struct {
	ID           string
	Email        string
	FullName     string
	Instrument   string
	PasswordHash []byte
}

func mapToUser(d *userDTO) (*model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.ID, err)
	}

	return &model.User{
		ID: id,
		UserCreate: model.UserCreate{
			Email:        d.Email,
			FullName:     d.FullName,
			Instrument:   d.Instrument,
			PasswordHash: d.PasswordHash,
		},
	}, nil
}
