package model

import "github.com/google/uuid"

type VenueCreate struct {
	Name     string
	Address  string
	Capacity int
}

type Venue struct {
	ID uuid.UUID
	VenueCreate
}
