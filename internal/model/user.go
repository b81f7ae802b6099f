package model

import "github.com/google/uuid"

type UserCreate struct {
	Email        string
	FullName     string
	Instrument   string
	PasswordHash []byte
}

type User struct {
	ID uuid.UUID
	UserCreate
}

type UserSearchFilter struct {
	Query string
	Limit int
	Page  int
}
