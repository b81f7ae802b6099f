package user

import (
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select(
		"id",
		"email",
		"full_name",
		"instrument",
		"password_hash",
	).
	From(database.UsersTable)
