package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
)

const uniqueViolationCode = "23505"

func (*Repository) CreateUser(ctx context.Context, q database.Queryable, user *model.UserCreate) (uuid.UUID, error) {
	id := uuid.New()

	qb := database.PSQL.
		Insert(database.UsersTable).
		Columns("id", "email", "full_name", "instrument", "password_hash").
		Values(id.String(), user.Email, user.FullName, user.Instrument, user.PasswordHash)

	if _, err := q.Exec(ctx, qb); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return uuid.Nil, model.ErrAlreadyExists
		}
		return uuid.Nil, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}
