package user

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

func (*Repository) GetUserByID(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.User, error) {
	qb := baseQuery.
		Where(sq.Eq{"id": id.String()})

	dto := &userDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToUser(dto)
}

func (*Repository) GetUserByEmail(ctx context.Context, q database.Queryable, email string) (*model.User, error) {
	qb := baseQuery.
		Where(sq.Eq{"email": email})

	dto := &userDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToUser(dto)
}

func (*Repository) GetUsersByIDs(ctx context.Context, q database.Queryable, ids []uuid.UUID) ([]*model.User, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	qb := baseQuery.
		Where(sq.Eq{"id": strIDs})

	var dtos []*userDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.User, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToUser(d)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}
