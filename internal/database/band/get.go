package band

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

func (*Repository) GetBand(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.Band, error) {
	qb := baseQuery.
		Where(sq.Eq{"b.id": id.String()})

	dto := &bandDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToBand(dto)
}

func (*Repository) GetUserBands(ctx context.Context, q database.Queryable, userID uuid.UUID) ([]*model.Band, error) {
	qb := baseQuery.
		Join(database.BandMembersTable+" bm1 on b.id = bm1.band_id").
		Where(sq.Eq{"bm1.user_id": userID.String()}).
		GroupBy("b.id", "bm1.band_id", "bm1.user_id")

	var dtos []*bandDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.Band, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToBand(d)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (*Repository) GetMemberships(ctx context.Context, q database.Queryable, filter model.MembershipFilter) ([]*model.Membership, error) {
	qb := database.PSQL.
		Select(
			"band_id",
			"user_id",
			"color",
			"notify",
		).
		From(database.BandMembersTable).
		OrderBy("band_id", "user_id")

	if len(filter.BandIDs) != 0 {
		qb = qb.Where(sq.Eq{"band_id": uuidStrings(filter.BandIDs)})
	}

	if len(filter.UserIDs) != 0 {
		qb = qb.Where(sq.Eq{"user_id": uuidStrings(filter.UserIDs)})
	}

	var dtos []*membershipDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.Membership, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToMembership(d)
		if err != nil {
			return nil, fmt.Errorf("map membership: %w", err)
		}
	}

	return res, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = id.String()
	}
	return res
}
