package venue

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

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select(
		"id",
		"name",
		"address",
		"capacity",
	).
	From(database.VenuesTable)

type venueDTO struct {
	ID       string
	Name     string
	Address  string
	Capacity int
}

func mapToVenue(d *venueDTO) (*model.Venue, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse venue id %q: %w", d.ID, err)
	}

	return &model.Venue{
		ID: id,
		VenueCreate: model.VenueCreate{
			Name:     d.Name,
			Address:  d.Address,
			Capacity: d.Capacity,
		},
	}, nil
}

func (*Repository) CreateVenue(ctx context.Context, q database.Queryable, venue *model.VenueCreate) (uuid.UUID, error) {
	id := uuid.New()

	qb := database.PSQL.
		Insert(database.VenuesTable).
		Columns("id", "name", "address", "capacity").
		Values(id.String(), venue.Name, venue.Address, venue.Capacity)

	if _, err := q.Exec(ctx, qb); err != nil {
		return uuid.Nil, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}

func (*Repository) GetVenue(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.Venue, error) {
	qb := baseQuery.
		Where(sq.Eq{"id": id.String()})

	dto := &venueDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToVenue(dto)
}

func (*Repository) ListVenues(ctx context.Context, q database.Queryable) ([]*model.Venue, error) {
	qb := baseQuery.
		OrderBy("name")

	var dtos []*venueDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.Venue, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToVenue(d)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// DeleteVenue removes the venue row only. Occurrences referencing it are
// detached by the rehearsal repository inside the same transaction.
func (*Repository) DeleteVenue(ctx context.Context, q database.Queryable, id uuid.UUID) error {
	qb := database.PSQL.
		Delete(database.VenuesTable).
		Where(sq.Eq{"id": id.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
