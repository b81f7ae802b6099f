package availability

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

type responseDTO struct {
	OccurrenceID string
	UserID       string
	Status       int
	UpdatedAt    time.Time
}

func mapToResponse(d *responseDTO) (*model.AvailabilityResponse, error) {
	occurrenceID, err := uuid.Parse(d.OccurrenceID)
	if err != nil {
		return nil, fmt.Errorf("parse occurrence id %q: %w", d.OccurrenceID, err)
	}

	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.UserID, err)
	}

	return &model.AvailabilityResponse{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		Status:       model.AvailabilityStatus(d.Status),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// UpsertResponse records a member's availability for an occurrence. One row
// per (occurrence, user); a later response overwrites the earlier one.
func (*Repository) UpsertResponse(ctx context.Context, q database.Queryable, r *model.AvailabilityResponse) error {
	qb := database.PSQL.
		Insert(database.AvailabilityTable).
		Columns("occurrence_id", "user_id", "status", "updated_at").
		Values(r.OccurrenceID.String(), r.UserID.String(), int(r.Status), r.UpdatedAt).
		Suffix("on conflict (occurrence_id, user_id) do update set status = excluded.status, updated_at = excluded.updated_at")

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

func (*Repository) GetResponses(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID) ([]*model.AvailabilityResponse, error) {
	qb := database.PSQL.
		Select(
			"occurrence_id",
			"user_id",
			"status",
			"updated_at",
		).
		From(database.AvailabilityTable).
		Where(sq.Eq{"occurrence_id": occurrenceID.String()}).
		OrderBy("user_id")

	var dtos []*responseDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.AvailabilityResponse, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToResponse(d)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}
