package attendance

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

type recordDTO struct {
	OccurrenceID string
	UserID       string
	Status       int
	RecordedAt   time.Time
}

func mapToRecord(d *recordDTO) (*model.AttendanceRecord, error) {
	occurrenceID, err := uuid.Parse(d.OccurrenceID)
	if err != nil {
		return nil, fmt.Errorf("parse occurrence id %q: %w", d.OccurrenceID, err)
	}

	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.UserID, err)
	}

	return &model.AttendanceRecord{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		Status:       model.AttendanceStatus(d.Status),
		RecordedAt:   d.RecordedAt.UTC(),
	}, nil
}

func (*Repository) UpsertRecord(ctx context.Context, q database.Queryable, r *model.AttendanceRecord) error {
	qb := database.PSQL.
		Insert(database.AttendanceTable).
		Columns("occurrence_id", "user_id", "status", "recorded_at").
		Values(r.OccurrenceID.String(), r.UserID.String(), int(r.Status), r.RecordedAt).
		Suffix("on conflict (occurrence_id, user_id) do update set status = excluded.status, recorded_at = excluded.recorded_at")

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

func (*Repository) GetRecords(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID) ([]*model.AttendanceRecord, error) {
	qb := database.PSQL.
		Select(
			"occurrence_id",
			"user_id",
			"status",
			"recorded_at",
		).
		From(database.AttendanceTable).
		Where(sq.Eq{"occurrence_id": occurrenceID.String()}).
		OrderBy("user_id")

	var dtos []*recordDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.AttendanceRecord, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToRecord(d)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}
