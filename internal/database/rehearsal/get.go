package rehearsal

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

func (*Repository) GetSeries(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.RehearsalSeries, error) {
	qb := seriesQuery.
		Where(sq.Eq{"id": id.String()})

	dto := &seriesDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToSeries(dto)
}

func (*Repository) GetOccurrence(ctx context.Context, q database.Queryable, id uuid.UUID) (*model.RehearsalOccurrence, error) {
	qb := occurrenceQuery.
		Where(sq.Eq{"id": id.String()})

	dto := &occurrenceDTO{}
	if err := q.Get(ctx, dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrence(dto)
}

func (*Repository) GetOccurrences(ctx context.Context, q database.Queryable, filter model.OccurrencesFilter) ([]*model.RehearsalOccurrence, error) {
	qb := occurrenceQuery.
		OrderBy("start_time")

	if !filter.From.IsZero() {
		qb = qb.Where(sq.Gt{"end_time": filter.From})
	}

	if !filter.To.IsZero() {
		qb = qb.Where(sq.Lt{"start_time": filter.To})
	}

	if len(filter.BandIDs) != 0 {
		qb = qb.Where(sq.Eq{"band_id": uuidStrings(filter.BandIDs)})
	}

	if len(filter.VenueIDs) != 0 {
		qb = qb.Where(sq.Eq{"venue_id": uuidStrings(filter.VenueIDs)})
	}

	if len(filter.Statuses) != 0 {
		statuses := make([]int, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = int(s)
		}
		qb = qb.Where(sq.Eq{"status": statuses})
	}

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

func (*Repository) GetSeriesOccurrences(ctx context.Context, q database.Queryable, seriesID uuid.UUID) ([]*model.RehearsalOccurrence, error) {
	qb := occurrenceQuery.
		Where(sq.Eq{"series_id": seriesID.String()}).
		OrderBy("start_time")

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

// GetBandWindow returns Confirmed occurrences of the band intersecting
// [from, to). Served by the (band_id, start_time) index.
func (*Repository) GetBandWindow(ctx context.Context, q database.Queryable, bandID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	qb := occurrenceQuery.
		Where(sq.Eq{"band_id": bandID.String(), "status": int(model.OccurrenceStatusConfirmed)}).
		Where(sq.Lt{"start_time": to}).
		Where(sq.Gt{"end_time": from}).
		OrderBy("start_time")

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

// GetVenueWindow returns Confirmed occurrences at the venue intersecting
// [from, to). Served by the (venue_id, start_time) index.
func (*Repository) GetVenueWindow(ctx context.Context, q database.Queryable, venueID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	qb := occurrenceQuery.
		Where(sq.Eq{"venue_id": venueID.String(), "status": int(model.OccurrenceStatusConfirmed)}).
		Where(sq.Lt{"start_time": to}).
		Where(sq.Gt{"end_time": from}).
		OrderBy("start_time")

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

// GetMemberWindow returns Confirmed occurrences of other bands that share at
// least one of the given members, intersecting [from, to).
func (*Repository) GetMemberWindow(ctx context.Context, q database.Queryable, excludeBandID uuid.UUID, memberIDs []uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	qb := database.PSQL.
		Select(
			"distinct o.id",
			"o.series_id",
			"o.band_id",
			"o.venue_id",
			"o.start_time",
			"o.end_time",
			"o.status",
			"o.needs_rescheduling",
		).
		From(database.OccurrencesTable + " o").
		Join(database.BandMembersTable + " bm on o.band_id = bm.band_id").
		Where(sq.Eq{"bm.user_id": uuidStrings(memberIDs), "o.status": int(model.OccurrenceStatusConfirmed)}).
		Where(sq.NotEq{"o.band_id": excludeBandID.String()}).
		Where(sq.Lt{"o.start_time": to}).
		Where(sq.Gt{"o.end_time": from}).
		OrderBy("o.start_time")

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

func uuidStrings(ids []uuid.UUID) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = id.String()
	}
	return res
}
