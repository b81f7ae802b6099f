package rehearsal

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

func (*Repository) UpdateSeriesState(ctx context.Context, q database.Queryable, seriesID uuid.UUID, state model.SeriesState) error {
	qb := database.PSQL.
		Update(database.SeriesTable).
		Set("state", int(state)).
		Where(sq.Eq{"id": seriesID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

func (*Repository) UpdateOccurrenceStatus(ctx context.Context, q database.Queryable, occurrenceID uuid.UUID, status model.OccurrenceStatus) error {
	qb := database.PSQL.
		Update(database.OccurrencesTable).
		Set("status", int(status)).
		Where(sq.Eq{"id": occurrenceID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

// CompleteElapsed flips Confirmed occurrences whose end time has passed to
// Completed and returns the occurrences it touched.
func (*Repository) CompleteElapsed(ctx context.Context, q database.Queryable, now time.Time) ([]*model.RehearsalOccurrence, error) {
	qb := database.PSQL.
		Update(database.OccurrencesTable).
		Set("status", int(model.OccurrenceStatusCompleted)).
		Where(sq.Eq{"status": int(model.OccurrenceStatusConfirmed)}).
		Where(sq.LtOrEq{"end_time": now}).
		Suffix("returning id, series_id, band_id, venue_id, start_time, end_time, status, needs_rescheduling")

	var dtos []*occurrenceDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToOccurrences(dtos)
}

// DetachVenue nulls the venue reference on every occurrence pointing at it
// and flags them for rescheduling. Deleting a venue never deletes slots.
func (*Repository) DetachVenue(ctx context.Context, q database.Queryable, venueID uuid.UUID) error {
	qb := database.PSQL.
		Update(database.OccurrencesTable).
		Set("venue_id", nil).
		Set("needs_rescheduling", true).
		Where(sq.Eq{"venue_id": venueID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
