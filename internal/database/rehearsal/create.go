package rehearsal

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

// CreateSeries inserts a series row. A caller-supplied ID is kept so the
// commit section can reference the series before it is persisted.
func (*Repository) CreateSeries(ctx context.Context, q database.Queryable, series *model.RehearsalSeries) (uuid.UUID, error) {
	id := series.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	qb := database.PSQL.
		Insert(database.SeriesTable).
		Columns(
			"id",
			"band_id",
			"created_by_id",
			"title",
			"description",
			"repeat_rule",
			"state",
		).
		Values(
			id.String(),
			series.BandID.String(),
			series.CreatedByID.String(),
			series.Title,
			series.Description,
			series.RepeatRule,
			int(series.State),
		)

	if _, err := q.Exec(ctx, qb); err != nil {
		return uuid.Nil, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}

func (*Repository) CreateOccurrence(ctx context.Context, q database.Queryable, occ *model.RehearsalOccurrence) (uuid.UUID, error) {
	id := occ.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var venueID *string
	if occ.VenueID != nil {
		s := occ.VenueID.String()
		venueID = &s
	}

	qb := database.PSQL.
		Insert(database.OccurrencesTable).
		Columns(
			"id",
			"series_id",
			"band_id",
			"venue_id",
			"start_time",
			"end_time",
			"status",
			"needs_rescheduling",
		).
		Values(
			id.String(),
			occ.SeriesID.String(),
			occ.BandID.String(),
			venueID,
			occ.StartTime,
			occ.EndTime,
			int(occ.Status),
			occ.NeedsRescheduling,
		)

	if _, err := q.Exec(ctx, qb); err != nil {
		return uuid.Nil, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}
