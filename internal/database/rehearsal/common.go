package rehearsal

import (
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var seriesQuery = database.PSQL.
	Select(
		"id",
		"band_id",
		"created_by_id",
		"title",
		"description",
		"repeat_rule",
		"state",
	).
	From(database.SeriesTable)

var occurrenceQuery = database.PSQL.
	Select(
		"id",
		"series_id",
		"band_id",
		"venue_id",
		"start_time",
		"end_time",
		"status",
		"needs_rescheduling",
	).
	From(database.OccurrencesTable)
