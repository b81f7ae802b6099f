package band

import (
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select(
		"b.id",
		"b.name",
		"b.description",
		"b.owner_id",
		"array_agg(bm.user_id) member_ids",
	).
	From(database.BandsTable + " b").
	Join(database.BandMembersTable + " bm on b.id = bm.band_id").
	GroupBy("b.id")
