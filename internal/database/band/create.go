package band

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

func (*Repository) CreateBand(ctx context.Context, q database.Queryable, band *model.BandCreate) (uuid.UUID, error) {
	id := uuid.New()

	qb := database.PSQL.
		Insert(database.BandsTable).
		Columns("id", "name", "description", "owner_id").
		Values(id.String(), band.Name, band.Description, band.OwnerID.String())

	if _, err := q.Exec(ctx, qb); err != nil {
		return uuid.Nil, fmt.Errorf("SQL request: %w", err)
	}

	return id, nil
}

func (*Repository) AddMember(ctx context.Context, q database.Queryable, m *model.Membership) error {
	qb := database.PSQL.
		Insert(database.BandMembersTable).
		Columns("band_id", "user_id", "color", "notify").
		Values(
			m.BandID.String(),
			m.UserID.String(),
			"#"+m.Color.ToHTML(),
			m.Notify,
		)

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
