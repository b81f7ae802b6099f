package band

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

func (*Repository) UpdateBandName(ctx context.Context, q database.Queryable, bandID uuid.UUID, name string) error {
	qb := database.PSQL.
		Update(database.BandsTable).
		Set("name", name).
		Where(sq.Eq{"id": bandID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

func (*Repository) UpdateMembershipSettings(ctx context.Context, q database.Queryable, m *model.Membership) error {
	qb := database.PSQL.
		Update(database.BandMembersTable).
		Set("color", "#"+m.Color.ToHTML()).
		Set("notify", m.Notify).
		Where(sq.Eq{"band_id": m.BandID.String(), "user_id": m.UserID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

func (*Repository) RemoveMember(ctx context.Context, q database.Queryable, bandID, userID uuid.UUID) error {
	qb := database.PSQL.
		Delete(database.BandMembersTable).
		Where(sq.Eq{"band_id": bandID.String(), "user_id": userID.String()})

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
