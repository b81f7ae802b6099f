package database

import (
	"context"
	"fmt"
	"hash/fnv"

	sq "github.com/Masterminds/squirrel"
)

var PSQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	UsersTable        = "users"
	BandsTable        = "bands"
	BandMembersTable  = "band_members"
	VenuesTable       = "venues"
	SeriesTable       = "rehearsal_series"
	OccurrencesTable  = "rehearsal_occurrences"
	AvailabilityTable = "availabilities"
	AttendanceTable   = "attendances"
)

// WithExclusive runs fn inside a transaction that holds a session-wide
// advisory lock derived from key. Two commits contending for the same band
// or venue serialize here; the lock is released when the transaction ends,
// on every exit path.
func WithExclusive(ctx context.Context, db PGX, key string, fn func(tx Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecRaw(ctx, "select pg_advisory_xact_lock($1)", lockKey(key)); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// AcquireLock takes an additional advisory lock inside an already-open
// transaction, for commits that span both a band and a venue. Callers must
// use a consistent lock order to stay deadlock-free.
func AcquireLock(ctx context.Context, q Queryable, key string) error {
	if _, err := q.ExecRaw(ctx, "select pg_advisory_xact_lock($1)", lockKey(key)); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	return nil
}

func lockKey(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}
