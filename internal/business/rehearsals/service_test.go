package rehearsals

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/notifications"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// noTxDB stubs the Queryable surface of database.PGX; the fake repositories
// ignore the Queryable they are handed and keep their state in memory.
type noTxDB struct{}

func (noTxDB) Exec(context.Context, sq.Sqlizer) (pgconn.CommandTag, error)  { return nil, nil }
func (noTxDB) Get(context.Context, interface{}, sq.Sqlizer) error           { return nil }
func (noTxDB) Select(context.Context, interface{}, sq.Sqlizer) error        { return nil }
func (noTxDB) ExecRaw(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, nil
}
func (noTxDB) GetPool(context.Context) *pgxpool.Pool { return nil }

// txDB hands out transactions that snapshot the store on begin and restore
// it on rollback, mirroring what the real pool does to uncommitted writes.
type txDB struct {
	noTxDB
	store *fakeStore
}

func (d txDB) BeginTx(context.Context, *pgx.TxOptions) (database.Tx, error) {
	return &storeTx{store: d.store, snapshot: d.store.snapshot()}, nil
}

type storeTx struct {
	noTxDB
	store    *fakeStore
	snapshot *fakeStore
	done     bool
}

func (t *storeTx) Commit(context.Context) error {
	t.done = true
	return nil
}

func (t *storeTx) Rollback(context.Context) error {
	if !t.done {
		t.store.restore(t.snapshot)
	}
	return nil
}

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	bands     map[uuid.UUID]*model.Band
	series    map[uuid.UUID]*model.RehearsalSeries
	occs      map[uuid.UUID]*model.RehearsalOccurrence
	responses map[string]*model.AvailabilityResponse
	records   map[string]*model.AttendanceRecord

	// when non-zero, the Nth CreateOccurrence call fails
	failOccurrenceCreate int
	occurrenceCreates    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bands:     map[uuid.UUID]*model.Band{},
		series:    map[uuid.UUID]*model.RehearsalSeries{},
		occs:      map[uuid.UUID]*model.RehearsalOccurrence{},
		responses: map[string]*model.AvailabilityResponse{},
		records:   map[string]*model.AttendanceRecord{},
	}
}

func (f *fakeStore) GetBand(_ context.Context, _ database.Queryable, id uuid.UUID) (*model.Band, error) {
	b, ok := f.bands[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return b, nil
}

func (f *fakeStore) GetMemberships(_ context.Context, _ database.Queryable, filter model.MembershipFilter) ([]*model.Membership, error) {
	var res []*model.Membership
	for _, bandID := range filter.BandIDs {
		b, ok := f.bands[bandID]
		if !ok {
			continue
		}
		for _, userID := range b.MemberIDs {
			res = append(res, &model.Membership{BandID: bandID, UserID: userID})
		}
	}
	return res, nil
}

func (f *fakeStore) CreateSeries(_ context.Context, _ database.Queryable, s *model.RehearsalSeries) (uuid.UUID, error) {
	cp := *s
	f.series[s.ID] = &cp
	return s.ID, nil
}

func (f *fakeStore) GetSeries(_ context.Context, _ database.Queryable, id uuid.UUID) (*model.RehearsalSeries, error) {
	s, ok := f.series[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return s, nil
}

func (f *fakeStore) UpdateSeriesState(_ context.Context, _ database.Queryable, id uuid.UUID, state model.SeriesState) error {
	s, ok := f.series[id]
	if !ok {
		return model.ErrNoRecord
	}
	s.State = state
	return nil
}

func (f *fakeStore) CreateOccurrence(_ context.Context, _ database.Queryable, occ *model.RehearsalOccurrence) (uuid.UUID, error) {
	f.occurrenceCreates++
	if f.failOccurrenceCreate != 0 && f.occurrenceCreates == f.failOccurrenceCreate {
		return uuid.Nil, errors.New("insert failed")
	}
	cp := *occ
	f.occs[occ.ID] = &cp
	return occ.ID, nil
}

func (f *fakeStore) GetOccurrence(_ context.Context, _ database.Queryable, id uuid.UUID) (*model.RehearsalOccurrence, error) {
	occ, ok := f.occs[id]
	if !ok {
		return nil, model.ErrNoRecord
	}
	return occ, nil
}

func (f *fakeStore) GetOccurrences(_ context.Context, _ database.Queryable, filter model.OccurrencesFilter) ([]*model.RehearsalOccurrence, error) {
	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if !filter.From.IsZero() && !occ.EndTime.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !occ.StartTime.Before(filter.To) {
			continue
		}
		res = append(res, occ)
	}
	sortOccs(res)
	return res, nil
}

func (f *fakeStore) GetSeriesOccurrences(_ context.Context, _ database.Queryable, seriesID uuid.UUID) ([]*model.RehearsalOccurrence, error) {
	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if occ.SeriesID == seriesID {
			res = append(res, occ)
		}
	}
	sortOccs(res)
	return res, nil
}

func (f *fakeStore) GetBandWindow(_ context.Context, _ database.Queryable, bandID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if occ.BandID == bandID && confirmedInWindow(occ, from, to) {
			res = append(res, occ)
		}
	}
	sortOccs(res)
	return res, nil
}

func (f *fakeStore) GetVenueWindow(_ context.Context, _ database.Queryable, venueID uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if occ.VenueID != nil && *occ.VenueID == venueID && confirmedInWindow(occ, from, to) {
			res = append(res, occ)
		}
	}
	sortOccs(res)
	return res, nil
}

func (f *fakeStore) GetMemberWindow(_ context.Context, _ database.Queryable, excludeBandID uuid.UUID, memberIDs []uuid.UUID, from, to time.Time) ([]*model.RehearsalOccurrence, error) {
	members := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if occ.BandID == excludeBandID || !confirmedInWindow(occ, from, to) {
			continue
		}
		b, ok := f.bands[occ.BandID]
		if !ok {
			continue
		}
		for _, id := range b.MemberIDs {
			if _, shared := members[id]; shared {
				res = append(res, occ)
				break
			}
		}
	}
	sortOccs(res)
	return res, nil
}

func (f *fakeStore) UpdateOccurrenceStatus(_ context.Context, _ database.Queryable, id uuid.UUID, status model.OccurrenceStatus) error {
	occ, ok := f.occs[id]
	if !ok {
		return model.ErrNoRecord
	}
	occ.Status = status
	return nil
}

func (f *fakeStore) CompleteElapsed(_ context.Context, _ database.Queryable, now time.Time) ([]*model.RehearsalOccurrence, error) {
	var res []*model.RehearsalOccurrence
	for _, occ := range f.occs {
		if occ.Status == model.OccurrenceStatusConfirmed && !occ.EndTime.After(now) {
			occ.Status = model.OccurrenceStatusCompleted
			res = append(res, occ)
		}
	}
	sortOccs(res)
	return res, nil
}

func respKey(occID, userID uuid.UUID) string {
	return occID.String() + "|" + userID.String()
}

func (f *fakeStore) UpsertResponse(_ context.Context, _ database.Queryable, r *model.AvailabilityResponse) error {
	cp := *r
	f.responses[respKey(r.OccurrenceID, r.UserID)] = &cp
	return nil
}

func (f *fakeStore) GetResponses(_ context.Context, _ database.Queryable, occID uuid.UUID) ([]*model.AvailabilityResponse, error) {
	var res []*model.AvailabilityResponse
	for _, r := range f.responses {
		if r.OccurrenceID == occID {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeStore) UpsertRecord(_ context.Context, _ database.Queryable, r *model.AttendanceRecord) error {
	cp := *r
	f.records[respKey(r.OccurrenceID, r.UserID)] = &cp
	return nil
}

func (f *fakeStore) GetRecords(_ context.Context, _ database.Queryable, occID uuid.UUID) ([]*model.AttendanceRecord, error) {
	var res []*model.AttendanceRecord
	for _, r := range f.records {
		if r.OccurrenceID == occID {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	for id, b := range f.bands {
		cp.bands[id] = b
	}
	for id, s := range f.series {
		v := *s
		cp.series[id] = &v
	}
	for id, o := range f.occs {
		v := *o
		cp.occs[id] = &v
	}
	for k, r := range f.responses {
		v := *r
		cp.responses[k] = &v
	}
	for k, r := range f.records {
		v := *r
		cp.records[k] = &v
	}
	return cp
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.bands = snap.bands
	f.series = snap.series
	f.occs = snap.occs
	f.responses = snap.responses
	f.records = snap.records
}

func confirmedInWindow(occ *model.RehearsalOccurrence, from, to time.Time) bool {
	return occ.Status == model.OccurrenceStatusConfirmed &&
		occ.StartTime.Before(to) && occ.EndTime.After(from)
}

func sortOccs(occs []*model.RehearsalOccurrence) {
	sort.Slice(occs, func(i, j int) bool { return occs[i].StartTime.Before(occs[j].StartTime) })
}

type fakePublisher struct {
	events []*notifications.Message
}

func (p *fakePublisher) Publish(_ context.Context, bandID uuid.UUID, name string, payload interface{}) error {
	p.events = append(p.events, &notifications.Message{BandID: bandID, Name: name, Payload: payload})
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, ms []*notifications.Message) {
	p.events = append(p.events, ms...)
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakePublisher) {
	t.Helper()

	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(txDB{store: store}, store, store, store, store, pub, zap.NewNop().Sugar(), Options{
		QuorumFraction: 2.0 / 3.0,
		MaxOccurrences: 366,
		CommitTimeout:  10 * time.Second,
	})
	svc.now = func() time.Time { return fixedNow }
	return svc, store, pub
}

func seedBand(store *fakeStore, memberCount int) *model.Band {
	members := make([]uuid.UUID, memberCount)
	for i := range members {
		members[i] = uuid.New()
	}
	b := &model.Band{
		ID:        uuid.New(),
		MemberIDs: members,
		BandCreate: model.BandCreate{
			Name:    "band",
			OwnerID: members[0],
		},
	}
	store.bands[b.ID] = b
	return b
}

func TestCreateSeriesCommitsWholeSeries(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Title:       "weekly practice",
		Start:       start,
		End:         start.Add(2 * time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3},
	})
	require.NoError(t, err)

	assert.Len(t, res.Occurrences, 3)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, model.SeriesStateCommitted, res.Series.State)

	for i, occ := range res.Occurrences {
		assert.Equal(t, model.OccurrenceStatusConfirmed, occ.Status)
		assert.Equal(t, start.AddDate(0, 0, 7*i), occ.StartTime)
	}

	require.Len(t, pub.events, 3)
	for _, ev := range pub.events {
		assert.Equal(t, EventScheduled, ev.Name)
		assert.Equal(t, band.ID, ev.BandID)
	}
}

func TestCreateSeriesRejectsConflictingCandidateOnly(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)

	// An existing booking squats on the second weekly slot.
	taken := start.AddDate(0, 0, 7)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		SeriesID:  uuid.New(),
		BandID:    band.ID,
		StartTime: taken,
		EndTime:   taken.Add(2 * time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Title:       "weekly practice",
		Start:       start,
		End:         start.Add(2 * time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3},
	})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, schedule.ConflictKindBand, res.Conflicts[0].Kind)
	assert.Equal(t, taken, res.Conflicts[0].CandidateStart)

	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, start, res.Occurrences[0].StartTime)
	assert.Equal(t, start.AddDate(0, 0, 14), res.Occurrences[1].StartTime)
}

func TestCreateSeriesFailDispositionCommitsNothing(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		BandID:    band.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(2 * time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3},
		OnConflict:  OnConflictFail,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Conflicts)
	assert.Empty(t, res.Occurrences)
	assert.Equal(t, model.SeriesStateValidated, res.Series.State)
	assert.Empty(t, pub.events)
}

func TestCreateSeriesForceCommitsDespiteConflicts(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		BandID:    band.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(2 * time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 2},
		OnConflict:  OnConflictForce,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Conflicts)
	assert.Len(t, res.Occurrences, 2)
	assert.Equal(t, model.SeriesStateCommitted, res.Series.State)
}

func TestCreateSeriesDetectsSharedMemberConflict(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)
	other := seedBand(store, 2)

	// The drummer moonlights in both bands.
	other.MemberIDs = append(other.MemberIDs, band.MemberIDs[0])

	start := fixedNow.Add(24 * time.Hour)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		BandID:    other.ID,
		StartTime: start,
		EndTime:   start.Add(3 * time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start.Add(time.Hour),
		End:         start.Add(2 * time.Hour),
		Rule:        model.RecurrenceRule{},
	})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, schedule.ConflictKindMember, res.Conflicts[0].Kind)
	assert.Empty(t, res.Occurrences)
}

func TestCreateSeriesNonMemberRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	start := fixedNow.Add(24 * time.Hour)
	_, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: uuid.New(),
		Start:       start,
		End:         start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, model.ErrStaleMembership)
}

func TestCreateSeriesUnboundedRuleRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	start := fixedNow.Add(24 * time.Hour)
	_, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyDaily},
	})
	assert.ErrorIs(t, err, model.ErrRecurrenceBoundsMissing)
}

func TestCreateSeriesEmptyExpansionRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	// A daily rule whose exclusive until equals the anchor start is bounded
	// but generates nothing.
	start := fixedNow.Add(24 * time.Hour)
	_, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyDaily, Until: &start},
	})
	assert.ErrorIs(t, err, model.ErrNoOccurrences)
	assert.Empty(t, store.series)
}

func TestCreateSeriesReportsVenueAndMemberConflicts(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)
	other := seedBand(store, 2)

	// The bassist plays in both bands, and both bands want the same room.
	other.MemberIDs = append(other.MemberIDs, band.MemberIDs[0])
	venueID := uuid.New()

	start := fixedNow.Add(24 * time.Hour)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		BandID:    other.ID,
		VenueID:   &venueID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		VenueID:     &venueID,
		Start:       start.Add(time.Hour),
		End:         start.Add(3 * time.Hour),
		Rule:        model.RecurrenceRule{},
	})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 2)
	kinds := map[schedule.ConflictKind]int{}
	for _, c := range res.Conflicts {
		kinds[c.Kind]++
	}
	assert.Equal(t, 1, kinds[schedule.ConflictKindVenue])
	assert.Equal(t, 1, kinds[schedule.ConflictKindMember])
	assert.Empty(t, res.Occurrences)
}

func TestCreateSeriesRollsBackOnPersistFailure(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	store.failOccurrenceCreate = 2

	start := fixedNow.Add(24 * time.Hour)
	_, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3},
	})
	require.ErrorIs(t, err, model.ErrSeriesCommitFailed)

	// Nothing from the attempt survives, not even the slots inserted before
	// the failure.
	assert.Empty(t, store.occs)
	assert.Empty(t, store.series)
	assert.Empty(t, pub.events)
}

func TestUpdateSeriesReplacesFutureOccurrences(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	created, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Title:       "old slot",
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 3},
	})
	require.NoError(t, err)
	pub.events = nil

	newStart := start.Add(2 * time.Hour)
	res, err := svc.UpdateSeries(context.Background(), created.Series.ID, &UpdateSeriesRequest{
		UpdatedByID: band.OwnerID,
		Title:       "new slot",
		Start:       newStart,
		End:         newStart.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 2},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Conflicts)
	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, newStart, res.Occurrences[0].StartTime)

	for _, occ := range created.Occurrences {
		stored := store.occs[occ.ID]
		assert.Equal(t, model.OccurrenceStatusCancelled, stored.Status)
	}

	var cancelledEvents, scheduledEvents int
	for _, ev := range pub.events {
		switch ev.Name {
		case EventCancelled:
			cancelledEvents++
		case EventScheduled:
			scheduledEvents++
		}
	}
	assert.Equal(t, 3, cancelledEvents)
	assert.Equal(t, 2, scheduledEvents)
}

func TestUpdateSeriesEmptyExpansionRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	start := fixedNow.Add(24 * time.Hour)
	created, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
	})
	require.NoError(t, err)

	newStart := start.Add(2 * time.Hour)
	_, err = svc.UpdateSeries(context.Background(), created.Series.ID, &UpdateSeriesRequest{
		UpdatedByID: band.OwnerID,
		Start:       newStart,
		End:         newStart.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyDaily, Until: &newStart},
	})
	assert.ErrorIs(t, err, model.ErrNoOccurrences)

	// The empty replacement must not have cancelled anything.
	assert.Equal(t, model.OccurrenceStatusConfirmed, store.occs[created.Occurrences[0].ID].Status)
}

func TestUpdateSeriesFailRestoresOldOccurrences(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	created, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 2},
	})
	require.NoError(t, err)
	pub.events = nil

	// Another booking of the same band squats on the replacement slot.
	newStart := start.Add(4 * time.Hour)
	existingID := uuid.New()
	store.occs[existingID] = &model.RehearsalOccurrence{
		ID:        existingID,
		SeriesID:  uuid.New(),
		BandID:    band.ID,
		StartTime: newStart,
		EndTime:   newStart.Add(time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	res, err := svc.UpdateSeries(context.Background(), created.Series.ID, &UpdateSeriesRequest{
		UpdatedByID: band.OwnerID,
		Start:       newStart,
		End:         newStart.Add(time.Hour),
		OnConflict:  OnConflictFail,
	})
	require.ErrorIs(t, err, model.ErrSeriesCommitFailed)
	assert.NotEmpty(t, res.Conflicts)

	// The cancellations made before validation must not outlive the failed
	// replacement.
	for _, occ := range created.Occurrences {
		assert.Equal(t, model.OccurrenceStatusConfirmed, store.occs[occ.ID].Status)
	}
	assert.Empty(t, pub.events)
}

func TestRescheduleKeepsOriginalWhenReplacementConflicts(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	created, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
		Rule:        model.RecurrenceRule{Frequency: model.FrequencyWeekly, Count: 2},
	})
	require.NoError(t, err)
	pub.events = nil

	// Moving the first occurrence onto the second one's slot must fail
	// and leave the first untouched.
	second := created.Occurrences[1]
	res, err := svc.RescheduleOccurrence(context.Background(), created.Occurrences[0].ID, &RescheduleRequest{
		UpdatedByID: band.OwnerID,
		Start:       second.StartTime,
		End:         second.EndTime,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Conflicts)
	assert.Empty(t, res.Occurrences)
	assert.Equal(t, model.OccurrenceStatusConfirmed, store.occs[created.Occurrences[0].ID].Status)
	assert.Empty(t, pub.events)
}

func TestRescheduleMovesOccurrence(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	start := fixedNow.Add(24 * time.Hour)
	created, err := svc.CreateSeries(context.Background(), &CreateSeriesRequest{
		BandID:      band.ID,
		CreatedByID: band.OwnerID,
		Start:       start,
		End:         start.Add(time.Hour),
	})
	require.NoError(t, err)
	pub.events = nil

	original := created.Occurrences[0]
	newStart := start.Add(48 * time.Hour)
	res, err := svc.RescheduleOccurrence(context.Background(), original.ID, &RescheduleRequest{
		UpdatedByID: band.OwnerID,
		Start:       newStart,
		End:         newStart.Add(time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, newStart, res.Occurrences[0].StartTime)
	assert.Equal(t, original.SeriesID, res.Occurrences[0].SeriesID)
	assert.Equal(t, model.OccurrenceStatusCancelled, store.occs[original.ID].Status)
	assert.Len(t, pub.events, 2)
}

func TestCancelOccurrenceAfterEndRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:        id,
		BandID:    band.ID,
		StartTime: fixedNow.Add(-3 * time.Hour),
		EndTime:   fixedNow.Add(-time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	err := svc.CancelOccurrence(context.Background(), id, band.OwnerID)
	assert.ErrorIs(t, err, model.ErrOccurrenceNotEditable)
}

func TestCancelOccurrenceKeepsResponses(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 3)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:        id,
		BandID:    band.ID,
		StartTime: fixedNow.Add(time.Hour),
		EndTime:   fixedNow.Add(2 * time.Hour),
		Status:    model.OccurrenceStatusConfirmed,
	}

	_, err := svc.RespondAvailability(context.Background(), id, band.MemberIDs[1], model.AvailabilityStatusAvailable)
	require.NoError(t, err)

	require.NoError(t, svc.CancelOccurrence(context.Background(), id, band.OwnerID))
	assert.Equal(t, model.OccurrenceStatusCancelled, store.occs[id].Status)

	summary, err := svc.AvailabilitySummary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Available)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventCancelled, pub.events[0].Name)
}

func TestRespondAvailabilityOverwrites(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:      id,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(2 * time.Hour),
	}

	_, err := svc.RespondAvailability(context.Background(), id, band.MemberIDs[1], model.AvailabilityStatusAvailable)
	require.NoError(t, err)

	res, err := svc.RespondAvailability(context.Background(), id, band.MemberIDs[1], model.AvailabilityStatusUnavailable)
	require.NoError(t, err)

	assert.False(t, res.StaleMembership)
	assert.Equal(t, 0, res.Summary.Available)
	assert.Equal(t, 1, res.Summary.Unavailable)
	assert.Equal(t, 2, res.Summary.NoResponse)
}

func TestRespondAvailabilityStaleMemberFlagged(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:      id,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(2 * time.Hour),
	}

	res, err := svc.RespondAvailability(context.Background(), id, uuid.New(), model.AvailabilityStatusAvailable)
	require.NoError(t, err)

	assert.True(t, res.StaleMembership)
	assert.Equal(t, 0, res.Summary.Available)
	assert.Equal(t, 3, res.Summary.NoResponse)
}

func TestRecordAttendanceBeforeEndNeedsOverride(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:      id,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(time.Hour),
	}

	_, err := svc.RecordAttendance(context.Background(), id, band.OwnerID, model.AttendanceStatusAttended, false)
	assert.ErrorIs(t, err, model.ErrOccurrenceNotConcluded)

	res, err := svc.RecordAttendance(context.Background(), id, band.OwnerID, model.AttendanceStatusAttended, true)
	require.NoError(t, err)
	assert.False(t, res.StaleMembership)
}

func TestReconcileAttendanceRequiresCompleted(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 2)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:      id,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(-time.Hour),
	}

	_, err := svc.ReconcileAttendance(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrOccurrenceNotConcluded)
}

func TestReconcileAttendanceFindsDiscrepancies(t *testing.T) {
	svc, store, _ := newTestService(t)
	band := seedBand(store, 3)

	id := uuid.New()
	store.occs[id] = &model.RehearsalOccurrence{
		ID:      id,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(-time.Hour),
	}

	_, err := svc.RespondAvailability(context.Background(), id, band.MemberIDs[0], model.AvailabilityStatusAvailable)
	require.NoError(t, err)

	_, err = svc.RecordAttendance(context.Background(), id, band.MemberIDs[0], model.AttendanceStatusAbsent, false)
	require.NoError(t, err)

	_, err = svc.CompleteElapsed(context.Background())
	require.NoError(t, err)

	discrepancies, err := svc.ReconcileAttendance(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, discrepancies, 3)
	kinds := map[uuid.UUID]schedule.DiscrepancyKind{}
	for _, d := range discrepancies {
		kinds[d.UserID] = d.Kind
	}
	assert.Equal(t, schedule.DiscrepancySaidAvailableButAbsent, kinds[band.MemberIDs[0]])
	assert.Equal(t, schedule.DiscrepancySilentNoShow, kinds[band.MemberIDs[1]])
	assert.Equal(t, schedule.DiscrepancySilentNoShow, kinds[band.MemberIDs[2]])
}

func TestCompleteElapsedPublishes(t *testing.T) {
	svc, store, pub := newTestService(t)
	band := seedBand(store, 2)

	done := uuid.New()
	store.occs[done] = &model.RehearsalOccurrence{
		ID:      done,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(-time.Minute),
	}
	upcoming := uuid.New()
	store.occs[upcoming] = &model.RehearsalOccurrence{
		ID:      upcoming,
		BandID:  band.ID,
		Status:  model.OccurrenceStatusConfirmed,
		EndTime: fixedNow.Add(time.Hour),
	}

	occs, err := svc.CompleteElapsed(context.Background())
	require.NoError(t, err)

	require.Len(t, occs, 1)
	assert.Equal(t, done, occs[0].ID)
	assert.Equal(t, model.OccurrenceStatusCompleted, store.occs[done].Status)
	assert.Equal(t, model.OccurrenceStatusConfirmed, store.occs[upcoming].Status)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventCompleted, pub.events[0].Name)
}
