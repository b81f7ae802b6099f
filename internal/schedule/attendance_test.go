package schedule

import (
	"testing"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID uuid.UUID, status model.AttendanceStatus) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		OccurrenceID: uuid.New(),
		UserID:       userID,
		Status:       status,
		RecordedAt:   time.Now(),
	}
}

func TestReconcile_SaidUnavailableButAttended(t *testing.T) {
	member := uuid.New()
	now := time.Now()

	got := Reconcile(
		[]uuid.UUID{member},
		[]*model.AvailabilityResponse{response(member, model.AvailabilityStatusUnavailable, now)},
		[]*model.AttendanceRecord{record(member, model.AttendanceStatusAttended)},
	)

	require.Len(t, got, 1)
	assert.Equal(t, member, got[0].UserID)
	assert.Equal(t, DiscrepancySaidUnavailableButAttended, got[0].Kind)
}

func TestReconcile_SaidAvailableButAbsent(t *testing.T) {
	member := uuid.New()
	now := time.Now()

	got := Reconcile(
		[]uuid.UUID{member},
		[]*model.AvailabilityResponse{response(member, model.AvailabilityStatusAvailable, now)},
		[]*model.AttendanceRecord{record(member, model.AttendanceStatusAbsent)},
	)

	require.Len(t, got, 1)
	assert.Equal(t, DiscrepancySaidAvailableButAbsent, got[0].Kind)
}

func TestReconcile_SilentNoShow(t *testing.T) {
	silent := uuid.New()
	excused := uuid.New()

	got := Reconcile(
		[]uuid.UUID{silent, excused},
		nil,
		[]*model.AttendanceRecord{record(excused, model.AttendanceStatusExcused)},
	)

	require.Len(t, got, 1)
	assert.Equal(t, silent, got[0].UserID)
	assert.Equal(t, DiscrepancySilentNoShow, got[0].Kind)
}

func TestReconcile_MemberAppearsInOneCategoryOnly(t *testing.T) {
	member := uuid.New()
	now := time.Now()

	got := Reconcile(
		[]uuid.UUID{member},
		[]*model.AvailabilityResponse{response(member, model.AvailabilityStatusUnavailable, now)},
		[]*model.AttendanceRecord{record(member, model.AttendanceStatusAttended)},
	)

	count := 0
	for _, d := range got {
		if d.UserID == member {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestReconcile_KeptPromisesProduceNothing(t *testing.T) {
	attended := uuid.New()
	skipped := uuid.New()
	now := time.Now()

	got := Reconcile(
		[]uuid.UUID{attended, skipped},
		[]*model.AvailabilityResponse{
			response(attended, model.AvailabilityStatusAvailable, now),
			response(skipped, model.AvailabilityStatusUnavailable, now),
		},
		[]*model.AttendanceRecord{
			record(attended, model.AttendanceStatusAttended),
			record(skipped, model.AttendanceStatusAbsent),
		},
	)

	assert.Empty(t, got)
}

func TestReconcile_ExcusedNeverFlagged(t *testing.T) {
	member := uuid.New()
	now := time.Now()

	got := Reconcile(
		[]uuid.UUID{member},
		[]*model.AvailabilityResponse{response(member, model.AvailabilityStatusAvailable, now)},
		[]*model.AttendanceRecord{record(member, model.AttendanceStatusExcused)},
	)

	assert.Empty(t, got)
}
