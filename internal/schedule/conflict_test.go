package schedule

import (
	"testing"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedOccurrence(t *testing.T, bandID uuid.UUID, venueID *uuid.UUID, start, end string) *model.RehearsalOccurrence {
	t.Helper()

	i := mustInterval(t, start, end)
	return &model.RehearsalOccurrence{
		ID:        uuid.New(),
		SeriesID:  uuid.New(),
		BandID:    bandID,
		VenueID:   venueID,
		StartTime: i.Start,
		EndTime:   i.End,
		Status:    model.OccurrenceStatusConfirmed,
	}
}

func TestDetectConflicts_VenueOverlap(t *testing.T) {
	venueID := uuid.New()
	existing := confirmedOccurrence(t, uuid.New(), &venueID, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z")

	candidate := Candidate{
		BandID:   uuid.New(),
		VenueID:  &venueID,
		Interval: mustInterval(t, "2025-07-15T10:30:00Z", "2025-07-15T11:30:00Z"),
	}

	got := DetectConflicts(candidate, []Neighbor{{Occurrence: existing}})

	require.Len(t, got, 1)
	assert.Equal(t, ConflictKindVenue, got[0].Kind)
	assert.Equal(t, existing.ID, got[0].WithOccurrenceID)
}

func TestDetectConflicts_BandCannotRehearseTwice(t *testing.T) {
	bandID := uuid.New()
	existing := confirmedOccurrence(t, bandID, nil, "2025-07-15T18:00:00Z", "2025-07-15T21:00:00Z")

	candidate := Candidate{
		BandID:   bandID,
		Interval: mustInterval(t, "2025-07-15T20:00:00Z", "2025-07-15T22:00:00Z"),
	}

	got := DetectConflicts(candidate, []Neighbor{{Occurrence: existing}})

	require.Len(t, got, 1)
	assert.Equal(t, ConflictKindBand, got[0].Kind)
}

func TestDetectConflicts_SharedMemberAcrossBands(t *testing.T) {
	drummer := uuid.New()
	otherBand := confirmedOccurrence(t, uuid.New(), nil, "2025-07-15T18:00:00Z", "2025-07-15T21:00:00Z")

	candidate := Candidate{
		BandID:    uuid.New(),
		Interval:  mustInterval(t, "2025-07-15T19:00:00Z", "2025-07-15T22:00:00Z"),
		MemberIDs: []uuid.UUID{uuid.New(), drummer},
	}

	got := DetectConflicts(candidate, []Neighbor{
		{Occurrence: otherBand, MemberIDs: []uuid.UUID{drummer, uuid.New()}},
	})

	require.Len(t, got, 1)
	assert.Equal(t, ConflictKindMember, got[0].Kind)
	assert.Equal(t, otherBand.ID, got[0].WithOccurrenceID)
}

func TestDetectConflicts_MultipleKindsReportedIndependently(t *testing.T) {
	bandID := uuid.New()
	venueID := uuid.New()
	sameBand := confirmedOccurrence(t, bandID, &venueID, "2025-07-15T18:00:00Z", "2025-07-15T21:00:00Z")

	candidate := Candidate{
		BandID:   bandID,
		VenueID:  &venueID,
		Interval: mustInterval(t, "2025-07-15T19:00:00Z", "2025-07-15T20:00:00Z"),
	}

	got := DetectConflicts(candidate, []Neighbor{{Occurrence: sameBand}})

	require.Len(t, got, 2)
	kinds := map[ConflictKind]bool{}
	for _, c := range got {
		kinds[c.Kind] = true
	}
	assert.True(t, kinds[ConflictKindVenue])
	assert.True(t, kinds[ConflictKindBand])
}

func TestDetectConflicts_IgnoresNonConfirmed(t *testing.T) {
	venueID := uuid.New()
	cancelled := confirmedOccurrence(t, uuid.New(), &venueID, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z")
	cancelled.Status = model.OccurrenceStatusCancelled

	candidate := Candidate{
		BandID:   uuid.New(),
		VenueID:  &venueID,
		Interval: mustInterval(t, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z"),
	}

	assert.Empty(t, DetectConflicts(candidate, []Neighbor{{Occurrence: cancelled}}))
}

func TestDetectConflicts_TouchingSlotsDoNotConflict(t *testing.T) {
	venueID := uuid.New()
	existing := confirmedOccurrence(t, uuid.New(), &venueID, "2025-07-15T09:00:00Z", "2025-07-15T10:00:00Z")

	candidate := Candidate{
		BandID:   uuid.New(),
		VenueID:  &venueID,
		Interval: mustInterval(t, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z"),
	}

	assert.Empty(t, DetectConflicts(candidate, []Neighbor{{Occurrence: existing}}))
}

func TestDetectConflicts_DifferentVenuesNoConflict(t *testing.T) {
	venueA := uuid.New()
	venueB := uuid.New()
	existing := confirmedOccurrence(t, uuid.New(), &venueA, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z")

	candidate := Candidate{
		BandID:   uuid.New(),
		VenueID:  &venueB,
		Interval: mustInterval(t, "2025-07-15T10:00:00Z", "2025-07-15T11:00:00Z"),
	}

	assert.Empty(t, DetectConflicts(candidate, []Neighbor{{Occurrence: existing}}))
}
