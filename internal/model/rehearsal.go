package model

import (
	"time"

	"github.com/google/uuid"
)

type Frequency int

const (
	FrequencyNone Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
)

// RecurrenceRule is the authoring definition of how a series repeats.
// The zero value means a single occurrence.
type RecurrenceRule struct {
	Frequency  Frequency
	Interval   int
	DaysOfWeek []time.Weekday
	Until      *time.Time
	Count      int
}

func (r RecurrenceRule) Recurring() bool {
	return r.Frequency != FrequencyNone
}

type SeriesState int

const (
	SeriesStateDraft SeriesState = iota
	SeriesStateExpanding
	SeriesStateValidated
	SeriesStateCommitted
)

type RehearsalSeriesCreate struct {
	BandID      uuid.UUID
	CreatedByID uuid.UUID
	Title       string
	Description string
	Rule        RecurrenceRule
}

type RehearsalSeries struct {
	ID         uuid.UUID
	RepeatRule string
	State      SeriesState
	RehearsalSeriesCreate
}

type OccurrenceStatus int

const (
	OccurrenceStatusProposed OccurrenceStatus = iota
	OccurrenceStatusConfirmed
	OccurrenceStatusCancelled
	OccurrenceStatusCompleted
)

type RehearsalOccurrence struct {
	ID                uuid.UUID
	SeriesID          uuid.UUID
	BandID            uuid.UUID
	VenueID           *uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	Status            OccurrenceStatus
	NeedsRescheduling bool
}

type OccurrencesFilter struct {
	From     time.Time
	To       time.Time
	BandIDs  []uuid.UUID
	VenueIDs []uuid.UUID
	Statuses []OccurrenceStatus
}

type AvailabilityStatus int

const (
	AvailabilityStatusAvailable AvailabilityStatus = iota
	AvailabilityStatusUnavailable
	AvailabilityStatusTentative
)

// AvailabilityResponse is unique per (occurrence, user); a later response
// overwrites the earlier one.
type AvailabilityResponse struct {
	OccurrenceID uuid.UUID
	UserID       uuid.UUID
	Status       AvailabilityStatus
	UpdatedAt    time.Time
}

type AttendanceStatus int

const (
	AttendanceStatusAttended AttendanceStatus = iota
	AttendanceStatusAbsent
	AttendanceStatusExcused
)

type AttendanceRecord struct {
	OccurrenceID uuid.UUID
	UserID       uuid.UUID
	Status       AttendanceStatus
	RecordedAt   time.Time
}
