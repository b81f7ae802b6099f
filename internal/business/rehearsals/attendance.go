package rehearsals

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
)

type AttendanceResult struct {
	StaleMembership bool
}

// RecordAttendance stores what actually happened at a rehearsal. Recording
// opens once the occurrence has ended; override lets an organizer record
// earlier, e.g. when a rehearsal wraps up ahead of schedule.
func (s *Service) RecordAttendance(ctx context.Context, occurrenceID, userID uuid.UUID, status model.AttendanceStatus, override bool) (*AttendanceResult, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	if !override && s.now().UTC().Before(occ.EndTime) {
		return nil, model.ErrOccurrenceNotConcluded
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	stale := !band.IsMember(userID)
	if stale {
		s.logger.Infow("attendance recorded for former member",
			"occurrence_id", occurrenceID, "user_id", userID)
	}

	if err := s.attendanceRepository.UpsertRecord(ctx, s.db, &model.AttendanceRecord{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		Status:       status,
		RecordedAt:   s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("attendanceRepository.UpsertRecord: %w", err)
	}

	return &AttendanceResult{StaleMembership: stale}, nil
}

// ReconcileAttendance compares the final attendance of a Completed
// occurrence against the availability promises made before it. Read-only.
func (s *Service) ReconcileAttendance(ctx context.Context, occurrenceID uuid.UUID) ([]schedule.Discrepancy, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	if occ.Status != model.OccurrenceStatusCompleted {
		return nil, model.ErrOccurrenceNotConcluded
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	responses, err := s.availabilityRepository.GetResponses(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("availabilityRepository.GetResponses: %w", err)
	}

	records, err := s.attendanceRepository.GetRecords(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("attendanceRepository.GetRecords: %w", err)
	}

	return schedule.Reconcile(band.MemberIDs, responses, records), nil
}
