package rehearsals

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
)

// AvailabilityResult pairs the recomputed summary with a flag for responses
// from users who are no longer band members. Such responses are stored for
// the record but excluded from the counts.
type AvailabilityResult struct {
	Summary         schedule.AvailabilitySummary
	StaleMembership bool
}

// RespondAvailability upserts a member's response for an occurrence and
// recomputes the summary. Responding again overwrites the previous answer.
func (s *Service) RespondAvailability(ctx context.Context, occurrenceID, userID uuid.UUID, status model.AvailabilityStatus) (*AvailabilityResult, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	stale := !band.IsMember(userID)
	if stale {
		s.logger.Infow("availability response from former member",
			"occurrence_id", occurrenceID, "user_id", userID)
	}

	if err := s.availabilityRepository.UpsertResponse(ctx, s.db, &model.AvailabilityResponse{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		Status:       status,
		UpdatedAt:    s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("availabilityRepository.UpsertResponse: %w", err)
	}

	responses, err := s.availabilityRepository.GetResponses(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("availabilityRepository.GetResponses: %w", err)
	}

	return &AvailabilityResult{
		Summary:         schedule.Summarize(band.MemberIDs, responses, s.quorumFraction),
		StaleMembership: stale,
	}, nil
}

// AvailabilitySummary recomputes the current summary for an occurrence. The
// summary stays readable after cancellation.
func (s *Service) AvailabilitySummary(ctx context.Context, occurrenceID uuid.UUID) (schedule.AvailabilitySummary, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return schedule.AvailabilitySummary{}, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return schedule.AvailabilitySummary{}, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	responses, err := s.availabilityRepository.GetResponses(ctx, s.db, occurrenceID)
	if err != nil {
		return schedule.AvailabilitySummary{}, fmt.Errorf("availabilityRepository.GetResponses: %w", err)
	}

	return schedule.Summarize(band.MemberIDs, responses, s.quorumFraction), nil
}
