package rehearsals

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

// CancelOccurrence moves a Confirmed occurrence to Cancelled. Allowed up
// until the occurrence ends; availability responses stay in storage with
// their summary frozen as of cancellation.
func (s *Service) CancelOccurrence(ctx context.Context, occurrenceID, cancelledByID uuid.UUID) error {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	if occ.Status != model.OccurrenceStatusConfirmed || !s.now().UTC().Before(occ.EndTime) {
		return model.ErrOccurrenceNotEditable
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	if !band.IsMember(cancelledByID) {
		return model.ErrStaleMembership
	}

	if err := s.rehearsalsRepository.UpdateOccurrenceStatus(ctx, s.db, occ.ID, model.OccurrenceStatusCancelled); err != nil {
		return fmt.Errorf("rehearsalsRepository.UpdateOccurrenceStatus: %w", err)
	}

	if err := s.publisher.Publish(ctx, occ.BandID, EventCancelled, payloadFor(occ)); err != nil {
		s.logger.Errorw("failed publishing cancellation", "occurrence_id", occ.ID, "err", err)
	}

	return nil
}
