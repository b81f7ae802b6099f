package rehearsals

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/notifications"
)

// CompleteElapsed flips every Confirmed occurrence whose end time has
// passed to Completed, making it eligible for attendance reconciliation.
// Safe to run repeatedly; an occurrence transitions once.
func (s *Service) CompleteElapsed(ctx context.Context) ([]*model.RehearsalOccurrence, error) {
	occs, err := s.rehearsalsRepository.CompleteElapsed(ctx, s.db, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.CompleteElapsed: %w", err)
	}

	if len(occs) != 0 {
		ms := make([]*notifications.Message, len(occs))
		for i, occ := range occs {
			ms[i] = &notifications.Message{BandID: occ.BandID, Name: EventCompleted, Payload: payloadFor(occ)}
		}
		s.publisher.PublishBatch(ctx, ms)
	}

	return occs, nil
}
