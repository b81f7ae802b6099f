package rehearsals

import (
	"context"
	"fmt"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/google/uuid"
)

func (s *Service) GetSeries(ctx context.Context, id uuid.UUID) (*model.RehearsalSeries, error) {
	series, err := s.rehearsalsRepository.GetSeries(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetSeries: %w", err)
	}
	return series, nil
}

func (s *Service) GetOccurrence(ctx context.Context, id uuid.UUID) (*model.RehearsalOccurrence, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}
	return occ, nil
}

// ListOccurrences returns occurrences matching the filter, ordered by start
// time ascending.
func (s *Service) ListOccurrences(ctx context.Context, filter model.OccurrencesFilter) ([]*model.RehearsalOccurrence, error) {
	occs, err := s.rehearsalsRepository.GetOccurrences(ctx, s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrences: %w", err)
	}
	return occs, nil
}
