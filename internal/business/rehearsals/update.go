package rehearsals

import (
	"context"
	"fmt"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/notifications"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
)

type UpdateSeriesRequest struct {
	UpdatedByID uuid.UUID
	Title       string
	Description string
	VenueID     *uuid.UUID
	Start       time.Time
	End         time.Time
	Rule        model.RecurrenceRule
	OnConflict  OnConflict
}

// UpdateSeries replaces the remainder of a series: every future occurrence
// that has not started yet is cancelled, and a fresh series is validated and
// committed in its place within the same transaction. Past and in-progress
// occurrences keep their history under the old series.
func (s *Service) UpdateSeries(ctx context.Context, seriesID uuid.UUID, req *UpdateSeriesRequest) (*CommitResult, error) {
	old, err := s.rehearsalsRepository.GetSeries(ctx, s.db, seriesID)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetSeries: %w", err)
	}

	anchor, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	if err := schedule.ValidateRule(req.Rule); err != nil {
		return nil, err
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, old.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	if !band.IsMember(req.UpdatedByID) {
		return nil, model.ErrStaleMembership
	}

	series := &model.RehearsalSeries{
		ID:    uuid.New(),
		State: model.SeriesStateDraft,
		RehearsalSeriesCreate: model.RehearsalSeriesCreate{
			BandID:      old.BandID,
			CreatedByID: req.UpdatedByID,
			Title:       req.Title,
			Description: req.Description,
			Rule:        req.Rule,
		},
	}

	series.State = model.SeriesStateExpanding
	intervals, err := schedule.Expand(anchor, req.Rule, s.maxOccurrences)
	if err != nil {
		return nil, err
	}

	// An empty expansion would cancel the remainder without replacing it;
	// reject it before anything is touched.
	if len(intervals) == 0 {
		return nil, model.ErrNoOccurrences
	}

	repeatRule, err := schedule.EncodeRule(req.Rule, anchor.Start)
	if err != nil {
		return nil, err
	}
	series.RepeatRule = repeatRule

	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	res := &CommitResult{Series: series}
	var cancelled []*model.RehearsalOccurrence

	now := s.now().UTC()

	err = database.WithExclusive(ctx, s.db, "band:"+old.BandID.String(), func(tx database.Tx) error {
		if req.VenueID != nil {
			if err := database.AcquireLock(ctx, tx, "venue:"+req.VenueID.String()); err != nil {
				return err
			}
		}

		existing, err := s.rehearsalsRepository.GetSeriesOccurrences(ctx, tx, seriesID)
		if err != nil {
			return fmt.Errorf("rehearsalsRepository.GetSeriesOccurrences: %w", err)
		}

		// Cancel before collecting neighbors so the old slots do not
		// collide with their own replacements.
		cancelled = cancelled[:0]
		for _, occ := range existing {
			if occ.Status != model.OccurrenceStatusConfirmed || !occ.StartTime.After(now) {
				continue
			}
			if err := s.rehearsalsRepository.UpdateOccurrenceStatus(ctx, tx, occ.ID, model.OccurrenceStatusCancelled); err != nil {
				return fmt.Errorf("rehearsalsRepository.UpdateOccurrenceStatus: %w", err)
			}
			cancelled = append(cancelled, occ)
		}

		accepted, conflicts, err := s.validateCandidates(ctx, tx, band, req.VenueID, intervals, req.OnConflict)
		if err != nil {
			return err
		}
		res.Conflicts = conflicts

		if len(conflicts) != 0 && req.OnConflict == OnConflictFail {
			return fmt.Errorf("series has %d conflicts", len(conflicts))
		}

		series.State = model.SeriesStateCommitted
		if len(accepted) == 0 {
			series.State = model.SeriesStateValidated
		}
		if _, err := s.rehearsalsRepository.CreateSeries(ctx, tx, series); err != nil {
			return fmt.Errorf("rehearsalsRepository.CreateSeries: %w", err)
		}

		for _, iv := range accepted {
			occ := &model.RehearsalOccurrence{
				ID:        uuid.New(),
				SeriesID:  series.ID,
				BandID:    old.BandID,
				VenueID:   req.VenueID,
				StartTime: iv.Start,
				EndTime:   iv.End,
				Status:    model.OccurrenceStatusConfirmed,
			}
			if _, err := s.rehearsalsRepository.CreateOccurrence(ctx, tx, occ); err != nil {
				return fmt.Errorf("rehearsalsRepository.CreateOccurrence: %w", err)
			}
			res.Occurrences = append(res.Occurrences, occ)
		}

		return nil
	})
	if err != nil {
		if len(res.Conflicts) != 0 && req.OnConflict == OnConflictFail {
			return res, fmt.Errorf("%w: unresolved conflicts", model.ErrSeriesCommitFailed)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrSeriesCommitFailed, err)
	}

	var ms []*notifications.Message
	for _, occ := range cancelled {
		ms = append(ms, &notifications.Message{BandID: occ.BandID, Name: EventCancelled, Payload: payloadFor(occ)})
	}
	for _, occ := range res.Occurrences {
		ms = append(ms, &notifications.Message{BandID: occ.BandID, Name: EventScheduled, Payload: payloadFor(occ)})
	}
	if len(ms) != 0 {
		s.publisher.PublishBatch(ctx, ms)
	}

	return res, nil
}

type RescheduleRequest struct {
	UpdatedByID uuid.UUID
	VenueID     *uuid.UUID
	Start       time.Time
	End         time.Time
	OnConflict  OnConflict
}

// RescheduleOccurrence moves a single Confirmed occurrence: the replacement
// slot is validated first, and only if it survives is the original
// cancelled and the new one committed, atomically. If the replacement is
// rejected the original stays untouched.
func (s *Service) RescheduleOccurrence(ctx context.Context, occurrenceID uuid.UUID, req *RescheduleRequest) (*CommitResult, error) {
	occ, err := s.rehearsalsRepository.GetOccurrence(ctx, s.db, occurrenceID)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetOccurrence: %w", err)
	}

	if occ.Status != model.OccurrenceStatusConfirmed || !s.now().UTC().Before(occ.EndTime) {
		return nil, model.ErrOccurrenceNotEditable
	}

	iv, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, occ.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	if !band.IsMember(req.UpdatedByID) {
		return nil, model.ErrStaleMembership
	}

	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	res := &CommitResult{}

	err = database.WithExclusive(ctx, s.db, "band:"+occ.BandID.String(), func(tx database.Tx) error {
		if req.VenueID != nil {
			if err := database.AcquireLock(ctx, tx, "venue:"+req.VenueID.String()); err != nil {
				return err
			}
		}

		neighbors, err := s.collectNeighbors(ctx, tx, band, req.VenueID, iv.Start, iv.End)
		if err != nil {
			return err
		}

		// The slot being moved never conflicts with its own replacement.
		kept := neighbors[:0]
		for _, n := range neighbors {
			if n.Occurrence.ID != occ.ID {
				kept = append(kept, n)
			}
		}

		cand := schedule.Candidate{
			BandID:    band.ID,
			VenueID:   req.VenueID,
			Interval:  iv,
			MemberIDs: band.MemberIDs,
		}
		res.Conflicts = schedule.DetectConflicts(cand, kept)

		if len(res.Conflicts) != 0 && req.OnConflict != OnConflictForce {
			return nil
		}

		if err := s.rehearsalsRepository.UpdateOccurrenceStatus(ctx, tx, occ.ID, model.OccurrenceStatusCancelled); err != nil {
			return fmt.Errorf("rehearsalsRepository.UpdateOccurrenceStatus: %w", err)
		}

		replacement := &model.RehearsalOccurrence{
			ID:        uuid.New(),
			SeriesID:  occ.SeriesID,
			BandID:    occ.BandID,
			VenueID:   req.VenueID,
			StartTime: iv.Start,
			EndTime:   iv.End,
			Status:    model.OccurrenceStatusConfirmed,
		}
		if _, err := s.rehearsalsRepository.CreateOccurrence(ctx, tx, replacement); err != nil {
			return fmt.Errorf("rehearsalsRepository.CreateOccurrence: %w", err)
		}
		res.Occurrences = append(res.Occurrences, replacement)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSeriesCommitFailed, err)
	}

	if len(res.Occurrences) != 0 {
		s.publisher.PublishBatch(ctx, []*notifications.Message{
			{BandID: occ.BandID, Name: EventCancelled, Payload: payloadFor(occ)},
			{BandID: occ.BandID, Name: EventScheduled, Payload: payloadFor(res.Occurrences[0])},
		})
	}

	return res, nil
}
