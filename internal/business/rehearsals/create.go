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

// OnConflict selects what happens to candidates that collide with existing
// bookings during a commit.
type OnConflict int

const (
	// OnConflictRejectOccurrence drops only the colliding candidates and
	// commits the rest of the series.
	OnConflictRejectOccurrence OnConflict = iota
	// OnConflictFail commits nothing if any candidate collides.
	OnConflictFail
	// OnConflictForce commits everything and reports the collisions.
	OnConflictForce
)

type CreateSeriesRequest struct {
	BandID      uuid.UUID
	CreatedByID uuid.UUID
	Title       string
	Description string
	VenueID     *uuid.UUID
	Start       time.Time
	End         time.Time
	Rule        model.RecurrenceRule
	OnConflict  OnConflict
}

// CommitResult is what a commit attempt produced: the persisted series, the
// occurrences that made it in, and every conflict found along the way.
// Conflicts are reported even when the chosen disposition resolved them.
type CommitResult struct {
	Series      *model.RehearsalSeries
	Occurrences []*model.RehearsalOccurrence
	Conflicts   []schedule.Conflict
}

// CreateSeries runs the full scheduling cycle: expand the rule, validate
// every candidate against existing bookings under an exclusive lock, and
// persist the survivors atomically. Either the whole accepted set lands or
// nothing does.
func (s *Service) CreateSeries(ctx context.Context, req *CreateSeriesRequest) (*CommitResult, error) {
	anchor, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	if err := schedule.ValidateRule(req.Rule); err != nil {
		return nil, err
	}

	band, err := s.bandsRepository.GetBand(ctx, s.db, req.BandID)
	if err != nil {
		return nil, fmt.Errorf("bandsRepository.GetBand: %w", err)
	}

	if !band.IsMember(req.CreatedByID) {
		return nil, model.ErrStaleMembership
	}

	// The series starts in Draft and sits in Expanding while candidates are
	// generated and checked; only the settled state is ever persisted.
	series := &model.RehearsalSeries{
		ID:    uuid.New(),
		State: model.SeriesStateDraft,
		RehearsalSeriesCreate: model.RehearsalSeriesCreate{
			BandID:      req.BandID,
			CreatedByID: req.CreatedByID,
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

	// A bounded rule can still be empty, e.g. an until equal to the anchor
	// start. Nothing to validate or commit then.
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

	err = database.WithExclusive(ctx, s.db, "band:"+req.BandID.String(), func(tx database.Tx) error {
		if req.VenueID != nil {
			if err := database.AcquireLock(ctx, tx, "venue:"+req.VenueID.String()); err != nil {
				return err
			}
		}

		accepted, conflicts, err := s.validateCandidates(ctx, tx, band, req.VenueID, intervals, req.OnConflict)
		if err != nil {
			return err
		}
		res.Conflicts = conflicts

		if len(conflicts) != 0 && req.OnConflict == OnConflictFail {
			series.State = model.SeriesStateValidated
			if _, err := s.rehearsalsRepository.CreateSeries(ctx, tx, series); err != nil {
				return fmt.Errorf("rehearsalsRepository.CreateSeries: %w", err)
			}
			return nil
		}

		if len(accepted) == 0 {
			series.State = model.SeriesStateValidated
			if _, err := s.rehearsalsRepository.CreateSeries(ctx, tx, series); err != nil {
				return fmt.Errorf("rehearsalsRepository.CreateSeries: %w", err)
			}
			return nil
		}

		series.State = model.SeriesStateCommitted
		if _, err := s.rehearsalsRepository.CreateSeries(ctx, tx, series); err != nil {
			return fmt.Errorf("rehearsalsRepository.CreateSeries: %w", err)
		}

		for _, iv := range accepted {
			occ := &model.RehearsalOccurrence{
				ID:        uuid.New(),
				SeriesID:  series.ID,
				BandID:    req.BandID,
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
		return nil, fmt.Errorf("%w: %v", model.ErrSeriesCommitFailed, err)
	}

	if len(res.Occurrences) != 0 {
		ms := make([]*notifications.Message, len(res.Occurrences))
		for i, occ := range res.Occurrences {
			ms[i] = &notifications.Message{BandID: occ.BandID, Name: EventScheduled, Payload: payloadFor(occ)}
		}
		s.publisher.PublishBatch(ctx, ms)
	}

	return res, nil
}

// validateCandidates walks the candidate intervals in chronological order,
// checking each against persisted bookings and against the candidates
// already accepted in this run. When two candidates of the same run collide,
// the earlier one wins its slot.
func (s *Service) validateCandidates(
	ctx context.Context,
	tx database.Tx,
	band *model.Band,
	venueID *uuid.UUID,
	intervals []schedule.Interval,
	disposition OnConflict,
) ([]schedule.Interval, []schedule.Conflict, error) {
	from := intervals[0].Start
	to := intervals[len(intervals)-1].End

	neighbors, err := s.collectNeighbors(ctx, tx, band, venueID, from, to)
	if err != nil {
		return nil, nil, err
	}

	var (
		accepted  []schedule.Interval
		conflicts []schedule.Conflict
	)

	for _, iv := range intervals {
		cand := schedule.Candidate{
			BandID:    band.ID,
			VenueID:   venueID,
			Interval:  iv,
			MemberIDs: band.MemberIDs,
		}

		found := schedule.DetectConflicts(cand, neighbors)
		conflicts = append(conflicts, found...)

		if len(found) != 0 && disposition != OnConflictForce {
			continue
		}

		accepted = append(accepted, iv)
		neighbors = append(neighbors, schedule.Neighbor{
			Occurrence: &model.RehearsalOccurrence{
				ID:        uuid.New(),
				BandID:    band.ID,
				VenueID:   venueID,
				StartTime: iv.Start,
				EndTime:   iv.End,
				Status:    model.OccurrenceStatusConfirmed,
			},
			MemberIDs: band.MemberIDs,
		})
	}

	return accepted, conflicts, nil
}

// collectNeighbors loads every Confirmed occurrence the candidates could
// collide with: the band's own bookings, the venue's bookings, and bookings
// of other bands sharing a member. All three are range queries over the
// candidate window. Member sets are attached per band afterwards, so an
// occurrence found through the venue window still reports a shared-member
// collision on top of the venue one.
func (s *Service) collectNeighbors(
	ctx context.Context,
	tx database.Tx,
	band *model.Band,
	venueID *uuid.UUID,
	from, to time.Time,
) ([]schedule.Neighbor, error) {
	seen := make(map[uuid.UUID]struct{})
	var occs []*model.RehearsalOccurrence

	add := func(batch []*model.RehearsalOccurrence) {
		for _, occ := range batch {
			if _, ok := seen[occ.ID]; ok {
				continue
			}
			seen[occ.ID] = struct{}{}
			occs = append(occs, occ)
		}
	}

	bandOccs, err := s.rehearsalsRepository.GetBandWindow(ctx, tx, band.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetBandWindow: %w", err)
	}
	add(bandOccs)

	if venueID != nil {
		venueOccs, err := s.rehearsalsRepository.GetVenueWindow(ctx, tx, *venueID, from, to)
		if err != nil {
			return nil, fmt.Errorf("rehearsalsRepository.GetVenueWindow: %w", err)
		}
		add(venueOccs)
	}

	memberOccs, err := s.rehearsalsRepository.GetMemberWindow(ctx, tx, band.ID, band.MemberIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("rehearsalsRepository.GetMemberWindow: %w", err)
	}
	add(memberOccs)

	membersByBand := map[uuid.UUID][]uuid.UUID{band.ID: band.MemberIDs}

	var otherBandIDs []uuid.UUID
	for _, occ := range occs {
		if _, ok := membersByBand[occ.BandID]; !ok {
			membersByBand[occ.BandID] = nil
			otherBandIDs = append(otherBandIDs, occ.BandID)
		}
	}

	if len(otherBandIDs) != 0 {
		memberships, err := s.bandsRepository.GetMemberships(ctx, tx, model.MembershipFilter{BandIDs: otherBandIDs})
		if err != nil {
			return nil, fmt.Errorf("bandsRepository.GetMemberships: %w", err)
		}
		for _, m := range memberships {
			membersByBand[m.BandID] = append(membersByBand[m.BandID], m.UserID)
		}
	}

	res := make([]schedule.Neighbor, len(occs))
	for i, occ := range occs {
		res[i] = schedule.Neighbor{Occurrence: occ, MemberIDs: membersByBand[occ.BandID]}
	}

	return res, nil
}
