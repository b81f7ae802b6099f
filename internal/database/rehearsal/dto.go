package rehearsal

import (
	"fmt"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/google/uuid"
)

type seriesDTO struct {
	ID          string
	BandID      string
	CreatedByID string
	Title       string
	Description string
	RepeatRule  string
	State       int
}

func mapToSeries(d *seriesDTO) (*model.RehearsalSeries, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse series id %q: %w", d.ID, err)
	}

	bandID, err := uuid.Parse(d.BandID)
	if err != nil {
		return nil, fmt.Errorf("parse band id %q: %w", d.BandID, err)
	}

	createdByID, err := uuid.Parse(d.CreatedByID)
	if err != nil {
		return nil, fmt.Errorf("parse creator id %q: %w", d.CreatedByID, err)
	}

	rule, err := schedule.DecodeRule(d.RepeatRule)
	if err != nil {
		return nil, err
	}

	return &model.RehearsalSeries{
		ID:         id,
		RepeatRule: d.RepeatRule,
		State:      model.SeriesState(d.State),
		RehearsalSeriesCreate: model.RehearsalSeriesCreate{
			BandID:      bandID,
			CreatedByID: createdByID,
			Title:       d.Title,
			Description: d.Description,
			Rule:        rule,
		},
	}, nil
}

type occurrenceDTO struct {
	ID                string
	SeriesID          string
	BandID            string
	VenueID           *string
	StartTime         time.Time
	EndTime           time.Time
	Status            int
	NeedsRescheduling bool
}

func mapToOccurrence(d *occurrenceDTO) (*model.RehearsalOccurrence, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse occurrence id %q: %w", d.ID, err)
	}

	seriesID, err := uuid.Parse(d.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("parse series id %q: %w", d.SeriesID, err)
	}

	bandID, err := uuid.Parse(d.BandID)
	if err != nil {
		return nil, fmt.Errorf("parse band id %q: %w", d.BandID, err)
	}

	var venueID *uuid.UUID
	if d.VenueID != nil {
		v, err := uuid.Parse(*d.VenueID)
		if err != nil {
			return nil, fmt.Errorf("parse venue id %q: %w", *d.VenueID, err)
		}
		venueID = &v
	}

	return &model.RehearsalOccurrence{
		ID:                id,
		SeriesID:          seriesID,
		BandID:            bandID,
		VenueID:           venueID,
		StartTime:         d.StartTime.UTC(),
		EndTime:           d.EndTime.UTC(),
		Status:            model.OccurrenceStatus(d.Status),
		NeedsRescheduling: d.NeedsRescheduling,
	}, nil
}

func mapToOccurrences(dtos []*occurrenceDTO) ([]*model.RehearsalOccurrence, error) {
	res := make([]*model.RehearsalOccurrence, len(dtos))
	for i, d := range dtos {
		var err error
		res[i], err = mapToOccurrence(d)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
