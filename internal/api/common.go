package api

import (
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
)

type userResp struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Instrument string `json:"instrument,omitempty"`
}

func mapToUserResp(user *model.User) (*userResp, error) {
	return &userResp{
		ID:         user.ID.String(),
		Email:      user.Email,
		FullName:   user.FullName,
		Instrument: user.Instrument,
	}, nil
}

type venueResp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

func mapToVenueResp(venue *model.Venue) (*venueResp, error) {
	return &venueResp{
		ID:       venue.ID.String(),
		Name:     venue.Name,
		Address:  venue.Address,
		Capacity: venue.Capacity,
	}, nil
}

var occurrenceStatusNames = map[model.OccurrenceStatus]string{
	model.OccurrenceStatusProposed:  "proposed",
	model.OccurrenceStatusConfirmed: "confirmed",
	model.OccurrenceStatusCancelled: "cancelled",
	model.OccurrenceStatusCompleted: "completed",
}

type occurrenceResp struct {
	ID                string  `json:"id"`
	SeriesID          string  `json:"series_id"`
	BandID            string  `json:"band_id"`
	VenueID           *string `json:"venue_id,omitempty"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Status            string  `json:"status"`
	NeedsRescheduling bool    `json:"needs_rescheduling,omitempty"`
}

func mapToOccurrenceResp(occ *model.RehearsalOccurrence) (*occurrenceResp, error) {
	resp := &occurrenceResp{
		ID:                occ.ID.String(),
		SeriesID:          occ.SeriesID.String(),
		BandID:            occ.BandID.String(),
		StartTime:         occ.StartTime.Format(time.RFC3339),
		EndTime:           occ.EndTime.Format(time.RFC3339),
		Status:            occurrenceStatusNames[occ.Status],
		NeedsRescheduling: occ.NeedsRescheduling,
	}
	if occ.VenueID != nil {
		s := occ.VenueID.String()
		resp.VenueID = &s
	}
	return resp, nil
}

type conflictResp struct {
	Kind             string `json:"kind"`
	CandidateStart   string `json:"candidate_start"`
	WithOccurrenceID string `json:"with_occurrence_id"`
}

func mapToConflictResp(c schedule.Conflict) (conflictResp, error) {
	return conflictResp{
		Kind:             c.Kind.String(),
		CandidateStart:   c.CandidateStart.Format(time.RFC3339),
		WithOccurrenceID: c.WithOccurrenceID.String(),
	}, nil
}

type summaryResp struct {
	Available   int  `json:"available"`
	Unavailable int  `json:"unavailable"`
	Tentative   int  `json:"tentative"`
	NoResponse  int  `json:"no_response"`
	QuorumMet   bool `json:"quorum_met"`
}

func mapToSummaryResp(s schedule.AvailabilitySummary) summaryResp {
	return summaryResp{
		Available:   s.Available,
		Unavailable: s.Unavailable,
		Tentative:   s.Tentative,
		NoResponse:  s.NoResponse,
		QuorumMet:   s.QuorumMet,
	}
}
