package api

import (
	"fmt"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var availabilityStatuses = map[string]model.AvailabilityStatus{
	"available":   model.AvailabilityStatusAvailable,
	"unavailable": model.AvailabilityStatusUnavailable,
	"tentative":   model.AvailabilityStatusTentative,
}

func (a *Api) respondAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	occurrenceID, err := uuid.Parse(chi.URLParam(r, "occurrenceID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	req := &struct {
		Status string `json:"status"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	status, ok := availabilityStatuses[req.Status]
	if !ok {
		a.badRequestResponse(w, r, fmt.Errorf("status must be available, unavailable or tentative"))
		return
	}

	res, err := a.rehearsals.RespondAvailability(r.Context(), occurrenceID, userID, status)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("respond availability: %w", err))
		return
	}

	resp := &struct {
		Summary         summaryResp `json:"summary"`
		StaleMembership bool        `json:"stale_membership,omitempty"`
	}{
		Summary:         mapToSummaryResp(res.Summary),
		StaleMembership: res.StaleMembership,
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) availabilitySummaryHandler(w http.ResponseWriter, r *http.Request) {
	occurrenceID, err := uuid.Parse(chi.URLParam(r, "occurrenceID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	summary, err := a.rehearsals.AvailabilitySummary(r.Context(), occurrenceID)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("availability summary: %w", err))
		return
	}

	if err := a.writeJSON(w, http.StatusOK, mapToSummaryResp(summary), nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}
