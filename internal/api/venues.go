package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *Api) listVenuesHandler(w http.ResponseWriter, r *http.Request) {
	venues, err := a.venues.ListVenues(r.Context(), a.db)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("list venues: %w", err))
		return
	}

	resp, err := mapSlice(venues, mapToVenueResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) createVenueHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Name     string `json:"name"`
		Address  string `json:"address"`
		Capacity int    `json:"capacity"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(req.Name) != 0, "name", "name must be provided")
	v.Check(req.Capacity >= 0, "capacity", "capacity must not be negative")

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	id, err := a.venues.CreateVenue(r.Context(), a.db, &model.VenueCreate{
		Name:     req.Name,
		Address:  req.Address,
		Capacity: req.Capacity,
	})
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("create venue: %w", err))
		return
	}

	resp := &struct {
		ID string `json:"id"`
	}{ID: id.String()}

	if err := a.writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "venueID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	venue, err := a.venues.GetVenue(r.Context(), a.db, id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("get venue: %w", err))
		}
		return
	}

	resp, err := mapToVenueResp(venue)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

// deleteVenueHandler removes a venue. Occurrences booked there are detached
// and flagged for rescheduling in the same transaction; slots are never
// deleted with their venue.
func (a *Api) deleteVenueHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "venueID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	tx, err := a.db.BeginTx(r.Context(), nil)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("tx begin: %w", err))
		return
	}
	defer tx.Rollback(r.Context())

	if err := a.occs.DetachVenue(r.Context(), tx, id); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("detach venue: %w", err))
		return
	}

	if err := a.venues.DeleteVenue(r.Context(), tx, id); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("delete venue: %w", err))
		}
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("commit tx: %w", err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
