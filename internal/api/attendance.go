package api

import (
	"fmt"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var attendanceStatuses = map[string]model.AttendanceStatus{
	"attended": model.AttendanceStatusAttended,
	"absent":   model.AttendanceStatusAbsent,
	"excused":  model.AttendanceStatusExcused,
}

func (a *Api) recordAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	recorderID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
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
		UserID   string `json:"user_id"`
		Status   string `json:"status"`
		Override bool   `json:"override"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	// Members record their own attendance unless another user is named,
	// which an organizer does when closing out a rehearsal.
	userID := recorderID
	if req.UserID != "" {
		userID, err = uuid.Parse(req.UserID)
		if err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("invalid user id %q", req.UserID))
			return
		}
	}

	status, ok := attendanceStatuses[req.Status]
	if !ok {
		a.badRequestResponse(w, r, fmt.Errorf("status must be attended, absent or excused"))
		return
	}

	res, err := a.rehearsals.RecordAttendance(r.Context(), occurrenceID, userID, status, req.Override)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("record attendance: %w", err))
		return
	}

	resp := &struct {
		StaleMembership bool `json:"stale_membership,omitempty"`
	}{StaleMembership: res.StaleMembership}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) reconcileAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	occurrenceID, err := uuid.Parse(chi.URLParam(r, "occurrenceID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	discrepancies, err := a.rehearsals.ReconcileAttendance(r.Context(), occurrenceID)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("reconcile attendance: %w", err))
		return
	}

	type discrepancyResp struct {
		UserID string `json:"user_id"`
		Kind   string `json:"kind"`
	}

	resp, _ := mapSlice(discrepancies, func(d schedule.Discrepancy) (discrepancyResp, error) {
		return discrepancyResp{
			UserID: d.UserID.String(),
			Kind:   d.Kind.String(),
		}, nil
	})

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}
