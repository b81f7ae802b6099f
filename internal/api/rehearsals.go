package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/business/rehearsals"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type recurrenceReq struct {
	Frequency  string     `json:"frequency"`
	Interval   int        `json:"interval,omitempty"`
	DaysOfWeek []int      `json:"days_of_week,omitempty"`
	Until      *time.Time `json:"until,omitempty"`
	Count      int        `json:"count,omitempty"`
}

var frequencies = map[string]model.Frequency{
	"":        model.FrequencyNone,
	"none":    model.FrequencyNone,
	"daily":   model.FrequencyDaily,
	"weekly":  model.FrequencyWeekly,
	"monthly": model.FrequencyMonthly,
}

func mapToRule(req *recurrenceReq) (model.RecurrenceRule, error) {
	if req == nil {
		return model.RecurrenceRule{}, nil
	}

	freq, ok := frequencies[req.Frequency]
	if !ok {
		return model.RecurrenceRule{}, fmt.Errorf("unknown frequency %q", req.Frequency)
	}

	days := make([]time.Weekday, len(req.DaysOfWeek))
	for i, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			return model.RecurrenceRule{}, fmt.Errorf("invalid day of week %d", d)
		}
		days[i] = time.Weekday(d)
	}

	return model.RecurrenceRule{
		Frequency:  freq,
		Interval:   req.Interval,
		DaysOfWeek: days,
		Until:      req.Until,
		Count:      req.Count,
	}, nil
}

var dispositions = map[string]rehearsals.OnConflict{
	"":                  rehearsals.OnConflictRejectOccurrence,
	"reject_occurrence": rehearsals.OnConflictRejectOccurrence,
	"fail":              rehearsals.OnConflictFail,
	"force":             rehearsals.OnConflictForce,
}

type commitResultResp struct {
	SeriesID    string            `json:"series_id"`
	Occurrences []*occurrenceResp `json:"occurrences"`
	Conflicts   []conflictResp    `json:"conflicts,omitempty"`
}

func mapToCommitResultResp(res *rehearsals.CommitResult) (*commitResultResp, error) {
	occurrences, err := mapSlice(res.Occurrences, mapToOccurrenceResp)
	if err != nil {
		return nil, err
	}

	conflicts, err := mapSlice(res.Conflicts, mapToConflictResp)
	if err != nil {
		return nil, err
	}

	resp := &commitResultResp{
		Occurrences: occurrences,
		Conflicts:   conflicts,
	}
	if res.Series != nil {
		resp.SeriesID = res.Series.ID.String()
	}
	return resp, nil
}

// scheduleErrorResponse translates scheduling domain errors into statuses.
func (a *Api) scheduleErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrRecurrenceBoundsMissing),
		errors.Is(err, model.ErrNoOccurrences):
		a.badRequestResponse(w, r, err)
	case errors.Is(err, model.ErrNoRecord):
		a.notFoundResponse(w, r)
	case errors.Is(err, model.ErrStaleMembership):
		a.forbiddenResponse(w, r, "user is not a member of the band")
	case errors.Is(err, model.ErrOccurrenceNotEditable),
		errors.Is(err, model.ErrOccurrenceNotConcluded):
		a.conflictResponse(w, r, err.Error())
	default:
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) createSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	req := &struct {
		BandID      string         `json:"band_id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		VenueID     *string        `json:"venue_id"`
		StartTime   time.Time      `json:"start_time"`
		EndTime     time.Time      `json:"end_time"`
		Recurrence  *recurrenceReq `json:"recurrence"`
		OnConflict  string         `json:"on_conflict"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	bandID, err := uuid.Parse(req.BandID)
	v.Check(err == nil, "band_id", "band id must be a valid UUID")
	v.Check(len(req.Title) != 0, "title", "title must be provided")
	v.Check(!req.StartTime.IsZero(), "start_time", "start time must be provided")
	v.Check(!req.EndTime.IsZero(), "end_time", "end time must be provided")

	disposition, ok := dispositions[req.OnConflict]
	v.Check(ok, "on_conflict", "on_conflict must be reject_occurrence, fail or force")

	var venueID *uuid.UUID
	if req.VenueID != nil {
		id, err := uuid.Parse(*req.VenueID)
		v.Check(err == nil, "venue_id", "venue id must be a valid UUID")
		venueID = &id
	}

	rule, err := mapToRule(req.Recurrence)
	if err != nil {
		v.AddError("recurrence", err.Error())
	}

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	res, err := a.rehearsals.CreateSeries(r.Context(), &rehearsals.CreateSeriesRequest{
		BandID:      bandID,
		CreatedByID: userID,
		Title:       req.Title,
		Description: req.Description,
		VenueID:     venueID,
		Start:       req.StartTime,
		End:         req.EndTime,
		Rule:        rule,
		OnConflict:  disposition,
	})
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("create series: %w", err))
		return
	}

	resp, err := mapToCommitResultResp(res)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(res.Occurrences) == 0 && len(res.Conflicts) != 0 {
		status = http.StatusConflict
	}

	if err := a.writeJSON(w, status, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

var seriesStateNames = map[model.SeriesState]string{
	model.SeriesStateDraft:     "draft",
	model.SeriesStateExpanding: "expanding",
	model.SeriesStateValidated: "validated",
	model.SeriesStateCommitted: "committed",
}

func (a *Api) getSeriesHandler(w http.ResponseWriter, r *http.Request) {
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	series, err := a.rehearsals.GetSeries(r.Context(), seriesID)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("get series: %w", err))
		return
	}

	resp := &struct {
		ID          string `json:"id"`
		BandID      string `json:"band_id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		RepeatRule  string `json:"repeat_rule,omitempty"`
		State       string `json:"state"`
	}{
		ID:          series.ID.String(),
		BandID:      series.BandID.String(),
		Title:       series.Title,
		Description: series.Description,
		RepeatRule:  series.RepeatRule,
		State:       seriesStateNames[series.State],
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateSeriesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	req := &struct {
		Title       string         `json:"title"`
		Description string         `json:"description"`
		VenueID     *string        `json:"venue_id"`
		StartTime   time.Time      `json:"start_time"`
		EndTime     time.Time      `json:"end_time"`
		Recurrence  *recurrenceReq `json:"recurrence"`
		OnConflict  string         `json:"on_conflict"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(len(req.Title) != 0, "title", "title must be provided")
	v.Check(!req.StartTime.IsZero(), "start_time", "start time must be provided")
	v.Check(!req.EndTime.IsZero(), "end_time", "end time must be provided")

	disposition, ok := dispositions[req.OnConflict]
	v.Check(ok, "on_conflict", "on_conflict must be reject_occurrence, fail or force")

	var venueID *uuid.UUID
	if req.VenueID != nil {
		id, err := uuid.Parse(*req.VenueID)
		v.Check(err == nil, "venue_id", "venue id must be a valid UUID")
		venueID = &id
	}

	rule, err := mapToRule(req.Recurrence)
	if err != nil {
		v.AddError("recurrence", err.Error())
	}

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	res, err := a.rehearsals.UpdateSeries(r.Context(), seriesID, &rehearsals.UpdateSeriesRequest{
		UpdatedByID: userID,
		Title:       req.Title,
		Description: req.Description,
		VenueID:     venueID,
		Start:       req.StartTime,
		End:         req.EndTime,
		Rule:        rule,
		OnConflict:  disposition,
	})
	if err != nil {
		if res != nil && len(res.Conflicts) != 0 {
			resp, mapErr := mapToCommitResultResp(res)
			if mapErr == nil {
				a.writeJSON(w, http.StatusConflict, resp, nil)
				return
			}
		}
		a.scheduleErrorResponse(w, r, fmt.Errorf("update series: %w", err))
		return
	}

	resp, err := mapToCommitResultResp(res)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) listOccurrencesHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOccurrencesQuery(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	occs, err := a.rehearsals.ListOccurrences(r.Context(), *filter)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("list occurrences: %w", err))
		return
	}

	resp, err := mapSlice(occs, mapToOccurrenceResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func parseOccurrencesQuery(r *http.Request) (*model.OccurrencesFilter, error) {
	var err error

	res := &model.OccurrencesFilter{}

	v := r.URL.Query().Get("from")
	if v == "" {
		return nil, fmt.Errorf("from must be provided")
	}
	res.From, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid time format: %w", err)
	}

	v = r.URL.Query().Get("to")
	if v == "" {
		return nil, fmt.Errorf("to must be provided")
	}
	res.To, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid time format: %w", err)
	}

	vals := r.URL.Query()["band_ids"]
	res.BandIDs = make([]uuid.UUID, len(vals))
	for i, v := range vals {
		res.BandIDs[i], err = uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid band id %v", v)
		}
	}

	vals = r.URL.Query()["venue_ids"]
	res.VenueIDs = make([]uuid.UUID, len(vals))
	for i, v := range vals {
		res.VenueIDs[i], err = uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid venue id %v", v)
		}
	}

	for _, v := range r.URL.Query()["statuses"] {
		found := false
		for status, name := range occurrenceStatusNames {
			if name == v {
				res.Statuses = append(res.Statuses, status)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("invalid status %v", v)
		}
	}

	return res, nil
}

func (a *Api) getOccurrenceHandler(w http.ResponseWriter, r *http.Request) {
	occurrenceID, err := uuid.Parse(chi.URLParam(r, "occurrenceID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	occ, err := a.rehearsals.GetOccurrence(r.Context(), occurrenceID)
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("get occurrence: %w", err))
		return
	}

	resp, err := mapToOccurrenceResp(occ)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) cancelOccurrenceHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := a.rehearsals.CancelOccurrence(r.Context(), occurrenceID, userID); err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("cancel occurrence: %w", err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Api) rescheduleOccurrenceHandler(w http.ResponseWriter, r *http.Request) {
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
		VenueID    *string   `json:"venue_id"`
		StartTime  time.Time `json:"start_time"`
		EndTime    time.Time `json:"end_time"`
		OnConflict string    `json:"on_conflict"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(!req.StartTime.IsZero(), "start_time", "start time must be provided")
	v.Check(!req.EndTime.IsZero(), "end_time", "end time must be provided")

	disposition, ok := dispositions[req.OnConflict]
	v.Check(ok, "on_conflict", "on_conflict must be reject_occurrence, fail or force")

	var venueID *uuid.UUID
	if req.VenueID != nil {
		id, err := uuid.Parse(*req.VenueID)
		v.Check(err == nil, "venue_id", "venue id must be a valid UUID")
		venueID = &id
	}

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	res, err := a.rehearsals.RescheduleOccurrence(r.Context(), occurrenceID, &rehearsals.RescheduleRequest{
		UpdatedByID: userID,
		VenueID:     venueID,
		Start:       req.StartTime,
		End:         req.EndTime,
		OnConflict:  disposition,
	})
	if err != nil {
		a.scheduleErrorResponse(w, r, fmt.Errorf("reschedule occurrence: %w", err))
		return
	}

	resp, err := mapToCommitResultResp(res)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	status := http.StatusOK
	if len(res.Occurrences) == 0 && len(res.Conflicts) != 0 {
		status = http.StatusConflict
	}

	if err := a.writeJSON(w, status, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}
