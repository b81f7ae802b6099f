package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/validator"
	"github.com/gerow/go-color"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errCantRetrieveBand = errors.New("can't retrieve band")

func (a *Api) getUserBandsHandler(w http.ResponseWriter, r *http.Request) {
	type userBandResp struct {
		BandID      string `json:"band_id"`
		Name        string `json:"name"`
		MemberCount int    `json:"member_count"`
	}

	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	bands, err := a.bands.GetUserBands(r.Context(), a.db, userID)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("get bands by user id %v: %w", userID, err))
		return
	}

	resp := make([]userBandResp, len(bands))
	for i, b := range bands {
		resp[i] = userBandResp{
			BandID:      b.ID.String(),
			Name:        b.Name,
			MemberCount: len(b.MemberIDs),
		}
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) createBandHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	req := &struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		MemberIDs   []string `json:"member_ids"`
		Color       string   `json:"color"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(len(req.Name) != 0, "name", "name must be provided")
	v.Check(validator.Matches(req.Color, validator.HexRX), "color", "color must be valid HEX color")

	memberIDs := make([]uuid.UUID, len(req.MemberIDs))
	for i, s := range req.MemberIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			v.AddError("member_ids", fmt.Sprintf("invalid member id %q", s))
			break
		}
		memberIDs[i] = id
	}

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	colorRGB, err := color.HTMLToRGB(req.Color)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("parse color: %w", err))
		return
	}

	tx, err := a.db.BeginTx(r.Context(), nil)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("tx begin: %w", err))
		return
	}
	defer tx.Rollback(r.Context())

	bandID, err := a.bands.CreateBand(r.Context(), tx, &model.BandCreate{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("create band: %w", err))
		return
	}

	membersToAdd := append([]uuid.UUID{userID}, memberIDs...)
	for _, member := range membersToAdd {
		if err := a.bands.AddMember(r.Context(), tx, &model.Membership{
			BandID: bandID,
			UserID: member,
			Color:  colorRGB,
			Notify: true,
		}); err != nil {
			a.serverErrorResponse(w, r, fmt.Errorf("add member to band: %w", err))
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("commit tx: %w", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (a *Api) getBandHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := r.Context().Value(contextKeyBand).(*model.Band)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveBand)
		return
	}

	memberIDs := make([]string, len(band.MemberIDs))
	for i, id := range band.MemberIDs {
		memberIDs[i] = id.String()
	}

	resp := &struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		OwnerID     string   `json:"owner_id"`
		MemberIDs   []string `json:"member_ids"`
	}{
		ID:          band.ID.String(),
		Name:        band.Name,
		Description: band.Description,
		OwnerID:     band.OwnerID.String(),
		MemberIDs:   memberIDs,
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateBandHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := r.Context().Value(contextKeyBand).(*model.Band)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveBand)
		return
	}

	req := &struct {
		Name string `json:"name"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(req.Name) != 0, "name", "name must be provided")

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	if err := a.bands.UpdateBandName(r.Context(), a.db, band.ID, req.Name); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("update band: %w", err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Api) addMemberHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := r.Context().Value(contextKeyBand).(*model.Band)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveBand)
		return
	}

	req := &struct {
		UserID string `json:"user_id"`
		Color  string `json:"color"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		a.badRequestResponse(w, r, fmt.Errorf("invalid user id %q", req.UserID))
		return
	}

	colorRGB := color.RGB{R: 0.5, G: 0.5, B: 0.5}
	if req.Color != "" {
		if colorRGB, err = color.HTMLToRGB(req.Color); err != nil {
			a.badRequestResponse(w, r, fmt.Errorf("parse color: %w", err))
			return
		}
	}

	if err := a.bands.AddMember(r.Context(), a.db, &model.Membership{
		BandID: band.ID,
		UserID: userID,
		Color:  colorRGB,
		Notify: true,
	}); err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyExists):
			a.conflictResponse(w, r, "user is already a member")
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("add member: %w", err))
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (a *Api) removeMemberHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := r.Context().Value(contextKeyBand).(*model.Band)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveBand)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		a.notFoundResponse(w, r)
		return
	}

	if userID == band.OwnerID {
		a.forbiddenResponse(w, r, "the owner cannot leave the band")
		return
	}

	if err := a.bands.RemoveMember(r.Context(), a.db, band.ID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.notFoundResponse(w, r)
		default:
			a.serverErrorResponse(w, r, fmt.Errorf("remove member: %w", err))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Api) updateMembershipHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := r.Context().Value(contextKeyBand).(*model.Band)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveBand)
		return
	}

	userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveID)
		return
	}

	req := &struct {
		Color  string `json:"color"`
		Notify bool   `json:"notify"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(validator.Matches(req.Color, validator.HexRX), "color", "color must be valid HEX color")

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	colorRGB, err := color.HTMLToRGB(req.Color)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("parse color: %w", err))
		return
	}

	if err := a.bands.UpdateMembershipSettings(r.Context(), a.db, &model.Membership{
		BandID: band.ID,
		UserID: userID,
		Color:  colorRGB,
		Notify: req.Notify,
	}); err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("update membership: %w", err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
