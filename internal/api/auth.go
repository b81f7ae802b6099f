package api

import (
	"errors"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/config"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

func (a *Api) signUpHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Email      string `json:"email"`
		FullName   string `json:"full_name"`
		Instrument string `json:"instrument"`
		Password   string `json:"password"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	v.Check(validator.Matches(req.Email, validator.EmailRX), "email", "email must be valid")
	v.Check(len(req.FullName) != 0, "full_name", "full name must be provided")
	v.Check(len(req.Password) >= 8, "password", "password must be at least 8 characters")

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	id, err := a.users.CreateUser(r.Context(), a.db, &model.UserCreate{
		Email:        req.Email,
		FullName:     req.FullName,
		Instrument:   req.Instrument,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyExists):
			a.conflictResponse(w, r, "user with this email already exists")
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	tokens, err := a.generateTokens(r.Context(), id)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusCreated, tokens, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) signInHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	user, err := a.users.GetUserByEmail(r.Context(), a.db, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.unauthorizedResponse(w, r, errors.New("invalid credentials"))
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		a.unauthorizedResponse(w, r, errors.New("invalid credentials"))
		return
	}

	tokens, err := a.generateTokens(r.Context(), user.ID)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, tokens, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	input := &struct {
		RefreshToken string `json:"refresh_token"`
	}{}

	if err := a.readJSON(w, r, input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	id, err := a.refreshTokens.Get(r.Context(), input.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.unauthorizedResponse(w, r, errors.New("no such session"))
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	accessToken, err := a.jwts.CreateToken(id)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	newRefreshToken := ""
	for {
		newRefreshToken, err = a.generateRandomString(config.SessionTokenLength())
		if err != nil {
			a.serverErrorResponse(w, r, err)
			return
		}

		if err := a.refreshTokens.Refresh(r.Context(), input.RefreshToken, newRefreshToken); err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				continue
			}
			a.serverErrorResponse(w, r, err)
			return
		}

		break
	}

	response := &tokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}

	if err := a.writeJSON(w, http.StatusOK, response, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	input := &struct {
		RefreshToken string `json:"refresh_token"`
	}{}

	if err := a.readJSON(w, r, input); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	if err := a.refreshTokens.Delete(r.Context(), input.RefreshToken); err != nil {
		switch {
		case errors.Is(err, model.ErrNoRecord):
			a.unauthorizedResponse(w, r, errors.New("no such session"))
		default:
			a.serverErrorResponse(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
