package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	contextKeyID   = contextKey("id")
	contextKeyUser = contextKey("user")
	contextKeyBand = contextKey("band")
)

var errCantRetrieveID = errors.New("can't retrieve id")

func (a *Api) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			a.unauthorizedResponse(w, r, errors.New("no token provided"))
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		id, err := a.jwts.GetIdFromToken(token)
		if err != nil {
			invalidTokenErr := &jwt.InvalidTokenError{}
			switch {
			case errors.As(err, &invalidTokenErr):
				a.unauthorizedResponse(w, r, invalidTokenErr)
			default:
				a.serverErrorResponse(w, r, err)
			}
			return
		}

		idContext := context.WithValue(r.Context(), contextKeyID, id)
		next.ServeHTTP(w, r.WithContext(idContext))
	})
}

func (a *Api) userCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(contextKeyID).(uuid.UUID)
		if !ok {
			a.serverErrorResponse(w, r, errCantRetrieveID)
			return
		}

		user, err := a.users.GetUserByID(r.Context(), a.db, id)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrNoRecord):
				a.forbiddenResponse(w, r, "user does not exists")
			default:
				a.serverErrorResponse(w, r, err)
			}
			return
		}

		userCtx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(userCtx))
	})
}

func (a *Api) bandCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(contextKeyID).(uuid.UUID)
		if !ok {
			a.serverErrorResponse(w, r, errCantRetrieveID)
			return
		}

		bandID, err := uuid.Parse(chi.URLParam(r, "bandID"))
		if err != nil {
			a.notFoundResponse(w, r)
			return
		}

		band, err := a.bands.GetBand(r.Context(), a.db, bandID)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrNoRecord):
				a.notFoundResponse(w, r)
			default:
				a.serverErrorResponse(w, r, fmt.Errorf("get band: %w", err))
			}
			return
		}

		if !band.IsMember(userID) {
			a.notFoundResponse(w, r)
			return
		}

		bandCtx := context.WithValue(r.Context(), contextKeyBand, band)
		next.ServeHTTP(w, r.WithContext(bandCtx))
	})
}
