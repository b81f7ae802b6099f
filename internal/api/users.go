package api

import (
	"errors"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/model"
)

var errCantRetrieveUser = errors.New("can't retrieve user")

func (a *Api) getUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(contextKeyUser).(*model.User)
	if !ok {
		a.serverErrorResponse(w, r, errCantRetrieveUser)
		return
	}

	resp, err := mapToUserResp(user)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}
