package httpapi

import (
	"net/http"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type notificationTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (a *api) handleNotificationsTokenUpsert(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req notificationTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	nt, err := a.notificationsSvc.RegisterToken(r.Context(), u.ID, req.Token, req.Platform)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"token":    nt.Token,
		"platform": nt.Platform,
	})
}

func (a *api) handleNotificationsTokenDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req notificationTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.notificationsSvc.DeleteToken(r.Context(), u.ID, req.Token); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
