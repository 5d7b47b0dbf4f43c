package httpapi

import (
	"net/http"
	"strings"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handlePasswordResetRequest always answers 202 for well-formed input so
// the endpoint cannot be used to probe which emails exist.
func (a *api) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"email": "required"}))
		return
	}

	if err := a.passwordResetSvc.RequestReset(r.Context(), req.Email); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type passwordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (a *api) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.passwordResetSvc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
