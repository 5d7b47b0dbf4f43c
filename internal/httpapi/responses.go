package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps service sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with no detail leaked.
func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{
			Code:    "validation_error",
			Message: "invalid request",
			Fields:  verr.Fields,
		}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrResetTokenInvalid):
		WriteError(w, http.StatusBadRequest, "reset_token_invalid", "reset token is invalid or already used")
	case errors.Is(err, domain.ErrResetTokenExpired):
		WriteError(w, http.StatusBadRequest, "reset_token_expired", "reset token has expired")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrNotGroupMember):
		WriteError(w, http.StatusForbidden, "not_group_member", "not a member of this group")
	case errors.Is(err, domain.ErrProposalsDisabled):
		WriteError(w, http.StatusForbidden, "proposals_disabled", "task proposals are disabled for this group")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrAlreadyReviewed):
		WriteError(w, http.StatusBadRequest, "already_reviewed", "proposal has already been reviewed")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", "email already taken")
	case errors.Is(err, domain.ErrPhoneTaken):
		WriteError(w, http.StatusConflict, "phone_taken", "phone already taken")
	case errors.Is(err, domain.ErrMemberExists):
		WriteError(w, http.StatusConflict, "member_exists", "user is already a group member")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
