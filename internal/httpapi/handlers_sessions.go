package httpapi

import (
	"net/http"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type sessionResponse struct {
	ID             string     `json:"id"`
	UserAgent      string     `json:"user_agent,omitempty"`
	IPAddress      string     `json:"ip_address,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:             s.ID,
		UserAgent:      s.UserAgent,
		IPAddress:      s.IPAddress,
		IsActive:       s.IsActive,
		LastActivityAt: s.LastActivityAt,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
	}
}

func (a *api) handleSessionsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	sessions, err := a.authSvc.ListSessions(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (a *api) handleSessionsInvalidate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.authSvc.InvalidateSession(r.Context(), u.ID, r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSessionsInvalidateAll(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	n, err := a.authSvc.InvalidateAllSessions(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"revoked": n})
}
