package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
	"github.com/mserjo/bossy-sub005/internal/service"
)

type userResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	UserType        string     `json:"user_type"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		Phone:           u.Phone,
		UserType:        u.UserTypeCode,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

type tokenResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	SessionID    string       `json:"session_id"`
}

func writeTokens(w http.ResponseWriter, status int, u domain.User, t service.AuthTokens) {
	WriteJSON(w, status, tokenResponse{
		User:         toUserResponse(u),
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.AccessTTL.Seconds()),
		RefreshToken: t.RefreshToken,
		SessionID:    t.SessionID,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (a *api) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	u, tokens, err := a.authSvc.Register(r.Context(), req.Email, req.Phone, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeTokens(w, http.StatusCreated, u, tokens)
}

// loginRequest takes an email or a phone number as the identifier.
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (a *api) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"identifier": "required", "password": "required"}))
		return
	}

	now := time.Now()
	ip := clientIP(r)
	if !a.loginLimiter.Allow("ip:"+ip, now) || !a.loginLimiter.Allow("id:"+strings.ToLower(req.Identifier), now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	u, tokens, err := a.authSvc.Login(r.Context(), req.Identifier, req.Password, ip, r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeTokens(w, http.StatusOK, u, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *api) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	u, tokens, err := a.authSvc.Refresh(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	writeTokens(w, http.StatusOK, u, tokens)
}

// Logout always answers 204. The refresh token is the credential here;
// an invalid one reveals nothing.
func (a *api) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if req.RefreshToken != "" {
		_ = a.authSvc.Logout(r.Context(), req.RefreshToken)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(u))
}
