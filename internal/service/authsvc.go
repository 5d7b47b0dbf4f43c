package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mserjo/bossy-sub005/internal/auth"
	"github.com/mserjo/bossy-sub005/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, phone, passwordHash, userTypeID string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	TouchLastLogin(ctx context.Context, userID string, when time.Time) error
}

type RefreshTokensStore interface {
	Insert(ctx context.Context, t domain.RefreshToken) error
	GetByID(ctx context.Context, id string) (domain.RefreshToken, error)
	Rotate(ctx context.Context, oldID string, next domain.RefreshToken, when time.Time) error
	Revoke(ctx context.Context, id, reason string, when time.Time) error
	RevokeAllForUser(ctx context.Context, userID, reason string, when time.Time) (int64, error)
	TouchLastUsed(ctx context.Context, id string, when time.Time) error
}

type SessionsStore interface {
	Insert(ctx context.Context, sess domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)
	Deactivate(ctx context.Context, id, userID string, when time.Time) error
	DeactivateByRefreshTokenID(ctx context.Context, tokenID string, when time.Time) error
}

// DictLookup resolves reference-table codes to row ids.
type DictLookup interface {
	IDByCode(ctx context.Context, table, code string) (string, error)
}

// AuthTokens is what a successful register, login or refresh hands back.
type AuthTokens struct {
	AccessToken  string
	AccessTTL    time.Duration
	RefreshToken string
	SessionID    string
}

type AuthService struct {
	Users    UsersStore
	Tokens   RefreshTokensStore
	Sessions SessionsStore
	Dicts    DictLookup
	Signer   auth.AccessTokenSigner

	RefreshTTL time.Duration

	// RotateRefreshTokens swaps the refresh credential on every refresh.
	// RevokeSiblingsOnReuse treats a revoked token showing up again as
	// compromise and ends every session of that user.
	RotateRefreshTokens   bool
	RevokeSiblingsOnReuse bool

	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) Register(ctx context.Context, email, phone, password, ip, userAgent string) (domain.User, AuthTokens, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)

	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return domain.User{}, AuthTokens{}, domain.NewValidationError(fields)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}

	userTypeID, err := s.Dicts.IDByCode(ctx, "user_types", domain.UserTypeUser)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}

	u, err := s.Users.CreateUser(ctx, email, phone, passwordHash, userTypeID)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}

	tokens, err := s.issueTokens(ctx, u, ip, userAgent)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}
	return u, tokens, nil
}

// Login accepts an email or a phone number as the identifier. Every
// credential failure reads the same to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password, ip, userAgent string) (domain.User, AuthTokens, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	u, err := s.Users.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, AuthTokens{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, AuthTokens{}, err
	}
	if u.IsDeleted() {
		return domain.User{}, AuthTokens{}, domain.ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}
	if !ok {
		return domain.User{}, AuthTokens{}, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return domain.User{}, AuthTokens{}, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, u.User, ip, userAgent)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}

	_ = s.Users.TouchLastLogin(ctx, u.ID, s.now())

	return u.User, tokens, nil
}

// Refresh exchanges a live refresh credential for a new access token,
// rotating the refresh credential when rotation is on. A revoked
// credential showing up here means it leaked: the real client already
// holds the replacement.
func (s *AuthService) Refresh(ctx context.Context, composite, ip, userAgent string) (domain.User, AuthTokens, error) {
	id, secret, ok := auth.ParseRefreshToken(composite)
	if !ok {
		return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
	}

	t, err := s.Tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
		}
		return domain.User{}, AuthTokens{}, err
	}
	if !auth.VerifyRefreshSecret(secret, t.TokenHash) {
		return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
	}

	now := s.now()
	if t.Revoked {
		if s.RevokeSiblingsOnReuse {
			if _, err := s.Tokens.RevokeAllForUser(ctx, t.UserID, "reuse_detected", now); err != nil {
				return domain.User{}, AuthTokens{}, err
			}
		}
		return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
	}
	if !now.Before(t.ExpiresAt) {
		return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
	}

	u, err := s.Users.GetUserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
		}
		return domain.User{}, AuthTokens{}, err
	}
	if u.IsDeleted() || !u.IsActive {
		return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
	}

	refreshOut := composite
	tokenID := t.ID
	if s.RotateRefreshTokens {
		nextComposite, nextID, nextHash, err := auth.NewRefreshToken()
		if err != nil {
			return domain.User{}, AuthTokens{}, err
		}
		next := domain.RefreshToken{
			ID:        nextID,
			UserID:    t.UserID,
			TokenHash: nextHash,
			ExpiresAt: now.Add(s.RefreshTTL),
			UserAgent: userAgent,
			IPAddress: ip,
		}
		if err := s.Tokens.Rotate(ctx, t.ID, next, now); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Lost a race with another refresh of the same token.
				return domain.User{}, AuthTokens{}, domain.ErrUnauthorized
			}
			return domain.User{}, AuthTokens{}, err
		}
		refreshOut = nextComposite
		tokenID = nextID
	}

	_ = s.Tokens.TouchLastUsed(ctx, tokenID, now)

	access, err := s.Signer.Sign(u.ID, u.UserTypeCode, now)
	if err != nil {
		return domain.User{}, AuthTokens{}, err
	}

	return u, AuthTokens{
		AccessToken:  access,
		AccessTTL:    s.Signer.TTL(),
		RefreshToken: refreshOut,
	}, nil
}

// Logout revokes the presented refresh credential and ends its session.
// It never reports whether the credential was valid.
func (s *AuthService) Logout(ctx context.Context, composite string) error {
	id, secret, ok := auth.ParseRefreshToken(composite)
	if !ok {
		return nil
	}

	t, err := s.Tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !auth.VerifyRefreshSecret(secret, t.TokenHash) {
		return nil
	}

	now := s.now()
	if err := s.Tokens.Revoke(ctx, t.ID, "logout", now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return s.Sessions.DeactivateByRefreshTokenID(ctx, t.ID, now)
}

// ListSessions reports the caller's live sessions; expired ones are
// filtered out even when nothing deactivated them yet.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.Sessions.ListActiveForUser(ctx, userID, s.now())
}

// InvalidateSession ends one of the caller's own sessions and revokes
// the refresh credential attached to it.
func (s *AuthService) InvalidateSession(ctx context.Context, userID, sessionID string) error {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID != userID {
		return domain.ErrNotFound
	}

	now := s.now()
	if err := s.Sessions.Deactivate(ctx, sessionID, userID, now); err != nil {
		return err
	}
	if sess.RefreshTokenID != "" {
		if err := s.Tokens.Revoke(ctx, sess.RefreshTokenID, "session_invalidated", now); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

// InvalidateAllSessions is logout-everywhere. Returns how many refresh
// credentials were revoked.
func (s *AuthService) InvalidateAllSessions(ctx context.Context, userID string) (int64, error) {
	return s.Tokens.RevokeAllForUser(ctx, userID, "logout_all", s.now())
}

// UserForAccessToken resolves a bearer access token to a live user.
func (s *AuthService) UserForAccessToken(ctx context.Context, raw string) (domain.User, error) {
	claims, err := s.Signer.Verify(raw)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}

	u, err := s.Users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.IsDeleted() {
		return domain.User{}, domain.ErrUnauthorized
	}
	if !u.IsActive {
		return domain.User{}, domain.ErrForbidden
	}
	return u, nil
}

func (s *AuthService) issueTokens(ctx context.Context, u domain.User, ip, userAgent string) (AuthTokens, error) {
	now := s.now()

	composite, id, hash, err := auth.NewRefreshToken()
	if err != nil {
		return AuthTokens{}, err
	}

	expiresAt := now.Add(s.RefreshTTL)
	err = s.Tokens.Insert(ctx, domain.RefreshToken{
		ID:        id,
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		UserAgent: userAgent,
		IPAddress: ip,
	})
	if err != nil {
		return AuthTokens{}, err
	}

	sessionID := uuid.NewString()
	err = s.Sessions.Insert(ctx, domain.Session{
		ID:             sessionID,
		UserID:         u.ID,
		RefreshTokenID: id,
		UserAgent:      userAgent,
		IPAddress:      ip,
		LastActivityAt: now,
		ExpiresAt:      &expiresAt,
	})
	if err != nil {
		return AuthTokens{}, err
	}

	access, err := s.Signer.Sign(u.ID, u.UserTypeCode, now)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  access,
		AccessTTL:    s.Signer.TTL(),
		RefreshToken: composite,
		SessionID:    sessionID,
	}, nil
}
