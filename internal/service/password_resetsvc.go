package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/auth"
	"github.com/mserjo/bossy-sub005/internal/domain"
)

type PasswordResetStore interface {
	CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error
}

type ResetUsersStore interface {
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, when time.Time) error
}

type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, rawToken string) error
}

// CredentialRevoker ends all of a user's sessions. After a password
// reset nothing issued under the old password survives.
type CredentialRevoker interface {
	RevokeAllForUser(ctx context.Context, userID, reason string, when time.Time) (int64, error)
}

type PasswordResetService struct {
	Store    PasswordResetStore
	Users    ResetUsersStore
	Tokens   CredentialRevoker
	Mailer   ResetMailer
	TokenTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RequestReset mints a reset token and mails it. It reports success for
// unknown emails too, so the endpoint cannot be used to probe accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if s.Store == nil {
		return fmt.Errorf("reset store unavailable")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.NewValidationError(map[string]string{"email": "required"})
	}

	u, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.IsDeleted() || !u.IsActive {
		return nil
	}

	raw, tokenHash, err := newResetToken()
	if err != nil {
		return err
	}

	ttl := s.TokenTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	now := s.now()
	err = s.Store.CreateResetToken(ctx, domain.PasswordResetToken{
		UserID:      u.ID,
		TokenHash:   tokenHash,
		SentToEmail: email,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	})
	if err != nil {
		return err
	}

	if s.Mailer == nil {
		s.logger().Warn("password reset requested but no mailer configured", "user_id", u.ID)
		return nil
	}
	if err := s.Mailer.SendPasswordReset(ctx, email, raw); err != nil {
		s.logger().Error("send password reset email failed", "err", err, "user_id", u.ID)
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and kills
// every session issued under the old one.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if s.Store == nil || s.Users == nil {
		return fmt.Errorf("reset service unavailable")
	}
	if len(newPassword) < 8 {
		return domain.NewValidationError(map[string]string{"password": "must be at least 8 characters"})
	}

	tokenHash := hashResetToken(rawToken)
	token, err := s.Store.GetResetTokenByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}

	now := s.now()
	if token.UsedAt != nil {
		return domain.ErrResetTokenInvalid
	}
	if token.ExpiresAt.Before(now) {
		return domain.ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, token.UserID, hash, now); err != nil {
		return err
	}
	if err := s.Store.MarkResetTokenUsed(ctx, tokenHash, now); err != nil {
		return err
	}

	if s.Tokens != nil {
		if _, err := s.Tokens.RevokeAllForUser(ctx, token.UserID, "password_reset", now); err != nil {
			s.logger().Error("revoke sessions after reset failed", "err", err, "user_id", token.UserID)
		}
	}
	return nil
}

func (s *PasswordResetService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
