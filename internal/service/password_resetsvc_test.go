package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mserjo/bossy-sub005/internal/auth"
	"github.com/mserjo/bossy-sub005/internal/domain"
)

type stubResetStore struct {
	t *testing.T

	createFunc    func(context.Context, domain.PasswordResetToken) error
	getByHashFunc func(context.Context, string) (domain.PasswordResetToken, error)
	markUsedFunc  func(context.Context, string, time.Time) error
}

func (s *stubResetStore) CreateResetToken(ctx context.Context, tok domain.PasswordResetToken) error {
	if s.createFunc != nil {
		return s.createFunc(ctx, tok)
	}
	s.t.Fatalf("CreateResetToken called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubResetStore) GetResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error) {
	if s.getByHashFunc != nil {
		return s.getByHashFunc(ctx, hash)
	}
	s.t.Fatalf("GetResetTokenByHash called unexpectedly")
	return domain.PasswordResetToken{}, errors.New("unexpected call")
}

func (s *stubResetStore) MarkResetTokenUsed(ctx context.Context, hash string, when time.Time) error {
	if s.markUsedFunc != nil {
		return s.markUsedFunc(ctx, hash, when)
	}
	s.t.Fatalf("MarkResetTokenUsed called unexpectedly")
	return errors.New("unexpected call")
}

type stubResetUsers struct {
	t *testing.T

	getByEmailFunc     func(context.Context, string) (domain.UserWithPassword, error)
	updatePasswordFunc func(context.Context, string, string, time.Time) error
}

func (s *stubResetUsers) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	if s.getByEmailFunc != nil {
		return s.getByEmailFunc(ctx, email)
	}
	s.t.Fatalf("GetUserByEmail called unexpectedly")
	return domain.UserWithPassword{}, errors.New("unexpected call")
}

func (s *stubResetUsers) UpdatePassword(ctx context.Context, userID, hash string, when time.Time) error {
	if s.updatePasswordFunc != nil {
		return s.updatePasswordFunc(ctx, userID, hash, when)
	}
	s.t.Fatalf("UpdatePassword called unexpectedly")
	return errors.New("unexpected call")
}

type recordingMailer struct {
	toEmail string
	raw     string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, toEmail, rawToken string) error {
	m.toEmail = toEmail
	m.raw = rawToken
	return nil
}

func TestRequestReset_UnknownEmailStaysQuiet(t *testing.T) {
	svc := &PasswordResetService{
		Store: &stubResetStore{t: t},
		Users: &stubResetUsers{
			t: t,
			getByEmailFunc: func(context.Context, string) (domain.UserWithPassword, error) {
				return domain.UserWithPassword{}, domain.ErrNotFound
			},
		},
	}

	if err := svc.RequestReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
}

func TestRequestReset_StoresHashMailsRawToken(t *testing.T) {
	var stored domain.PasswordResetToken
	mailer := &recordingMailer{}

	svc := &PasswordResetService{
		Store: &stubResetStore{
			t: t,
			createFunc: func(_ context.Context, tok domain.PasswordResetToken) error {
				stored = tok
				return nil
			},
		},
		Users: &stubResetUsers{
			t: t,
			getByEmailFunc: func(context.Context, string) (domain.UserWithPassword, error) {
				return domain.UserWithPassword{User: activeUser("u1")}, nil
			},
		},
		Mailer:   mailer,
		TokenTTL: time.Hour,
	}

	if err := svc.RequestReset(context.Background(), " U@Example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}

	if mailer.toEmail != "u@example.com" {
		t.Fatalf("mailed to %q", mailer.toEmail)
	}
	if mailer.raw == "" {
		t.Fatalf("no raw token mailed")
	}
	if stored.TokenHash == mailer.raw {
		t.Fatalf("raw token stored in plaintext")
	}
	if stored.TokenHash != hashResetToken(mailer.raw) {
		t.Fatalf("stored hash does not match mailed token")
	}
	if !stored.ExpiresAt.After(stored.CreatedAt) {
		t.Fatalf("expiry %v not after creation %v", stored.ExpiresAt, stored.CreatedAt)
	}
}

func TestResetPassword_ConsumesTokenAndRevokesSessions(t *testing.T) {
	raw, hash, err := newResetToken()
	if err != nil {
		t.Fatalf("newResetToken: %v", err)
	}
	now := time.Now()

	var updatedUser, markedHash, revokedReason string
	svc := &PasswordResetService{
		Store: &stubResetStore{
			t: t,
			getByHashFunc: func(_ context.Context, h string) (domain.PasswordResetToken, error) {
				if h != hash {
					return domain.PasswordResetToken{}, domain.ErrNotFound
				}
				return domain.PasswordResetToken{
					UserID:    "u1",
					TokenHash: hash,
					ExpiresAt: now.Add(time.Hour),
				}, nil
			},
			markUsedFunc: func(_ context.Context, h string, _ time.Time) error {
				markedHash = h
				return nil
			},
		},
		Users: &stubResetUsers{
			t: t,
			updatePasswordFunc: func(_ context.Context, userID, passwordHash string, _ time.Time) error {
				updatedUser = userID
				ok, err := auth.VerifyPassword(passwordHash, "brand new pw")
				if err != nil || !ok {
					t.Fatalf("stored hash does not verify new password")
				}
				return nil
			},
		},
		Tokens: &stubTokensStore{
			t: t,
			revokeAllForUserFunc: func(_ context.Context, _, reason string, _ time.Time) (int64, error) {
				revokedReason = reason
				return 1, nil
			},
		},
	}

	if err := svc.ResetPassword(context.Background(), raw, "brand new pw"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if updatedUser != "u1" {
		t.Fatalf("updated user %q", updatedUser)
	}
	if markedHash != hash {
		t.Fatalf("marked hash %q", markedHash)
	}
	if revokedReason != "password_reset" {
		t.Fatalf("revoke reason %q", revokedReason)
	}
}

func TestResetPassword_RejectsUsedAndExpiredTokens(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	tests := []struct {
		name    string
		token   domain.PasswordResetToken
		wantErr error
	}{
		{
			name:    "already used",
			token:   domain.PasswordResetToken{UserID: "u1", ExpiresAt: now.Add(time.Hour), UsedAt: &used},
			wantErr: domain.ErrResetTokenInvalid,
		},
		{
			name:    "expired",
			token:   domain.PasswordResetToken{UserID: "u1", ExpiresAt: now.Add(-time.Hour)},
			wantErr: domain.ErrResetTokenExpired,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &PasswordResetService{
				Store: &stubResetStore{
					t: t,
					getByHashFunc: func(context.Context, string) (domain.PasswordResetToken, error) {
						return tc.token, nil
					},
				},
				Users: &stubResetUsers{t: t},
			}

			err := svc.ResetPassword(context.Background(), "some-raw-token", "brand new pw")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}
