package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type PasswordResetStore struct {
	db *DB
}

func NewPasswordResetStore(db *DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

func (s *PasswordResetStore) CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	const q = `
		INSERT INTO password_reset_tokens (user_id, token_hash, sent_to_email, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Pool.Exec(ctx, q,
		token.UserID,
		token.TokenHash,
		token.SentToEmail,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

func (s *PasswordResetStore) GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error) {
	const q = `
		SELECT id, user_id, token_hash, sent_to_email, created_at, expires_at, used_at
		FROM password_reset_tokens
		WHERE token_hash = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		token      domain.PasswordResetToken
		idUUID     pgtype.UUID
		userIDUUID pgtype.UUID
		usedAt     pgtype.Timestamptz
	)
	err := s.db.Pool.QueryRow(ctx, q, tokenHash).Scan(
		&idUUID,
		&userIDUUID,
		&token.TokenHash,
		&token.SentToEmail,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PasswordResetToken{}, domain.ErrNotFound
		}
		return domain.PasswordResetToken{}, fmt.Errorf("get reset token: %w", err)
	}
	token.ID = uuidOrEmpty(idUUID)
	token.UserID = uuidOrEmpty(userIDUUID)
	token.UsedAt = timestamptzPtr(usedAt)
	return token, nil
}

func (s *PasswordResetStore) MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error {
	const q = `
		UPDATE password_reset_tokens
		SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL
	`
	tag, err := s.db.Pool.Exec(ctx, q, tokenHash, when)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PasswordResetStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		DELETE FROM password_reset_tokens
		WHERE expires_at < $1 OR used_at IS NOT NULL
	`
	ct, err := s.db.Pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}
