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

type RefreshTokensStore struct {
	db *DB
}

func NewRefreshTokensStore(db *DB) *RefreshTokensStore {
	return &RefreshTokensStore{db: db}
}

func (s *RefreshTokensStore) Insert(ctx context.Context, t domain.RefreshToken) error {
	const q = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Pool.Exec(ctx, q, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, nullIfEmpty(t.UserAgent), nullIfEmpty(t.IPAddress))
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *RefreshTokensStore) GetByID(ctx context.Context, id string) (domain.RefreshToken, error) {
	const q = `
		SELECT id, user_id, token_hash, expires_at, revoked, revoked_reason, revoked_at,
		       last_used_at, user_agent, ip_address, created_at
		FROM refresh_tokens
		WHERE id = $1
	`

	var (
		t          domain.RefreshToken
		idUUID     pgtype.UUID
		userUUID   pgtype.UUID
		reasonText pgtype.Text
		revokedTS  pgtype.Timestamptz
		lastUsedTS pgtype.Timestamptz
		uaText     pgtype.Text
		ipText     pgtype.Text
	)
	err := s.db.Pool.QueryRow(ctx, q, id).Scan(
		&idUUID,
		&userUUID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Revoked,
		&reasonText,
		&revokedTS,
		&lastUsedTS,
		&uaText,
		&ipText,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RefreshToken{}, domain.ErrNotFound
		}
		return domain.RefreshToken{}, fmt.Errorf("get refresh token: %w", err)
	}

	t.ID = uuidOrEmpty(idUUID)
	t.UserID = uuidOrEmpty(userUUID)
	t.RevokedReason = textOrEmpty(reasonText)
	t.RevokedAt = timestamptzPtr(revokedTS)
	t.LastUsedAt = timestamptzPtr(lastUsedTS)
	t.UserAgent = textOrEmpty(uaText)
	t.IPAddress = textOrEmpty(ipText)
	return t, nil
}

// Rotate retires the presented token and installs its replacement in a
// single transaction. The session that pointed at the old token is
// relinked to the new one, so either the whole swap lands or none of it.
func (s *RefreshTokensStore) Rotate(ctx context.Context, oldID string, next domain.RefreshToken, when time.Time) error {
	return s.db.inTx(ctx, func(tx pgx.Tx) error {
		const revokeQ = `
			UPDATE refresh_tokens
			SET revoked = TRUE, revoked_reason = 'rotation', revoked_at = $2
			WHERE id = $1 AND NOT revoked
		`
		ct, err := tx.Exec(ctx, revokeQ, oldID, when)
		if err != nil {
			return fmt.Errorf("revoke rotated token: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		const insertQ = `
			INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, user_agent, ip_address)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, insertQ, next.ID, next.UserID, next.TokenHash, next.ExpiresAt,
			nullIfEmpty(next.UserAgent), nullIfEmpty(next.IPAddress))
		if err != nil {
			return fmt.Errorf("insert replacement token: %w", err)
		}

		const relinkQ = `
			UPDATE sessions
			SET refresh_token_id = $2, last_activity_at = $3, expires_at = $4
			WHERE refresh_token_id = $1 AND is_active
		`
		_, err = tx.Exec(ctx, relinkQ, oldID, next.ID, when, next.ExpiresAt)
		if err != nil {
			return fmt.Errorf("relink session: %w", err)
		}
		return nil
	})
}

func (s *RefreshTokensStore) Revoke(ctx context.Context, id, reason string, when time.Time) error {
	const q = `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_reason = $2, revoked_at = $3
		WHERE id = $1 AND NOT revoked
	`
	ct, err := s.db.Pool.Exec(ctx, q, id, reason, when)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RevokeAllForUser kills every live token of a user and deactivates the
// sessions attached to them. Used on logout-everywhere and on reuse of a
// revoked token.
func (s *RefreshTokensStore) RevokeAllForUser(ctx context.Context, userID, reason string, when time.Time) (int64, error) {
	var revoked int64
	err := s.db.inTx(ctx, func(tx pgx.Tx) error {
		const revokeQ = `
			UPDATE refresh_tokens
			SET revoked = TRUE, revoked_reason = $2, revoked_at = $3
			WHERE user_id = $1 AND NOT revoked
		`
		ct, err := tx.Exec(ctx, revokeQ, userID, reason, when)
		if err != nil {
			return fmt.Errorf("revoke user tokens: %w", err)
		}
		revoked = ct.RowsAffected()

		const deactivateQ = `
			UPDATE sessions
			SET is_active = FALSE, last_activity_at = $2
			WHERE user_id = $1 AND is_active
		`
		if _, err := tx.Exec(ctx, deactivateQ, userID, when); err != nil {
			return fmt.Errorf("deactivate user sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

func (s *RefreshTokensStore) TouchLastUsed(ctx context.Context, id string, when time.Time) error {
	const q = `
		UPDATE refresh_tokens
		SET last_used_at = $2
		WHERE id = $1
	`
	if _, err := s.db.Pool.Exec(ctx, q, id, when); err != nil {
		return fmt.Errorf("touch refresh token: %w", err)
	}
	return nil
}

// DeleteStale removes tokens that can no longer matter: expired ones and
// tokens revoked longer ago than the retention window.
func (s *RefreshTokensStore) DeleteStale(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error) {
	const q = `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1
		   OR (revoked AND revoked_at < $2)
	`
	ct, err := s.db.Pool.Exec(ctx, q, now, revokedBefore)
	if err != nil {
		return 0, fmt.Errorf("delete stale refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}
