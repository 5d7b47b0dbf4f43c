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

type SessionsStore struct {
	db *DB
}

func NewSessionsStore(db *DB) *SessionsStore {
	return &SessionsStore{db: db}
}

func (s *SessionsStore) Insert(ctx context.Context, sess domain.Session) error {
	const q = `
		INSERT INTO sessions (id, user_id, refresh_token_id, user_agent, ip_address, last_activity_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Pool.Exec(ctx, q, sess.ID, sess.UserID, sess.RefreshTokenID,
		nullIfEmpty(sess.UserAgent), nullIfEmpty(sess.IPAddress), sess.LastActivityAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListActiveForUser returns sessions that are both active and not past
// their expiry. A session whose refresh token ran out without an
// explicit logout never shows up as a live device.
func (s *SessionsStore) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	const q = `
		SELECT id, user_id, refresh_token_id, user_agent, ip_address,
		       is_active, last_activity_at, expires_at, created_at
		FROM sessions
		WHERE user_id = $1 AND is_active
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY last_activity_at DESC
	`

	rows, err := s.db.Pool.Query(ctx, q, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *SessionsStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const q = `
		SELECT id, user_id, refresh_token_id, user_agent, ip_address,
		       is_active, last_activity_at, expires_at, created_at
		FROM sessions
		WHERE id = $1
	`

	sess, err := scanSession(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Deactivate ends one session owned by userID. The ownership check lives
// in the WHERE clause so a foreign session id reads as not found.
func (s *SessionsStore) Deactivate(ctx context.Context, id, userID string, when time.Time) error {
	const q = `
		UPDATE sessions
		SET is_active = FALSE, last_activity_at = $3
		WHERE id = $1 AND user_id = $2 AND is_active
	`
	ct, err := s.db.Pool.Exec(ctx, q, id, userID, when)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SessionsStore) DeactivateByRefreshTokenID(ctx context.Context, tokenID string, when time.Time) error {
	const q = `
		UPDATE sessions
		SET is_active = FALSE, last_activity_at = $2
		WHERE refresh_token_id = $1 AND is_active
	`
	if _, err := s.db.Pool.Exec(ctx, q, tokenID, when); err != nil {
		return fmt.Errorf("deactivate session by token: %w", err)
	}
	return nil
}

func (s *SessionsStore) DeleteStale(ctx context.Context, now time.Time, inactiveBefore time.Time) (int64, error) {
	const q = `
		DELETE FROM sessions
		WHERE (expires_at IS NOT NULL AND expires_at < $1)
		   OR (NOT is_active AND last_activity_at < $2)
	`
	ct, err := s.db.Pool.Exec(ctx, q, now, inactiveBefore)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		sess      domain.Session
		idUUID    pgtype.UUID
		userUUID  pgtype.UUID
		tokenUUID pgtype.UUID
		uaText    pgtype.Text
		ipText    pgtype.Text
		expiresTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&userUUID,
		&tokenUUID,
		&uaText,
		&ipText,
		&sess.IsActive,
		&sess.LastActivityAt,
		&expiresTS,
		&sess.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}

	sess.ID = uuidOrEmpty(idUUID)
	sess.UserID = uuidOrEmpty(userUUID)
	sess.RefreshTokenID = uuidOrEmpty(tokenUUID)
	sess.UserAgent = textOrEmpty(uaText)
	sess.IPAddress = textOrEmpty(ipText)
	sess.ExpiresAt = timestamptzPtr(expiresTS)
	return sess, nil
}
