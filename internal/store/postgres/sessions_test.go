package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestSessionsListActiveForUser_ExcludesExpired(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionsStore(db)

	userID := uuid.NewString()
	sessID := uuid.NewString()
	tokenID := uuid.NewString()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "refresh_token_id", "user_agent", "ip_address",
		"is_active", "last_activity_at", "expires_at", "created_at",
	}).AddRow(sessID, userID, tokenID, "cli/1.0", "10.0.0.1", true, now, nil, now)

	mock.ExpectQuery(`(?s)FROM sessions\s+WHERE user_id = \$1 AND is_active\s+AND \(expires_at IS NULL OR expires_at > \$2\)`).
		WithArgs(userID, now).
		WillReturnRows(rows)

	out, err := s.ListActiveForUser(context.Background(), userID, now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, sessID, out[0].ID)
	require.True(t, out[0].IsActive)
	require.Nil(t, out[0].ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionsDeactivate_ForeignSessionNotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewSessionsStore(db)

	sessID := uuid.NewString()
	userID := uuid.NewString()
	when := time.Now()

	mock.ExpectExec(`UPDATE sessions`).
		WithArgs(sessID, userID, when).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Deactivate(context.Background(), sessID, userID, when)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
