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

type UsersStore struct {
	db *DB
}

func NewUsersStore(db *DB) *UsersStore {
	return &UsersStore{db: db}
}

const userColumns = `
	u.id, u.email, u.phone, ut.code,
	u.is_active, u.is_email_verified, u.is_phone_verified, u.two_fa_enabled,
	u.last_login_at, u.created_at, u.updated_at, u.deleted_at
`

func (s *UsersStore) CreateUser(ctx context.Context, email, phone, passwordHash, userTypeID string) (domain.User, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO users (email, phone, password_hash, user_type_id)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)
		SELECT ` + userColumns + `
		FROM inserted u
		JOIN user_types ut ON ut.id = u.user_type_id
	`

	u, err := scanUser(s.db.Pool.QueryRow(ctx, q, email, nullIfEmpty(phone), passwordHash, userTypeID))
	if err != nil {
		if isUniqueViolation(err, "users_email_uq") {
			return domain.User{}, domain.ErrEmailTaken
		}
		if isUniqueViolation(err, "users_phone_uq") {
			return domain.User{}, domain.ErrPhoneTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users u
		JOIN user_types ut ON ut.id = u.user_type_id
		WHERE u.id = $1
	`

	u, err := scanUser(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	const q = `
		SELECT ` + userColumns + `, u.password_hash
		FROM users u
		JOIN user_types ut ON ut.id = u.user_type_id
		WHERE u.email = $1
	`

	u, err := scanUserWithPassword(s.db.Pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByLogin accepts either the email or the phone as the login
// identifier.
func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	const q = `
		SELECT ` + userColumns + `, u.password_hash
		FROM users u
		JOIN user_types ut ON ut.id = u.user_type_id
		WHERE u.email = $1 OR u.phone = $1
	`

	u, err := scanUserWithPassword(s.db.Pool.QueryRow(ctx, q, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (s *UsersStore) TouchLastLogin(ctx context.Context, id string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = $2
		WHERE id = $1
	`
	if _, err := s.db.Pool.Exec(ctx, q, id, when); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *UsersStore) UpdatePassword(ctx context.Context, id, passwordHash string, when time.Time) error {
	const q = `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	ct, err := s.db.Pool.Exec(ctx, q, id, passwordHash, when)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUserWithPassword(row pgx.Row) (domain.UserWithPassword, error) {
	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		phoneText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
		deletedTS   pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&u.Email,
		&phoneText,
		&u.UserTypeCode,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.IsPhoneVerified,
		&u.TwoFAEnabled,
		&lastLoginTS,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedTS,
		&u.PasswordHash,
	)
	if err != nil {
		return domain.UserWithPassword{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Phone = textOrEmpty(phoneText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	u.DeletedAt = timestamptzPtr(deletedTS)
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		phoneText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
		deletedTS   pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&u.Email,
		&phoneText,
		&u.UserTypeCode,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.IsPhoneVerified,
		&u.TwoFAEnabled,
		&lastLoginTS,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedTS,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Phone = textOrEmpty(phoneText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	u.DeletedAt = timestamptzPtr(deletedTS)
	return u, nil
}
