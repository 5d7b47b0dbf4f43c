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

type BonusesStore struct {
	db *DB
}

func NewBonusesStore(db *DB) *BonusesStore {
	return &BonusesStore{db: db}
}

func (s *BonusesStore) GetAccount(ctx context.Context, groupID, userID string) (domain.BonusAccount, error) {
	const q = `
		SELECT id, group_id, user_id, balance, created_at, updated_at
		FROM bonus_accounts
		WHERE group_id = $1 AND user_id = $2
	`

	var (
		a         domain.BonusAccount
		idUUID    pgtype.UUID
		groupUUID pgtype.UUID
		userUUID  pgtype.UUID
	)
	err := s.db.Pool.QueryRow(ctx, q, groupID, userID).Scan(
		&idUUID, &groupUUID, &userUUID, &a.Balance, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BonusAccount{}, domain.ErrNotFound
		}
		return domain.BonusAccount{}, fmt.Errorf("get bonus account: %w", err)
	}

	a.ID = uuidOrEmpty(idUUID)
	a.GroupID = uuidOrEmpty(groupUUID)
	a.UserID = uuidOrEmpty(userUUID)
	return a, nil
}

func (s *BonusesStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.BonusTransaction, error) {
	const q = `
		SELECT t.id, t.account_id, t.amount, bt.code, t.description, t.source_type, t.source_id, t.created_at
		FROM bonus_transactions t
		JOIN bonus_types bt ON bt.id = t.bonus_type_id
		WHERE t.account_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Pool.Query(ctx, q, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bonus transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.BonusTransaction
	for rows.Next() {
		var (
			t           domain.BonusTransaction
			idUUID      pgtype.UUID
			accountUUID pgtype.UUID
			descText    pgtype.Text
			srcTypeText pgtype.Text
			srcUUID     pgtype.UUID
		)
		err := rows.Scan(&idUUID, &accountUUID, &t.Amount, &t.BonusTypeCode,
			&descText, &srcTypeText, &srcUUID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan bonus transaction: %w", err)
		}
		t.ID = uuidOrEmpty(idUUID)
		t.AccountID = uuidOrEmpty(accountUUID)
		t.Description = textOrEmpty(descText)
		t.SourceType = textOrEmpty(srcTypeText)
		t.SourceID = uuidOrEmpty(srcUUID)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bonus transactions: %w", err)
	}
	return out, nil
}

// Credit adds points to a member's account and records the transaction
// together.
func (s *BonusesStore) Credit(ctx context.Context, b domain.BonusSpec, sourceType, sourceID string, when time.Time) error {
	return s.db.inTx(ctx, func(tx pgx.Tx) error {
		return creditBonus(ctx, tx, b, sourceType, sourceID, when)
	})
}

// creditBonus upserts the account balance and appends the ledger row on
// the caller's transaction.
func creditBonus(ctx context.Context, tx pgx.Tx, b domain.BonusSpec, sourceType, sourceID string, when time.Time) error {
	const accountQ = `
		INSERT INTO bonus_accounts (group_id, user_id, balance, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id)
		DO UPDATE SET balance = bonus_accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	var accountUUID pgtype.UUID
	if err := tx.QueryRow(ctx, accountQ, b.GroupID, b.UserID, b.Amount, when).Scan(&accountUUID); err != nil {
		return fmt.Errorf("credit bonus account: %w", err)
	}

	const txQ = `
		INSERT INTO bonus_transactions (account_id, amount, bonus_type_id, description, source_type, source_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, txQ, uuidOrEmpty(accountUUID), b.Amount, b.BonusTypeID,
		nullIfEmpty(b.Description), nullIfEmpty(sourceType), nullIfEmpty(sourceID))
	if err != nil {
		return fmt.Errorf("record bonus transaction: %w", err)
	}
	return nil
}
