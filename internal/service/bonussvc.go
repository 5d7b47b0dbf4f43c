package service

import (
	"context"
	"errors"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type BonusesStore interface {
	GetAccount(ctx context.Context, groupID, userID string) (domain.BonusAccount, error)
	ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.BonusTransaction, error)
}

type BonusService struct {
	Bonuses BonusesStore
	Groups  GroupsStore
}

const defaultTransactionsLimit = 50

// Account reads a member's balance. Members see their own account;
// group admins see everyone's. A member who was never credited has an
// implicit zero-balance account.
func (s *BonusService) Account(ctx context.Context, actor domain.User, groupID, userID string) (domain.BonusAccount, error) {
	if err := s.authorize(ctx, actor, groupID, userID); err != nil {
		return domain.BonusAccount{}, err
	}

	a, err := s.Bonuses.GetAccount(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BonusAccount{GroupID: groupID, UserID: userID}, nil
		}
		return domain.BonusAccount{}, err
	}
	return a, nil
}

func (s *BonusService) Transactions(ctx context.Context, actor domain.User, groupID, userID string, limit int) ([]domain.BonusTransaction, error) {
	if err := s.authorize(ctx, actor, groupID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultTransactionsLimit
	}

	a, err := s.Bonuses.GetAccount(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Bonuses.ListTransactions(ctx, a.ID, limit)
}

func (s *BonusService) authorize(ctx context.Context, actor domain.User, groupID, userID string) error {
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return err
	}
	if actor.ID == userID || actor.IsSuperadmin() {
		return nil
	}
	return requireGroupAdmin(ctx, s.Groups, groupID, actor)
}
