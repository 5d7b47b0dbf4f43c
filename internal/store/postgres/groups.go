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

type GroupsStore struct {
	db *DB
}

func NewGroupsStore(db *DB) *GroupsStore {
	return &GroupsStore{db: db}
}

// CreateGroup inserts the group, its default settings row and the owner's
// admin membership together.
func (s *GroupsStore) CreateGroup(ctx context.Context, name, description, groupTypeID, ownerUserID string) (domain.Group, error) {
	var g domain.Group
	err := s.db.inTx(ctx, func(tx pgx.Tx) error {
		const groupQ = `
			WITH inserted AS (
				INSERT INTO groups (name, description, group_type_id, owner_user_id)
				VALUES ($1, $2, $3, $4)
				RETURNING *
			)
			SELECT g.id, g.name, g.description, gt.code, g.owner_user_id, g.created_at, g.updated_at, g.deleted_at
			FROM inserted g
			JOIN group_types gt ON gt.id = g.group_type_id
		`
		var err error
		g, err = scanGroup(tx.QueryRow(ctx, groupQ, name, nullIfEmpty(description), groupTypeID, ownerUserID))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		const settingsQ = `
			INSERT INTO group_settings (group_id)
			VALUES ($1)
		`
		if _, err := tx.Exec(ctx, settingsQ, g.ID); err != nil {
			return fmt.Errorf("create group settings: %w", err)
		}

		const memberQ = `
			INSERT INTO group_members (group_id, user_id, role)
			VALUES ($1, $2, 'admin')
		`
		if _, err := tx.Exec(ctx, memberQ, g.ID, ownerUserID); err != nil {
			return fmt.Errorf("add group owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (s *GroupsStore) GetGroupByID(ctx context.Context, id string) (domain.Group, error) {
	const q = `
		SELECT g.id, g.name, g.description, gt.code, g.owner_user_id, g.created_at, g.updated_at, g.deleted_at
		FROM groups g
		JOIN group_types gt ON gt.id = g.group_type_id
		WHERE g.id = $1 AND g.deleted_at IS NULL
	`

	g, err := scanGroup(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Group{}, domain.ErrNotFound
		}
		return domain.Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *GroupsStore) GetSettings(ctx context.Context, groupID string) (domain.GroupSettings, error) {
	const q = `
		SELECT group_id, task_proposals_enabled, proposal_bonus_points, updated_at
		FROM group_settings
		WHERE group_id = $1
	`

	var (
		st        domain.GroupSettings
		groupUUID pgtype.UUID
	)
	err := s.db.Pool.QueryRow(ctx, q, groupID).Scan(
		&groupUUID,
		&st.TaskProposalsEnabled,
		&st.ProposalBonusPoints,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GroupSettings{}, domain.ErrNotFound
		}
		return domain.GroupSettings{}, fmt.Errorf("get group settings: %w", err)
	}

	st.GroupID = uuidOrEmpty(groupUUID)
	return st, nil
}

func (s *GroupsStore) UpdateSettings(ctx context.Context, groupID string, proposalsEnabled bool, bonusPoints int, when time.Time) error {
	const q = `
		UPDATE group_settings
		SET task_proposals_enabled = $2, proposal_bonus_points = $3, updated_at = $4
		WHERE group_id = $1
	`
	ct, err := s.db.Pool.Exec(ctx, q, groupID, proposalsEnabled, bonusPoints, when)
	if err != nil {
		return fmt.Errorf("update group settings: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *GroupsStore) AddMember(ctx context.Context, groupID, userID, role string) (domain.GroupMember, error) {
	const q = `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING group_id, user_id, role, is_active, joined_at
	`

	m, err := scanGroupMember(s.db.Pool.QueryRow(ctx, q, groupID, userID, role))
	if err != nil {
		if isUniqueViolation(err, "group_members_pkey") {
			return domain.GroupMember{}, domain.ErrMemberExists
		}
		return domain.GroupMember{}, fmt.Errorf("add group member: %w", err)
	}
	return m, nil
}

func (s *GroupsStore) GetMember(ctx context.Context, groupID, userID string) (domain.GroupMember, error) {
	const q = `
		SELECT group_id, user_id, role, is_active, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	m, err := scanGroupMember(s.db.Pool.QueryRow(ctx, q, groupID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GroupMember{}, domain.ErrNotFound
		}
		return domain.GroupMember{}, fmt.Errorf("get group member: %w", err)
	}
	return m, nil
}

func (s *GroupsStore) ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	const q = `
		SELECT group_id, user_id, role, is_active, joined_at
		FROM group_members
		WHERE group_id = $1 AND is_active
		ORDER BY joined_at ASC
	`

	rows, err := s.db.Pool.Query(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var out []domain.GroupMember
	for rows.Next() {
		m, err := scanGroupMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return out, nil
}

func scanGroup(row pgx.Row) (domain.Group, error) {
	var (
		g         domain.Group
		idUUID    pgtype.UUID
		descText  pgtype.Text
		ownerUUID pgtype.UUID
		deletedTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&g.Name,
		&descText,
		&g.GroupTypeCode,
		&ownerUUID,
		&g.CreatedAt,
		&g.UpdatedAt,
		&deletedTS,
	)
	if err != nil {
		return domain.Group{}, err
	}

	g.ID = uuidOrEmpty(idUUID)
	g.Description = textOrEmpty(descText)
	g.OwnerUserID = uuidOrEmpty(ownerUUID)
	g.DeletedAt = timestamptzPtr(deletedTS)
	return g, nil
}

func scanGroupMember(row pgx.Row) (domain.GroupMember, error) {
	var (
		m         domain.GroupMember
		groupUUID pgtype.UUID
		userUUID  pgtype.UUID
	)
	err := row.Scan(&groupUUID, &userUUID, &m.Role, &m.IsActive, &m.JoinedAt)
	if err != nil {
		return domain.GroupMember{}, err
	}

	m.GroupID = uuidOrEmpty(groupUUID)
	m.UserID = uuidOrEmpty(userUUID)
	return m, nil
}
