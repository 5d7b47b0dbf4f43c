package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type GroupsManageStore interface {
	GroupsStore
	CreateGroup(ctx context.Context, name, description, groupTypeID, ownerUserID string) (domain.Group, error)
	AddMember(ctx context.Context, groupID, userID, role string) (domain.GroupMember, error)
	UpdateSettings(ctx context.Context, groupID string, proposalsEnabled bool, bonusPoints int, when time.Time) error
	ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error)
}

type GroupService struct {
	Groups GroupsManageStore
	Dicts  DictLookup
	Now    func() time.Time
}

func (s *GroupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

const maxGroupNameLen = 100

func (s *GroupService) Create(ctx context.Context, actor domain.User, name, description, groupTypeCode string) (domain.Group, error) {
	name = strings.TrimSpace(name)

	fields := map[string]string{}
	if name == "" {
		fields["name"] = "must not be empty"
	} else if len(name) > maxGroupNameLen {
		fields["name"] = "too long"
	}
	if groupTypeCode == "" {
		fields["group_type_code"] = "required"
	}
	if len(fields) > 0 {
		return domain.Group{}, domain.NewValidationError(fields)
	}

	groupTypeID, err := s.Dicts.IDByCode(ctx, "group_types", groupTypeCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Group{}, domain.NewValidationError(map[string]string{
				"group_type_code": "unknown group type",
			})
		}
		return domain.Group{}, err
	}

	return s.Groups.CreateGroup(ctx, name, strings.TrimSpace(description), groupTypeID, actor.ID)
}

func (s *GroupService) Get(ctx context.Context, actor domain.User, groupID string) (domain.Group, error) {
	g, err := s.Groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return domain.Group{}, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (s *GroupService) AddMember(ctx context.Context, actor domain.User, groupID, userID, role string) (domain.GroupMember, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return domain.GroupMember{}, err
	}
	if err := requireGroupAdmin(ctx, s.Groups, groupID, actor); err != nil {
		return domain.GroupMember{}, err
	}

	switch role {
	case domain.GroupRoleAdmin, domain.GroupRoleMember:
	default:
		return domain.GroupMember{}, domain.NewValidationError(map[string]string{
			"role": "must be admin or member",
		})
	}

	return s.Groups.AddMember(ctx, groupID, userID, role)
}

func (s *GroupService) Members(ctx context.Context, actor domain.User, groupID string) ([]domain.GroupMember, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return nil, err
	}
	return s.Groups.ListMembers(ctx, groupID)
}

func (s *GroupService) GetSettings(ctx context.Context, actor domain.User, groupID string) (domain.GroupSettings, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return domain.GroupSettings{}, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return domain.GroupSettings{}, err
	}
	return s.Groups.GetSettings(ctx, groupID)
}

func (s *GroupService) UpdateSettings(ctx context.Context, actor domain.User, groupID string, proposalsEnabled bool, bonusPoints int) (domain.GroupSettings, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return domain.GroupSettings{}, err
	}
	if err := requireGroupAdmin(ctx, s.Groups, groupID, actor); err != nil {
		return domain.GroupSettings{}, err
	}
	if bonusPoints < 0 {
		return domain.GroupSettings{}, domain.NewValidationError(map[string]string{
			"proposal_bonus_points": "must not be negative",
		})
	}

	if err := s.Groups.UpdateSettings(ctx, groupID, proposalsEnabled, bonusPoints, s.now()); err != nil {
		return domain.GroupSettings{}, err
	}
	return s.Groups.GetSettings(ctx, groupID)
}

// requireGroupMember admits active members and superadmins.
func requireGroupMember(ctx context.Context, groups GroupsStore, groupID string, actor domain.User) error {
	if actor.IsSuperadmin() {
		return nil
	}
	m, err := groups.GetMember(ctx, groupID, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotGroupMember
		}
		return err
	}
	if !m.IsActive {
		return domain.ErrNotGroupMember
	}
	return nil
}

// requireGroupAdmin admits active group admins and superadmins.
func requireGroupAdmin(ctx context.Context, groups GroupsStore, groupID string, actor domain.User) error {
	if actor.IsSuperadmin() {
		return nil
	}
	m, err := groups.GetMember(ctx, groupID, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return err
	}
	if !m.IsActive || m.Role != domain.GroupRoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}
