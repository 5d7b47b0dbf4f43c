package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type ProposalsStore interface {
	Insert(ctx context.Context, p domain.TaskProposal) (domain.TaskProposal, error)
	GetByID(ctx context.Context, id string) (domain.TaskProposal, error)
	ListForGroup(ctx context.Context, groupID, statusCode string) ([]domain.TaskProposal, error)
	Approve(ctx context.Context, p domain.ProposalApproval) (string, error)
	Reject(ctx context.Context, proposalID, reviewerID, notes, pendingStatusID, rejectedStatusID string, when time.Time) error
}

type GroupsStore interface {
	GetGroupByID(ctx context.Context, id string) (domain.Group, error)
	GetSettings(ctx context.Context, groupID string) (domain.GroupSettings, error)
	GetMember(ctx context.Context, groupID, userID string) (domain.GroupMember, error)
}

// ProposalNotifier is told about proposal lifecycle events. Deliveries
// are best effort and never fail the operation.
type ProposalNotifier interface {
	ProposalSubmitted(ctx context.Context, p domain.TaskProposal)
	ProposalReviewed(ctx context.Context, p domain.TaskProposal)
}

// DictResolver extends DictLookup with row lookups by id, for inputs
// that arrive as dictionary row ids rather than codes.
type DictResolver interface {
	DictLookup
	GetByID(ctx context.Context, table, id string) (domain.DictEntry, error)
}

// TaskFinder verifies tasks a reviewer wants to attach to a proposal.
type TaskFinder interface {
	GetByID(ctx context.Context, id string) (domain.Task, error)
}

type ProposalService struct {
	Proposals ProposalsStore
	Groups    GroupsStore
	Dicts     DictResolver
	Tasks     TaskFinder
	Notifier  ProposalNotifier

	Now func() time.Time
}

func (s *ProposalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

const maxProposalTitleLen = 200

// Submit files a new task proposal by an active group member. The group
// must have proposals enabled.
func (s *ProposalService) Submit(ctx context.Context, actor domain.User, groupID, title, description string, details json.RawMessage) (domain.TaskProposal, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return domain.TaskProposal{}, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return domain.TaskProposal{}, err
	}

	settings, err := s.Groups.GetSettings(ctx, groupID)
	if err != nil {
		return domain.TaskProposal{}, err
	}
	if !settings.TaskProposalsEnabled {
		return domain.TaskProposal{}, domain.ErrProposalsDisabled
	}

	title = strings.TrimSpace(title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "must not be empty"
	} else if len(title) > maxProposalTitleLen {
		fields["title"] = "too long"
	}
	if len(details) > 0 {
		var parsed domain.ProposedTaskDetails
		if err := json.Unmarshal(details, &parsed); err != nil {
			fields["proposed_details"] = "must be a valid task details object"
		}
	}
	if len(fields) > 0 {
		return domain.TaskProposal{}, domain.NewValidationError(fields)
	}

	pendingID, err := s.statusID(ctx, domain.StatusPending)
	if err != nil {
		return domain.TaskProposal{}, err
	}

	p, err := s.Proposals.Insert(ctx, domain.TaskProposal{
		GroupID:          groupID,
		ProposedByUserID: actor.ID,
		Title:            title,
		Description:      strings.TrimSpace(description),
		ProposedDetails:  details,
		StatusID:         pendingID,
	})
	if err != nil {
		return domain.TaskProposal{}, err
	}

	if s.Notifier != nil {
		s.Notifier.ProposalSubmitted(ctx, p)
	}
	return p, nil
}

func (s *ProposalService) Get(ctx context.Context, actor domain.User, proposalID string) (domain.TaskProposal, error) {
	p, err := s.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return domain.TaskProposal{}, err
	}
	if err := requireGroupMember(ctx, s.Groups, p.GroupID, actor); err != nil {
		return domain.TaskProposal{}, err
	}
	return p, nil
}

func (s *ProposalService) ListForGroup(ctx context.Context, actor domain.User, groupID, statusCode string) ([]domain.TaskProposal, error) {
	if _, err := s.Groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := requireGroupMember(ctx, s.Groups, groupID, actor); err != nil {
		return nil, err
	}
	return s.Proposals.ListForGroup(ctx, groupID, statusCode)
}

// ProposalReview is the admin's decision on a pending proposal. The
// target status arrives as a dictionary row id and must resolve to
// approved or rejected. CreatedTaskID attaches an existing task to the
// approval instead of creating one from the proposed details.
type ProposalReview struct {
	StatusID      string
	Notes         string
	CreatedTaskID string
	AwardBonus    bool
}

// Review decides a pending proposal. Approval creates or links the
// resulting task and, when requested, credits the proposer's bonus in
// the same transaction; rejection requires review notes. Either way
// the decision is final.
func (s *ProposalService) Review(ctx context.Context, actor domain.User, proposalID string, rev ProposalReview) (domain.TaskProposal, error) {
	p, err := s.Proposals.GetByID(ctx, proposalID)
	if err != nil {
		return domain.TaskProposal{}, err
	}
	if err := requireGroupAdmin(ctx, s.Groups, p.GroupID, actor); err != nil {
		return domain.TaskProposal{}, err
	}
	if p.StatusCode != domain.StatusPending {
		return domain.TaskProposal{}, domain.ErrAlreadyReviewed
	}

	if strings.TrimSpace(rev.StatusID) == "" {
		return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
			"status_id": "must not be empty",
		})
	}
	status, err := s.Dicts.GetByID(ctx, "statuses", rev.StatusID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
				"status_id": "unknown status",
			})
		}
		return domain.TaskProposal{}, err
	}
	if status.Code != domain.StatusApproved && status.Code != domain.StatusRejected {
		return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
			"status_id": fmt.Sprintf("status %q is not a review decision", status.Code),
		})
	}

	notes := strings.TrimSpace(rev.Notes)
	if status.Code == domain.StatusRejected && notes == "" {
		return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
			"admin_review_notes": "required when rejecting a proposal",
		})
	}

	pendingID, err := s.statusID(ctx, domain.StatusPending)
	if err != nil {
		return domain.TaskProposal{}, err
	}

	now := s.now()
	if status.Code == domain.StatusApproved {
		approval := domain.ProposalApproval{
			ProposalID:       p.ID,
			ReviewerID:       actor.ID,
			Notes:            notes,
			PendingStatusID:  pendingID,
			ApprovedStatusID: status.ID,
			When:             now,
		}

		if rev.CreatedTaskID != "" {
			task, err := s.Tasks.GetByID(ctx, rev.CreatedTaskID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
						"created_task_id": "task does not exist",
					})
				}
				return domain.TaskProposal{}, err
			}
			if task.GroupID != p.GroupID {
				return domain.TaskProposal{}, domain.NewValidationError(map[string]string{
					"created_task_id": "task belongs to a different group",
				})
			}
			approval.LinkTaskID = task.ID
		} else {
			approval.Task, err = s.taskSpecFor(ctx, p, actor, pendingID)
			if err != nil {
				return domain.TaskProposal{}, err
			}
		}

		if rev.AwardBonus && !p.BonusAwarded {
			approval.Bonus, err = s.bonusSpecFor(ctx, p)
			if err != nil {
				return domain.TaskProposal{}, err
			}
		}

		if _, err := s.Proposals.Approve(ctx, approval); err != nil {
			return domain.TaskProposal{}, err
		}
	} else {
		if err := s.Proposals.Reject(ctx, p.ID, actor.ID, notes, pendingID, status.ID, now); err != nil {
			return domain.TaskProposal{}, err
		}
	}

	reviewed, err := s.Proposals.GetByID(ctx, p.ID)
	if err != nil {
		return domain.TaskProposal{}, err
	}

	if s.Notifier != nil {
		s.Notifier.ProposalReviewed(ctx, reviewed)
	}
	return reviewed, nil
}

// taskSpecFor maps the structured part of the proposal onto a task. No
// usable details means no task; approval alone does not invent one.
func (s *ProposalService) taskSpecFor(ctx context.Context, p domain.TaskProposal, reviewer domain.User, pendingStatusID string) (*domain.TaskSpec, error) {
	if len(p.ProposedDetails) == 0 {
		return nil, nil
	}

	var details domain.ProposedTaskDetails
	if err := json.Unmarshal(p.ProposedDetails, &details); err != nil {
		return nil, domain.NewValidationError(map[string]string{
			"proposed_details": "stored details are not a valid task details object",
		})
	}
	if details.TaskTypeCode == "" {
		return nil, nil
	}

	taskTypeID, err := s.Dicts.IDByCode(ctx, "task_types", details.TaskTypeCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError(map[string]string{
				"proposed_details": fmt.Sprintf("unknown task type %q", details.TaskTypeCode),
			})
		}
		return nil, err
	}

	return &domain.TaskSpec{
		Title:           p.Title,
		Description:     p.Description,
		TaskTypeID:      taskTypeID,
		StatusID:        pendingStatusID,
		BonusPoints:     details.BonusPoints,
		DueAt:           details.DueDate,
		CreatedByUserID: reviewer.ID,
	}, nil
}

func (s *ProposalService) bonusSpecFor(ctx context.Context, p domain.TaskProposal) (*domain.BonusSpec, error) {
	settings, err := s.Groups.GetSettings(ctx, p.GroupID)
	if err != nil {
		return nil, err
	}
	if settings.ProposalBonusPoints <= 0 {
		return nil, nil
	}

	bonusTypeID, err := s.Dicts.IDByCode(ctx, "bonus_types", domain.BonusTypeProposal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: bonus type %q not seeded", domain.ErrMisconfigured, domain.BonusTypeProposal)
		}
		return nil, err
	}

	return &domain.BonusSpec{
		GroupID:     p.GroupID,
		UserID:      p.ProposedByUserID,
		Amount:      int64(settings.ProposalBonusPoints),
		BonusTypeID: bonusTypeID,
		Description: "approved task proposal: " + p.Title,
	}, nil
}

// statusID resolves a workflow status code, translating a missing row
// into a configuration error rather than a user-facing not found.
func (s *ProposalService) statusID(ctx context.Context, code string) (string, error) {
	id, err := s.Dicts.IDByCode(ctx, "statuses", code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: status %q not seeded", domain.ErrMisconfigured, code)
		}
		return "", err
	}
	return id, nil
}
