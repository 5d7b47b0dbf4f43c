package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

type stubProposalsStore struct {
	t *testing.T

	insertFunc       func(context.Context, domain.TaskProposal) (domain.TaskProposal, error)
	getByIDFunc      func(context.Context, string) (domain.TaskProposal, error)
	listForGroupFunc func(context.Context, string, string) ([]domain.TaskProposal, error)
	approveFunc      func(context.Context, domain.ProposalApproval) (string, error)
	rejectFunc       func(context.Context, string, string, string, string, string, time.Time) error
}

func (s *stubProposalsStore) Insert(ctx context.Context, p domain.TaskProposal) (domain.TaskProposal, error) {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, p)
	}
	s.t.Fatalf("Insert called unexpectedly")
	return domain.TaskProposal{}, errors.New("unexpected call")
}

func (s *stubProposalsStore) GetByID(ctx context.Context, id string) (domain.TaskProposal, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetByID called unexpectedly")
	return domain.TaskProposal{}, errors.New("unexpected call")
}

func (s *stubProposalsStore) ListForGroup(ctx context.Context, groupID, statusCode string) ([]domain.TaskProposal, error) {
	if s.listForGroupFunc != nil {
		return s.listForGroupFunc(ctx, groupID, statusCode)
	}
	s.t.Fatalf("ListForGroup called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubProposalsStore) Approve(ctx context.Context, p domain.ProposalApproval) (string, error) {
	if s.approveFunc != nil {
		return s.approveFunc(ctx, p)
	}
	s.t.Fatalf("Approve called unexpectedly")
	return "", errors.New("unexpected call")
}

func (s *stubProposalsStore) Reject(ctx context.Context, proposalID, reviewerID, notes, pendingStatusID, rejectedStatusID string, when time.Time) error {
	if s.rejectFunc != nil {
		return s.rejectFunc(ctx, proposalID, reviewerID, notes, pendingStatusID, rejectedStatusID, when)
	}
	s.t.Fatalf("Reject called unexpectedly")
	return errors.New("unexpected call")
}

type stubGroupsStore struct {
	t *testing.T

	getGroupByIDFunc func(context.Context, string) (domain.Group, error)
	getSettingsFunc  func(context.Context, string) (domain.GroupSettings, error)
	getMemberFunc    func(context.Context, string, string) (domain.GroupMember, error)
}

func (s *stubGroupsStore) GetGroupByID(ctx context.Context, id string) (domain.Group, error) {
	if s.getGroupByIDFunc != nil {
		return s.getGroupByIDFunc(ctx, id)
	}
	return domain.Group{ID: id, Name: "group"}, nil
}

func (s *stubGroupsStore) GetSettings(ctx context.Context, groupID string) (domain.GroupSettings, error) {
	if s.getSettingsFunc != nil {
		return s.getSettingsFunc(ctx, groupID)
	}
	return domain.GroupSettings{GroupID: groupID, TaskProposalsEnabled: true}, nil
}

func (s *stubGroupsStore) GetMember(ctx context.Context, groupID, userID string) (domain.GroupMember, error) {
	if s.getMemberFunc != nil {
		return s.getMemberFunc(ctx, groupID, userID)
	}
	s.t.Fatalf("GetMember called unexpectedly")
	return domain.GroupMember{}, errors.New("unexpected call")
}

type stubTaskFinder struct {
	t *testing.T

	getByIDFunc func(context.Context, string) (domain.Task, error)
}

func (s *stubTaskFinder) GetByID(ctx context.Context, id string) (domain.Task, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	s.t.Fatalf("Tasks GetByID called unexpectedly")
	return domain.Task{}, errors.New("unexpected call")
}

type recordingNotifier struct {
	submitted []domain.TaskProposal
	reviewed  []domain.TaskProposal
}

func (n *recordingNotifier) ProposalSubmitted(_ context.Context, p domain.TaskProposal) {
	n.submitted = append(n.submitted, p)
}

func (n *recordingNotifier) ProposalReviewed(_ context.Context, p domain.TaskProposal) {
	n.reviewed = append(n.reviewed, p)
}

func memberOf(groupID, userID, role string) func(context.Context, string, string) (domain.GroupMember, error) {
	return func(_ context.Context, g, u string) (domain.GroupMember, error) {
		if g == groupID && u == userID {
			return domain.GroupMember{GroupID: g, UserID: u, Role: role, IsActive: true}, nil
		}
		return domain.GroupMember{}, domain.ErrNotFound
	}
}

func proposalDicts() *stubDicts {
	return &stubDicts{ids: map[string]string{
		"statuses:pending":           "st-pending",
		"statuses:approved":          "st-approved",
		"statuses:rejected":          "st-rejected",
		"task_types:chore":           "tt-chore",
		"bonus_types:proposal_bonus": "bt-proposal",
	}}
}

func TestSubmit_RequiresMembership(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{t: t},
		Groups: &stubGroupsStore{
			t: t,
			getMemberFunc: func(context.Context, string, string) (domain.GroupMember, error) {
				return domain.GroupMember{}, domain.ErrNotFound
			},
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Submit(context.Background(), activeUser("u1"), "g1", "Title", "", nil)
	if !errors.Is(err, domain.ErrNotGroupMember) {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}
}

func TestSubmit_ProposalsDisabled(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{t: t},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "u1", domain.GroupRoleMember),
			getSettingsFunc: func(_ context.Context, groupID string) (domain.GroupSettings, error) {
				return domain.GroupSettings{GroupID: groupID, TaskProposalsEnabled: false}, nil
			},
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Submit(context.Background(), activeUser("u1"), "g1", "Title", "", nil)
	if !errors.Is(err, domain.ErrProposalsDisabled) {
		t.Fatalf("expected ErrProposalsDisabled, got %v", err)
	}
}

func TestSubmit_CreatesPendingProposal(t *testing.T) {
	var inserted domain.TaskProposal
	notifier := &recordingNotifier{}
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			insertFunc: func(_ context.Context, p domain.TaskProposal) (domain.TaskProposal, error) {
				inserted = p
				p.ID = "p1"
				p.StatusCode = domain.StatusPending
				return p, nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "u1", domain.GroupRoleMember),
		},
		Dicts:    proposalDicts(),
		Notifier: notifier,
	}

	details := json.RawMessage(`{"task_type_code":"chore","bonus_points":10}`)
	p, err := svc.Submit(context.Background(), activeUser("u1"), "g1", "  Walk the dog  ", "desc", details)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if inserted.StatusID != "st-pending" {
		t.Fatalf("status id: got %q", inserted.StatusID)
	}
	if inserted.Title != "Walk the dog" {
		t.Fatalf("title: got %q", inserted.Title)
	}
	if inserted.ProposedByUserID != "u1" {
		t.Fatalf("proposer: got %q", inserted.ProposedByUserID)
	}
	if p.ID != "p1" {
		t.Fatalf("proposal id: got %q", p.ID)
	}
	if len(notifier.submitted) != 1 {
		t.Fatalf("expected 1 submitted notification, got %d", len(notifier.submitted))
	}
}

func TestSubmit_ValidatesTitleAndDetails(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{t: t},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "u1", domain.GroupRoleMember),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Submit(context.Background(), activeUser("u1"), "g1", "   ", "", nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty title: expected validation error, got %v", err)
	}

	_, err = svc.Submit(context.Background(), activeUser("u1"), "g1", "Title", "", json.RawMessage(`"not an object"`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad details: expected validation error, got %v", err)
	}
}

func TestSubmit_MissingPendingStatusIsMisconfiguration(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{t: t},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "u1", domain.GroupRoleMember),
		},
		Dicts: &stubDicts{ids: map[string]string{}},
	}

	_, err := svc.Submit(context.Background(), activeUser("u1"), "g1", "Title", "", nil)
	if !errors.Is(err, domain.ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func pendingProposal() domain.TaskProposal {
	return domain.TaskProposal{
		ID:               "p1",
		GroupID:          "g1",
		ProposedByUserID: "member-1",
		Title:            "Walk the dog",
		StatusID:         "st-pending",
		StatusCode:       domain.StatusPending,
	}
}

func TestReview_NonAdminForbidden(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "u1", domain.GroupRoleMember),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("u1"), "p1", ProposalReview{StatusID: "st-approved"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReview_RejectRequiresNotes(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: "st-rejected", Notes: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReview_AlreadyReviewed(t *testing.T) {
	reviewed := pendingProposal()
	reviewed.StatusCode = domain.StatusApproved

	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return reviewed, nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: "st-rejected", Notes: "late decision"})
	if !errors.Is(err, domain.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestReview_TerminalProposalWinsOverMissingNotes(t *testing.T) {
	reviewed := pendingProposal()
	reviewed.StatusCode = domain.StatusRejected

	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return reviewed, nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: "st-rejected"})
	if !errors.Is(err, domain.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestReview_StatusMustBeADecision(t *testing.T) {
	newSvc := func() *ProposalService {
		return &ProposalService{
			Proposals: &stubProposalsStore{
				t: t,
				getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
					return pendingProposal(), nil
				},
			},
			Groups: &stubGroupsStore{
				t:             t,
				getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
			},
			Dicts: proposalDicts(),
		}
	}

	for _, statusID := range []string{"", "no-such-status", "st-pending"} {
		_, err := newSvc().Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: statusID, Notes: "whatever"})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("status id %q: expected validation error, got %v", statusID, err)
		}
		if _, ok := verr.Fields["status_id"]; !ok {
			t.Fatalf("status id %q: expected status_id field, got %v", statusID, verr.Fields)
		}
	}
}

func TestReview_ApproveCreatesTaskAndBonus(t *testing.T) {
	p := pendingProposal()
	p.ProposedDetails = json.RawMessage(`{"task_type_code":"chore","bonus_points":15}`)

	var approval domain.ProposalApproval
	notifier := &recordingNotifier{}
	calls := 0
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				calls++
				if calls == 1 {
					return p, nil
				}
				done := p
				done.StatusCode = domain.StatusApproved
				done.CreatedTaskID = "task-1"
				done.BonusAwarded = true
				return done, nil
			},
			approveFunc: func(_ context.Context, a domain.ProposalApproval) (string, error) {
				approval = a
				return "task-1", nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
			getSettingsFunc: func(_ context.Context, groupID string) (domain.GroupSettings, error) {
				return domain.GroupSettings{GroupID: groupID, TaskProposalsEnabled: true, ProposalBonusPoints: 5}, nil
			},
		},
		Dicts:    proposalDicts(),
		Notifier: notifier,
	}

	out, err := svc.Review(context.Background(), activeUser("admin-1"), "p1",
		ProposalReview{StatusID: "st-approved", Notes: "looks good", AwardBonus: true})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}

	if approval.ApprovedStatusID != "st-approved" || approval.PendingStatusID != "st-pending" {
		t.Fatalf("status ids: %+v", approval)
	}
	if approval.Task == nil {
		t.Fatalf("expected a task spec")
	}
	if approval.Task.TaskTypeID != "tt-chore" {
		t.Fatalf("task type id: got %q", approval.Task.TaskTypeID)
	}
	if approval.Task.BonusPoints != 15 {
		t.Fatalf("task bonus points: got %d", approval.Task.BonusPoints)
	}
	if approval.Bonus == nil {
		t.Fatalf("expected a bonus spec")
	}
	if approval.Bonus.Amount != 5 || approval.Bonus.UserID != "member-1" {
		t.Fatalf("bonus spec: %+v", approval.Bonus)
	}

	if out.StatusCode != domain.StatusApproved || out.CreatedTaskID != "task-1" {
		t.Fatalf("reviewed proposal: %+v", out)
	}
	if len(notifier.reviewed) != 1 {
		t.Fatalf("expected 1 reviewed notification, got %d", len(notifier.reviewed))
	}
}

func TestReview_ApproveWithoutDetailsSkipsTask(t *testing.T) {
	var approval domain.ProposalApproval
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
			approveFunc: func(_ context.Context, a domain.ProposalApproval) (string, error) {
				approval = a
				return "", nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
			getSettingsFunc: func(_ context.Context, groupID string) (domain.GroupSettings, error) {
				return domain.GroupSettings{GroupID: groupID, TaskProposalsEnabled: true}, nil
			},
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1",
		ProposalReview{StatusID: "st-approved", AwardBonus: true})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if approval.Task != nil {
		t.Fatalf("expected no task spec, got %+v", approval.Task)
	}
	if approval.Bonus != nil {
		t.Fatalf("expected no bonus spec when group awards zero points")
	}
}

func TestReview_BonusNeedsToBeRequested(t *testing.T) {
	p := pendingProposal()

	var approval domain.ProposalApproval
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return p, nil
			},
			approveFunc: func(_ context.Context, a domain.ProposalApproval) (string, error) {
				approval = a
				return "", nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
			getSettingsFunc: func(_ context.Context, groupID string) (domain.GroupSettings, error) {
				return domain.GroupSettings{GroupID: groupID, TaskProposalsEnabled: true, ProposalBonusPoints: 5}, nil
			},
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: "st-approved"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if approval.Bonus != nil {
		t.Fatalf("expected no bonus spec without an award request, got %+v", approval.Bonus)
	}
}

func TestReview_BonusNotAwardedTwice(t *testing.T) {
	p := pendingProposal()
	p.BonusAwarded = true

	var approval domain.ProposalApproval
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return p, nil
			},
			approveFunc: func(_ context.Context, a domain.ProposalApproval) (string, error) {
				approval = a
				return "", nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1",
		ProposalReview{StatusID: "st-approved", AwardBonus: true})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if approval.Bonus != nil {
		t.Fatalf("expected no second bonus, got %+v", approval.Bonus)
	}
}

func TestReview_LinksSuppliedTask(t *testing.T) {
	var approval domain.ProposalApproval
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
			approveFunc: func(_ context.Context, a domain.ProposalApproval) (string, error) {
				approval = a
				return a.LinkTaskID, nil
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
		Tasks: &stubTaskFinder{
			t: t,
			getByIDFunc: func(_ context.Context, id string) (domain.Task, error) {
				if id != "task-9" {
					return domain.Task{}, domain.ErrNotFound
				}
				return domain.Task{ID: "task-9", GroupID: "g1"}, nil
			},
		},
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1",
		ProposalReview{StatusID: "st-approved", CreatedTaskID: "task-9"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if approval.LinkTaskID != "task-9" {
		t.Fatalf("link task id: got %q", approval.LinkTaskID)
	}
	if approval.Task != nil {
		t.Fatalf("expected no task spec when linking an existing task, got %+v", approval.Task)
	}
}

func TestReview_SuppliedTaskMustExistInGroup(t *testing.T) {
	newSvc := func(finder *stubTaskFinder) *ProposalService {
		return &ProposalService{
			Proposals: &stubProposalsStore{
				t: t,
				getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
					return pendingProposal(), nil
				},
			},
			Groups: &stubGroupsStore{
				t:             t,
				getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
			},
			Dicts: proposalDicts(),
			Tasks: finder,
		}
	}

	missing := &stubTaskFinder{t: t, getByIDFunc: func(context.Context, string) (domain.Task, error) {
		return domain.Task{}, domain.ErrNotFound
	}}
	foreign := &stubTaskFinder{t: t, getByIDFunc: func(context.Context, string) (domain.Task, error) {
		return domain.Task{ID: "task-9", GroupID: "other-group"}, nil
	}}

	for name, finder := range map[string]*stubTaskFinder{"missing": missing, "foreign group": foreign} {
		_, err := newSvc(finder).Review(context.Background(), activeUser("admin-1"), "p1",
			ProposalReview{StatusID: "st-approved", CreatedTaskID: "task-9"})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if _, ok := verr.Fields["created_task_id"]; !ok {
			t.Fatalf("%s: expected created_task_id field, got %v", name, verr.Fields)
		}
	}
}

func TestReview_LostRaceBubblesAlreadyReviewed(t *testing.T) {
	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
			rejectFunc: func(context.Context, string, string, string, string, string, time.Time) error {
				return domain.ErrAlreadyReviewed
			},
		},
		Groups: &stubGroupsStore{
			t:             t,
			getMemberFunc: memberOf("g1", "admin-1", domain.GroupRoleAdmin),
		},
		Dicts: proposalDicts(),
	}

	_, err := svc.Review(context.Background(), activeUser("admin-1"), "p1", ProposalReview{StatusID: "st-rejected", Notes: "declined"})
	if !errors.Is(err, domain.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestReview_SuperadminBypassesMembership(t *testing.T) {
	admin := domain.User{ID: "root", UserTypeCode: domain.UserTypeSuperadmin, IsActive: true}

	svc := &ProposalService{
		Proposals: &stubProposalsStore{
			t: t,
			getByIDFunc: func(context.Context, string) (domain.TaskProposal, error) {
				return pendingProposal(), nil
			},
			rejectFunc: func(context.Context, string, string, string, string, string, time.Time) error {
				return nil
			},
		},
		Groups: &stubGroupsStore{t: t},
		Dicts:  proposalDicts(),
	}

	_, err := svc.Review(context.Background(), admin, "p1", ProposalReview{StatusID: "st-rejected", Notes: "not aligned with goals"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
}
