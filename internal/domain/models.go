package domain

import (
	"encoding/json"
	"time"
)

// Dictionary codes the services rely on. The rows themselves are seeded
// into the database; ids are always resolved at runtime, never hardcoded.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	UserTypeSuperadmin = "superadmin"
	UserTypeUser       = "user"
	UserTypeBot        = "bot"

	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"

	BonusTypeProposal = "proposal_bonus"
)

type User struct {
	ID              string
	Email           string
	Phone           string
	UserTypeCode    string
	IsActive        bool
	IsEmailVerified bool
	IsPhoneVerified bool
	TwoFAEnabled    bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

func (u User) IsDeleted() bool { return u.DeletedAt != nil }

func (u User) IsSuperadmin() bool { return u.UserTypeCode == UserTypeSuperadmin }

type UserWithPassword struct {
	User
	PasswordHash string
}

// RefreshToken is the persisted half of a composite "<id>.<secret>"
// refresh credential. Only a hash of the secret is ever stored.
type RefreshToken struct {
	ID            string
	UserID        string
	TokenHash     string
	ExpiresAt     time.Time
	Revoked       bool
	RevokedReason string
	RevokedAt     *time.Time
	LastUsedAt    *time.Time
	UserAgent     string
	IPAddress     string
	CreatedAt     time.Time
}

// Session tracks one logged-in device. At most one session points at a
// given refresh token (unique refresh_token_id).
type Session struct {
	ID             string
	UserID         string
	RefreshTokenID string
	UserAgent      string
	IPAddress      string
	IsActive       bool
	LastActivityAt time.Time
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

type Group struct {
	ID            string
	Name          string
	Description   string
	GroupTypeCode string
	OwnerUserID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

type GroupSettings struct {
	GroupID              string
	TaskProposalsEnabled bool
	ProposalBonusPoints  int
	UpdatedAt            time.Time
}

type GroupMember struct {
	GroupID  string
	UserID   string
	Role     string
	IsActive bool
	JoinedAt time.Time
}

// TaskProposal is a member's suggestion awaiting an admin decision.
// pending -> approved|rejected, one review only, never deleted.
type TaskProposal struct {
	ID               string
	GroupID          string
	ProposedByUserID string
	Title            string
	Description      string
	ProposedDetails  json.RawMessage
	StatusID         string
	StatusCode       string
	AdminReviewNotes string
	ReviewedByUserID string
	ReviewedAt       *time.Time
	CreatedTaskID    string
	BonusAwarded     bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProposedTaskDetails is the structured part of a proposal that maps
// onto a task when the proposal is approved without an explicit task id.
type ProposedTaskDetails struct {
	TaskTypeCode string     `json:"task_type_code,omitempty"`
	BonusPoints  int        `json:"bonus_points,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// TaskSpec describes the task an approval should create.
type TaskSpec struct {
	Title           string
	Description     string
	TaskTypeID      string
	StatusID        string
	BonusPoints     int
	DueAt           *time.Time
	CreatedByUserID string
}

// BonusSpec describes a reward to credit to a group member.
type BonusSpec struct {
	GroupID     string
	UserID      string
	Amount      int64
	BonusTypeID string
	Description string
}

// ProposalApproval carries everything an approval needs to land
// atomically. Status ids are resolved by the caller so storage never
// guesses at dictionary contents. Task auto-creates the proposed task;
// LinkTaskID attaches an existing one instead. At most one is set.
type ProposalApproval struct {
	ProposalID       string
	ReviewerID       string
	Notes            string
	PendingStatusID  string
	ApprovedStatusID string
	Task             *TaskSpec
	LinkTaskID       string
	Bonus            *BonusSpec
	When             time.Time
}

type Task struct {
	ID               string
	GroupID          string
	Title            string
	Description      string
	TaskTypeCode     string
	StatusID         string
	BonusPoints      int
	DueAt            *time.Time
	CreatedByUserID  string
	SourceProposalID string
	CreatedAt        time.Time
}

type BonusAccount struct {
	ID        string
	GroupID   string
	UserID    string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BonusTransaction struct {
	ID            string
	AccountID     string
	Amount        int64
	BonusTypeCode string
	Description   string
	SourceType    string
	SourceID      string
	CreatedAt     time.Time
}

// DictEntry is one row of a code-keyed reference table (statuses,
// user_types, group_types, ...). All dictionaries share this shape.
type DictEntry struct {
	ID          string
	Code        string
	Name        string
	Description string
	Icon        string
	Color       string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type NotificationToken struct {
	ID        string
	UserID    string
	Token     string
	Platform  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PasswordResetToken struct {
	ID          string
	UserID      string
	TokenHash   string
	SentToEmail string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
}
