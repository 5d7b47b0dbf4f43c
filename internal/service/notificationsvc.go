package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"
	"github.com/mserjo/bossy-sub005/internal/notifications"
)

type NotificationTokensStore interface {
	UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.NotificationToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
	ListTokens(ctx context.Context, userID string) ([]domain.NotificationToken, error)
}

type PushSender interface {
	Send(ctx context.Context, token string, msg notifications.Message) error
}

type GroupMembersLister interface {
	ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error)
}

// NotificationService manages device push tokens and fans proposal
// events out to them. Every delivery is best effort; a push that cannot
// be sent is logged and dropped.
type NotificationService struct {
	Tokens  NotificationTokensStore
	Members GroupMembersLister
	Sender  PushSender
	Logger  *slog.Logger
	Now     func() time.Time
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) (domain.NotificationToken, error) {
	if s.Tokens == nil {
		return domain.NotificationToken{}, errors.New("notifications unavailable")
	}
	token = strings.TrimSpace(token)
	platform = strings.TrimSpace(strings.ToLower(platform))
	if token == "" || platform == "" {
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{"token": "required", "platform": "required"})
	}
	switch platform {
	case "android", "ios":
	default:
		return domain.NotificationToken{}, domain.NewValidationError(map[string]string{"platform": "must be ios or android"})
	}
	when := s.now().UTC().Truncate(time.Millisecond)
	return s.Tokens.UpsertToken(ctx, userID, token, platform, when)
}

func (s *NotificationService) DeleteToken(ctx context.Context, userID, token string) error {
	if s.Tokens == nil {
		return errors.New("notifications unavailable")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	return s.Tokens.DeleteToken(ctx, userID, token)
}

// ProposalSubmitted pings every admin of the group about a new pending
// proposal.
func (s *NotificationService) ProposalSubmitted(ctx context.Context, p domain.TaskProposal) {
	if s.Tokens == nil || s.Sender == nil || s.Members == nil {
		return
	}

	members, err := s.Members.ListMembers(ctx, p.GroupID)
	if err != nil {
		s.logger().Error("notifications: list group members failed", "err", err, "group_id", p.GroupID)
		return
	}

	payload := map[string]string{
		"type":        "proposal_submitted",
		"proposal_id": p.ID,
		"group_id":    p.GroupID,
		"title":       p.Title,
	}
	alert := &notifications.Notification{
		Title: "New task proposal",
		Body:  p.Title,
	}

	for _, m := range members {
		if m.Role != domain.GroupRoleAdmin || m.UserID == p.ProposedByUserID {
			continue
		}
		s.push(ctx, m.UserID, payload, alert)
	}
}

// ProposalReviewed tells the proposer how the review went.
func (s *NotificationService) ProposalReviewed(ctx context.Context, p domain.TaskProposal) {
	if s.Tokens == nil || s.Sender == nil {
		return
	}

	payload := map[string]string{
		"type":        "proposal_reviewed",
		"proposal_id": p.ID,
		"group_id":    p.GroupID,
		"status":      p.StatusCode,
	}

	body := "Your task proposal was rejected."
	if p.StatusCode == domain.StatusApproved {
		body = "Your task proposal was approved."
	}
	alert := &notifications.Notification{
		Title: "Proposal reviewed",
		Body:  body,
	}

	s.push(ctx, p.ProposedByUserID, payload, alert)
}

// push delivers to every device of one user: data-only on android,
// alert on ios. Tokens FCM reports as unregistered are pruned.
func (s *NotificationService) push(ctx context.Context, userID string, payload map[string]string, alert *notifications.Notification) {
	tokens, err := s.Tokens.ListTokens(ctx, userID)
	if err != nil {
		s.logger().Error("notifications: list tokens failed", "err", err, "user_id", userID)
		return
	}

	dataOnlyMsg := notifications.Message{Data: payload}
	alertMsg := notifications.Message{Data: payload, Notification: alert}

	for _, token := range tokens {
		msg := dataOnlyMsg
		if strings.TrimSpace(strings.ToLower(token.Platform)) == "ios" {
			msg = alertMsg
		}
		if err := s.Sender.Send(ctx, token.Token, msg); err != nil {
			if errors.Is(err, notifications.ErrInvalidToken) {
				if delErr := s.Tokens.DeleteToken(ctx, userID, token.Token); delErr != nil {
					s.logger().Error("notifications: delete invalid token failed", "err", delErr, "user_id", userID)
				}
				continue
			}
			s.logger().Error("notifications: send failed", "err", err, "user_id", userID)
		}
	}
}

func (s *NotificationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
