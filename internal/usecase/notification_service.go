package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
)

const NotificationKindInvitation = "invitation"

// Notification is a pending action shown in the user's inbox.
type Notification struct {
	ID        string
	Kind      string
	Message   string
	Token     string
	GroupID   string
	CreatedAt time.Time
}

type NotificationService struct {
	invitations *InvitationService
	now         func() time.Time
}

func NewNotificationService(invitations *InvitationService) *NotificationService {
	return &NotificationService{invitations: invitations, now: time.Now}
}

// ListNotifications renders the caller's open invitations, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationService.ListNotifications")
	defer span.End()

	received, err := s.invitations.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out := make([]Notification, 0, len(received))
	for _, item := range received {
		if item.Status != invitation.StatusPending || item.IsExpired(now) {
			continue
		}
		out = append(out, Notification{
			ID:        item.ID,
			Kind:      NotificationKindInvitation,
			Message:   fmt.Sprintf("%s invited you to join %s", item.InviterUsername, item.GroupName),
			Token:     item.Token,
			GroupID:   item.GroupID,
			CreatedAt: item.CreatedAt,
		})
	}
	return out, nil
}
