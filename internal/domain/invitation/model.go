package invitation

import (
	"errors"
	"time"
)

var ErrDuplicate = errors.New("invitation already exists")

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Invitation asks an email address to join a group. Token is the bearer secret used to respond.
type Invitation struct {
	ID            string
	GroupID       string
	InviterID     string
	InviteeEmail  string
	InviteeUserID string
	Status        Status
	Token         string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RespondedAt   *time.Time
}

func (i Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsOpen reports whether the invitation can still be accepted or declined.
func (i Invitation) IsOpen(now time.Time) bool {
	return i.Status == StatusPending && !i.IsExpired(now)
}

// Response is a conditional status change applied only while the invitation is pending.
type Response struct {
	InvitationID  string
	Status        Status
	InviteeUserID string
	RespondedAt   time.Time
}
