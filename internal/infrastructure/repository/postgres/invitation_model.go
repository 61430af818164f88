package postgres

import (
	"database/sql"
	"time"
)

type invitationTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	GroupPublicID string         `db:"group_public_id"`
	InviterUserID string         `db:"inviter_user_id"`
	InviteeEmail  string         `db:"invitee_email"`
	InviteeUserID sql.NullString `db:"invitee_user_id"`
	Status        string         `db:"status"`
	Token         string         `db:"token"`
	ExpiresAt     time.Time      `db:"expires_at"`
	CreatedAt     time.Time      `db:"created_at"`
	RespondedAt   *time.Time     `db:"responded_at"`
}

type invitationInsertModel struct {
	PublicID      string     `db:"public_id"`
	GroupPublicID string     `db:"group_public_id"`
	InviterUserID string     `db:"inviter_user_id"`
	InviteeEmail  string     `db:"invitee_email"`
	InviteeUserID *string    `db:"invitee_user_id"`
	Status        string     `db:"status"`
	Token         string     `db:"token"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RespondedAt   *time.Time `db:"responded_at"`
}
