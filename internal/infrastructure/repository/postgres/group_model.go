package postgres

import "time"

type groupTableModel struct {
	ID                  int64     `db:"id"`
	PublicID            string    `db:"public_id"`
	Name                string    `db:"name"`
	Description         string    `db:"description"`
	OwnerUserID         string    `db:"owner_user_id"`
	CompetitionPublicID string    `db:"competition_public_id"`
	Visibility          string    `db:"visibility"`
	InviteCode          string    `db:"invite_code"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

type groupInsertModel struct {
	PublicID            string    `db:"public_id"`
	Name                string    `db:"name"`
	Description         string    `db:"description"`
	OwnerUserID         string    `db:"owner_user_id"`
	CompetitionPublicID string    `db:"competition_public_id"`
	Visibility          string    `db:"visibility"`
	InviteCode          string    `db:"invite_code"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

type groupMemberTableModel struct {
	ID            int64     `db:"id"`
	GroupPublicID string    `db:"group_public_id"`
	UserID        string    `db:"user_id"`
	Role          string    `db:"role"`
	TotalPoints   int       `db:"total_points"`
	JoinedAt      time.Time `db:"joined_at"`
}

type groupMemberInsertModel struct {
	GroupPublicID string    `db:"group_public_id"`
	UserID        string    `db:"user_id"`
	Role          string    `db:"role"`
	TotalPoints   int       `db:"total_points"`
	JoinedAt      time.Time `db:"joined_at"`
}
