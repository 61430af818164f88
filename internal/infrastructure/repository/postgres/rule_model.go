package postgres

import "time"

type ruleTableModel struct {
	ID            int64     `db:"id"`
	PublicID      string    `db:"public_id"`
	GroupPublicID string    `db:"group_public_id"`
	RuleType      string    `db:"rule_type"`
	Points        int       `db:"points"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}

type ruleInsertModel struct {
	PublicID      string    `db:"public_id"`
	GroupPublicID string    `db:"group_public_id"`
	RuleType      string    `db:"rule_type"`
	Points        int       `db:"points"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}
