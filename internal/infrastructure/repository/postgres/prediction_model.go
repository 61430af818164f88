package postgres

import (
	"database/sql"
	"time"
)

type predictionTableModel struct {
	ID            int64         `db:"id"`
	PublicID      string        `db:"public_id"`
	UserID        string        `db:"user_id"`
	MatchPublicID string        `db:"match_public_id"`
	GroupPublicID string        `db:"group_public_id"`
	HomeScore     int           `db:"home_score"`
	AwayScore     int           `db:"away_score"`
	PredictedAt   time.Time     `db:"predicted_at"`
	PointsEarned  sql.NullInt64 `db:"points_earned"`
	ScoredAt      *time.Time    `db:"scored_at"`
}

type predictionInsertModel struct {
	PublicID      string        `db:"public_id"`
	UserID        string        `db:"user_id"`
	MatchPublicID string        `db:"match_public_id"`
	GroupPublicID string        `db:"group_public_id"`
	HomeScore     int           `db:"home_score"`
	AwayScore     int           `db:"away_score"`
	PredictedAt   time.Time     `db:"predicted_at"`
	PointsEarned  sql.NullInt64 `db:"points_earned"`
	ScoredAt      *time.Time    `db:"scored_at"`
}
