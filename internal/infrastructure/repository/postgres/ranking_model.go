package postgres

import (
	"database/sql"
	"time"
)

type rankingTableModel struct {
	ID                 int64         `db:"id"`
	GroupPublicID      string        `db:"group_public_id"`
	UserID             string        `db:"user_id"`
	TotalPoints        int           `db:"total_points"`
	TotalPredictions   int           `db:"total_predictions"`
	CorrectPredictions int           `db:"correct_predictions"`
	Rank               int           `db:"rank"`
	PreviousRank       sql.NullInt64 `db:"previous_rank"`
	PointsReachedAt    *time.Time    `db:"points_reached_at"`
	LastCalculatedAt   time.Time     `db:"last_calculated_at"`
}
