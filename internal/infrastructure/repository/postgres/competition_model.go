package postgres

import (
	"database/sql"
	"time"
)

type competitionTableModel struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Season      string    `db:"season"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type competitionInsertModel struct {
	PublicID    string    `db:"public_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Season      string    `db:"season"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type competitionTeamTableModel struct {
	ID                  int64     `db:"id"`
	PublicID            string    `db:"public_id"`
	CompetitionPublicID string    `db:"competition_public_id"`
	Name                string    `db:"name"`
	ShortName           string    `db:"short_name"`
	LogoURL             string    `db:"logo_url"`
	Country             string    `db:"country"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

type matchTableModel struct {
	ID                  int64         `db:"id"`
	PublicID            string        `db:"public_id"`
	CompetitionPublicID string        `db:"competition_public_id"`
	HomeTeamPublicID    string        `db:"home_team_public_id"`
	AwayTeamPublicID    string        `db:"away_team_public_id"`
	ScheduledAt         time.Time     `db:"scheduled_at"`
	Status              string        `db:"status"`
	HomeScore           sql.NullInt64 `db:"home_score"`
	AwayScore           sql.NullInt64 `db:"away_score"`
	Location            string        `db:"location"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"`
}
