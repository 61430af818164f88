package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/infrastructure/repository/memory"
	"github.com/jmoiron/sqlx"
)

// BootstrapSeed loads the reference competition, teams and fixtures into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM competitions`); err != nil {
		return fmt.Errorf("count competitions for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	return withTx(ctx, db, "bootstrap seed", func(tx *sqlx.Tx) error {
		for _, c := range memory.SeedCompetitions() {
			if err := execNamed(ctx, tx, `
INSERT INTO competitions (public_id, name, description, season, start_date, end_date, status, created_at, updated_at)
VALUES (:public_id, :name, :description, :season, :start_date, :end_date, :status, :created_at, :updated_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
				"public_id":   c.ID,
				"name":        c.Name,
				"description": c.Description,
				"season":      c.Season,
				"start_date":  c.StartDate.UTC(),
				"end_date":    c.EndDate.UTC(),
				"status":      string(c.Status),
				"created_at":  c.CreatedAt.UTC(),
				"updated_at":  c.UpdatedAt.UTC(),
			}); err != nil {
				return fmt.Errorf("seed competition %s: %w", c.ID, err)
			}
		}

		for _, t := range memory.SeedTeams() {
			if err := execNamed(ctx, tx, `
INSERT INTO teams (public_id, competition_public_id, name, short_name, logo_url, country)
VALUES (:public_id, :competition_public_id, :name, :short_name, :logo_url, :country)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
				"public_id":             t.ID,
				"competition_public_id": t.CompetitionID,
				"name":                  t.Name,
				"short_name":            t.ShortName,
				"logo_url":              t.LogoURL,
				"country":               t.Country,
			}); err != nil {
				return fmt.Errorf("seed team %s: %w", t.ID, err)
			}
		}

		for _, m := range memory.SeedMatches() {
			if err := execNamed(ctx, tx, `
INSERT INTO matches (public_id, competition_public_id, home_team_public_id, away_team_public_id, scheduled_at, status, home_score, away_score, location, created_at, updated_at)
VALUES (:public_id, :competition_public_id, :home_team_public_id, :away_team_public_id, :scheduled_at, :status, :home_score, :away_score, :location, :created_at, :updated_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
				"public_id":             m.ID,
				"competition_public_id": m.CompetitionID,
				"home_team_public_id":   m.HomeTeamID,
				"away_team_public_id":   m.AwayTeamID,
				"scheduled_at":          m.ScheduledAt.UTC(),
				"status":                string(m.Status),
				"home_score":            intPtrToNullInt64(m.HomeScore),
				"away_score":            intPtrToNullInt64(m.AwayScore),
				"location":              m.Location,
				"created_at":            m.CreatedAt.UTC(),
				"updated_at":            m.UpdatedAt.UTC(),
			}); err != nil {
				return fmt.Errorf("seed match %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func execNamed(ctx context.Context, tx *sqlx.Tx, query string, arg map[string]any) error {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind named query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(bound), args...); err != nil {
		return err
	}
	return nil
}
