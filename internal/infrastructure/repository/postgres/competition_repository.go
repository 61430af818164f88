package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	query, args, err := qb.Select("*").From("competitions").
		OrderBy("start_date ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competitions query: %w", err)
	}

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, competitionFromRow(row))
	}
	return out, nil
}

func (r *CompetitionRepository) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(qb.Eq("public_id", competitionID)).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition: %w", err)
	}
	return competitionFromRow(row), true, nil
}

func (r *CompetitionRepository) UpsertCompetition(ctx context.Context, c competition.Competition) error {
	query, args, err := qb.InsertModel("competitions", competitionInsertModel{
		PublicID:    c.ID,
		Name:        c.Name,
		Description: c.Description,
		Season:      c.Season,
		StartDate:   c.StartDate.UTC(),
		EndDate:     c.EndDate.UTC(),
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}, `ON CONFLICT (public_id)
DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	season = EXCLUDED.season,
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	status = EXCLUDED.status,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert competition query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert competition id=%s: %w", c.ID, err)
	}
	return nil
}

func (r *CompetitionRepository) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	return r.listTeams(ctx, "list teams", qb.Eq("competition_public_id", competitionID))
}

func (r *CompetitionRepository) ListTeamsByIDs(ctx context.Context, teamIDs []string) ([]competition.Team, error) {
	if len(teamIDs) == 0 {
		return []competition.Team{}, nil
	}
	return r.listTeams(ctx, "list teams by ids", qb.In("public_id", teamIDs))
}

func (r *CompetitionRepository) listTeams(ctx context.Context, op string, cond qb.Condition) ([]competition.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(cond).
		OrderBy("name ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []competitionTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]competition.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, competition.Team{
			ID:            row.PublicID,
			CompetitionID: row.CompetitionPublicID,
			Name:          row.Name,
			ShortName:     row.ShortName,
			LogoURL:       row.LogoURL,
			Country:       row.Country,
		})
	}
	return out, nil
}

func (r *CompetitionRepository) UpsertTeams(ctx context.Context, teams []competition.Team) error {
	if len(teams) == 0 {
		return nil
	}

	now := time.Now().UTC()
	insert := qb.InsertInto("teams").Columns(
		"public_id", "competition_public_id", "name", "short_name", "logo_url", "country", "created_at", "updated_at",
	)
	for _, t := range teams {
		insert = insert.Values(t.ID, t.CompetitionID, t.Name, t.ShortName, t.LogoURL, t.Country, now, now)
	}
	query, args, err := insert.Suffix(`ON CONFLICT (public_id)
DO UPDATE SET
	competition_public_id = EXCLUDED.competition_public_id,
	name = EXCLUDED.name,
	short_name = EXCLUDED.short_name,
	logo_url = EXCLUDED.logo_url,
	country = EXCLUDED.country,
	updated_at = EXCLUDED.updated_at`).ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert teams query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}
	return nil
}

func (r *CompetitionRepository) ListMatches(ctx context.Context, competitionID string) ([]competition.Match, error) {
	return r.listMatches(ctx, "list matches", qb.Eq("competition_public_id", competitionID))
}

func (r *CompetitionRepository) ListMatchesByIDs(ctx context.Context, matchIDs []string) ([]competition.Match, error) {
	if len(matchIDs) == 0 {
		return []competition.Match{}, nil
	}
	return r.listMatches(ctx, "list matches by ids", qb.In("public_id", matchIDs))
}

func (r *CompetitionRepository) listMatches(ctx context.Context, op string, cond qb.Condition) ([]competition.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(cond).
		OrderBy("scheduled_at ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]competition.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *CompetitionRepository) GetMatch(ctx context.Context, matchID string) (competition.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return competition.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Match{}, false, nil
		}
		return competition.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return matchFromRow(row), true, nil
}

// UpsertMatches leaves finished matches untouched so a late feed cannot rewrite a final score.
func (r *CompetitionRepository) UpsertMatches(ctx context.Context, matches []competition.Match) error {
	if len(matches) == 0 {
		return nil
	}

	insert := qb.InsertInto("matches").Columns(
		"public_id", "competition_public_id", "home_team_public_id", "away_team_public_id",
		"scheduled_at", "status", "home_score", "away_score", "location", "created_at", "updated_at",
	)
	for _, m := range matches {
		insert = insert.Values(
			m.ID, m.CompetitionID, m.HomeTeamID, m.AwayTeamID,
			m.ScheduledAt.UTC(), string(m.Status),
			intPtrToNullInt64(m.HomeScore), intPtrToNullInt64(m.AwayScore),
			m.Location, m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
		)
	}
	query, args, err := insert.Suffix(`ON CONFLICT (public_id)
DO UPDATE SET
	competition_public_id = EXCLUDED.competition_public_id,
	home_team_public_id = EXCLUDED.home_team_public_id,
	away_team_public_id = EXCLUDED.away_team_public_id,
	scheduled_at = EXCLUDED.scheduled_at,
	status = EXCLUDED.status,
	home_score = EXCLUDED.home_score,
	away_score = EXCLUDED.away_score,
	location = EXCLUDED.location,
	updated_at = EXCLUDED.updated_at
WHERE matches.status <> 'finished'`).ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert matches: %w", err)
	}
	return nil
}

func (r *CompetitionRepository) UpdateMatchResult(ctx context.Context, m competition.Match) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("status", string(m.Status)).
		Set("home_score", intPtrToNullInt64(m.HomeScore)).
		Set("away_score", intPtrToNullInt64(m.AwayScore)).
		Set("updated_at", m.UpdatedAt.UTC()).
		Where(
			qb.Eq("public_id", m.ID),
			qb.NotEq("status", string(competition.MatchFinished)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update match result query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update match result id=%s: %w", m.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read match result rows affected: %w", err)
	}
	return affected > 0, nil
}

func competitionFromRow(row competitionTableModel) competition.Competition {
	return competition.Competition{
		ID:          row.PublicID,
		Name:        row.Name,
		Description: row.Description,
		Season:      row.Season,
		StartDate:   row.StartDate.UTC(),
		EndDate:     row.EndDate.UTC(),
		Status:      competition.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func matchFromRow(row matchTableModel) competition.Match {
	return competition.Match{
		ID:            row.PublicID,
		CompetitionID: row.CompetitionPublicID,
		HomeTeamID:    row.HomeTeamPublicID,
		AwayTeamID:    row.AwayTeamPublicID,
		ScheduledAt:   row.ScheduledAt.UTC(),
		Status:        competition.MatchStatus(row.Status),
		HomeScore:     nullInt64ToIntPtr(row.HomeScore),
		AwayScore:     nullInt64ToIntPtr(row.AwayScore),
		Location:      row.Location,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
