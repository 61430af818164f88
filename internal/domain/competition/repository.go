package competition

import "context"

// Repository exposes competitions, their teams and matches.
type Repository interface {
	ListCompetitions(ctx context.Context) ([]Competition, error)
	GetCompetition(ctx context.Context, competitionID string) (Competition, bool, error)
	UpsertCompetition(ctx context.Context, c Competition) error

	ListTeams(ctx context.Context, competitionID string) ([]Team, error)
	ListTeamsByIDs(ctx context.Context, teamIDs []string) ([]Team, error)
	UpsertTeams(ctx context.Context, teams []Team) error

	ListMatches(ctx context.Context, competitionID string) ([]Match, error)
	ListMatchesByIDs(ctx context.Context, matchIDs []string) ([]Match, error)
	GetMatch(ctx context.Context, matchID string) (Match, bool, error)
	UpsertMatches(ctx context.Context, matches []Match) error
	// UpdateMatchResult writes status and score unless the stored match is already finished.
	UpdateMatchResult(ctx context.Context, m Match) (bool, error)
}
