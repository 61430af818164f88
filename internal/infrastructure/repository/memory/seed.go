package memory

import (
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
)

const (
	CompetitionIDWorldCup = "fifa-world-cup-2026"
	CompetitionIDEuro     = "uefa-euro-2028"
)

func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{
			ID:          CompetitionIDWorldCup,
			Name:        "FIFA World Cup",
			Description: "48 nations across North America",
			Season:      "2026",
			StartDate:   time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 7, 19, 0, 0, 0, 0, time.UTC),
			Status:      competition.StatusOngoing,
		},
		{
			ID:        CompetitionIDEuro,
			Name:      "UEFA Euro",
			Season:    "2028",
			StartDate: time.Date(2028, 6, 9, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2028, 7, 9, 0, 0, 0, 0, time.UTC),
			Status:    competition.StatusUpcoming,
		},
	}
}

func SeedTeams() []competition.Team {
	return []competition.Team{
		{ID: "wc-arg", CompetitionID: CompetitionIDWorldCup, Name: "Argentina", ShortName: "ARG", Country: "AR"},
		{ID: "wc-bra", CompetitionID: CompetitionIDWorldCup, Name: "Brazil", ShortName: "BRA", Country: "BR"},
		{ID: "wc-fra", CompetitionID: CompetitionIDWorldCup, Name: "France", ShortName: "FRA", Country: "FR"},
		{ID: "wc-eng", CompetitionID: CompetitionIDWorldCup, Name: "England", ShortName: "ENG", Country: "GB"},
		{ID: "wc-usa", CompetitionID: CompetitionIDWorldCup, Name: "United States", ShortName: "USA", Country: "US"},
		{ID: "wc-mex", CompetitionID: CompetitionIDWorldCup, Name: "Mexico", ShortName: "MEX", Country: "MX"},
	}
}

func SeedMatches() []competition.Match {
	return []competition.Match{
		{
			ID:            "wc-m-001",
			CompetitionID: CompetitionIDWorldCup,
			HomeTeamID:    "wc-mex",
			AwayTeamID:    "wc-usa",
			ScheduledAt:   time.Date(2026, 6, 11, 19, 0, 0, 0, time.UTC),
			Status:        competition.MatchScheduled,
			Location:      "Estadio Azteca",
		},
		{
			ID:            "wc-m-002",
			CompetitionID: CompetitionIDWorldCup,
			HomeTeamID:    "wc-arg",
			AwayTeamID:    "wc-fra",
			ScheduledAt:   time.Date(2026, 6, 14, 20, 0, 0, 0, time.UTC),
			Status:        competition.MatchScheduled,
			Location:      "MetLife Stadium",
		},
		{
			ID:            "wc-m-003",
			CompetitionID: CompetitionIDWorldCup,
			HomeTeamID:    "wc-bra",
			AwayTeamID:    "wc-eng",
			ScheduledAt:   time.Date(2026, 6, 16, 22, 0, 0, 0, time.UTC),
			Status:        competition.MatchScheduled,
			Location:      "SoFi Stadium",
		},
	}
}

// Seed loads the demo competition catalog into s.
func Seed(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range SeedCompetitions() {
		s.competitions[c.ID] = c
	}
	for _, t := range SeedTeams() {
		s.teams[t.ID] = t
	}
	for _, m := range SeedMatches() {
		s.matches[m.ID] = m
	}
}
