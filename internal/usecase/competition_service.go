package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
)

// MatchView is a match with team names and its lock state at read time.
type MatchView struct {
	competition.Match
	HomeTeamName string
	AwayTeamName string
	IsLocked     bool
}

// FixtureBatch is one ingestion payload from the result feed.
type FixtureBatch struct {
	Competitions []competition.Competition
	Teams        []competition.Team
	Matches      []competition.Match
}

type IngestReport struct {
	Competitions int `json:"competitions"`
	Teams        int `json:"teams"`
	Matches      int `json:"matches"`
	Skipped      int `json:"skipped"`
	// FinishedMatchIDs lists matches this batch moved to finished.
	FinishedMatchIDs []string `json:"finishedMatchIds,omitempty"`
}

type CompetitionService struct {
	competitions competition.Repository
	now          func() time.Time
}

func NewCompetitionService(competitionRepo competition.Repository) *CompetitionService {
	return &CompetitionService{competitions: competitionRepo, now: time.Now}
}

func (s *CompetitionService) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ListCompetitions")
	defer span.End()

	items, err := s.competitions.ListCompetitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return items, nil
}

func (s *CompetitionService) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetCompetition")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	item, exists, err := s.competitions.GetCompetition(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}
	return item, nil
}

func (s *CompetitionService) ListMatches(ctx context.Context, competitionID string) ([]MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.ListMatches")
	defer span.End()

	item, err := s.GetCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	matches, err := s.competitions.ListMatches(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return s.views(ctx, matches)
}

func (s *CompetitionService) GetMatch(ctx context.Context, matchID string) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.GetMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return MatchView{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	m, exists, err := s.competitions.GetMatch(ctx, matchID)
	if err != nil {
		return MatchView{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return MatchView{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	items, err := s.views(ctx, []competition.Match{m})
	if err != nil {
		return MatchView{}, err
	}
	return items[0], nil
}

// IngestFixtures upserts catalog data. Matches already finished are left untouched. Callers that
// need scoring for newly finished matches go through MatchService.IngestFixtures.
func (s *CompetitionService) IngestFixtures(ctx context.Context, batch FixtureBatch) (IngestReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.IngestFixtures")
	defer span.End()

	if len(batch.Competitions) == 0 && len(batch.Teams) == 0 && len(batch.Matches) == 0 {
		return IngestReport{}, fmt.Errorf("%w: fixtures payload is empty", ErrInvalidInput)
	}

	now := s.now().UTC()
	report := IngestReport{}
	for _, item := range batch.Competitions {
		item.ID = strings.TrimSpace(item.ID)
		item.Name = strings.TrimSpace(item.Name)
		if item.ID == "" || item.Name == "" {
			return report, fmt.Errorf("%w: competition id and name are required", ErrInvalidInput)
		}
		if item.Status == "" {
			item.Status = competition.StatusUpcoming
		}
		if _, ok := competition.ParseStatus(string(item.Status)); !ok {
			return report, fmt.Errorf("%w: unknown competition status %q", ErrInvalidInput, item.Status)
		}
		existing, exists, err := s.competitions.GetCompetition(ctx, item.ID)
		if err != nil {
			return report, fmt.Errorf("get competition: %w", err)
		}
		if exists {
			if err := competition.ValidateCompetitionTransition(existing.Status, item.Status); err != nil {
				return report, fmt.Errorf("%w: competition=%s: %v", ErrInvalidInput, item.ID, err)
			}
			item.CreatedAt = existing.CreatedAt
		} else {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		if err := s.competitions.UpsertCompetition(ctx, item); err != nil {
			return report, fmt.Errorf("upsert competition: %w", err)
		}
		report.Competitions++
	}

	if len(batch.Teams) > 0 {
		teams := make([]competition.Team, 0, len(batch.Teams))
		for _, t := range batch.Teams {
			t.ID = strings.TrimSpace(t.ID)
			t.CompetitionID = strings.TrimSpace(t.CompetitionID)
			t.Name = strings.TrimSpace(t.Name)
			if t.ID == "" || t.CompetitionID == "" || t.Name == "" {
				return report, fmt.Errorf("%w: team id, competition id and name are required", ErrInvalidInput)
			}
			teams = append(teams, t)
		}
		if err := s.competitions.UpsertTeams(ctx, teams); err != nil {
			return report, fmt.Errorf("upsert teams: %w", err)
		}
		report.Teams = len(teams)
	}

	matches := make([]competition.Match, 0, len(batch.Matches))
	var finished []string
	for _, m := range batch.Matches {
		m.ID = strings.TrimSpace(m.ID)
		m.CompetitionID = strings.TrimSpace(m.CompetitionID)
		m.Location = strings.TrimSpace(m.Location)
		if m.Status == "" {
			m.Status = competition.MatchScheduled
		}
		if status, ok := competition.ParseMatchStatus(string(m.Status)); ok {
			m.Status = status
		}
		if err := m.Validate(); err != nil {
			return report, fmt.Errorf("%w: match=%s: %v", ErrInvalidInput, m.ID, err)
		}

		existing, exists, err := s.competitions.GetMatch(ctx, m.ID)
		if err != nil {
			return report, fmt.Errorf("get match: %w", err)
		}
		if exists {
			if existing.Status == competition.MatchFinished {
				report.Skipped++
				continue
			}
			if err := competition.ValidateMatchTransition(existing, m.Status, m.HomeScore, m.AwayScore); err != nil {
				return report, fmt.Errorf("%w: match=%s: %v", ErrInvalidInput, m.ID, err)
			}
			m.CreatedAt = existing.CreatedAt
		} else {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		matches = append(matches, m)
		if m.Status == competition.MatchFinished {
			finished = append(finished, m.ID)
		}
	}
	if len(matches) > 0 {
		if err := s.competitions.UpsertMatches(ctx, matches); err != nil {
			return report, fmt.Errorf("upsert matches: %w", err)
		}
	}
	report.Matches = len(matches)
	report.FinishedMatchIDs = finished

	return report, nil
}

func (s *CompetitionService) views(ctx context.Context, matches []competition.Match) ([]MatchView, error) {
	names, err := teamNamesForMatches(ctx, s.competitions, matches)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchView{
			Match:        m,
			HomeTeamName: names[m.HomeTeamID],
			AwayTeamName: names[m.AwayTeamID],
			IsLocked:     m.IsLocked(now),
		})
	}
	return out, nil
}

func mapMatchTransitionError(err error) error {
	if errors.Is(err, competition.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
