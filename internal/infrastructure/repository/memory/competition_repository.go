package memory

import (
	"context"
	"sort"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
)

type CompetitionRepository struct {
	s *Store
}

func NewCompetitionRepository(s *Store) *CompetitionRepository {
	return &CompetitionRepository{s: s}
}

func (r *CompetitionRepository) ListCompetitions(_ context.Context) ([]competition.Competition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.s.competitions))
	for _, c := range r.s.competitions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CompetitionRepository) GetCompetition(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.competitions[competitionID]
	return c, ok, nil
}

func (r *CompetitionRepository) UpsertCompetition(_ context.Context, c competition.Competition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.competitions[c.ID]; ok && !existing.CreatedAt.IsZero() {
		c.CreatedAt = existing.CreatedAt
	}
	r.s.competitions[c.ID] = c
	return nil
}

func (r *CompetitionRepository) ListTeams(_ context.Context, competitionID string) ([]competition.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]competition.Team, 0)
	for _, t := range r.s.teams {
		if t.CompetitionID == competitionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CompetitionRepository) ListTeamsByIDs(_ context.Context, teamIDs []string) ([]competition.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]competition.Team, 0, len(teamIDs))
	for id := range toSet(teamIDs) {
		if t, ok := r.s.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *CompetitionRepository) UpsertTeams(_ context.Context, teams []competition.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range teams {
		r.s.teams[t.ID] = t
	}
	return nil
}

func (r *CompetitionRepository) ListMatches(_ context.Context, competitionID string) ([]competition.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]competition.Match, 0)
	for _, m := range r.s.matches {
		if m.CompetitionID == competitionID {
			out = append(out, cloneMatch(m))
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *CompetitionRepository) ListMatchesByIDs(_ context.Context, matchIDs []string) ([]competition.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]competition.Match, 0, len(matchIDs))
	for id := range toSet(matchIDs) {
		if m, ok := r.s.matches[id]; ok {
			out = append(out, cloneMatch(m))
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *CompetitionRepository) GetMatch(_ context.Context, matchID string) (competition.Match, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.matches[matchID]
	if !ok {
		return competition.Match{}, false, nil
	}
	return cloneMatch(m), true, nil
}

func (r *CompetitionRepository) UpsertMatches(_ context.Context, matches []competition.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range matches {
		if existing, ok := r.s.matches[m.ID]; ok {
			if existing.Status == competition.MatchFinished {
				continue
			}
			m.CreatedAt = existing.CreatedAt
		}
		r.s.matches[m.ID] = cloneMatch(m)
	}
	return nil
}

func (r *CompetitionRepository) UpdateMatchResult(_ context.Context, m competition.Match) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.matches[m.ID]
	if !ok || existing.Status == competition.MatchFinished {
		return false, nil
	}
	existing.Status = m.Status
	existing.HomeScore = intPtr(m.HomeScore)
	existing.AwayScore = intPtr(m.AwayScore)
	existing.UpdatedAt = m.UpdatedAt
	r.s.matches[m.ID] = existing
	return true, nil
}

func sortMatches(items []competition.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduledAt.Equal(items[j].ScheduledAt) {
			return items[i].ScheduledAt.Before(items[j].ScheduledAt)
		}
		return items[i].ID < items[j].ID
	})
}
