package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	basecache "github.com/frozenbet/scoring-engine/internal/platform/cache"
)

const (
	competitionKeyPrefix = "competition:"
	teamKeyPrefix        = "team:"
)

// CompetitionRepository caches competition and team reads. Matches are never cached since
// their status and score drive prediction locking.
type CompetitionRepository struct {
	next  competition.Repository
	cache *basecache.Store
}

func NewCompetitionRepository(next competition.Repository, cache *basecache.Store) *CompetitionRepository {
	return &CompetitionRepository{next: next, cache: cache}
}

func (r *CompetitionRepository) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	v, err := r.cache.GetOrLoad(ctx, competitionKeyPrefix+"list", func(ctx context.Context) (any, error) {
		items, err := r.next.ListCompetitions(ctx)
		if err != nil {
			return nil, err
		}
		return append([]competition.Competition(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Competition)
	return append([]competition.Competition(nil), items...), nil
}

func (r *CompetitionRepository) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	key := competitionKeyPrefix + "id:" + competitionID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetCompetition(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return cachedCompetitionByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	cached, _ := v.(cachedCompetitionByID)
	return cached.value, cached.exists, nil
}

type cachedCompetitionByID struct {
	value  competition.Competition
	exists bool
}

func (r *CompetitionRepository) UpsertCompetition(ctx context.Context, c competition.Competition) error {
	if err := r.next.UpsertCompetition(ctx, c); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, competitionKeyPrefix)
	return nil
}

func (r *CompetitionRepository) ListTeams(ctx context.Context, competitionID string) ([]competition.Team, error) {
	key := teamKeyPrefix + "competition:" + competitionID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListTeams(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]competition.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Team)
	return append([]competition.Team(nil), items...), nil
}

func (r *CompetitionRepository) ListTeamsByIDs(ctx context.Context, teamIDs []string) ([]competition.Team, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	v, err := r.cache.GetOrLoad(ctx, teamKeyPrefix+"ids:"+normalizeIDsKey(teamIDs), func(ctx context.Context) (any, error) {
		items, err := r.next.ListTeamsByIDs(ctx, teamIDs)
		if err != nil {
			return nil, err
		}
		return append([]competition.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Team)
	return append([]competition.Team(nil), items...), nil
}

func (r *CompetitionRepository) UpsertTeams(ctx context.Context, teams []competition.Team) error {
	if err := r.next.UpsertTeams(ctx, teams); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, teamKeyPrefix)
	return nil
}

func (r *CompetitionRepository) ListMatches(ctx context.Context, competitionID string) ([]competition.Match, error) {
	return r.next.ListMatches(ctx, competitionID)
}

func (r *CompetitionRepository) ListMatchesByIDs(ctx context.Context, matchIDs []string) ([]competition.Match, error) {
	return r.next.ListMatchesByIDs(ctx, matchIDs)
}

func (r *CompetitionRepository) GetMatch(ctx context.Context, matchID string) (competition.Match, bool, error) {
	return r.next.GetMatch(ctx, matchID)
}

func (r *CompetitionRepository) UpsertMatches(ctx context.Context, matches []competition.Match) error {
	return r.next.UpsertMatches(ctx, matches)
}

func (r *CompetitionRepository) UpdateMatchResult(ctx context.Context, m competition.Match) (bool, error) {
	return r.next.UpdateMatchResult(ctx, m)
}

func normalizeIDsKey(ids []string) string {
	if len(ids) == 0 {
		return ""
	}

	normalized := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	sort.Strings(normalized)

	return strings.Join(normalized, ",")
}
