package memory

import (
	"context"
	"sort"

	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
)

type RankingRepository struct {
	s *Store
}

func NewRankingRepository(s *Store) *RankingRepository {
	return &RankingRepository{s: s}
}

func (r *RankingRepository) ListByGroup(_ context.Context, groupID string) ([]ranking.Ranking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]ranking.Ranking, 0, len(r.s.rankings[groupID]))
	for _, row := range r.s.rankings[groupID] {
		out = append(out, cloneRanking(row))
	}
	sortRankings(out)
	return out, nil
}

func (r *RankingRepository) GetByGroupAndUser(_ context.Context, groupID, userID string) (ranking.Ranking, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.rankings[groupID][userID]
	if !ok {
		return ranking.Ranking{}, false, nil
	}
	return cloneRanking(row), true, nil
}

func (r *RankingRepository) ListByUser(_ context.Context, userID string) ([]ranking.Ranking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]ranking.Ranking, 0)
	for _, rows := range r.s.rankings {
		if row, ok := rows[userID]; ok {
			out = append(out, cloneRanking(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

func (r *RankingRepository) ReplaceGroup(_ context.Context, groupID string, rankings []ranking.Ranking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := make(map[string]ranking.Ranking, len(rankings))
	members := r.s.members[groupID]
	for _, row := range rankings {
		member, ok := members[row.UserID]
		if !ok {
			continue
		}
		rows[row.UserID] = cloneRanking(row)
		member.TotalPoints = row.TotalPoints
		members[row.UserID] = member
	}
	r.s.rankings[groupID] = rows
	return nil
}

func sortRankings(items []ranking.Ranking) {
	sort.Slice(items, func(i, j int) bool {
		ri, rj := items[i].Rank, items[j].Rank
		if ri <= 0 || rj <= 0 {
			if ri != rj {
				return rj <= 0
			}
			return items[i].UserID < items[j].UserID
		}
		if ri != rj {
			return ri < rj
		}
		return items[i].UserID < items[j].UserID
	})
}
