package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
)

type GroupRepository struct {
	s *Store
}

func NewGroupRepository(s *Store) *GroupRepository {
	return &GroupRepository{s: s}
}

func (r *GroupRepository) Create(_ context.Context, g group.Group, owner group.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.groups[g.ID]; exists {
		return fmt.Errorf("group %s already exists", g.ID)
	}
	for _, existing := range r.s.groups {
		if existing.InviteCode == g.InviteCode {
			return group.ErrInviteCodeTaken
		}
	}
	r.s.groups[g.ID] = g
	r.addMemberLocked(owner)
	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, groupID string) (group.Group, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[groupID]
	return g, ok, nil
}

func (r *GroupRepository) GetByInviteCode(_ context.Context, code string) (group.Group, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.groups {
		if g.InviteCode == code {
			return g, true, nil
		}
	}
	return group.Group{}, false, nil
}

func (r *GroupRepository) ListByUser(_ context.Context, userID string) ([]group.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]group.Group, 0)
	for groupID, members := range r.s.members {
		if _, ok := members[userID]; ok {
			out = append(out, r.s.groups[groupID])
		}
	}
	sortGroups(out)
	return out, nil
}

func (r *GroupRepository) ListPublic(_ context.Context, competitionID string) ([]group.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]group.Group, 0)
	for _, g := range r.s.groups {
		if !g.IsPublic() {
			continue
		}
		if competitionID != "" && g.CompetitionID != competitionID {
			continue
		}
		out = append(out, g)
	}
	sortGroups(out)
	return out, nil
}

func (r *GroupRepository) ListByCompetition(_ context.Context, competitionID string) ([]group.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]group.Group, 0)
	for _, g := range r.s.groups {
		if g.CompetitionID == competitionID {
			out = append(out, g)
		}
	}
	sortGroups(out)
	return out, nil
}

func (r *GroupRepository) AddMember(_ context.Context, m group.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[m.GroupID]; !ok {
		return fmt.Errorf("group %s does not exist", m.GroupID)
	}
	if _, exists := r.s.members[m.GroupID][m.UserID]; exists {
		return group.ErrDuplicateMember
	}
	r.addMemberLocked(m)
	return nil
}

func (r *GroupRepository) GetMember(_ context.Context, groupID, userID string) (group.Member, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[groupID][userID]
	return m, ok, nil
}

func (r *GroupRepository) ListMembers(_ context.Context, groupID string) ([]group.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]group.Member, 0, len(r.s.members[groupID]))
	for _, m := range r.s.members[groupID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *GroupRepository) RemoveMember(_ context.Context, groupID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[groupID][userID]; !ok {
		return false, nil
	}
	delete(r.s.members[groupID], userID)
	delete(r.s.rankings[groupID], userID)
	for id, p := range r.s.predictions {
		if p.GroupID == groupID && p.UserID == userID {
			delete(r.s.predictions, id)
			delete(r.s.predictionBy, predictionKey(p.UserID, p.MatchID, p.GroupID))
		}
	}
	return true, nil
}

func (r *GroupRepository) addMemberLocked(m group.Member) {
	if r.s.members[m.GroupID] == nil {
		r.s.members[m.GroupID] = make(map[string]group.Member)
	}
	r.s.members[m.GroupID][m.UserID] = m

	if r.s.rankings[m.GroupID] == nil {
		r.s.rankings[m.GroupID] = make(map[string]ranking.Ranking)
	}
	r.s.rankings[m.GroupID][m.UserID] = ranking.Ranking{
		GroupID:          m.GroupID,
		UserID:           m.UserID,
		LastCalculatedAt: m.JoinedAt,
	}
}

func sortGroups(items []group.Group) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
