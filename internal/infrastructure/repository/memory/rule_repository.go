package memory

import (
	"context"

	"github.com/frozenbet/scoring-engine/internal/domain/rule"
)

type RuleRepository struct {
	s *Store
}

func NewRuleRepository(s *Store) *RuleRepository {
	return &RuleRepository{s: s}
}

func (r *RuleRepository) Create(_ context.Context, item rule.Rule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.rules[item.GroupID] = append(r.s.rules[item.GroupID], item)
	return nil
}

func (r *RuleRepository) ListByGroup(_ context.Context, groupID string) ([]rule.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]rule.Rule(nil), r.s.rules[groupID]...), nil
}

func (r *RuleRepository) ListByGroups(_ context.Context, groupIDs []string) ([]rule.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]rule.Rule, 0)
	for groupID := range toSet(groupIDs) {
		out = append(out, r.s.rules[groupID]...)
	}
	return out, nil
}
