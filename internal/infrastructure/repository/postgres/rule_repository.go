package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type RuleRepository struct {
	db *sqlx.DB
}

func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, item rule.Rule) error {
	query, args, err := qb.InsertModel("group_scoring_rules", ruleInsertModel{
		PublicID:      item.ID,
		GroupPublicID: item.GroupID,
		RuleType:      string(item.Type),
		Points:        item.Points,
		Description:   item.Description,
		CreatedAt:     item.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build create rule query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create rule group=%s: %w", item.GroupID, err)
	}
	return nil
}

func (r *RuleRepository) ListByGroup(ctx context.Context, groupID string) ([]rule.Rule, error) {
	return r.list(ctx, "list rules by group", qb.Eq("group_public_id", groupID))
}

func (r *RuleRepository) ListByGroups(ctx context.Context, groupIDs []string) ([]rule.Rule, error) {
	if len(groupIDs) == 0 {
		return []rule.Rule{}, nil
	}
	return r.list(ctx, "list rules by groups", qb.In("group_public_id", groupIDs))
}

// list keeps insertion order so equal-priority rules resolve the same way every run.
func (r *RuleRepository) list(ctx context.Context, op string, cond qb.Condition) ([]rule.Rule, error) {
	query, args, err := qb.Select("*").From("group_scoring_rules").
		Where(cond).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []ruleTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]rule.Rule, 0, len(rows))
	for _, row := range rows {
		out = append(out, rule.Rule{
			ID:          row.PublicID,
			GroupID:     row.GroupPublicID,
			Type:        rule.Type(row.RuleType),
			Points:      row.Points,
			Description: row.Description,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
