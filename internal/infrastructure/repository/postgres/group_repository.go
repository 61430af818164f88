package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

const (
	constraintInviteCode  = "prediction_groups_invite_code_key"
	constraintGroupMember = "group_members_group_user_key"
)

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, g group.Group, owner group.Member) error {
	return withTx(ctx, r.db, "create group", func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertModel("prediction_groups", groupInsertModel{
			PublicID:            g.ID,
			Name:                g.Name,
			Description:         g.Description,
			OwnerUserID:         g.OwnerID,
			CompetitionPublicID: g.CompetitionID,
			Visibility:          string(g.Visibility),
			InviteCode:          g.InviteCode,
			CreatedAt:           g.CreatedAt.UTC(),
			UpdatedAt:           g.UpdatedAt.UTC(),
		}, "")
		if err != nil {
			return fmt.Errorf("build create group query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapGroupWriteError("create group", err)
		}
		return insertMemberTx(ctx, tx, owner)
	})
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (group.Group, bool, error) {
	return r.getOne(ctx, "get group by id", qb.Eq("public_id", groupID))
}

func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (group.Group, bool, error) {
	return r.getOne(ctx, "get group by invite code", qb.Eq("invite_code", code))
}

func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]group.Group, error) {
	return r.list(ctx, "list groups by user", qb.Expr(
		"public_id IN (SELECT group_public_id FROM group_members WHERE user_id = ?)", userID,
	))
}

func (r *GroupRepository) ListPublic(ctx context.Context, competitionID string) ([]group.Group, error) {
	conds := []qb.Condition{qb.Eq("visibility", string(group.VisibilityPublic))}
	if competitionID != "" {
		conds = append(conds, qb.Eq("competition_public_id", competitionID))
	}
	return r.list(ctx, "list public groups", conds...)
}

func (r *GroupRepository) ListByCompetition(ctx context.Context, competitionID string) ([]group.Group, error) {
	return r.list(ctx, "list groups by competition", qb.Eq("competition_public_id", competitionID))
}

func (r *GroupRepository) AddMember(ctx context.Context, m group.Member) error {
	return withTx(ctx, r.db, "add group member", func(tx *sqlx.Tx) error {
		return insertMemberTx(ctx, tx, m)
	})
}

func (r *GroupRepository) GetMember(ctx context.Context, groupID, userID string) (group.Member, bool, error) {
	query, args, err := qb.Select("*").From("group_members").
		Where(qb.Eq("group_public_id", groupID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return group.Member{}, false, fmt.Errorf("build get group member query: %w", err)
	}

	var row groupMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return group.Member{}, false, nil
		}
		return group.Member{}, false, fmt.Errorf("get group member: %w", err)
	}
	return memberFromRow(row), true, nil
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	query, args, err := qb.Select("*").From("group_members").
		Where(qb.Eq("group_public_id", groupID)).
		OrderBy("joined_at ASC", "user_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list group members query: %w", err)
	}

	var rows []groupMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	out := make([]group.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	removed := false
	err := withTx(ctx, r.db, "remove group member", func(tx *sqlx.Tx) error {
		query, args, err := qb.DeleteFrom("group_members").
			Where(qb.Eq("group_public_id", groupID), qb.Eq("user_id", userID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete group member query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete group member: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read group member rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}
		removed = true

		for _, table := range []string{"predictions", "group_rankings"} {
			query, args, err := qb.DeleteFrom(table).
				Where(qb.Eq("group_public_id", groupID), qb.Eq("user_id", userID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build delete member %s query: %w", table, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("delete member %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *GroupRepository) getOne(ctx context.Context, op string, cond qb.Condition) (group.Group, bool, error) {
	query, args, err := qb.Select("*").From("prediction_groups").Where(cond).ToSQL()
	if err != nil {
		return group.Group{}, false, fmt.Errorf("build %s query: %w", op, err)
	}

	var row groupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return group.Group{}, false, nil
		}
		return group.Group{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return groupFromRow(row), true, nil
}

func (r *GroupRepository) list(ctx context.Context, op string, conds ...qb.Condition) ([]group.Group, error) {
	query, args, err := qb.Select("*").From("prediction_groups").
		Where(conds...).
		OrderBy("created_at DESC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []groupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupFromRow(row))
	}
	return out, nil
}

// insertMemberTx writes the membership and its zeroed ranking row.
func insertMemberTx(ctx context.Context, tx *sqlx.Tx, m group.Member) error {
	query, args, err := qb.InsertModel("group_members", groupMemberInsertModel{
		GroupPublicID: m.GroupID,
		UserID:        m.UserID,
		Role:          string(m.Role),
		TotalPoints:   m.TotalPoints,
		JoinedAt:      m.JoinedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert group member query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapGroupWriteError("insert group member", err)
	}

	query, args, err = qb.InsertInto("group_rankings").
		Columns("group_public_id", "user_id", "last_calculated_at").
		Values(m.GroupID, m.UserID, m.JoinedAt.UTC()).
		Suffix("ON CONFLICT (group_public_id, user_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert member ranking query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert member ranking: %w", err)
	}
	return nil
}

func mapGroupWriteError(op string, err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintInviteCode:
			return group.ErrInviteCodeTaken
		case constraintGroupMember:
			return group.ErrDuplicateMember
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func groupFromRow(row groupTableModel) group.Group {
	return group.Group{
		ID:            row.PublicID,
		Name:          row.Name,
		Description:   row.Description,
		OwnerID:       row.OwnerUserID,
		CompetitionID: row.CompetitionPublicID,
		Visibility:    group.Visibility(row.Visibility),
		InviteCode:    row.InviteCode,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func memberFromRow(row groupMemberTableModel) group.Member {
	return group.Member{
		GroupID:     row.GroupPublicID,
		UserID:      row.UserID,
		Role:        group.Role(row.Role),
		JoinedAt:    row.JoinedAt.UTC(),
		TotalPoints: row.TotalPoints,
	}
}
