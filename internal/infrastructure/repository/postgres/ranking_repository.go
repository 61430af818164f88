package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type RankingRepository struct {
	db *sqlx.DB
}

func NewRankingRepository(db *sqlx.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// ListByGroup puts unranked rows (rank 0) after ranked ones.
func (r *RankingRepository) ListByGroup(ctx context.Context, groupID string) ([]ranking.Ranking, error) {
	query, args, err := qb.Select("*").From("group_rankings").
		Where(qb.Eq("group_public_id", groupID)).
		OrderBy("(rank <= 0) ASC", "rank ASC", "user_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list group rankings query: %w", err)
	}
	return r.selectRows(ctx, "list group rankings", query, args)
}

func (r *RankingRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (ranking.Ranking, bool, error) {
	query, args, err := qb.Select("*").From("group_rankings").
		Where(qb.Eq("group_public_id", groupID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return ranking.Ranking{}, false, fmt.Errorf("build get ranking query: %w", err)
	}

	var row rankingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return ranking.Ranking{}, false, nil
		}
		return ranking.Ranking{}, false, fmt.Errorf("get ranking: %w", err)
	}
	return rankingFromRow(row), true, nil
}

func (r *RankingRepository) ListByUser(ctx context.Context, userID string) ([]ranking.Ranking, error) {
	query, args, err := qb.Select("*").From("group_rankings").
		Where(qb.Eq("user_id", userID)).
		OrderBy("group_public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list user rankings query: %w", err)
	}
	return r.selectRows(ctx, "list user rankings", query, args)
}

// ReplaceGroup swaps the group's ranking rows in one transaction. Rows for users who
// are no longer members are dropped.
func (r *RankingRepository) ReplaceGroup(ctx context.Context, groupID string, rankings []ranking.Ranking) error {
	return withTx(ctx, r.db, "replace group ranking", func(tx *sqlx.Tx) error {
		query, args, err := qb.Select("user_id").From("group_members").
			Where(qb.Eq("group_public_id", groupID)).
			Suffix("FOR UPDATE").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock group members query: %w", err)
		}
		var memberIDs []string
		if err := tx.SelectContext(ctx, &memberIDs, query, args...); err != nil {
			return fmt.Errorf("lock group members: %w", err)
		}
		members := make(map[string]struct{}, len(memberIDs))
		for _, id := range memberIDs {
			members[id] = struct{}{}
		}

		query, args, err = qb.DeleteFrom("group_rankings").
			Where(qb.Eq("group_public_id", groupID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build clear group ranking query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear group ranking: %w", err)
		}

		insert := qb.InsertInto("group_rankings").Columns(
			"group_public_id", "user_id", "total_points", "total_predictions", "correct_predictions",
			"rank", "previous_rank", "points_reached_at", "last_calculated_at",
		)
		kept := 0
		for _, row := range rankings {
			if _, ok := members[row.UserID]; !ok {
				continue
			}
			insert = insert.Values(
				groupID, row.UserID, row.TotalPoints, row.TotalPredictions, row.CorrectPredictions,
				row.Rank, intPtrToNullInt64(row.PreviousRank), utcTimePtr(row.PointsReachedAt), row.LastCalculatedAt.UTC(),
			)
			kept++

			update, updateArgs, err := qb.Update("group_members").
				Set("total_points", row.TotalPoints).
				Where(qb.Eq("group_public_id", groupID), qb.Eq("user_id", row.UserID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build sync member points query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
				return fmt.Errorf("sync member points user=%s: %w", row.UserID, err)
			}
		}
		if kept == 0 {
			return nil
		}

		query, args, err = insert.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert group ranking query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert group ranking: %w", err)
		}
		return nil
	})
}

func (r *RankingRepository) selectRows(ctx context.Context, op, query string, args []any) ([]ranking.Ranking, error) {
	var rows []rankingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]ranking.Ranking, 0, len(rows))
	for _, row := range rows {
		out = append(out, rankingFromRow(row))
	}
	return out, nil
}

func rankingFromRow(row rankingTableModel) ranking.Ranking {
	return ranking.Ranking{
		GroupID:            row.GroupPublicID,
		UserID:             row.UserID,
		TotalPoints:        row.TotalPoints,
		TotalPredictions:   row.TotalPredictions,
		CorrectPredictions: row.CorrectPredictions,
		Rank:               row.Rank,
		PreviousRank:       nullInt64ToIntPtr(row.PreviousRank),
		PointsReachedAt:    utcTimePtr(row.PointsReachedAt),
		LastCalculatedAt:   row.LastCalculatedAt.UTC(),
	}
}
