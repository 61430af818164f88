package postgres

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Create(ctx context.Context, p prediction.Prediction) error {
	query, args, err := qb.InsertModel("predictions", predictionInsertModel{
		PublicID:      p.ID,
		UserID:        p.UserID,
		MatchPublicID: p.MatchID,
		GroupPublicID: p.GroupID,
		HomeScore:     p.HomeScore,
		AwayScore:     p.AwayScore,
		PredictedAt:   p.PredictedAt.UTC(),
		PointsEarned:  intPtrToNullInt64(p.PointsEarned),
		ScoredAt:      utcTimePtr(p.ScoredAt),
	}, "")
	if err != nil {
		return fmt.Errorf("build create prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return prediction.ErrDuplicate
		}
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("public_id", predictionID)).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}
	return predictionFromRow(row), true, nil
}

func (r *PredictionRepository) List(ctx context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	conds := make([]qb.Condition, 0, 3)
	if filter.GroupID != "" {
		conds = append(conds, qb.Eq("group_public_id", filter.GroupID))
	}
	if filter.MatchID != "" {
		conds = append(conds, qb.Eq("match_public_id", filter.MatchID))
	}
	if filter.UserID != "" {
		conds = append(conds, qb.Eq("user_id", filter.UserID))
	}
	return r.list(ctx, "list predictions", filter.Limit, conds...)
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	return r.list(ctx, "list predictions by match", 0, qb.Eq("match_public_id", matchID))
}

func (r *PredictionRepository) ListByGroup(ctx context.Context, groupID string) ([]prediction.Prediction, error) {
	return r.list(ctx, "list predictions by group", 0, qb.Eq("group_public_id", groupID))
}

func (r *PredictionRepository) CountByGroup(ctx context.Context, groupID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("predictions").
		Where(qb.Eq("group_public_id", groupID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count predictions query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count predictions group=%s: %w", groupID, err)
	}
	return count, nil
}

func (r *PredictionRepository) SetPointsIfUnscored(ctx context.Context, write prediction.ScoreWrite) (bool, error) {
	query, args, err := qb.Update("predictions").
		Set("points_earned", write.Points).
		Set("scored_at", write.ScoredAt.UTC()).
		Where(qb.Eq("public_id", write.PredictionID), qb.IsNull("points_earned")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build score prediction query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("score prediction id=%s: %w", write.PredictionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read score prediction rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PredictionRepository) list(ctx context.Context, op string, limit int, conds ...qb.Condition) ([]prediction.Prediction, error) {
	builder := qb.Select("*").From("predictions").
		Where(conds...).
		OrderBy("predicted_at DESC", "public_id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, predictionFromRow(row))
	}
	return out, nil
}

func predictionFromRow(row predictionTableModel) prediction.Prediction {
	return prediction.Prediction{
		ID:           row.PublicID,
		UserID:       row.UserID,
		MatchID:      row.MatchPublicID,
		GroupID:      row.GroupPublicID,
		HomeScore:    row.HomeScore,
		AwayScore:    row.AwayScore,
		PredictedAt:  row.PredictedAt.UTC(),
		PointsEarned: nullInt64ToIntPtr(row.PointsEarned),
		ScoredAt:     utcTimePtr(row.ScoredAt),
	}
}
