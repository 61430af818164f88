package memory

import (
	"context"
	"fmt"

	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
)

type PredictionRepository struct {
	s *Store
}

func NewPredictionRepository(s *Store) *PredictionRepository {
	return &PredictionRepository{s: s}
}

func (r *PredictionRepository) Create(_ context.Context, p prediction.Prediction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := predictionKey(p.UserID, p.MatchID, p.GroupID)
	if _, exists := r.s.predictionBy[key]; exists {
		return fmt.Errorf("%w: user=%s match=%s group=%s", prediction.ErrDuplicate, p.UserID, p.MatchID, p.GroupID)
	}
	if _, exists := r.s.predictions[p.ID]; exists {
		return fmt.Errorf("%w: id=%s", prediction.ErrDuplicate, p.ID)
	}
	r.s.predictions[p.ID] = clonePrediction(p)
	r.s.predictionBy[key] = p.ID
	return nil
}

func (r *PredictionRepository) GetByID(_ context.Context, predictionID string) (prediction.Prediction, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.predictions[predictionID]
	if !ok {
		return prediction.Prediction{}, false, nil
	}
	return clonePrediction(p), true, nil
}

func (r *PredictionRepository) List(_ context.Context, filter prediction.Filter) ([]prediction.Prediction, error) {
	out := r.collect(func(p prediction.Prediction) bool {
		return (filter.GroupID == "" || p.GroupID == filter.GroupID) &&
			(filter.MatchID == "" || p.MatchID == filter.MatchID) &&
			(filter.UserID == "" || p.UserID == filter.UserID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	return r.collect(func(p prediction.Prediction) bool { return p.MatchID == matchID }), nil
}

func (r *PredictionRepository) ListByGroup(_ context.Context, groupID string) ([]prediction.Prediction, error) {
	return r.collect(func(p prediction.Prediction) bool { return p.GroupID == groupID }), nil
}

func (r *PredictionRepository) CountByGroup(_ context.Context, groupID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, p := range r.s.predictions {
		if p.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (r *PredictionRepository) SetPointsIfUnscored(_ context.Context, write prediction.ScoreWrite) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.predictions[write.PredictionID]
	if !ok || p.PointsEarned != nil {
		return false, nil
	}
	points := write.Points
	scoredAt := write.ScoredAt.UTC()
	p.PointsEarned = &points
	p.ScoredAt = &scoredAt
	r.s.predictions[p.ID] = p
	return true, nil
}

func (r *PredictionRepository) collect(keep func(prediction.Prediction) bool) []prediction.Prediction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, p := range r.s.predictions {
		if keep(p) {
			out = append(out, clonePrediction(p))
		}
	}
	sortPredictionsNewestFirst(out)
	return out
}
