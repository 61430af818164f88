package prediction

import "context"

type Repository interface {
	// Create fails with ErrDuplicate when (user, match, group) already has a prediction.
	Create(ctx context.Context, p Prediction) error
	GetByID(ctx context.Context, predictionID string) (Prediction, bool, error)
	// List returns matches of filter ordered by predictedAt desc.
	List(ctx context.Context, filter Filter) ([]Prediction, error)
	ListByMatch(ctx context.Context, matchID string) ([]Prediction, error)
	ListByGroup(ctx context.Context, groupID string) ([]Prediction, error)
	CountByGroup(ctx context.Context, groupID string) (int, error)
	// SetPointsIfUnscored writes points only while pointsEarned is null and reports whether it did.
	SetPointsIfUnscored(ctx context.Context, write ScoreWrite) (bool, error)
}
