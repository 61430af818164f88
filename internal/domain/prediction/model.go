package prediction

import (
	"errors"
	"time"
)

var ErrDuplicate = errors.New("prediction already exists")

// Prediction is one user's forecast of a match inside a group.
type Prediction struct {
	ID           string
	UserID       string
	MatchID      string
	GroupID      string
	HomeScore    int
	AwayScore    int
	PredictedAt  time.Time
	PointsEarned *int
	ScoredAt     *time.Time
}

func (p Prediction) IsScored() bool {
	return p.PointsEarned != nil
}

// IsCorrect counts toward correctPredictions: scored with a positive award.
func (p Prediction) IsCorrect() bool {
	return p.PointsEarned != nil && *p.PointsEarned > 0
}

type Filter struct {
	GroupID string
	MatchID string
	UserID  string
	Limit   int
}

// ScoreWrite is one conditional points assignment.
type ScoreWrite struct {
	PredictionID string
	Points       int
	ScoredAt     time.Time
}
