package ranking

import "time"

type Movement string

const (
	MovementUp   Movement = "up"
	MovementDown Movement = "down"
	MovementSame Movement = "same"
	MovementNew  Movement = "new"
)

// Ranking is a member's standing inside one group.
type Ranking struct {
	GroupID            string
	UserID             string
	TotalPoints        int
	TotalPredictions   int
	CorrectPredictions int
	Rank               int
	PreviousRank       *int
	PointsReachedAt    *time.Time
	LastCalculatedAt   time.Time
}

func (r Ranking) Movement() Movement {
	return ResolveMovement(r.Rank, r.PreviousRank)
}

func ResolveMovement(rank int, previousRank *int) Movement {
	if previousRank == nil || *previousRank <= 0 || rank <= 0 {
		return MovementNew
	}
	switch {
	case rank < *previousRank:
		return MovementUp
	case rank > *previousRank:
		return MovementDown
	default:
		return MovementSame
	}
}
