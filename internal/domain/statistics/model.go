package statistics

import (
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
)

// GroupStatistics is the read model behind the group dashboard.
type GroupStatistics struct {
	GroupID          string
	GroupName        string
	TotalMembers     int
	TotalPredictions int
	TopPerformers    []Performer
	RecentActivity   []Activity
	GeneratedAt      time.Time
}

type Performer struct {
	UserID             string
	Username           string
	Rank               int
	PreviousRank       *int
	Movement           ranking.Movement
	TotalPoints        int
	TotalPredictions   int
	CorrectPredictions int
	Accuracy           float64
}

type Activity struct {
	PredictionID string
	UserID       string
	Username     string
	MatchID      string
	MatchLabel   string
	HomeScore    int
	AwayScore    int
	PointsEarned *int
	PredictedAt  time.Time
}

// Accuracy is correct/total, 0 when there are no predictions.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
