package ranking

import (
	"sort"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
)

// Compute builds a dense 1..N ranking for members from their group predictions.
//
// Ties on totalPoints are broken by the earliest instant the member reached
// their final total (members that never scored go last), then by user id.
// previousRank carries the stored rank when it changed and is otherwise kept,
// unless reset is set.
func Compute(groupID string, memberIDs []string, predictions []prediction.Prediction, existing []Ranking, reset bool, now time.Time) []Ranking {
	byUser := make(map[string][]prediction.Prediction, len(memberIDs))
	for _, p := range predictions {
		byUser[p.UserID] = append(byUser[p.UserID], p)
	}
	stored := make(map[string]Ranking, len(existing))
	for _, r := range existing {
		stored[r.UserID] = r
	}

	out := make([]Ranking, 0, len(memberIDs))
	seen := make(map[string]struct{}, len(memberIDs))
	for _, userID := range memberIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		row := Ranking{GroupID: groupID, UserID: userID, LastCalculatedAt: now}
		row.TotalPredictions = len(byUser[userID])
		for _, p := range byUser[userID] {
			if !p.IsScored() {
				continue
			}
			row.TotalPoints += *p.PointsEarned
			if p.IsCorrect() {
				row.CorrectPredictions++
			}
		}
		row.PointsReachedAt = pointsReachedAt(byUser[userID], row.TotalPoints)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		switch {
		case a.PointsReachedAt == nil && b.PointsReachedAt != nil:
			return false
		case a.PointsReachedAt != nil && b.PointsReachedAt == nil:
			return true
		case a.PointsReachedAt != nil && !a.PointsReachedAt.Equal(*b.PointsReachedAt):
			return a.PointsReachedAt.Before(*b.PointsReachedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range out {
		out[i].Rank = i + 1
		if reset {
			continue
		}
		prev, ok := stored[out[i].UserID]
		if !ok {
			continue
		}
		if prev.Rank > 0 && prev.Rank != out[i].Rank {
			r := prev.Rank
			out[i].PreviousRank = &r
		} else if prev.PreviousRank != nil {
			r := *prev.PreviousRank
			out[i].PreviousRank = &r
		}
	}

	return out
}

// pointsReachedAt replays scored predictions in scoring order and returns when
// the running total first equalled total.
func pointsReachedAt(predictions []prediction.Prediction, total int) *time.Time {
	scored := make([]prediction.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.IsScored() && p.ScoredAt != nil {
			scored = append(scored, p)
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if !a.ScoredAt.Equal(*b.ScoredAt) {
			return a.ScoredAt.Before(*b.ScoredAt)
		}
		if !a.PredictedAt.Equal(b.PredictedAt) {
			return a.PredictedAt.Before(b.PredictedAt)
		}
		return a.ID < b.ID
	})

	running := 0
	moved := false
	for _, p := range scored {
		if *p.PointsEarned != 0 {
			moved = true
		}
		running += *p.PointsEarned
		if moved && running == total {
			at := p.ScoredAt.UTC()
			return &at
		}
	}
	return nil
}
