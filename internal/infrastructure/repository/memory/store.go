package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
)

// Store holds every aggregate behind one lock so multi-aggregate writes stay atomic.
type Store struct {
	mu sync.RWMutex

	users        map[string]user.User
	competitions map[string]competition.Competition
	teams        map[string]competition.Team
	matches      map[string]competition.Match
	groups       map[string]group.Group
	members      map[string]map[string]group.Member
	rules        map[string][]rule.Rule
	predictions  map[string]prediction.Prediction
	predictionBy map[string]string
	rankings     map[string]map[string]ranking.Ranking
	invitations  map[string]invitation.Invitation
	dispatches   map[string]jobdispatch.Event
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]user.User),
		competitions: make(map[string]competition.Competition),
		teams:        make(map[string]competition.Team),
		matches:      make(map[string]competition.Match),
		groups:       make(map[string]group.Group),
		members:      make(map[string]map[string]group.Member),
		rules:        make(map[string][]rule.Rule),
		predictions:  make(map[string]prediction.Prediction),
		predictionBy: make(map[string]string),
		rankings:     make(map[string]map[string]ranking.Ranking),
		invitations:  make(map[string]invitation.Invitation),
		dispatches:   make(map[string]jobdispatch.Event),
	}
}

func predictionKey(userID, matchID, groupID string) string {
	return userID + "::" + matchID + "::" + groupID
}

func intPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func timePtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clonePrediction(p prediction.Prediction) prediction.Prediction {
	p.PointsEarned = intPtr(p.PointsEarned)
	p.ScoredAt = timePtr(p.ScoredAt)
	return p
}

func cloneMatch(m competition.Match) competition.Match {
	m.HomeScore = intPtr(m.HomeScore)
	m.AwayScore = intPtr(m.AwayScore)
	return m
}

func cloneRanking(r ranking.Ranking) ranking.Ranking {
	r.PreviousRank = intPtr(r.PreviousRank)
	r.PointsReachedAt = timePtr(r.PointsReachedAt)
	return r
}

func cloneInvitation(inv invitation.Invitation) invitation.Invitation {
	inv.RespondedAt = timePtr(inv.RespondedAt)
	return inv
}

func sortPredictionsNewestFirst(items []prediction.Prediction) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PredictedAt.Equal(items[j].PredictedAt) {
			return items[i].PredictedAt.After(items[j].PredictedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
