package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/statistics"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/platform/cache"
	"github.com/sourcegraph/conc"
)

const defaultRecentActivityLimit = 10

type StatisticsService struct {
	access       groupAccess
	groups       group.Repository
	predictions  prediction.Repository
	rankings     ranking.Repository
	users        user.Repository
	competitions competition.Repository
	cache        *cache.Store
	recentLimit  int
	now          func() time.Time
}

func NewStatisticsService(
	groupRepo group.Repository,
	predictionRepo prediction.Repository,
	rankingRepo ranking.Repository,
	userRepo user.Repository,
	competitionRepo competition.Repository,
	store *cache.Store,
	recentLimit int,
) *StatisticsService {
	if recentLimit <= 0 {
		recentLimit = defaultRecentActivityLimit
	}
	return &StatisticsService{
		access:       groupAccess{groups: groupRepo},
		groups:       groupRepo,
		predictions:  predictionRepo,
		rankings:     rankingRepo,
		users:        userRepo,
		competitions: competitionRepo,
		cache:        store,
		recentLimit:  recentLimit,
		now:          time.Now,
	}
}

func statisticsCacheKey(groupID string) string {
	return "group-stats:" + groupID
}

func (s *StatisticsService) GetGroupStatistics(ctx context.Context, actorUserID, groupID string) (statistics.GroupStatistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.GetGroupStatistics")
	defer span.End()

	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return statistics.GroupStatistics{}, err
	}
	if _, _, err := s.access.requireViewer(ctx, g, strings.TrimSpace(actorUserID)); err != nil {
		return statistics.GroupStatistics{}, err
	}

	if s.cache == nil {
		return s.build(ctx, g)
	}
	v, err := s.cache.GetOrLoad(ctx, statisticsCacheKey(g.ID), func(ctx context.Context) (any, error) {
		return s.build(ctx, g)
	})
	if err != nil {
		return statistics.GroupStatistics{}, err
	}
	return v.(statistics.GroupStatistics), nil
}

func (s *StatisticsService) InvalidateGroup(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, statisticsCacheKey(groupID))
}

func (s *StatisticsService) build(ctx context.Context, g group.Group) (statistics.GroupStatistics, error) {
	var members []group.Member
	var rows []ranking.Ranking
	var recent []prediction.Prediction
	var totalPredictions int
	var membersErr, rowsErr, recentErr, cntErr error

	var wg conc.WaitGroup
	wg.Go(func() { members, membersErr = s.groups.ListMembers(ctx, g.ID) })
	wg.Go(func() { rows, rowsErr = s.rankings.ListByGroup(ctx, g.ID) })
	wg.Go(func() {
		recent, recentErr = s.predictions.List(ctx, prediction.Filter{GroupID: g.ID, Limit: s.recentLimit})
	})
	wg.Go(func() { totalPredictions, cntErr = s.predictions.CountByGroup(ctx, g.ID) })
	wg.Wait()

	switch {
	case membersErr != nil:
		return statistics.GroupStatistics{}, fmt.Errorf("list group members: %w", membersErr)
	case rowsErr != nil:
		return statistics.GroupStatistics{}, fmt.Errorf("list rankings: %w", rowsErr)
	case recentErr != nil:
		return statistics.GroupStatistics{}, fmt.Errorf("list recent predictions: %w", recentErr)
	case cntErr != nil:
		return statistics.GroupStatistics{}, fmt.Errorf("count predictions: %w", cntErr)
	}

	userIDs := rankingUserIDs(rows)
	for _, p := range recent {
		userIDs = append(userIDs, p.UserID)
	}
	names, err := usernames(ctx, s.users, userIDs)
	if err != nil {
		return statistics.GroupStatistics{}, err
	}
	labels, err := s.matchLabels(ctx, recent)
	if err != nil {
		return statistics.GroupStatistics{}, err
	}

	out := statistics.GroupStatistics{
		GroupID:          g.ID,
		GroupName:        g.Name,
		TotalMembers:     len(members),
		TotalPredictions: totalPredictions,
		TopPerformers:    make([]statistics.Performer, 0, len(rows)),
		RecentActivity:   make([]statistics.Activity, 0, len(recent)),
		GeneratedAt:      s.now().UTC(),
	}
	for _, row := range rows {
		out.TopPerformers = append(out.TopPerformers, statistics.Performer{
			UserID:             row.UserID,
			Username:           names[row.UserID],
			Rank:               row.Rank,
			PreviousRank:       row.PreviousRank,
			Movement:           row.Movement(),
			TotalPoints:        row.TotalPoints,
			TotalPredictions:   row.TotalPredictions,
			CorrectPredictions: row.CorrectPredictions,
			Accuracy:           statistics.Accuracy(row.CorrectPredictions, row.TotalPredictions),
		})
	}
	for _, p := range recent {
		out.RecentActivity = append(out.RecentActivity, statistics.Activity{
			PredictionID: p.ID,
			UserID:       p.UserID,
			Username:     names[p.UserID],
			MatchID:      p.MatchID,
			MatchLabel:   labels[p.MatchID],
			HomeScore:    p.HomeScore,
			AwayScore:    p.AwayScore,
			PointsEarned: p.PointsEarned,
			PredictedAt:  p.PredictedAt,
		})
	}

	return out, nil
}

// matchLabels renders "Home vs Away" per match, falling back to team ids.
func (s *StatisticsService) matchLabels(ctx context.Context, items []prediction.Prediction) (map[string]string, error) {
	out := make(map[string]string)
	if len(items) == 0 {
		return out, nil
	}

	matchIDs := make([]string, 0, len(items))
	for _, p := range items {
		matchIDs = append(matchIDs, p.MatchID)
	}
	matches, err := s.competitions.ListMatchesByIDs(ctx, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("list matches for activity: %w", err)
	}
	teamNames, err := teamNamesForMatches(ctx, s.competitions, matches)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		out[m.ID] = teamNames[m.HomeTeamID] + " vs " + teamNames[m.AwayTeamID]
	}
	for _, id := range matchIDs {
		if _, ok := out[id]; !ok {
			out[id] = id
		}
	}
	return out, nil
}

// teamNamesForMatches maps every team id of matches to its name; unknown ids map to themselves.
func teamNamesForMatches(ctx context.Context, repo competition.Repository, matches []competition.Match) (map[string]string, error) {
	teamIDs := make([]string, 0, len(matches)*2)
	for _, m := range matches {
		teamIDs = append(teamIDs, m.HomeTeamID, m.AwayTeamID)
	}
	out := make(map[string]string, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	teams, err := repo.ListTeamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range teams {
		out[t.ID] = t.Name
	}
	for _, id := range teamIDs {
		if _, ok := out[id]; !ok {
			out[id] = id
		}
	}
	return out, nil
}
