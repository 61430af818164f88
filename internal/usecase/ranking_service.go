package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/platform/resilience"
)

// RankingView is a ranking row with the member's display data.
type RankingView struct {
	ranking.Ranking
	Username string
	Movement ranking.Movement
}

type groupCacheInvalidator interface {
	InvalidateGroup(ctx context.Context, groupID string)
}

type RankingService struct {
	access      groupAccess
	groups      group.Repository
	predictions prediction.Repository
	rankings    ranking.Repository
	users       user.Repository
	invalidator groupCacheInvalidator
	locks       resilience.KeyedMutex
	now         func() time.Time
}

func NewRankingService(
	groupRepo group.Repository,
	predictionRepo prediction.Repository,
	rankingRepo ranking.Repository,
	userRepo user.Repository,
	invalidator groupCacheInvalidator,
) *RankingService {
	return &RankingService{
		access:      groupAccess{groups: groupRepo},
		groups:      groupRepo,
		predictions: predictionRepo,
		rankings:    rankingRepo,
		users:       userRepo,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// Recompute rebuilds the ranking of one group. Calls for the same group are serialized.
func (s *RankingService) Recompute(ctx context.Context, groupID string, reset bool) ([]ranking.Ranking, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Recompute")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	predictions, err := s.predictions.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group predictions: %w", err)
	}
	existing, err := s.rankings.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list stored rankings: %w", err)
	}

	rows := ranking.Compute(groupID, memberIDs, predictions, existing, reset, s.now().UTC())
	if err := s.rankings.ReplaceGroup(ctx, groupID, rows); err != nil {
		return nil, fmt.Errorf("store rankings: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateGroup(ctx, groupID)
	}

	return rows, nil
}

// Refresh lets a group owner or admin trigger a recompute.
func (s *RankingService) Refresh(ctx context.Context, actorUserID, groupID string, reset bool) ([]RankingView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.Refresh")
	defer span.End()

	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.requireManager(ctx, g, strings.TrimSpace(actorUserID)); err != nil {
		return nil, err
	}

	rows, err := s.Recompute(ctx, g.ID, reset)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, rows)
}

func (s *RankingService) ListRankings(ctx context.Context, actorUserID, groupID string) ([]RankingView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.ListRankings")
	defer span.End()

	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.access.requireViewer(ctx, g, strings.TrimSpace(actorUserID)); err != nil {
		return nil, err
	}

	rows, err := s.rankings.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	return s.decorate(ctx, rows)
}

func (s *RankingService) decorate(ctx context.Context, rows []ranking.Ranking) ([]RankingView, error) {
	names, err := usernames(ctx, s.users, rankingUserIDs(rows))
	if err != nil {
		return nil, err
	}

	out := make([]RankingView, 0, len(rows))
	for _, row := range rows {
		out = append(out, RankingView{
			Ranking:  row,
			Username: names[row.UserID],
			Movement: row.Movement(),
		})
	}
	return out, nil
}

func rankingUserIDs(rows []ranking.Ranking) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.UserID)
	}
	return out
}

// usernames maps user ids to usernames; unknown ids map to themselves.
func usernames(ctx context.Context, repo user.Repository, userIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 || repo == nil {
		return out, nil
	}
	users, err := repo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	for _, id := range userIDs {
		if _, ok := out[id]; !ok {
			out[id] = id
		}
	}
	return out, nil
}
