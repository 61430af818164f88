package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
)

const (
	defaultPredictionListLimit = 50
	maxPredictionListLimit     = 200
)

type SubmitPredictionInput struct {
	UserID    string
	MatchID   string
	GroupID   string
	HomeScore int
	AwayScore int
}

type ListPredictionsInput struct {
	ActorUserID string
	GroupID     string
	MatchID     string
	UserID      string
	Limit       int
}

// PredictionView is a stored prediction with its lock state at read time.
type PredictionView struct {
	prediction.Prediction
	IsLocked bool
}

type PredictionService struct {
	access       groupAccess
	competitions competition.Repository
	predictions  prediction.Repository
	idGen        idgen.Generator
	invalidator  groupCacheInvalidator
	now          func() time.Time
}

func NewPredictionService(
	groupRepo group.Repository,
	competitionRepo competition.Repository,
	predictionRepo prediction.Repository,
	idGen idgen.Generator,
	invalidator groupCacheInvalidator,
) *PredictionService {
	return &PredictionService{
		access:       groupAccess{groups: groupRepo},
		competitions: competitionRepo,
		predictions:  predictionRepo,
		idGen:        idGen,
		invalidator:  invalidator,
		now:          time.Now,
	}
}

func (s *PredictionService) Submit(ctx context.Context, input SubmitPredictionInput) (PredictionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.MatchID = strings.TrimSpace(input.MatchID)
	input.GroupID = strings.TrimSpace(input.GroupID)
	switch {
	case input.UserID == "":
		return PredictionView{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case input.MatchID == "":
		return PredictionView{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	case input.GroupID == "":
		return PredictionView{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	case input.HomeScore < 0 || input.AwayScore < 0:
		return PredictionView{}, fmt.Errorf("%w: predicted scores must be non-negative", ErrInvalidInput)
	}

	g, err := s.access.load(ctx, input.GroupID)
	if err != nil {
		return PredictionView{}, err
	}

	match, exists, err := s.competitions.GetMatch(ctx, input.MatchID)
	if err != nil {
		return PredictionView{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return PredictionView{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	if match.CompetitionID != g.CompetitionID {
		return PredictionView{}, fmt.Errorf("%w: match=%s is not part of the group competition", ErrInvalidInput, match.ID)
	}

	if _, err := s.access.requireMember(ctx, g, input.UserID); err != nil {
		return PredictionView{}, err
	}

	now := s.now().UTC()
	if match.IsLocked(now) {
		return PredictionView{}, fmt.Errorf("%w: match=%s kicked off at %s", ErrAlreadyLocked, match.ID, match.ScheduledAt.UTC().Format(time.RFC3339))
	}

	predictionID, err := s.idGen.NewID()
	if err != nil {
		return PredictionView{}, fmt.Errorf("generate prediction id: %w", err)
	}
	item := prediction.Prediction{
		ID:          predictionID,
		UserID:      input.UserID,
		MatchID:     match.ID,
		GroupID:     g.ID,
		HomeScore:   input.HomeScore,
		AwayScore:   input.AwayScore,
		PredictedAt: now,
	}
	if err := s.predictions.Create(ctx, item); err != nil {
		if errors.Is(err, prediction.ErrDuplicate) || isDuplicateConstraintError(err) {
			return PredictionView{}, fmt.Errorf("%w: user=%s match=%s group=%s", ErrDuplicatePrediction, item.UserID, item.MatchID, item.GroupID)
		}
		return PredictionView{}, fmt.Errorf("create prediction: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateGroup(ctx, g.ID)
	}

	return PredictionView{Prediction: item, IsLocked: false}, nil
}

// List returns predictions newest first. Without a group filter only the caller's own predictions are visible.
func (s *PredictionService) List(ctx context.Context, input ListPredictionsInput) ([]PredictionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.List")
	defer span.End()

	input.ActorUserID = strings.TrimSpace(input.ActorUserID)
	input.GroupID = strings.TrimSpace(input.GroupID)
	input.MatchID = strings.TrimSpace(input.MatchID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.ActorUserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0", ErrInvalidInput)
	}
	if input.Limit == 0 {
		input.Limit = defaultPredictionListLimit
	}
	if input.Limit > maxPredictionListLimit {
		input.Limit = maxPredictionListLimit
	}

	filter := prediction.Filter{
		GroupID: input.GroupID,
		MatchID: input.MatchID,
		UserID:  input.UserID,
		Limit:   input.Limit,
	}
	if input.GroupID != "" {
		g, err := s.access.load(ctx, input.GroupID)
		if err != nil {
			return nil, err
		}
		if _, _, err := s.access.requireViewer(ctx, g, input.ActorUserID); err != nil {
			return nil, err
		}
	} else {
		if input.UserID != "" && input.UserID != input.ActorUserID {
			return nil, fmt.Errorf("%w: group id is required to list another user's predictions", ErrForbidden)
		}
		filter.UserID = input.ActorUserID
	}

	items, err := s.predictions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	return s.withLockState(ctx, items)
}

func (s *PredictionService) withLockState(ctx context.Context, items []prediction.Prediction) ([]PredictionView, error) {
	matchIDs := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.MatchID]; ok {
			continue
		}
		seen[item.MatchID] = struct{}{}
		matchIDs = append(matchIDs, item.MatchID)
	}

	matchByID := make(map[string]competition.Match, len(matchIDs))
	if len(matchIDs) > 0 {
		matches, err := s.competitions.ListMatchesByIDs(ctx, matchIDs)
		if err != nil {
			return nil, fmt.Errorf("list matches for predictions: %w", err)
		}
		for _, m := range matches {
			matchByID[m.ID] = m
		}
	}

	now := s.now().UTC()
	out := make([]PredictionView, 0, len(items))
	for _, item := range items {
		locked := true
		if m, ok := matchByID[item.MatchID]; ok {
			locked = m.IsLocked(now)
		}
		out = append(out, PredictionView{Prediction: item, IsLocked: locked})
	}
	return out, nil
}
