package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

type RecordResultInput struct {
	MatchID   string
	Status    string
	HomeScore *int
	AwayScore *int
}

type scoreDispatcher interface {
	DispatchScoreMatch(ctx context.Context, matchID string) error
}

type MatchService struct {
	competitions *CompetitionService
	repo         competition.Repository
	publisher    livescore.Publisher
	dispatcher   scoreDispatcher
	logger       *logging.Logger
	now          func() time.Time
}

func NewMatchService(
	competitions *CompetitionService,
	competitionRepo competition.Repository,
	publisher livescore.Publisher,
	dispatcher scoreDispatcher,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		competitions: competitions,
		repo:         competitionRepo,
		publisher:    publisher,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// RecordResult applies a status/score change from the result feed, publishes it to live-score
// subscribers and dispatches scoring once the match is finished.
func (s *MatchService) RecordResult(ctx context.Context, input RecordResultInput) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordResult")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	if input.MatchID == "" {
		return MatchView{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	status, ok := competition.ParseMatchStatus(input.Status)
	if !ok {
		return MatchView{}, fmt.Errorf("%w: unknown match status %q", ErrInvalidInput, input.Status)
	}

	current, exists, err := s.repo.GetMatch(ctx, input.MatchID)
	if err != nil {
		return MatchView{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return MatchView{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	if err := competition.ValidateMatchTransition(current, status, input.HomeScore, input.AwayScore); err != nil {
		return MatchView{}, mapMatchTransitionError(err)
	}

	next := current
	next.Status = status
	next.HomeScore = input.HomeScore
	next.AwayScore = input.AwayScore
	next.UpdatedAt = s.now().UTC()
	updated, err := s.repo.UpdateMatchResult(ctx, next)
	if err != nil {
		return MatchView{}, fmt.Errorf("update match result: %w", err)
	}
	if !updated {
		return MatchView{}, fmt.Errorf("%w: match=%s was finished concurrently", ErrConflict, next.ID)
	}

	view, err := s.competitions.GetMatch(ctx, next.ID)
	if err != nil {
		return MatchView{}, err
	}
	s.publish(ctx, view)

	if status == competition.MatchFinished {
		s.dispatchScoring(ctx, next.ID)
	}
	return view, nil
}

// IngestFixtures upserts a fixture batch and treats every match it finishes like a recorded
// result: subscribers get match_finished and scoring is dispatched.
func (s *MatchService) IngestFixtures(ctx context.Context, batch FixtureBatch) (IngestReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.IngestFixtures")
	defer span.End()

	report, err := s.competitions.IngestFixtures(ctx, batch)
	if err != nil {
		return report, err
	}
	for _, matchID := range report.FinishedMatchIDs {
		if view, err := s.competitions.GetMatch(ctx, matchID); err == nil {
			s.publish(ctx, view)
		}
		s.dispatchScoring(ctx, matchID)
	}
	return report, nil
}

func (s *MatchService) dispatchScoring(ctx context.Context, matchID string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchScoreMatch(ctx, matchID); err != nil {
		s.logger.ErrorContext(ctx, "dispatch match scoring failed", "match_id", matchID, "error", err)
	}
}

func (s *MatchService) publish(ctx context.Context, view MatchView) {
	if s.publisher == nil || view.HomeScore == nil || view.AwayScore == nil {
		return
	}
	eventType := livescore.EventScoreUpdate
	if view.Status == competition.MatchFinished {
		eventType = livescore.EventMatchFinished
	}
	event := livescore.Event{
		Type: eventType,
		Update: livescore.ScoreUpdate{
			MatchID:      view.ID,
			HomeScore:    *view.HomeScore,
			AwayScore:    *view.AwayScore,
			Status:       string(view.Status),
			HomeTeamName: view.HomeTeamName,
			AwayTeamName: view.AwayTeamName,
			Timestamp:    view.UpdatedAt,
		},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish live score failed", "match_id", view.ID, "error", err)
	}
}
