package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/scoring"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"github.com/frozenbet/scoring-engine/internal/platform/resilience"
	"github.com/panjf2000/ants/v2"
)

const defaultScoringWorkers = 8

type ScoringConfig struct {
	DrawPolicy scoring.DrawPolicy
	Workers    int
}

// ScoreMatchReport summarizes one scoring batch.
type ScoreMatchReport struct {
	MatchID       string   `json:"matchId"`
	Evaluated     int      `json:"evaluated"`
	Scored        int      `json:"scored"`
	AlreadyScored int      `json:"alreadyScored"`
	Skipped       int      `json:"skipped"`
	Groups        []string `json:"groups"`
}

type groupRecomputer interface {
	Recompute(ctx context.Context, groupID string, reset bool) ([]ranking.Ranking, error)
}

type ScoringService struct {
	competitions competition.Repository
	predictions  prediction.Repository
	rules        rule.Repository
	ranker       groupRecomputer
	cfg          ScoringConfig
	logger       *logging.Logger
	flight       resilience.SingleFlight
	now          func() time.Time
}

func NewScoringService(
	competitionRepo competition.Repository,
	predictionRepo prediction.Repository,
	ruleRepo rule.Repository,
	ranker groupRecomputer,
	cfg ScoringConfig,
	logger *logging.Logger,
) *ScoringService {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultScoringWorkers
	}
	if cfg.DrawPolicy == "" {
		cfg.DrawPolicy = scoring.DrawPolicyExclusive
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		competitions: competitionRepo,
		predictions:  predictionRepo,
		rules:        ruleRepo,
		ranker:       ranker,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// ScoreMatch scores every prediction of a finished match once and recomputes the affected groups.
// Concurrent calls for one match share a single run.
func (s *ScoringService) ScoreMatch(ctx context.Context, matchID string) (ScoreMatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return ScoreMatchReport{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	v, err, _ := s.flight.Do("score-match:"+matchID, func() (any, error) {
		return s.scoreMatch(ctx, matchID)
	})
	if err != nil {
		return ScoreMatchReport{}, err
	}
	return v.(ScoreMatchReport), nil
}

func (s *ScoringService) scoreMatch(ctx context.Context, matchID string) (ScoreMatchReport, error) {
	match, exists, err := s.competitions.GetMatch(ctx, matchID)
	if err != nil {
		return ScoreMatchReport{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return ScoreMatchReport{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	home, away, ok := match.FinalScore()
	if !ok {
		return ScoreMatchReport{}, fmt.Errorf("match=%s is not finished with a final score (status=%s)", match.ID, match.Status)
	}
	actual := scoring.Score{Home: home, Away: away}

	predictions, err := s.predictions.ListByMatch(ctx, match.ID)
	if err != nil {
		return ScoreMatchReport{}, fmt.Errorf("list match predictions: %w", err)
	}

	report := ScoreMatchReport{MatchID: match.ID, Evaluated: len(predictions), Groups: []string{}}
	rulesByGroup := s.loadGroupRules(ctx, predictions)
	for groupID := range rulesByGroup {
		report.Groups = append(report.Groups, groupID)
	}
	sort.Strings(report.Groups)

	var scored, alreadyScored, skipped atomic.Int32
	scoredAt := s.now().UTC()

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return ScoreMatchReport{}, fmt.Errorf("create scoring worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, item := range predictions {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			switch s.scorePrediction(ctx, item, actual, rulesByGroup, scoredAt) {
			case scoreOutcomeScored:
				scored.Add(1)
			case scoreOutcomeAlreadyScored:
				alreadyScored.Add(1)
			default:
				skipped.Add(1)
			}
		}); err != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "submit prediction to scoring pool failed", "prediction_id", item.ID, "error", err)
			skipped.Add(1)
		}
	}
	workers.Wait()

	report.Scored = int(scored.Load())
	report.AlreadyScored = int(alreadyScored.Load())
	report.Skipped = int(skipped.Load())

	var recomputeErr error
	failedGroups := 0
	for _, groupID := range report.Groups {
		if s.ranker == nil {
			break
		}
		if _, err := s.ranker.Recompute(ctx, groupID, false); err != nil {
			s.logger.ErrorContext(ctx, "recompute rankings after scoring failed", "match_id", match.ID, "group_id", groupID, "error", err)
			failedGroups++
			if recomputeErr == nil {
				recomputeErr = err
			}
		}
	}

	s.logger.InfoContext(ctx, "match scored",
		"match_id", match.ID,
		"evaluated", report.Evaluated,
		"scored", report.Scored,
		"already_scored", report.AlreadyScored,
		"skipped", report.Skipped,
		"groups", len(report.Groups),
	)
	if recomputeErr != nil {
		return report, fmt.Errorf("recompute rankings for %d groups: %w", failedGroups, recomputeErr)
	}
	return report, nil
}

type scoreOutcome int

const (
	scoreOutcomeSkipped scoreOutcome = iota
	scoreOutcomeScored
	scoreOutcomeAlreadyScored
)

func (s *ScoringService) scorePrediction(
	ctx context.Context,
	item prediction.Prediction,
	actual scoring.Score,
	rulesByGroup map[string][]rule.Rule,
	scoredAt time.Time,
) scoreOutcome {
	if item.IsScored() {
		return scoreOutcomeAlreadyScored
	}
	rules, ok := rulesByGroup[item.GroupID]
	if !ok || rules == nil {
		s.logger.WarnContext(ctx, "skip prediction without group rules", "prediction_id", item.ID, "group_id", item.GroupID)
		return scoreOutcomeSkipped
	}

	result, err := scoring.Evaluate(scoring.Score{Home: item.HomeScore, Away: item.AwayScore}, actual, rules, s.cfg.DrawPolicy)
	if err != nil {
		s.logger.WarnContext(ctx, "skip malformed prediction", "prediction_id", item.ID, "error", err)
		return scoreOutcomeSkipped
	}

	written, err := s.predictions.SetPointsIfUnscored(ctx, prediction.ScoreWrite{
		PredictionID: item.ID,
		Points:       result.Points,
		ScoredAt:     scoredAt,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "write prediction points failed", "prediction_id", item.ID, "error", err)
		return scoreOutcomeSkipped
	}
	if !written {
		return scoreOutcomeAlreadyScored
	}
	return scoreOutcomeScored
}

// loadGroupRules loads each group's rules once. Groups whose rules fail to load map to nil.
func (s *ScoringService) loadGroupRules(ctx context.Context, predictions []prediction.Prediction) map[string][]rule.Rule {
	out := make(map[string][]rule.Rule)
	for _, item := range predictions {
		if _, seen := out[item.GroupID]; seen {
			continue
		}
		rules, err := s.rules.ListByGroup(ctx, item.GroupID)
		if err != nil {
			s.logger.ErrorContext(ctx, "load group rules failed", "group_id", item.GroupID, "error", err)
			out[item.GroupID] = nil
			continue
		}
		if rules == nil {
			rules = []rule.Rule{}
		}
		out[item.GroupID] = rules
	}
	return out
}
