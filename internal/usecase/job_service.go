package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const JobPathScoreMatch = "/v1/internal/jobs/score-match"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type ScoreMatchJobInput struct {
	MatchID    string
	DispatchID string
}

type RecomputeRankingsJobInput struct {
	GroupID       string
	CompetitionID string
	Reset         bool
}

type RecomputeRankingsJobResult struct {
	Groups []string `json:"groups"`
	Failed []string `json:"failed"`
}

type matchScorer interface {
	ScoreMatch(ctx context.Context, matchID string) (ScoreMatchReport, error)
}

// JobService runs background work either inline or through the job queue.
type JobService struct {
	scorer       matchScorer
	ranker       groupRecomputer
	groups       group.Repository
	queue        JobQueue
	async        bool
	dispatchRepo jobdispatch.Repository
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// NewJobService builds the job runner. A nil queue runs every job inline.
func NewJobService(
	scorer matchScorer,
	ranker groupRecomputer,
	groupRepo group.Repository,
	queue JobQueue,
	dispatchRepo jobdispatch.Repository,
	logger *logging.Logger,
) *JobService {
	async := queue != nil
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &JobService{
		scorer:       scorer,
		ranker:       ranker,
		groups:       groupRepo,
		queue:        queue,
		async:        async,
		dispatchRepo: dispatchRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// DispatchScoreMatch schedules scoring of a finished match. When the queue rejects the job
// the match is scored inline so results are never left unscored.
func (s *JobService) DispatchScoreMatch(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.DispatchScoreMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if !s.async {
		_, err := s.RunScoreMatch(ctx, ScoreMatchJobInput{MatchID: matchID})
		return err
	}

	now := s.now().UTC()
	dispatchID := dedupKey(jobdispatch.JobScoreMatch, matchID)
	payload := map[string]any{
		"matchId":    matchID,
		"dispatchId": dispatchID,
	}
	if err := s.queue.Enqueue(ctx, JobPathScoreMatch, payload, 0, dispatchID); err != nil {
		s.recordDispatchEvent(ctx, jobdispatch.Event{
			DispatchID:   dispatchID,
			JobName:      jobdispatch.JobScoreMatch,
			JobPath:      JobPathScoreMatch,
			MatchID:      matchID,
			Status:       jobdispatch.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   now,
		})
		s.logger.WarnContext(ctx, "enqueue score-match failed, scoring inline", "match_id", matchID, "error", err)
		_, runErr := s.RunScoreMatch(ctx, ScoreMatchJobInput{MatchID: matchID})
		return runErr
	}
	s.recordDispatchEvent(ctx, jobdispatch.Event{
		DispatchID: dispatchID,
		JobName:    jobdispatch.JobScoreMatch,
		JobPath:    JobPathScoreMatch,
		MatchID:    matchID,
		Status:     jobdispatch.StatusSent,
		Payload:    payload,
		OccurredAt: now,
	})
	return nil
}

func (s *JobService) RunScoreMatch(ctx context.Context, input ScoreMatchJobInput) (ScoreMatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunScoreMatch")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.DispatchID = strings.TrimSpace(input.DispatchID)
	report, err := s.scorer.ScoreMatch(ctx, input.MatchID)

	event := jobdispatch.Event{
		DispatchID: input.DispatchID,
		JobName:    jobdispatch.JobScoreMatch,
		JobPath:    JobPathScoreMatch,
		MatchID:    input.MatchID,
		Status:     jobdispatch.StatusCompleted,
		Payload: map[string]any{
			"evaluated":      report.Evaluated,
			"scored":         report.Scored,
			"already_scored": report.AlreadyScored,
			"skipped":        report.Skipped,
		},
	}
	if err != nil {
		event.Status = jobdispatch.StatusFailed
		event.ErrorMessage = err.Error()
	}
	s.recordDispatchEvent(ctx, event)

	if err != nil {
		return report, fmt.Errorf("score match=%s: %w", input.MatchID, err)
	}
	return report, nil
}

// RunRecomputeRankings recomputes one group, or every group of a competition.
func (s *JobService) RunRecomputeRankings(ctx context.Context, input RecomputeRankingsJobInput) (RecomputeRankingsJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunRecomputeRankings")
	defer span.End()

	input.GroupID = strings.TrimSpace(input.GroupID)
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)

	var groupIDs []string
	switch {
	case input.GroupID != "":
		groupIDs = []string{input.GroupID}
	case input.CompetitionID != "":
		groups, err := s.groups.ListByCompetition(ctx, input.CompetitionID)
		if err != nil {
			return RecomputeRankingsJobResult{}, fmt.Errorf("list groups for competition: %w", err)
		}
		for _, g := range groups {
			groupIDs = append(groupIDs, g.ID)
		}
	default:
		return RecomputeRankingsJobResult{}, fmt.Errorf("%w: group id or competition id is required", ErrInvalidInput)
	}

	result := RecomputeRankingsJobResult{Groups: make([]string, 0, len(groupIDs)), Failed: []string{}}
	for _, groupID := range groupIDs {
		if _, err := s.ranker.Recompute(ctx, groupID, input.Reset); err != nil {
			s.logger.WarnContext(ctx, "recompute rankings job failed", "group_id", groupID, "error", err)
			result.Failed = append(result.Failed, groupID)
			continue
		}
		result.Groups = append(result.Groups, groupID)
	}
	return result, nil
}

func dedupKey(prefix, id string) string {
	return sanitizeDedupSegment(prefix) + "-" + sanitizeDedupSegment(id)
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *JobService) recordDispatchEvent(ctx context.Context, event jobdispatch.Event) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
