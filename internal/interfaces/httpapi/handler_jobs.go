package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/usecase"
)

func (h *Handler) IngestFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestFixtures")
	defer span.End()

	var req ingestFixturesRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	batch, err := fixtureBatchFromRequest(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.matchService.IngestFixtures(ctx, batch)
	if err != nil {
		h.logger.WarnContext(ctx, "ingest fixtures failed", "competitions", len(req.Competitions), "teams", len(req.Teams), "matches", len(req.Matches), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "fixtures ingested",
		"competitions", report.Competitions,
		"teams", report.Teams,
		"matches", report.Matches,
		"skipped", report.Skipped,
		"finished", len(report.FinishedMatchIDs),
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RecordMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatchResult")
	defer span.End()

	var req recordResultRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	view, err := h.matchService.RecordResult(ctx, usecase.RecordResultInput{
		MatchID:   matchID,
		Status:    req.Status,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record match result failed", "match_id", matchID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(view))
}

func (h *Handler) RunScoreMatchJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScoreMatchJob")
	defer span.End()

	if h.jobService == nil {
		writeError(ctx, w, fmt.Errorf("%w: job service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req scoreMatchJobRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.DispatchID == "" {
		req.DispatchID = strings.TrimSpace(r.Header.Get("Upstash-Message-Id"))
	}

	report, err := h.jobService.RunScoreMatch(ctx, usecase.ScoreMatchJobInput{
		MatchID:    req.MatchID,
		DispatchID: req.DispatchID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run score-match job failed", "match_id", req.MatchID, "dispatch_id", req.DispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunRecomputeRankingsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecomputeRankingsJob")
	defer span.End()

	if h.jobService == nil {
		writeError(ctx, w, fmt.Errorf("%w: job service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req recomputeRankingsJobRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobService.RunRecomputeRankings(ctx, usecase.RecomputeRankingsJobInput{
		GroupID:       req.GroupID,
		CompetitionID: req.CompetitionID,
		Reset:         req.Reset,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run recompute-rankings job failed", "group_id", req.GroupID, "competition_id", req.CompetitionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if len(result.Failed) > 0 {
		h.logger.WarnContext(ctx, "recompute-rankings job finished with failures", "failed", result.Failed)
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func fixtureBatchFromRequest(ctx context.Context, req ingestFixturesRequest) (usecase.FixtureBatch, error) {
	_, span := startSpan(ctx, "httpapi.fixtureBatchFromRequest")
	defer span.End()

	batch := usecase.FixtureBatch{
		Competitions: make([]competition.Competition, 0, len(req.Competitions)),
		Teams:        make([]competition.Team, 0, len(req.Teams)),
		Matches:      make([]competition.Match, 0, len(req.Matches)),
	}
	for _, item := range req.Competitions {
		startDate, err := parseTimestamp(item.StartDate, "startDate")
		if err != nil {
			return usecase.FixtureBatch{}, err
		}
		endDate, err := parseTimestamp(item.EndDate, "endDate")
		if err != nil {
			return usecase.FixtureBatch{}, err
		}
		if endDate.Before(startDate) {
			return usecase.FixtureBatch{}, fmt.Errorf("%w: competition=%s ends before it starts", usecase.ErrInvalidInput, item.ID)
		}
		batch.Competitions = append(batch.Competitions, competition.Competition{
			ID:          item.ID,
			Name:        item.Name,
			Description: strings.TrimSpace(item.Description),
			Season:      strings.TrimSpace(item.Season),
			StartDate:   startDate,
			EndDate:     endDate,
			Status:      competition.Status(strings.ToLower(strings.TrimSpace(item.Status))),
		})
	}
	for _, item := range req.Teams {
		batch.Teams = append(batch.Teams, competition.Team{
			ID:            item.ID,
			CompetitionID: item.CompetitionID,
			Name:          item.Name,
			ShortName:     strings.TrimSpace(item.ShortName),
			LogoURL:       strings.TrimSpace(item.LogoURL),
			Country:       strings.TrimSpace(item.Country),
		})
	}
	for _, item := range req.Matches {
		scheduledAt, err := parseTimestamp(item.ScheduledAt, "scheduledAt")
		if err != nil {
			return usecase.FixtureBatch{}, err
		}
		batch.Matches = append(batch.Matches, competition.Match{
			ID:            item.ID,
			CompetitionID: item.CompetitionID,
			HomeTeamID:    strings.TrimSpace(item.HomeTeamID),
			AwayTeamID:    strings.TrimSpace(item.AwayTeamID),
			ScheduledAt:   scheduledAt,
			Status:        competition.MatchStatus(strings.ToLower(strings.TrimSpace(item.Status))),
			HomeScore:     item.HomeScore,
			AwayScore:     item.AwayScore,
			Location:      item.Location,
		})
	}
	return batch, nil
}

func parseTimestamp(raw, field string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", usecase.ErrInvalidInput, field)
	}
	return parsed.UTC(), nil
}
