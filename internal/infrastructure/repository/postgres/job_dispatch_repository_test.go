package postgres

import (
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
)

func TestNewJobDispatchRow(t *testing.T) {
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

	t.Run("sent fills only sent stage", func(t *testing.T) {
		row, err := newJobDispatchRow(jobdispatch.Event{
			DispatchID: " dsp-1 ",
			MatchID:    "wc-m-001",
			Status:     jobdispatch.StatusSent,
			Payload:    map[string]any{"matchId": "wc-m-001"},
			TraceID:    "trace-a",
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row.DispatchID != "dsp-1" || row.JobName != jobdispatch.JobScoreMatch || row.JobPath != "/unknown" {
			t.Fatalf("unexpected identity columns: %+v", row)
		}
		if row.Payload != `{"matchId":"wc-m-001"}` {
			t.Fatalf("unexpected payload %s", row.Payload)
		}
		if row.SentAt == nil || !row.SentAt.Equal(now) || row.UpdatedAt != now {
			t.Fatalf("expected sent_at defaulted to now, got %v", row.SentAt)
		}
		if row.SentTraceID == nil || *row.SentTraceID != "trace-a" || row.SentSpanID != nil {
			t.Fatalf("unexpected sent trace columns")
		}
		if row.CompletedAt != nil || row.FailedAt != nil || row.LastError != nil {
			t.Fatalf("other stages must stay null")
		}
	})

	t.Run("failed keeps error and empty payload", func(t *testing.T) {
		at := now.Add(time.Minute)
		row, err := newJobDispatchRow(jobdispatch.Event{
			DispatchID:   "dsp-2",
			Status:       jobdispatch.StatusFailed,
			ErrorMessage: "match not finished",
			OccurredAt:   at,
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row.Payload != "{}" || row.MatchID != "unknown" {
			t.Fatalf("unexpected defaults: %+v", row)
		}
		if row.FailedAt == nil || !row.FailedAt.Equal(at) || row.LastError == nil || *row.LastError != "match not finished" {
			t.Fatalf("unexpected failure columns")
		}
	})

	t.Run("rejects missing id and unknown status", func(t *testing.T) {
		if _, err := newJobDispatchRow(jobdispatch.Event{Status: jobdispatch.StatusSent}, now); err == nil {
			t.Fatalf("expected missing dispatch id error")
		}
		if _, err := newJobDispatchRow(jobdispatch.Event{DispatchID: "dsp-3", Status: "queued"}, now); err == nil {
			t.Fatalf("expected unknown status error")
		}
	})
}
