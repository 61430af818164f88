package postgres

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
)

// jobDispatchRow mirrors job_dispatches. Only the stage columns matching Status are set;
// the upsert merges the rest from the existing row.
type jobDispatchRow struct {
	DispatchID       string     `db:"dispatch_id"`
	JobName          string     `db:"job_name"`
	JobPath          string     `db:"job_path"`
	MatchID          string     `db:"match_public_id"`
	Payload          string     `db:"payload"`
	Status           string     `db:"status"`
	SentAt           *time.Time `db:"sent_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	FailedAt         *time.Time `db:"failed_at"`
	LastError        *string    `db:"last_error"`
	SentTraceID      *string    `db:"sent_trace_id"`
	SentSpanID       *string    `db:"sent_span_id"`
	CompletedTraceID *string    `db:"completed_trace_id"`
	CompletedSpanID  *string    `db:"completed_span_id"`
	FailedTraceID    *string    `db:"failed_trace_id"`
	FailedSpanID     *string    `db:"failed_span_id"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func newJobDispatchRow(event jobdispatch.Event, now time.Time) (jobDispatchRow, error) {
	id := strings.TrimSpace(event.DispatchID)
	if id == "" {
		return jobDispatchRow{}, errors.New("dispatch id is required")
	}

	at := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		at = now.UTC()
	}
	payload := "{}"
	if len(event.Payload) > 0 {
		raw, err := sonic.MarshalString(event.Payload)
		if err != nil {
			return jobDispatchRow{}, errors.Wrap(err, "marshal job dispatch payload")
		}
		payload = raw
	}

	row := jobDispatchRow{
		DispatchID: id,
		JobName:    orDefault(event.JobName, jobdispatch.JobScoreMatch),
		JobPath:    orDefault(event.JobPath, "/unknown"),
		MatchID:    orDefault(event.MatchID, "unknown"),
		Payload:    payload,
		Status:     string(event.Status),
		UpdatedAt:  at,
	}
	traceID, spanID := nullableString(event.TraceID), nullableString(event.SpanID)

	switch event.Status {
	case jobdispatch.StatusSent:
		row.SentAt, row.SentTraceID, row.SentSpanID = &at, traceID, spanID
	case jobdispatch.StatusCompleted:
		row.CompletedAt, row.CompletedTraceID, row.CompletedSpanID = &at, traceID, spanID
	case jobdispatch.StatusFailed:
		row.FailedAt, row.FailedTraceID, row.FailedSpanID = &at, traceID, spanID
		row.LastError = nullableString(event.ErrorMessage)
	default:
		return jobDispatchRow{}, errors.Newf("unknown job dispatch status %q", event.Status)
	}
	return row, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
