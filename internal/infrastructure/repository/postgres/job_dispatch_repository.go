package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
	qb "github.com/frozenbet/scoring-engine/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// Stage timestamps are sticky: a retry that reports "sent" again refreshes sent_at, a
// completion clears the failure columns, and trace ids from earlier stages survive.
const upsertJobDispatchSuffix = `ON CONFLICT (dispatch_id) DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    match_public_id = EXCLUDED.match_public_id,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = COALESCE(EXCLUDED.sent_at, job_dispatches.sent_at),
    completed_at = COALESCE(EXCLUDED.completed_at, job_dispatches.completed_at),
    failed_at = CASE EXCLUDED.status
        WHEN 'failed' THEN EXCLUDED.failed_at
        WHEN 'completed' THEN NULL
        ELSE job_dispatches.failed_at
    END,
    last_error = CASE WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error END,
    sent_trace_id = COALESCE(EXCLUDED.sent_trace_id, job_dispatches.sent_trace_id),
    sent_span_id = COALESCE(EXCLUDED.sent_span_id, job_dispatches.sent_span_id),
    completed_trace_id = COALESCE(EXCLUDED.completed_trace_id, job_dispatches.completed_trace_id),
    completed_span_id = COALESCE(EXCLUDED.completed_span_id, job_dispatches.completed_span_id),
    failed_trace_id = COALESCE(EXCLUDED.failed_trace_id, job_dispatches.failed_trace_id),
    failed_span_id = COALESCE(EXCLUDED.failed_span_id, job_dispatches.failed_span_id),
    updated_at = EXCLUDED.updated_at`

type JobDispatchRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db, now: time.Now}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobdispatch.Event) error {
	row, err := newJobDispatchRow(event, r.now())
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("job_dispatches", row, upsertJobDispatchSuffix)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", row.DispatchID, row.Status, err)
	}
	return nil
}
