package jobdispatch

import "time"

type Status string

const (
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const JobScoreMatch = "score-match"

// Event records one lifecycle step of an asynchronous job.
type Event struct {
	DispatchID   string
	JobName      string
	JobPath      string
	MatchID      string
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
