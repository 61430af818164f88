package livescore

import (
	"context"
	"time"
)

type EventType string

const (
	EventConnected     EventType = "connected"
	EventScoreUpdate   EventType = "score_update"
	EventMatchFinished EventType = "match_finished"
)

// ScoreUpdate is pushed to live-score subscribers whenever a match result changes.
type ScoreUpdate struct {
	MatchID      string    `json:"matchId"`
	HomeScore    int       `json:"homeScore"`
	AwayScore    int       `json:"awayScore"`
	Status       string    `json:"status"`
	HomeTeamName string    `json:"homeTeamName"`
	AwayTeamName string    `json:"awayTeamName"`
	Timestamp    time.Time `json:"timestamp"`
}

type Event struct {
	Type   EventType   `json:"type"`
	Update ScoreUpdate `json:"update"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
