package competition

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrScoreInvariant    = errors.New("score does not match status")
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusFinished Status = "finished"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchOngoing   MatchStatus = "ongoing"
	MatchFinished  MatchStatus = "finished"
)

// Competition is a tournament or league season that groups predict on.
type Competition struct {
	ID          string
	Name        string
	Description string
	Season      string
	StartDate   time.Time
	EndDate     time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Team struct {
	ID            string
	CompetitionID string
	Name          string
	ShortName     string
	LogoURL       string
	Country       string
}

type Match struct {
	ID            string
	CompetitionID string
	HomeTeamID    string
	AwayTeamID    string
	ScheduledAt   time.Time
	Status        MatchStatus
	HomeScore     *int
	AwayScore     *int
	Location      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether predictions are closed. Kickoff itself is locked.
func (m Match) IsLocked(now time.Time) bool {
	return m.Status != MatchScheduled || !now.Before(m.ScheduledAt)
}

// FinalScore returns the score only for finished matches.
func (m Match) FinalScore() (home, away int, ok bool) {
	if m.Status != MatchFinished || m.HomeScore == nil || m.AwayScore == nil {
		return 0, 0, false
	}
	return *m.HomeScore, *m.AwayScore, true
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(m.CompetitionID) == "" {
		return fmt.Errorf("match competition id is required")
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match teams are required")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match home and away team must differ")
	}
	if m.ScheduledAt.IsZero() {
		return fmt.Errorf("match scheduled time is required")
	}
	if _, ok := ParseMatchStatus(string(m.Status)); !ok {
		return fmt.Errorf("unknown match status %q", m.Status)
	}
	return ValidateScores(m.Status, m.HomeScore, m.AwayScore)
}

// ValidateScores enforces that scores are present iff the match has started.
func ValidateScores(status MatchStatus, home, away *int) error {
	hasScore := home != nil && away != nil
	if (home == nil) != (away == nil) {
		return fmt.Errorf("%w: both scores must be set together", ErrScoreInvariant)
	}
	switch status {
	case MatchScheduled:
		if hasScore {
			return fmt.Errorf("%w: scheduled match cannot carry a score", ErrScoreInvariant)
		}
	case MatchOngoing, MatchFinished:
		if !hasScore {
			return fmt.Errorf("%w: %s match requires a score", ErrScoreInvariant, status)
		}
		if *home < 0 || *away < 0 {
			return fmt.Errorf("%w: scores must be non-negative", ErrScoreInvariant)
		}
	}
	return nil
}

// ValidateMatchTransition rejects regressions and any change to a finished match.
func ValidateMatchTransition(current Match, next MatchStatus, home, away *int) error {
	if current.Status == MatchFinished {
		return fmt.Errorf("%w: match %s is already finished", ErrInvalidTransition, current.ID)
	}
	if matchStatusOrder(next) < matchStatusOrder(current.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	return ValidateScores(next, home, away)
}

func ValidateCompetitionTransition(current, next Status) error {
	if competitionStatusOrder(next) < competitionStatusOrder(current) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	return nil
}

func ParseMatchStatus(v string) (MatchStatus, bool) {
	switch MatchStatus(strings.ToLower(strings.TrimSpace(v))) {
	case MatchScheduled:
		return MatchScheduled, true
	case MatchOngoing, "live", "in_play":
		return MatchOngoing, true
	case MatchFinished, "ft":
		return MatchFinished, true
	default:
		return "", false
	}
}

func ParseStatus(v string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusUpcoming:
		return StatusUpcoming, true
	case StatusOngoing:
		return StatusOngoing, true
	case StatusFinished:
		return StatusFinished, true
	default:
		return "", false
	}
}

func matchStatusOrder(s MatchStatus) int {
	switch s {
	case MatchOngoing:
		return 1
	case MatchFinished:
		return 2
	default:
		return 0
	}
}

func competitionStatusOrder(s Status) int {
	switch s {
	case StatusOngoing:
		return 1
	case StatusFinished:
		return 2
	default:
		return 0
	}
}
