package rule

import (
	"errors"
	"strings"
	"time"
)

var ErrUnknownType = errors.New("unknown rule type")

type Type string

const (
	TypeExactScore     Type = "EXACT_SCORE"
	TypeCorrectWinner  Type = "CORRECT_WINNER"
	TypeCorrectDraw    Type = "CORRECT_DRAW"
	TypeGoalDifference Type = "GOAL_DIFFERENCE"
	TypeBothTeamsScore Type = "BOTH_TEAMS_SCORE"
)

var AllTypes = []Type{
	TypeExactScore,
	TypeCorrectWinner,
	TypeCorrectDraw,
	TypeGoalDifference,
	TypeBothTeamsScore,
}

func ParseType(v string) (Type, bool) {
	candidate := Type(strings.ToUpper(strings.TrimSpace(v)))
	for _, t := range AllTypes {
		if t == candidate {
			return t, true
		}
	}
	return "", false
}

// Rule awards Points when a prediction satisfies Type.
type Rule struct {
	ID          string
	GroupID     string
	Type        Type
	Points      int
	Description string
	CreatedAt   time.Time
}

// SameDefinition reports whether two rules are interchangeable for idempotent creation.
func (r Rule) SameDefinition(other Rule) bool {
	return r.GroupID == other.GroupID &&
		r.Type == other.Type &&
		r.Points == other.Points &&
		r.Description == other.Description
}

// BestByType keeps the highest-points rule of each type.
func BestByType(rules []Rule) map[Type]Rule {
	out := make(map[Type]Rule, len(rules))
	for _, r := range rules {
		current, ok := out[r.Type]
		if !ok || r.Points > current.Points {
			out[r.Type] = r
		}
	}
	return out
}
