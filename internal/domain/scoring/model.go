package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frozenbet/scoring-engine/internal/domain/rule"
)

var ErrNegativeScore = errors.New("scores must be non-negative")

// DrawPolicy decides whether CORRECT_DRAW replaces or stacks with CORRECT_WINNER.
type DrawPolicy string

const (
	DrawPolicyExclusive DrawPolicy = "exclusive"
	DrawPolicyAdditive  DrawPolicy = "additive"
)

func ParseDrawPolicy(v string) (DrawPolicy, error) {
	switch DrawPolicy(strings.ToLower(strings.TrimSpace(v))) {
	case "", DrawPolicyExclusive:
		return DrawPolicyExclusive, nil
	case DrawPolicyAdditive:
		return DrawPolicyAdditive, nil
	default:
		return "", fmt.Errorf("unknown draw policy %q", v)
	}
}

type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

type Score struct {
	Home int
	Away int
}

func (s Score) Outcome() Outcome {
	switch {
	case s.Home > s.Away:
		return OutcomeHome
	case s.Home < s.Away:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

func (s Score) BothScored() bool {
	return s.Home > 0 && s.Away > 0
}

func (s Score) validate() error {
	if s.Home < 0 || s.Away < 0 {
		return fmt.Errorf("%w: %d-%d", ErrNegativeScore, s.Home, s.Away)
	}
	return nil
}

// Result lists which conditions held and which rules paid out.
type Result struct {
	Points  int
	Matched []rule.Type
	Awarded []rule.Rule
}

func (r Result) Awards(t rule.Type) bool {
	for _, a := range r.Awarded {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Evaluate scores one prediction against the final score using the group's rules.
//
// EXACT_SCORE, when defined and matched, supersedes CORRECT_WINNER, CORRECT_DRAW
// and GOAL_DIFFERENCE. BOTH_TEAMS_SCORE always stacks. For several rules of one
// type only the highest-points rule counts.
func Evaluate(predicted, actual Score, rules []rule.Rule, policy DrawPolicy) (Result, error) {
	if err := predicted.validate(); err != nil {
		return Result{}, fmt.Errorf("predicted score: %w", err)
	}
	if err := actual.validate(); err != nil {
		return Result{}, fmt.Errorf("actual score: %w", err)
	}

	best := rule.BestByType(rules)
	var res Result

	exact := predicted == actual
	winner := predicted.Outcome() == actual.Outcome()
	draw := predicted.Outcome() == OutcomeDraw && actual.Outcome() == OutcomeDraw
	difference := predicted.Home-predicted.Away == actual.Home-actual.Away
	bothScore := predicted.BothScored() == actual.BothScored()

	award := func(t rule.Type) {
		if r, ok := best[t]; ok {
			res.Awarded = append(res.Awarded, r)
			res.Points += r.Points
		}
	}
	matched := func(t rule.Type, ok bool) bool {
		if ok {
			res.Matched = append(res.Matched, t)
		}
		return ok
	}

	_, exactDefined := best[rule.TypeExactScore]
	if matched(rule.TypeExactScore, exact) && exactDefined {
		award(rule.TypeExactScore)
	} else {
		_, drawDefined := best[rule.TypeCorrectDraw]
		drawWins := draw && drawDefined && policy != DrawPolicyAdditive
		if matched(rule.TypeCorrectWinner, winner) && !drawWins {
			award(rule.TypeCorrectWinner)
		}
		if matched(rule.TypeCorrectDraw, draw) {
			award(rule.TypeCorrectDraw)
		}
		if matched(rule.TypeGoalDifference, difference) {
			award(rule.TypeGoalDifference)
		}
	}
	if matched(rule.TypeBothTeamsScore, bothScore) {
		award(rule.TypeBothTeamsScore)
	}

	return res, nil
}
