package scoring

import (
	"errors"
	"testing"

	"github.com/frozenbet/scoring-engine/internal/domain/rule"
)

func rules(pairs ...any) []rule.Rule {
	out := make([]rule.Rule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, rule.Rule{GroupID: "g1", Type: pairs[i].(rule.Type), Points: pairs[i+1].(int)})
	}
	return out
}

func TestEvaluate_Scenarios(t *testing.T) {
	base := rules(
		rule.TypeExactScore, 5,
		rule.TypeCorrectWinner, 2,
		rule.TypeGoalDifference, 3,
	)
	withBTS := append(append([]rule.Rule{}, base...), rule.Rule{GroupID: "g1", Type: rule.TypeBothTeamsScore, Points: 1})
	actual := Score{Home: 2, Away: 1}

	tests := []struct {
		name      string
		predicted Score
		rules     []rule.Rule
		want      int
	}{
		{name: "exact score supersedes", predicted: Score{2, 1}, rules: base, want: 5},
		{name: "winner plus difference", predicted: Score{3, 2}, rules: base, want: 5},
		{name: "wrong winner", predicted: Score{1, 1}, rules: base, want: 0},
		{name: "wrong winner keeps both teams score", predicted: Score{1, 1}, rules: withBTS, want: 1},
		{name: "exact plus both teams score", predicted: Score{2, 1}, rules: withBTS, want: 6},
		{name: "winner only", predicted: Score{3, 0}, rules: base, want: 2},
		{name: "no rules", predicted: Score{2, 1}, rules: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Evaluate(tc.predicted, actual, tc.rules, DrawPolicyExclusive)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if res.Points != tc.want {
				t.Fatalf("points = %d, want %d (awarded %+v)", res.Points, tc.want, res.Awarded)
			}
		})
	}
}

func TestEvaluate_ExactWithoutExactRuleFallsThrough(t *testing.T) {
	res, err := Evaluate(Score{2, 1}, Score{2, 1}, rules(rule.TypeCorrectWinner, 2, rule.TypeGoalDifference, 3), DrawPolicyExclusive)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Points != 5 {
		t.Fatalf("expected winner + difference when EXACT_SCORE is not defined, got %d", res.Points)
	}
}

func TestEvaluate_HighestRulePerType(t *testing.T) {
	res, err := Evaluate(Score{2, 1}, Score{2, 1}, rules(rule.TypeExactScore, 3, rule.TypeExactScore, 7), DrawPolicyExclusive)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Points != 7 || len(res.Awarded) != 1 {
		t.Fatalf("expected single highest EXACT_SCORE award, got %+v", res)
	}
}

func TestEvaluate_DrawPolicy(t *testing.T) {
	groupRules := rules(rule.TypeCorrectWinner, 2, rule.TypeCorrectDraw, 4)

	exclusive, err := Evaluate(Score{0, 0}, Score{1, 1}, groupRules, DrawPolicyExclusive)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if exclusive.Points != 4 || exclusive.Awards(rule.TypeCorrectWinner) {
		t.Fatalf("exclusive policy should award only CORRECT_DRAW, got %+v", exclusive)
	}

	additive, err := Evaluate(Score{0, 0}, Score{1, 1}, groupRules, DrawPolicyAdditive)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if additive.Points != 6 {
		t.Fatalf("additive policy should award both, got %d", additive.Points)
	}

	winnerOnly, _ := Evaluate(Score{0, 0}, Score{1, 1}, rules(rule.TypeCorrectWinner, 2), DrawPolicyExclusive)
	if winnerOnly.Points != 2 {
		t.Fatalf("draw predicted without CORRECT_DRAW rule should earn CORRECT_WINNER, got %d", winnerOnly.Points)
	}
}

func TestEvaluate_RejectsNegativeScores(t *testing.T) {
	if _, err := Evaluate(Score{-1, 0}, Score{1, 0}, nil, DrawPolicyExclusive); !errors.Is(err, ErrNegativeScore) {
		t.Fatalf("expected ErrNegativeScore, got %v", err)
	}
}

func TestParseDrawPolicy(t *testing.T) {
	if p, err := ParseDrawPolicy(""); err != nil || p != DrawPolicyExclusive {
		t.Fatalf("empty policy should default to exclusive")
	}
	if p, err := ParseDrawPolicy("Additive"); err != nil || p != DrawPolicyAdditive {
		t.Fatalf("expected additive, got %q %v", p, err)
	}
	if _, err := ParseDrawPolicy("both"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
