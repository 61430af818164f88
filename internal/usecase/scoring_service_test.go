package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/scoring"
)

const testMatchID = "wc-m-001"

func TestScoringService_ScoreMatch_Scenarios(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	exact := env.addUser("exact")
	margin := env.addUser("margin")
	drawer := env.addUser("drawer")
	g := env.addGroup(owner, exact, margin, drawer)
	env.addRule(g, owner, rule.TypeExactScore, 5)
	env.addRule(g, owner, rule.TypeCorrectWinner, 2)
	env.addRule(g, owner, rule.TypeGoalDifference, 3)
	env.addRule(g, owner, rule.TypeBothTeamsScore, 1)

	pExact := env.predict(g, exact, testMatchID, 2, 1)
	pMargin := env.predict(g, margin, testMatchID, 3, 2)
	pDraw := env.predict(g, drawer, testMatchID, 1, 1)

	env.finish(testMatchID, 2, 1)
	env.clock.Set(testKickoff.Add(2 * time.Hour))

	report, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID)
	if err != nil {
		t.Fatalf("score match: %v", err)
	}
	if report.Evaluated != 3 || report.Scored != 3 || report.AlreadyScored != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Groups) != 1 || report.Groups[0] != g.ID {
		t.Fatalf("unexpected groups: %v", report.Groups)
	}

	cases := []struct {
		name string
		id   string
		want int
	}{
		// BTS is additive on top of the exact score.
		{name: "exact score supersedes winner and difference", id: pExact.ID, want: 6},
		{name: "winner plus difference", id: pMargin.ID, want: 2 + 3 + 1},
		{name: "wrong winner keeps only both teams score", id: pDraw.ID, want: 1},
	}
	for _, tc := range cases {
		got := env.points(tc.id)
		if got == nil || *got != tc.want {
			t.Fatalf("%s: expected %d points, got %v", tc.name, tc.want, got)
		}
	}
}

func TestScoringService_ScoreMatch_WithoutBothTeamsScoreRule(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	alice := env.addUser("alice")
	bob := env.addUser("bob")
	carol := env.addUser("carol")
	g := env.addGroup(owner, alice, bob, carol)
	env.addRule(g, owner, rule.TypeExactScore, 5)
	env.addRule(g, owner, rule.TypeCorrectWinner, 2)
	env.addRule(g, owner, rule.TypeGoalDifference, 3)

	p1 := env.predict(g, alice, testMatchID, 2, 1)
	p2 := env.predict(g, bob, testMatchID, 3, 2)
	p3 := env.predict(g, carol, testMatchID, 1, 1)
	env.finish(testMatchID, 2, 1)

	if _, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID); err != nil {
		t.Fatalf("score match: %v", err)
	}
	for id, want := range map[string]int{p1.ID: 5, p2.ID: 5, p3.ID: 0} {
		if got := env.points(id); got == nil || *got != want {
			t.Fatalf("prediction %s: expected %d, got %v", id, want, got)
		}
	}
}

func TestScoringService_ScoreMatch_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeExactScore, 5)
	p := env.predict(g, owner, testMatchID, 1, 0)
	env.finish(testMatchID, 1, 0)

	first, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstScoredAt := *mustPrediction(t, env, p.ID).ScoredAt

	env.clock.Advance(time.Hour)
	second, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Scored != 1 || second.Scored != 0 || second.AlreadyScored != 1 {
		t.Fatalf("unexpected reports first=%+v second=%+v", first, second)
	}
	stored := mustPrediction(t, env, p.ID)
	if *stored.PointsEarned != 5 || !stored.ScoredAt.Equal(firstScoredAt) {
		t.Fatalf("second run must not rewrite points: %+v", stored)
	}

	row, _, _ := env.rankings.GetByGroupAndUser(context.Background(), g.ID, owner.ID)
	if row.TotalPoints != 5 || row.Rank != 1 {
		t.Fatalf("unexpected ranking after rescoring: %+v", row)
	}
}

func TestScoringService_ScoreMatch_ConcurrentCallsScoreOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeCorrectWinner, 3)
	p := env.predict(g, owner, testMatchID, 2, 0)
	env.finish(testMatchID, 1, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalScored := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID)
			if err != nil {
				t.Errorf("score match: %v", err)
				return
			}
			mu.Lock()
			totalScored += report.Scored
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Shared runs report the same batch, so the write itself is the source of truth.
	if got := env.points(p.ID); got == nil || *got != 3 {
		t.Fatalf("expected 3 points, got %v", got)
	}
	if totalScored < 1 {
		t.Fatalf("expected at least one run to score")
	}
}

func TestScoringService_ScoreMatch_RejectsUnfinishedMatch(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	p := env.predict(g, owner, testMatchID, 1, 0)

	if _, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID); err == nil {
		t.Fatalf("expected error for scheduled match")
	}
	if got := env.points(p.ID); got != nil {
		t.Fatalf("nothing must be scored, got %d", *got)
	}
	if _, err := env.scoringSvc.ScoreMatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScoringService_ScoreMatch_DrawPolicy(t *testing.T) {
	cases := []struct {
		policy scoring.DrawPolicy
		want   int
	}{
		{policy: scoring.DrawPolicyExclusive, want: 4},
		{policy: scoring.DrawPolicyAdditive, want: 4 + 2},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			env := newTestEnvWithPolicy(t, tc.policy)
			owner := env.addUser("owner")
			g := env.addGroup(owner)
			env.addRule(g, owner, rule.TypeCorrectWinner, 2)
			env.addRule(g, owner, rule.TypeCorrectDraw, 4)
			p := env.predict(g, owner, testMatchID, 1, 1)
			env.finish(testMatchID, 0, 0)

			if _, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID); err != nil {
				t.Fatalf("score match: %v", err)
			}
			if got := env.points(p.ID); got == nil || *got != tc.want {
				t.Fatalf("expected %d points, got %v", tc.want, got)
			}
		})
	}
}

func TestScoringService_ScoreMatch_GroupWithoutRulesScoresZero(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	p := env.predict(g, owner, testMatchID, 1, 0)
	env.finish(testMatchID, 1, 0)

	report, err := env.scoringSvc.ScoreMatch(context.Background(), testMatchID)
	if err != nil {
		t.Fatalf("score match: %v", err)
	}
	if report.Scored != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := env.points(p.ID); got == nil || *got != 0 {
		t.Fatalf("expected 0 points, got %v", got)
	}
}
