package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/jobdispatch"
	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

type fakeJobQueue struct {
	mu    sync.Mutex
	err   error
	calls []fakeJobCall
}

type fakeJobCall struct {
	path    string
	payload any
	dedupID string
}

func (q *fakeJobQueue) Enqueue(_ context.Context, path string, payload any, _ time.Duration, deduplicationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, fakeJobCall{path: path, payload: payload, dedupID: deduplicationID})
	return q.err
}

func TestMatchService_RecordResult_PublishesAndScoresInline(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeExactScore, 5)
	p := env.predict(g, owner, testMatchID, 1, 0)
	ctx := context.Background()

	env.clock.Set(testKickoff.Add(30 * time.Minute))
	live, err := env.matchSvc.RecordResult(ctx, RecordResultInput{MatchID: testMatchID, Status: "live", HomeScore: intRef(1), AwayScore: intRef(0)})
	if err != nil {
		t.Fatalf("record live score: %v", err)
	}
	if live.Status != competition.MatchOngoing || !live.IsLocked || live.HomeTeamName != "Mexico" {
		t.Fatalf("unexpected live view: %+v", live)
	}
	if env.points(p.ID) != nil {
		t.Fatalf("ongoing match must not be scored")
	}

	env.clock.Set(testKickoff.Add(2 * time.Hour))
	if _, err := env.matchSvc.RecordResult(ctx, RecordResultInput{MatchID: testMatchID, Status: "finished", HomeScore: intRef(1), AwayScore: intRef(0)}); err != nil {
		t.Fatalf("record final score: %v", err)
	}
	if got := env.points(p.ID); got == nil || *got != 5 {
		t.Fatalf("expected inline scoring to award 5, got %v", got)
	}

	events := env.publisher.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 live events, got %d", len(events))
	}
	if events[0].Type != livescore.EventScoreUpdate || events[1].Type != livescore.EventMatchFinished {
		t.Fatalf("unexpected event types: %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Update.HomeScore != 1 || events[1].Update.Status != string(competition.MatchFinished) {
		t.Fatalf("unexpected final event: %+v", events[1].Update)
	}
}

func TestMatchService_RecordResult_RejectsInvalidChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.finish(testMatchID, 2, 1)

	cases := []struct {
		name    string
		input   RecordResultInput
		wantErr error
	}{
		{name: "unknown status", input: RecordResultInput{MatchID: "wc-m-002", Status: "abandoned"}, wantErr: ErrInvalidInput},
		{name: "unknown match", input: RecordResultInput{MatchID: "missing", Status: "scheduled"}, wantErr: ErrNotFound},
		{name: "finished without score", input: RecordResultInput{MatchID: "wc-m-002", Status: "finished"}, wantErr: ErrInvalidInput},
		{name: "negative score", input: RecordResultInput{MatchID: "wc-m-002", Status: "ongoing", HomeScore: intRef(-1), AwayScore: intRef(0)}, wantErr: ErrInvalidInput},
		{name: "finished match is immutable", input: RecordResultInput{MatchID: testMatchID, Status: "finished", HomeScore: intRef(3), AwayScore: intRef(1)}, wantErr: ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.matchSvc.RecordResult(ctx, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if _, err := env.matchSvc.RecordResult(ctx, RecordResultInput{MatchID: "wc-m-002", Status: "ongoing", HomeScore: intRef(0), AwayScore: intRef(0)}); err != nil {
		t.Fatalf("kickoff: %v", err)
	}
	if _, err := env.matchSvc.RecordResult(ctx, RecordResultInput{MatchID: "wc-m-002", Status: "scheduled"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on status regression, got %v", err)
	}
}

func TestMatchService_IngestFixtures_FinishedMatchIsScored(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeExactScore, 5)
	p := env.predict(g, owner, testMatchID, 2, 1)
	ctx := context.Background()

	m, ok, err := env.competitions.GetMatch(ctx, testMatchID)
	if err != nil || !ok {
		t.Fatalf("get match: ok=%v err=%v", ok, err)
	}
	m.Status = competition.MatchFinished
	m.HomeScore, m.AwayScore = intRef(2), intRef(1)

	env.clock.Set(testKickoff.Add(2 * time.Hour))
	report, err := env.matchSvc.IngestFixtures(ctx, FixtureBatch{Matches: []competition.Match{m}})
	if err != nil {
		t.Fatalf("ingest finished match: %v", err)
	}
	if len(report.FinishedMatchIDs) != 1 || report.FinishedMatchIDs[0] != testMatchID {
		t.Fatalf("unexpected finished ids: %v", report.FinishedMatchIDs)
	}
	if got := env.points(p.ID); got == nil || *got != 5 {
		t.Fatalf("expected ingestion to trigger scoring for 5 points, got %v", got)
	}
	events := env.publisher.Events()
	if len(events) != 1 || events[0].Type != livescore.EventMatchFinished {
		t.Fatalf("expected one match_finished event, got %+v", events)
	}

	again, err := env.matchSvc.IngestFixtures(ctx, FixtureBatch{Matches: []competition.Match{m}})
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if again.Skipped != 1 || len(again.FinishedMatchIDs) != 0 {
		t.Fatalf("finished match must be skipped on re-ingest: %+v", again)
	}
	if len(env.publisher.Events()) != 1 {
		t.Fatalf("re-ingest must not publish again")
	}
}

func TestJobService_DispatchScoreMatch_Queued(t *testing.T) {
	env := newTestEnv(t)
	queue := &fakeJobQueue{}
	jobs := NewJobService(env.scoringSvc, env.rankingSvc, env.groups, queue, env.dispatches, logging.NewNop())
	jobs.now = env.clock.Now

	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeCorrectWinner, 2)
	p := env.predict(g, owner, testMatchID, 1, 0)
	env.finish(testMatchID, 1, 0)

	if err := jobs.DispatchScoreMatch(context.Background(), testMatchID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(queue.calls) != 1 {
		t.Fatalf("expected one enqueue, got %d", len(queue.calls))
	}
	call := queue.calls[0]
	if call.path != JobPathScoreMatch || call.dedupID != "score-match-wc-m-001" {
		t.Fatalf("unexpected enqueue: %+v", call)
	}
	if env.points(p.ID) != nil {
		t.Fatalf("queued dispatch must not score inline")
	}
	if event, ok := env.dispatches.Get(call.dedupID); !ok || event.Status != jobdispatch.StatusSent {
		t.Fatalf("expected sent dispatch event, got %+v ok=%v", event, ok)
	}

	report, err := jobs.RunScoreMatch(context.Background(), ScoreMatchJobInput{MatchID: testMatchID, DispatchID: call.dedupID})
	if err != nil {
		t.Fatalf("run score match: %v", err)
	}
	if report.Scored != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if event, _ := env.dispatches.Get(call.dedupID); event.Status != jobdispatch.StatusCompleted {
		t.Fatalf("expected completed dispatch event, got %s", event.Status)
	}
}

func TestJobService_DispatchScoreMatch_FallsBackInline(t *testing.T) {
	env := newTestEnv(t)
	queue := &fakeJobQueue{err: errors.New("qstash unavailable")}
	jobs := NewJobService(env.scoringSvc, env.rankingSvc, env.groups, queue, env.dispatches, logging.NewNop())
	jobs.now = env.clock.Now

	owner := env.addUser("owner")
	g := env.addGroup(owner)
	env.addRule(g, owner, rule.TypeCorrectWinner, 2)
	p := env.predict(g, owner, testMatchID, 1, 0)
	env.finish(testMatchID, 1, 0)

	if err := jobs.DispatchScoreMatch(context.Background(), testMatchID); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := env.points(p.ID); got == nil || *got != 2 {
		t.Fatalf("expected inline fallback to score 2, got %v", got)
	}
	if event, ok := env.dispatches.Get("score-match-wc-m-001"); !ok || event.Status != jobdispatch.StatusFailed {
		t.Fatalf("expected failed dispatch event, got %+v ok=%v", event, ok)
	}
}

func TestJobService_RunRecomputeRankings(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g1 := env.addGroup(owner)
	g2 := env.addGroup(owner)

	result, err := env.jobSvc.RunRecomputeRankings(context.Background(), RecomputeRankingsJobInput{CompetitionID: "fifa-world-cup-2026"})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(result.Groups) != 2 || len(result.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	seen := map[string]bool{}
	for _, id := range result.Groups {
		seen[id] = true
	}
	if !seen[g1.ID] || !seen[g2.ID] {
		t.Fatalf("expected both groups, got %v", result.Groups)
	}

	if _, err := env.jobSvc.RunRecomputeRankings(context.Background(), RecomputeRankingsJobInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDedupKey(t *testing.T) {
	cases := []struct {
		prefix string
		id     string
		want   string
	}{
		{prefix: "score-match", id: "wc-m-001", want: "score-match-wc-m-001"},
		{prefix: "score-match", id: "a/b c", want: "score-match-a-b-c"},
		{prefix: "score-match", id: " ", want: "score-match-unknown"},
	}
	for _, tc := range cases {
		if got := dedupKey(tc.prefix, tc.id); got != tc.want {
			t.Fatalf("dedupKey(%q, %q) = %q, want %q", tc.prefix, tc.id, got, tc.want)
		}
	}
}
