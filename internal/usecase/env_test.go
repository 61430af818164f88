package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/scoring"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/infrastructure/repository/memory"
	"github.com/frozenbet/scoring-engine/internal/platform/cache"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

var testKickoff = time.Date(2026, 6, 11, 19, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *sequenceIDs) NewID() (string, error) {
	return fmt.Sprintf("%s-%04d", g.prefix, g.n.Add(1)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []livescore.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event livescore.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []livescore.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]livescore.Event(nil), p.events...)
}

// testEnv wires every service over one in-memory store with a controllable clock.
type testEnv struct {
	t     *testing.T
	clock *testClock
	store *memory.Store

	users        *memory.UserRepository
	competitions *memory.CompetitionRepository
	groups       *memory.GroupRepository
	rules        *memory.RuleRepository
	predictions  *memory.PredictionRepository
	rankings     *memory.RankingRepository
	invitations  *memory.InvitationRepository
	dispatches   *memory.JobDispatchRepository
	publisher    *recordingPublisher

	ruleSvc        *RuleService
	predictionSvc  *PredictionService
	rankingSvc     *RankingService
	scoringSvc     *ScoringService
	statsSvc       *StatisticsService
	groupSvc       *GroupService
	invitationSvc  *InvitationService
	notifySvc      *NotificationService
	competitionSvc *CompetitionService
	matchSvc       *MatchService
	jobSvc         *JobService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithPolicy(t, scoring.DrawPolicyExclusive)
}

func newTestEnvWithPolicy(t *testing.T, policy scoring.DrawPolicy) *testEnv {
	t.Helper()

	store := memory.NewStore()
	memory.Seed(store)
	clock := &testClock{now: testKickoff.Add(-24 * time.Hour)}
	ids := &sequenceIDs{prefix: "id"}
	logger := logging.NewNop()

	env := &testEnv{
		t:            t,
		clock:        clock,
		store:        store,
		users:        memory.NewUserRepository(store),
		competitions: memory.NewCompetitionRepository(store),
		groups:       memory.NewGroupRepository(store),
		rules:        memory.NewRuleRepository(store),
		predictions:  memory.NewPredictionRepository(store),
		rankings:     memory.NewRankingRepository(store),
		invitations:  memory.NewInvitationRepository(store),
		dispatches:   memory.NewJobDispatchRepository(store),
		publisher:    &recordingPublisher{},
	}

	env.statsSvc = NewStatisticsService(env.groups, env.predictions, env.rankings, env.users, env.competitions, cache.NewStore(time.Minute), 10)
	env.statsSvc.now = clock.Now
	env.rankingSvc = NewRankingService(env.groups, env.predictions, env.rankings, env.users, env.statsSvc)
	env.rankingSvc.now = clock.Now
	env.ruleSvc = NewRuleService(env.groups, env.rules, ids, RuleConfig{PointsMin: 0, PointsMax: 100})
	env.ruleSvc.now = clock.Now
	env.predictionSvc = NewPredictionService(env.groups, env.competitions, env.predictions, ids, env.statsSvc)
	env.predictionSvc.now = clock.Now
	env.scoringSvc = NewScoringService(env.competitions, env.predictions, env.rules, env.rankingSvc, ScoringConfig{DrawPolicy: policy, Workers: 4}, logger)
	env.scoringSvc.now = clock.Now
	env.groupSvc = NewGroupService(env.groups, env.rules, env.rankings, env.users, env.competitions, env.rankingSvc, ids, logger)
	env.groupSvc.now = clock.Now
	env.invitationSvc = NewInvitationService(env.groups, env.invitations, env.users, env.groupSvc, idgen.NewRandomGenerator(), ids, 7*24*time.Hour)
	env.invitationSvc.now = clock.Now
	env.notifySvc = NewNotificationService(env.invitationSvc)
	env.notifySvc.now = clock.Now
	env.competitionSvc = NewCompetitionService(env.competitions)
	env.competitionSvc.now = clock.Now
	env.jobSvc = NewJobService(env.scoringSvc, env.rankingSvc, env.groups, nil, env.dispatches, logger)
	env.jobSvc.now = clock.Now
	env.matchSvc = NewMatchService(env.competitionSvc, env.competitions, env.publisher, env.jobSvc, logger)
	env.matchSvc.now = clock.Now

	return env
}

func (e *testEnv) addUser(username string) user.User {
	e.t.Helper()
	u := user.User{
		ID:        "u-" + username,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: e.clock.Now(),
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		e.t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// addGroup creates a private World Cup group owned by owner with the given members.
func (e *testEnv) addGroup(owner user.User, members ...user.User) group.Group {
	e.t.Helper()
	ctx := context.Background()
	g, err := e.groupSvc.CreateGroup(ctx, CreateGroupInput{
		UserID:        owner.ID,
		Name:          "Office pool",
		CompetitionID: memory.CompetitionIDWorldCup,
	})
	if err != nil {
		e.t.Fatalf("create group: %v", err)
	}
	for _, m := range members {
		if _, err := e.groupSvc.JoinByInviteCode(ctx, m.ID, g.InviteCode); err != nil {
			e.t.Fatalf("join %s: %v", m.Username, err)
		}
	}
	return g
}

func (e *testEnv) addRule(g group.Group, actor user.User, t rule.Type, points int) rule.Rule {
	e.t.Helper()
	r, err := e.ruleSvc.AddRule(context.Background(), AddRuleInput{
		ActorUserID: actor.ID,
		GroupID:     g.ID,
		Type:        string(t),
		Points:      points,
	})
	if err != nil {
		e.t.Fatalf("add rule %s: %v", t, err)
	}
	return r
}

func (e *testEnv) predict(g group.Group, u user.User, matchID string, home, away int) PredictionView {
	e.t.Helper()
	p, err := e.predictionSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID:    u.ID,
		MatchID:   matchID,
		GroupID:   g.ID,
		HomeScore: home,
		AwayScore: away,
	})
	if err != nil {
		e.t.Fatalf("predict %s %d-%d: %v", u.Username, home, away, err)
	}
	return p
}

// finish records a final score directly in the store, bypassing scoring dispatch.
func (e *testEnv) finish(matchID string, home, away int) {
	e.t.Helper()
	ctx := context.Background()
	m, ok, err := e.competitions.GetMatch(ctx, matchID)
	if err != nil || !ok {
		e.t.Fatalf("get match %s: ok=%v err=%v", matchID, ok, err)
	}
	m.Status = competition.MatchFinished
	m.HomeScore, m.AwayScore = &home, &away
	if updated, err := e.competitions.UpdateMatchResult(ctx, m); err != nil || !updated {
		e.t.Fatalf("finish match %s: updated=%v err=%v", matchID, updated, err)
	}
}

func (e *testEnv) points(predictionID string) *int {
	e.t.Helper()
	p, ok, err := e.predictions.GetByID(context.Background(), predictionID)
	if err != nil || !ok {
		e.t.Fatalf("get prediction %s: ok=%v err=%v", predictionID, ok, err)
	}
	return p.PointsEarned
}

func intRef(v int) *int {
	return &v
}

func mustPrediction(t *testing.T, env *testEnv, predictionID string) prediction.Prediction {
	t.Helper()
	p, ok, err := env.predictions.GetByID(context.Background(), predictionID)
	if err != nil || !ok {
		t.Fatalf("get prediction %s: ok=%v err=%v", predictionID, ok, err)
	}
	return p
}
