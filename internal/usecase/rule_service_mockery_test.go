package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	groupmock "github.com/frozenbet/scoring-engine/internal/mocks/domain/group"
	rulemock "github.com/frozenbet/scoring-engine/internal/mocks/domain/rule"
	"github.com/stretchr/testify/mock"
)

const mockGroupID = "grp-office"

func mockGroup() group.Group {
	return group.Group{
		ID:            mockGroupID,
		Name:          "Office pool",
		OwnerID:       "u-owner",
		CompetitionID: "fifa-world-cup-2026",
		Visibility:    group.VisibilityPrivate,
	}
}

func newMockRuleService(t *testing.T) (*RuleService, *groupmock.Repository, *rulemock.Repository) {
	t.Helper()
	groupRepo := groupmock.NewRepository(t)
	ruleRepo := rulemock.NewRepository(t)
	svc := NewRuleService(groupRepo, ruleRepo, &sequenceIDs{prefix: "rule"}, RuleConfig{PointsMin: 0, PointsMax: 100})
	svc.now = func() time.Time { return testKickoff }
	return svc, groupRepo, ruleRepo
}

func TestRuleService_AddRule_CreatesForOwnerUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, groupRepo, ruleRepo := newMockRuleService(t)

	groupRepo.On("GetByID", ctx, mockGroupID).Return(mockGroup(), true, nil).Once()
	groupRepo.On("GetMember", ctx, mockGroupID, "u-owner").
		Return(group.Member{GroupID: mockGroupID, UserID: "u-owner", Role: group.RoleOwner}, true, nil).
		Once()
	ruleRepo.On("ListByGroup", ctx, mockGroupID).Return([]rule.Rule{}, nil).Once()
	ruleRepo.On("Create", ctx, mock.MatchedBy(func(r rule.Rule) bool {
		return r.ID == "rule-0001" &&
			r.Type == rule.TypeExactScore &&
			r.Points == 5 &&
			r.Description == "spot on" &&
			r.CreatedAt.Equal(testKickoff)
	})).Return(nil).Once()

	got, err := svc.AddRule(ctx, AddRuleInput{
		ActorUserID: " u-owner ",
		GroupID:     mockGroupID,
		Type:        "exact_score",
		Points:      5,
		Description: "  spot on ",
	})
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if got.ID != "rule-0001" || got.GroupID != mockGroupID {
		t.Fatalf("unexpected rule: %+v", got)
	}
}

func TestRuleService_AddRule_IdenticalDefinitionReturnsExistingUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, groupRepo, ruleRepo := newMockRuleService(t)
	existing := rule.Rule{ID: "rule-old", GroupID: mockGroupID, Type: rule.TypeCorrectWinner, Points: 2}

	groupRepo.On("GetByID", ctx, mockGroupID).Return(mockGroup(), true, nil).Once()
	groupRepo.On("GetMember", ctx, mockGroupID, "u-admin").
		Return(group.Member{GroupID: mockGroupID, UserID: "u-admin", Role: group.RoleAdmin}, true, nil).
		Once()
	ruleRepo.On("ListByGroup", ctx, mockGroupID).Return([]rule.Rule{existing}, nil).Once()

	got, err := svc.AddRule(ctx, AddRuleInput{
		ActorUserID: "u-admin",
		GroupID:     mockGroupID,
		Type:        string(rule.TypeCorrectWinner),
		Points:      2,
	})
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatalf("expected existing rule, got %+v", got)
	}
	ruleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRuleService_AddRule_RejectsInvalidInputUsingMockery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input AddRuleInput
	}{
		{name: "unknown type", input: AddRuleInput{ActorUserID: "u-owner", GroupID: mockGroupID, Type: "FIRST_SCORER", Points: 3}},
		{name: "negative points", input: AddRuleInput{ActorUserID: "u-owner", GroupID: mockGroupID, Type: "EXACT_SCORE", Points: -1}},
		{name: "points above max", input: AddRuleInput{ActorUserID: "u-owner", GroupID: mockGroupID, Type: "EXACT_SCORE", Points: 101}},
		{name: "missing actor", input: AddRuleInput{GroupID: mockGroupID, Type: "EXACT_SCORE", Points: 1}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newMockRuleService(t)
			_, err := svc.AddRule(context.Background(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRuleService_AddRule_PlainMemberForbiddenUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, groupRepo, _ := newMockRuleService(t)

	groupRepo.On("GetByID", ctx, mockGroupID).Return(mockGroup(), true, nil).Once()
	groupRepo.On("GetMember", ctx, mockGroupID, "u-member").
		Return(group.Member{GroupID: mockGroupID, UserID: "u-member", Role: group.RoleMember}, true, nil).
		Once()

	_, err := svc.AddRule(ctx, AddRuleInput{ActorUserID: "u-member", GroupID: mockGroupID, Type: "EXACT_SCORE", Points: 5})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRuleService_AddRule_StoreErrorIsNotMaskedUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, groupRepo, _ := newMockRuleService(t)
	errStore := errors.New("connection reset")

	groupRepo.On("GetByID", ctx, mockGroupID).Return(mockGroup(), true, nil).Once()
	groupRepo.On("GetMember", ctx, mockGroupID, "u-owner").Return(group.Member{}, false, errStore).Once()

	_, err := svc.AddRule(ctx, AddRuleInput{ActorUserID: "u-owner", GroupID: mockGroupID, Type: "EXACT_SCORE", Points: 5})
	if !errors.Is(err, errStore) || errors.Is(err, ErrForbidden) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRuleService_ListRules_OutsiderOfPrivateGroupUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, groupRepo, _ := newMockRuleService(t)

	groupRepo.On("GetByID", ctx, mockGroupID).Return(mockGroup(), true, nil).Once()
	groupRepo.On("GetMember", ctx, mockGroupID, "u-stranger").Return(group.Member{}, false, nil).Once()

	_, err := svc.ListRules(ctx, "u-stranger", mockGroupID)
	if !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
}

func TestRuleService_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)

	for _, typ := range rule.AllTypes {
		env.addRule(g, owner, typ, 3)
	}

	got, err := env.ruleSvc.ListRules(context.Background(), owner.ID, g.ID)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(got) != len(rule.AllTypes) {
		t.Fatalf("expected %d rules, got %d", len(rule.AllTypes), len(got))
	}
	for i, typ := range rule.AllTypes {
		if got[i].Type != typ || got[i].Points != 3 {
			t.Fatalf("rule %d: unexpected %+v", i, got[i])
		}
	}
}

func TestRuleService_AddRule_ConcurrentIdenticalCreatesOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	ctx := context.Background()

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := env.ruleSvc.AddRule(ctx, AddRuleInput{
				ActorUserID: owner.ID,
				GroupID:     g.ID,
				Type:        string(rule.TypeExactScore),
				Points:      5,
				Description: "exact score",
			})
			if err != nil {
				t.Errorf("add rule: %v", err)
				return
			}
			ids[i] = r.ID
		}(i)
	}
	wg.Wait()

	got, err := env.ruleSvc.ListRules(ctx, owner.ID, g.ID)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a single rule, got %d", len(got))
	}
	for i, id := range ids {
		if id != got[0].ID {
			t.Fatalf("caller %d got rule %q, want %q", i, id, got[0].ID)
		}
	}
}
