package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	"github.com/frozenbet/scoring-engine/internal/domain/prediction"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func seedGroup(t *testing.T, s *Store, members ...string) {
	t.Helper()
	groups := NewGroupRepository(s)
	err := groups.Create(context.Background(), group.Group{
		ID:            "g-1",
		Name:          "Office",
		OwnerID:       "u-owner",
		CompetitionID: CompetitionIDWorldCup,
		Visibility:    group.VisibilityPrivate,
		InviteCode:    "ABCD2345",
		CreatedAt:     testNow,
	}, group.Member{GroupID: "g-1", UserID: "u-owner", Role: group.RoleOwner, JoinedAt: testNow})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, userID := range members {
		if err := groups.AddMember(context.Background(), group.Member{GroupID: "g-1", UserID: userID, Role: group.RoleMember, JoinedAt: testNow}); err != nil {
			t.Fatalf("add member %s: %v", userID, err)
		}
	}
}

func TestUserRepository_RejectsDuplicateEmailAndUsername(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	if err := repo.Create(ctx, user.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, user.User{ID: "u-2", Username: "ALICE", Email: "other@example.com"}); !errors.Is(err, user.ErrDuplicate) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	if err := repo.Create(ctx, user.User{ID: "u-3", Username: "bob", Email: "alice@example.com"}); !errors.Is(err, user.ErrDuplicate) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	got, ok, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil || !ok || got.ID != "u-1" {
		t.Fatalf("unexpected lookup result: %+v ok=%v err=%v", got, ok, err)
	}
}

func TestGroupRepository_CreateWritesOwnerAndZeroRanking(t *testing.T) {
	s := NewStore()
	seedGroup(t, s)

	member, ok, err := NewGroupRepository(s).GetMember(context.Background(), "g-1", "u-owner")
	if err != nil || !ok {
		t.Fatalf("expected owner membership, ok=%v err=%v", ok, err)
	}
	if member.Role != group.RoleOwner {
		t.Fatalf("unexpected role %s", member.Role)
	}

	row, ok, err := NewRankingRepository(s).GetByGroupAndUser(context.Background(), "g-1", "u-owner")
	if err != nil || !ok {
		t.Fatalf("expected ranking row, ok=%v err=%v", ok, err)
	}
	if row.TotalPoints != 0 || row.Rank != 0 {
		t.Fatalf("expected zeroed ranking, got %+v", row)
	}
}

func TestGroupRepository_RejectsDuplicateMemberAndInviteCode(t *testing.T) {
	s := NewStore()
	seedGroup(t, s, "u-1")
	repo := NewGroupRepository(s)

	err := repo.AddMember(context.Background(), group.Member{GroupID: "g-1", UserID: "u-1", Role: group.RoleMember})
	if !errors.Is(err, group.ErrDuplicateMember) {
		t.Fatalf("expected duplicate member, got %v", err)
	}

	err = repo.Create(context.Background(), group.Group{ID: "g-2", InviteCode: "ABCD2345"}, group.Member{GroupID: "g-2", UserID: "u-9", Role: group.RoleOwner})
	if !errors.Is(err, group.ErrInviteCodeTaken) {
		t.Fatalf("expected invite code conflict, got %v", err)
	}
}

func TestGroupRepository_RemoveMemberDropsPredictionsAndRanking(t *testing.T) {
	s := NewStore()
	seedGroup(t, s, "u-1")
	predictions := NewPredictionRepository(s)
	ctx := context.Background()

	if err := predictions.Create(ctx, prediction.Prediction{ID: "p-1", UserID: "u-1", MatchID: "wc-m-001", GroupID: "g-1", PredictedAt: testNow}); err != nil {
		t.Fatalf("create prediction: %v", err)
	}

	removed, err := NewGroupRepository(s).RemoveMember(ctx, "g-1", "u-1")
	if err != nil || !removed {
		t.Fatalf("expected removal, removed=%v err=%v", removed, err)
	}
	if count, _ := predictions.CountByGroup(ctx, "g-1"); count != 0 {
		t.Fatalf("expected predictions to be removed, got %d", count)
	}
	if _, ok, _ := NewRankingRepository(s).GetByGroupAndUser(ctx, "g-1", "u-1"); ok {
		t.Fatalf("expected ranking row to be removed")
	}

	// The same user can predict again after rejoining.
	if err := NewGroupRepository(s).AddMember(ctx, group.Member{GroupID: "g-1", UserID: "u-1", Role: group.RoleMember}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if err := predictions.Create(ctx, prediction.Prediction{ID: "p-2", UserID: "u-1", MatchID: "wc-m-001", GroupID: "g-1"}); err != nil {
		t.Fatalf("expected new prediction after rejoin, got %v", err)
	}
}

func TestPredictionRepository_DuplicateKeepsFirst(t *testing.T) {
	repo := NewPredictionRepository(NewStore())
	ctx := context.Background()

	first := prediction.Prediction{ID: "p-1", UserID: "u-1", MatchID: "m-1", GroupID: "g-1", HomeScore: 2, AwayScore: 1}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, prediction.Prediction{ID: "p-2", UserID: "u-1", MatchID: "m-1", GroupID: "g-1", HomeScore: 0, AwayScore: 0})
	if !errors.Is(err, prediction.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	got, ok, _ := repo.GetByID(ctx, "p-1")
	if !ok || got.HomeScore != 2 || got.AwayScore != 1 {
		t.Fatalf("first prediction changed: %+v", got)
	}
	if _, ok, _ := repo.GetByID(ctx, "p-2"); ok {
		t.Fatalf("rejected prediction must not be stored")
	}
}

func TestPredictionRepository_SetPointsIfUnscoredWritesOnce(t *testing.T) {
	repo := NewPredictionRepository(NewStore())
	ctx := context.Background()
	_ = repo.Create(ctx, prediction.Prediction{ID: "p-1", UserID: "u-1", MatchID: "m-1", GroupID: "g-1"})

	written, err := repo.SetPointsIfUnscored(ctx, prediction.ScoreWrite{PredictionID: "p-1", Points: 5, ScoredAt: testNow})
	if err != nil || !written {
		t.Fatalf("expected first write, written=%v err=%v", written, err)
	}
	written, err = repo.SetPointsIfUnscored(ctx, prediction.ScoreWrite{PredictionID: "p-1", Points: 9, ScoredAt: testNow.Add(time.Hour)})
	if err != nil || written {
		t.Fatalf("expected guarded second write, written=%v err=%v", written, err)
	}

	got, _, _ := repo.GetByID(ctx, "p-1")
	if got.PointsEarned == nil || *got.PointsEarned != 5 {
		t.Fatalf("expected points 5, got %v", got.PointsEarned)
	}
	if got.ScoredAt == nil || !got.ScoredAt.Equal(testNow) {
		t.Fatalf("unexpected scoredAt %v", got.ScoredAt)
	}
}

func TestPredictionRepository_ListFiltersAndLimits(t *testing.T) {
	repo := NewPredictionRepository(NewStore())
	ctx := context.Background()
	for i, id := range []string{"p-1", "p-2", "p-3"} {
		_ = repo.Create(ctx, prediction.Prediction{
			ID:          id,
			UserID:      "u-1",
			MatchID:     []string{"m-1", "m-2", "m-3"}[i],
			GroupID:     "g-1",
			PredictedAt: testNow.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = repo.Create(ctx, prediction.Prediction{ID: "p-4", UserID: "u-2", MatchID: "m-1", GroupID: "g-1", PredictedAt: testNow})

	items, err := repo.List(ctx, prediction.Filter{GroupID: "g-1", UserID: "u-1", Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "p-3" || items[1].ID != "p-2" {
		t.Fatalf("expected newest two of u-1, got %+v", items)
	}
}

func TestRankingRepository_ReplaceGroupUpdatesMemberTotals(t *testing.T) {
	s := NewStore()
	seedGroup(t, s, "u-1")
	ctx := context.Background()

	err := NewRankingRepository(s).ReplaceGroup(ctx, "g-1", []ranking.Ranking{
		{GroupID: "g-1", UserID: "u-1", TotalPoints: 8, Rank: 1},
		{GroupID: "g-1", UserID: "u-owner", TotalPoints: 3, Rank: 2},
		{GroupID: "g-1", UserID: "u-gone", TotalPoints: 1, Rank: 3},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	rows, _ := NewRankingRepository(s).ListByGroup(ctx, "g-1")
	if len(rows) != 2 || rows[0].UserID != "u-1" || rows[1].UserID != "u-owner" {
		t.Fatalf("unexpected rankings %+v", rows)
	}
	member, _, _ := NewGroupRepository(s).GetMember(ctx, "g-1", "u-1")
	if member.TotalPoints != 8 {
		t.Fatalf("expected denormalized total 8, got %d", member.TotalPoints)
	}
}

func TestCompetitionRepository_FinishedMatchIsImmutable(t *testing.T) {
	s := NewStore()
	Seed(s)
	repo := NewCompetitionRepository(s)
	ctx := context.Background()

	home, away := 2, 1
	match, _, _ := repo.GetMatch(ctx, "wc-m-001")
	match.Status = competition.MatchFinished
	match.HomeScore, match.AwayScore = &home, &away
	updated, err := repo.UpdateMatchResult(ctx, match)
	if err != nil || !updated {
		t.Fatalf("expected result update, updated=%v err=%v", updated, err)
	}

	other := 0
	match.HomeScore = &other
	updated, err = repo.UpdateMatchResult(ctx, match)
	if err != nil || updated {
		t.Fatalf("finished match must not be updated, updated=%v err=%v", updated, err)
	}

	got, _, _ := repo.GetMatch(ctx, "wc-m-001")
	if got.HomeScore == nil || *got.HomeScore != 2 {
		t.Fatalf("expected stored home score 2, got %v", got.HomeScore)
	}
}

func TestInvitationRepository_RespondOnlyWhilePending(t *testing.T) {
	repo := NewInvitationRepository(NewStore())
	ctx := context.Background()
	_ = repo.Create(ctx, invitation.Invitation{
		ID:           "inv-1",
		GroupID:      "g-1",
		InviterID:    "u-owner",
		InviteeEmail: "bob@example.com",
		Status:       invitation.StatusPending,
		Token:        "token-1",
		ExpiresAt:    testNow.Add(time.Hour),
		CreatedAt:    testNow,
	})

	ok, err := repo.Respond(ctx, invitation.Response{InvitationID: "inv-1", Status: invitation.StatusAccepted, InviteeUserID: "u-bob", RespondedAt: testNow})
	if err != nil || !ok {
		t.Fatalf("expected accept, ok=%v err=%v", ok, err)
	}
	ok, err = repo.Respond(ctx, invitation.Response{InvitationID: "inv-1", Status: invitation.StatusDeclined, RespondedAt: testNow})
	if err != nil || ok {
		t.Fatalf("second response must be rejected, ok=%v err=%v", ok, err)
	}

	got, _, _ := repo.GetByToken(ctx, "token-1")
	if got.Status != invitation.StatusAccepted || got.InviteeUserID != "u-bob" {
		t.Fatalf("unexpected invitation state %+v", got)
	}
}
