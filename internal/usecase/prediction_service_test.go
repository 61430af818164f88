package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPredictionService_Submit_LockBoundary(t *testing.T) {
	cases := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "one second before kickoff", at: testKickoff.Add(-time.Second)},
		{name: "exactly at kickoff", at: testKickoff, wantErr: ErrAlreadyLocked},
		{name: "after kickoff", at: testKickoff.Add(time.Minute), wantErr: ErrAlreadyLocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			owner := env.addUser("owner")
			g := env.addGroup(owner)
			env.clock.Set(tc.at)

			_, err := env.predictionSvc.Submit(context.Background(), SubmitPredictionInput{
				UserID: owner.ID, MatchID: testMatchID, GroupID: g.ID, HomeScore: 1, AwayScore: 0,
			})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestPredictionService_Submit_DuplicateKeepsFirst(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g := env.addGroup(owner)
	first := env.predict(g, owner, testMatchID, 2, 1)

	_, err := env.predictionSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID: owner.ID, MatchID: testMatchID, GroupID: g.ID, HomeScore: 0, AwayScore: 3,
	})
	if !errors.Is(err, ErrDuplicatePrediction) {
		t.Fatalf("expected ErrDuplicatePrediction, got %v", err)
	}

	stored := mustPrediction(t, env, first.ID)
	if stored.HomeScore != 2 || stored.AwayScore != 1 {
		t.Fatalf("first prediction changed: %+v", stored)
	}
	if count, _ := env.predictions.CountByGroup(context.Background(), g.ID); count != 1 {
		t.Fatalf("expected one stored prediction, got %d", count)
	}
}

func TestPredictionService_Submit_SameMatchInAnotherGroup(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	g1 := env.addGroup(owner)
	g2 := env.addGroup(owner)

	env.predict(g1, owner, testMatchID, 1, 0)
	env.predict(g2, owner, testMatchID, 0, 1)
}

func TestPredictionService_Submit_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	outsider := env.addUser("outsider")
	g := env.addGroup(owner)

	cases := []struct {
		name    string
		input   SubmitPredictionInput
		wantErr error
	}{
		{
			name:    "negative score",
			input:   SubmitPredictionInput{UserID: owner.ID, MatchID: testMatchID, GroupID: g.ID, HomeScore: -1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing group id",
			input:   SubmitPredictionInput{UserID: owner.ID, MatchID: testMatchID},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown group",
			input:   SubmitPredictionInput{UserID: owner.ID, MatchID: testMatchID, GroupID: "missing"},
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown match",
			input:   SubmitPredictionInput{UserID: owner.ID, MatchID: "missing", GroupID: g.ID},
			wantErr: ErrNotFound,
		},
		{
			name:    "not a member",
			input:   SubmitPredictionInput{UserID: outsider.ID, MatchID: testMatchID, GroupID: g.ID},
			wantErr: ErrNotAParticipant,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.predictionSvc.Submit(context.Background(), tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestPredictionService_Submit_NonMemberCheckedBeforeLock(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	outsider := env.addUser("outsider")
	g := env.addGroup(owner)
	env.clock.Set(testKickoff.Add(time.Hour))

	_, err := env.predictionSvc.Submit(context.Background(), SubmitPredictionInput{
		UserID: outsider.ID, MatchID: testMatchID, GroupID: g.ID,
	})
	if !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("expected ErrNotAParticipant, got %v", err)
	}
}

func TestPredictionService_List(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	alice := env.addUser("alice")
	outsider := env.addUser("outsider")
	g := env.addGroup(owner, alice)

	env.predict(g, owner, testMatchID, 1, 0)
	env.clock.Advance(time.Minute)
	env.predict(g, alice, testMatchID, 2, 2)
	env.clock.Advance(time.Minute)
	env.predict(g, alice, "wc-m-002", 0, 1)

	t.Run("group members see every prediction newest first", func(t *testing.T) {
		items, err := env.predictionSvc.List(context.Background(), ListPredictionsInput{ActorUserID: owner.ID, GroupID: g.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 3 || items[0].MatchID != "wc-m-002" {
			t.Fatalf("unexpected items %+v", items)
		}
	})

	t.Run("outsiders cannot read a private group", func(t *testing.T) {
		_, err := env.predictionSvc.List(context.Background(), ListPredictionsInput{ActorUserID: outsider.ID, GroupID: g.ID})
		if !errors.Is(err, ErrNotAParticipant) {
			t.Fatalf("expected ErrNotAParticipant, got %v", err)
		}
	})

	t.Run("without group only own predictions", func(t *testing.T) {
		items, err := env.predictionSvc.List(context.Background(), ListPredictionsInput{ActorUserID: owner.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) != 1 || items[0].UserID != owner.ID {
			t.Fatalf("unexpected items %+v", items)
		}
		_, err = env.predictionSvc.List(context.Background(), ListPredictionsInput{ActorUserID: owner.ID, UserID: alice.ID})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("lock state is derived at read time", func(t *testing.T) {
		env.clock.Set(testKickoff)
		items, err := env.predictionSvc.List(context.Background(), ListPredictionsInput{ActorUserID: owner.ID, GroupID: g.ID, MatchID: testMatchID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, item := range items {
			if !item.IsLocked {
				t.Fatalf("expected locked prediction at kickoff: %+v", item)
			}
		}
	})
}
