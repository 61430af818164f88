package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
)

func TestInvitationService_SendAcceptFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	ana := env.addUser("ana")
	g := env.addGroup(owner)
	ctx := context.Background()

	sent, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: " ANA@example.com "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.InviteeEmail != "ana@example.com" || sent.InviteeUserID != ana.ID || sent.Token == "" {
		t.Fatalf("unexpected invitation: %+v", sent)
	}
	if !sent.ExpiresAt.Equal(env.clock.Now().Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %s", sent.ExpiresAt)
	}

	if _, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: "ana@example.com"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second pending invitation, got %v", err)
	}

	notes, err := env.notifySvc.ListNotifications(ctx, ana.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Message != "owner invited you to join Office pool" || notes[0].Token != sent.Token {
		t.Fatalf("unexpected notifications: %+v", notes)
	}

	joined, err := env.invitationSvc.Accept(ctx, ana.ID, sent.Token)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if joined.ID != g.ID {
		t.Fatalf("joined wrong group %s", joined.ID)
	}
	if _, ok, _ := env.groups.GetMember(ctx, g.ID, ana.ID); !ok {
		t.Fatalf("expected ana to be a member")
	}
	if _, err := env.invitationSvc.Accept(ctx, ana.ID, sent.Token); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second accept, got %v", err)
	}

	notes, err = env.notifySvc.ListNotifications(ctx, ana.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("accepted invitation must not notify, got %+v", notes)
	}

	if _, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: ana.Email}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict inviting an existing member, got %v", err)
	}
}

func TestInvitationService_SendValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	outsider := env.addUser("outsider")
	g := env.addGroup(owner)

	cases := []struct {
		name    string
		input   SendInvitationInput
		wantErr error
	}{
		{name: "invalid email", input: SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: "not-an-email"}, wantErr: ErrInvalidInput},
		{name: "inviter not a member", input: SendInvitationInput{InviterID: outsider.ID, GroupID: g.ID, Email: "x@example.com"}, wantErr: ErrNotAParticipant},
		{name: "unknown group", input: SendInvitationInput{InviterID: owner.ID, GroupID: "missing", Email: "x@example.com"}, wantErr: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.invitationSvc.Send(context.Background(), tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestInvitationService_AcceptRules(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	ana := env.addUser("ana")
	ben := env.addUser("ben")
	g := env.addGroup(owner)
	ctx := context.Background()

	sent, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: ana.Email})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := env.invitationSvc.Accept(ctx, ben.ID, sent.Token); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another user, got %v", err)
	}
	if _, err := env.invitationSvc.Accept(ctx, ana.ID, "unknown-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}

	env.clock.Advance(7 * 24 * time.Hour)
	if _, err := env.invitationSvc.Accept(ctx, ana.ID, sent.Token); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for expired invitation, got %v", err)
	}
	if notes, _ := env.notifySvc.ListNotifications(ctx, ana.ID); len(notes) != 0 {
		t.Fatalf("expired invitation must not notify, got %+v", notes)
	}

	// An expired invitation no longer blocks a fresh one.
	if _, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: ana.Email}); err != nil {
		t.Fatalf("resend after expiry: %v", err)
	}
}

func TestInvitationService_DeclineAndDelete(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner")
	ana := env.addUser("ana")
	ben := env.addUser("ben")
	g := env.addGroup(owner, ben)
	ctx := context.Background()

	first, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: owner.ID, GroupID: g.ID, Email: ana.Email})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := env.invitationSvc.Decline(ctx, ana.ID, first.Token); err != nil {
		t.Fatalf("decline: %v", err)
	}
	stored, ok, err := env.invitations.GetByID(ctx, first.ID)
	if err != nil || !ok {
		t.Fatalf("get invitation: ok=%v err=%v", ok, err)
	}
	if stored.Status != invitation.StatusDeclined || stored.RespondedAt == nil {
		t.Fatalf("unexpected declined invitation: %+v", stored)
	}
	if err := env.invitationSvc.Delete(ctx, owner.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict deleting an answered invitation, got %v", err)
	}

	second, err := env.invitationSvc.Send(ctx, SendInvitationInput{InviterID: ben.ID, GroupID: g.ID, Email: "carol@example.com"})
	if err != nil {
		t.Fatalf("send to unregistered email: %v", err)
	}
	if err := env.invitationSvc.Delete(ctx, owner.ID, second.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-sender, got %v", err)
	}
	if err := env.invitationSvc.Delete(ctx, ben.ID, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sent, err := env.invitationSvc.ListSent(ctx, ben.ID)
	if err != nil {
		t.Fatalf("list sent: %v", err)
	}
	if len(sent) != 0 {
		t.Fatalf("expected deleted invitation gone, got %+v", sent)
	}

	received, err := env.invitationSvc.ListReceived(ctx, ana.ID)
	if err != nil {
		t.Fatalf("list received: %v", err)
	}
	if len(received) != 1 || received[0].GroupName != "Office pool" || received[0].InviterUsername != "owner" {
		t.Fatalf("unexpected received invitations: %+v", received)
	}
}
