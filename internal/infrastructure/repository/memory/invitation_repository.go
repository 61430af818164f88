package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
)

type InvitationRepository struct {
	s *Store
}

func NewInvitationRepository(s *Store) *InvitationRepository {
	return &InvitationRepository{s: s}
}

func (r *InvitationRepository) Create(_ context.Context, inv invitation.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.invitations {
		if existing.ID == inv.ID || existing.Token == inv.Token {
			return fmt.Errorf("%w: id=%s", invitation.ErrDuplicate, inv.ID)
		}
	}
	r.s.invitations[inv.ID] = cloneInvitation(inv)
	return nil
}

func (r *InvitationRepository) GetByID(_ context.Context, invitationID string) (invitation.Invitation, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invitations[invitationID]
	if !ok {
		return invitation.Invitation{}, false, nil
	}
	return cloneInvitation(inv), true, nil
}

func (r *InvitationRepository) GetByToken(_ context.Context, token string) (invitation.Invitation, bool, error) {
	items := r.collect(func(inv invitation.Invitation) bool { return inv.Token == token })
	if len(items) == 0 {
		return invitation.Invitation{}, false, nil
	}
	return items[0], true, nil
}

func (r *InvitationRepository) ListByInviteeEmail(_ context.Context, email string) ([]invitation.Invitation, error) {
	return r.collect(func(inv invitation.Invitation) bool { return inv.InviteeEmail == email }), nil
}

func (r *InvitationRepository) ListByInviter(_ context.Context, inviterID string) ([]invitation.Invitation, error) {
	return r.collect(func(inv invitation.Invitation) bool { return inv.InviterID == inviterID }), nil
}

func (r *InvitationRepository) ListPendingByGroupAndEmail(_ context.Context, groupID, email string) ([]invitation.Invitation, error) {
	return r.collect(func(inv invitation.Invitation) bool {
		return inv.GroupID == groupID && inv.InviteeEmail == email && inv.Status == invitation.StatusPending
	}), nil
}

func (r *InvitationRepository) Respond(_ context.Context, resp invitation.Response) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.invitations[resp.InvitationID]
	if !ok || inv.Status != invitation.StatusPending {
		return false, nil
	}
	at := resp.RespondedAt.UTC()
	inv.Status = resp.Status
	inv.RespondedAt = &at
	if resp.InviteeUserID != "" {
		inv.InviteeUserID = resp.InviteeUserID
	}
	r.s.invitations[inv.ID] = inv
	return true, nil
}

func (r *InvitationRepository) Delete(_ context.Context, invitationID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.invitations, invitationID)
	return nil
}

func (r *InvitationRepository) collect(keep func(invitation.Invitation) bool) []invitation.Invitation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]invitation.Invitation, 0)
	for _, inv := range r.s.invitations {
		if keep(inv) {
			out = append(out, cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
