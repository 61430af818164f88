package invitation

import "context"

type Repository interface {
	Create(ctx context.Context, inv Invitation) error
	GetByID(ctx context.Context, invitationID string) (Invitation, bool, error)
	GetByToken(ctx context.Context, token string) (Invitation, bool, error)
	ListByInviteeEmail(ctx context.Context, email string) ([]Invitation, error)
	ListByInviter(ctx context.Context, inviterID string) ([]Invitation, error)
	ListPendingByGroupAndEmail(ctx context.Context, groupID, email string) ([]Invitation, error)
	// Respond moves a pending invitation to a final status and reports whether it did.
	Respond(ctx context.Context, r Response) (bool, error)
	Delete(ctx context.Context, invitationID string) error
}
