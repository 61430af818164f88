package group

import "context"

type Repository interface {
	// Create stores the group with its owner membership and a zeroed ranking row.
	Create(ctx context.Context, g Group, owner Member) error
	GetByID(ctx context.Context, groupID string) (Group, bool, error)
	GetByInviteCode(ctx context.Context, code string) (Group, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Group, error)
	ListPublic(ctx context.Context, competitionID string) ([]Group, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Group, error)

	// AddMember stores the membership and a zeroed ranking row.
	AddMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, groupID, userID string) (Member, bool, error)
	ListMembers(ctx context.Context, groupID string) ([]Member, error)
	// RemoveMember deletes the membership with the member's predictions and ranking row in the group.
	RemoveMember(ctx context.Context, groupID, userID string) (bool, error)
}
