package ranking

import "context"

type Repository interface {
	// ListByGroup returns rows ordered by rank asc.
	ListByGroup(ctx context.Context, groupID string) ([]Ranking, error)
	GetByGroupAndUser(ctx context.Context, groupID, userID string) (Ranking, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Ranking, error)
	// ReplaceGroup stores the full ranking of a group and copies each total onto the membership.
	ReplaceGroup(ctx context.Context, groupID string, rankings []Ranking) error
}
