package rule

import "context"

type Repository interface {
	Create(ctx context.Context, r Rule) error
	ListByGroup(ctx context.Context, groupID string) ([]Rule, error)
	ListByGroups(ctx context.Context, groupIDs []string) ([]Rule, error)
}
