package jobdispatch

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event Event) error
}
