package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
)

// groupAccess resolves a group and the caller's standing in it.
type groupAccess struct {
	groups group.Repository
}

func (a groupAccess) load(ctx context.Context, groupID string) (group.Group, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return group.Group{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}

	g, exists, err := a.groups.GetByID(ctx, groupID)
	if err != nil {
		return group.Group{}, fmt.Errorf("get group: %w", err)
	}
	if !exists {
		return group.Group{}, fmt.Errorf("%w: group=%s", ErrNotFound, groupID)
	}
	return g, nil
}

func (a groupAccess) member(ctx context.Context, g group.Group, userID string) (group.Member, bool, error) {
	m, ok, err := a.groups.GetMember(ctx, g.ID, userID)
	if err != nil {
		return group.Member{}, false, fmt.Errorf("get group member: %w", err)
	}
	return m, ok, nil
}

func (a groupAccess) requireMember(ctx context.Context, g group.Group, userID string) (group.Member, error) {
	m, ok, err := a.member(ctx, g, userID)
	if err != nil {
		return group.Member{}, err
	}
	if !ok {
		return group.Member{}, fmt.Errorf("%w: user=%s group=%s", ErrNotAParticipant, userID, g.ID)
	}
	return m, nil
}

// requireViewer admits members of any group and any caller of a public group.
func (a groupAccess) requireViewer(ctx context.Context, g group.Group, userID string) (group.Member, bool, error) {
	m, ok, err := a.member(ctx, g, userID)
	if err != nil {
		return group.Member{}, false, err
	}
	if !ok && !g.IsPublic() {
		return group.Member{}, false, fmt.Errorf("%w: user=%s group=%s", ErrNotAParticipant, userID, g.ID)
	}
	return m, ok, nil
}

func (a groupAccess) requireManager(ctx context.Context, g group.Group, userID string) (group.Member, error) {
	m, ok, err := a.member(ctx, g, userID)
	if err != nil {
		return group.Member{}, err
	}
	if !ok || !m.Role.CanManage() {
		return group.Member{}, fmt.Errorf("%w: only group owner or admin can do this", ErrForbidden)
	}
	return m, nil
}
