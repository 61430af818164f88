package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/frozenbet/scoring-engine/internal/domain/competition"
	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
	"github.com/frozenbet/scoring-engine/internal/domain/rule"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
	"github.com/frozenbet/scoring-engine/internal/platform/logging"
)

const (
	maxGroupNameLength        = 100
	maxGroupDescriptionLength = 500
	inviteCodeAttempts        = 5
)

type CreateGroupInput struct {
	UserID        string
	Name          string
	Description   string
	CompetitionID string
	Visibility    string
}

type GroupSummary struct {
	Group       group.Group
	MemberCount int
	IsMember    bool
}

type MemberView struct {
	group.Member
	Username string
}

type GroupDetail struct {
	Group    group.Group
	MyRole   group.Role
	IsMember bool
	Members  []MemberView
	Rules    []rule.Rule
	Rankings []RankingView
}

type GroupService struct {
	access       groupAccess
	groups       group.Repository
	rules        rule.Repository
	rankings     ranking.Repository
	users        user.Repository
	competitions competition.Repository
	ranker       groupRecomputer
	idGen        idgen.Generator
	logger       *logging.Logger
	newCode      func() (string, error)
	now          func() time.Time
}

func NewGroupService(
	groupRepo group.Repository,
	ruleRepo rule.Repository,
	rankingRepo ranking.Repository,
	userRepo user.Repository,
	competitionRepo competition.Repository,
	ranker groupRecomputer,
	idGen idgen.Generator,
	logger *logging.Logger,
) *GroupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GroupService{
		access:       groupAccess{groups: groupRepo},
		groups:       groupRepo,
		rules:        ruleRepo,
		rankings:     rankingRepo,
		users:        userRepo,
		competitions: competitionRepo,
		ranker:       ranker,
		idGen:        idGen,
		logger:       logger,
		newCode:      group.GenerateInviteCode,
		now:          time.Now,
	}
}

func (s *GroupService) CreateGroup(ctx context.Context, input CreateGroupInput) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.CreateGroup")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	switch {
	case input.UserID == "":
		return group.Group{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case input.Name == "":
		return group.Group{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	case utf8.RuneCountInString(input.Name) > maxGroupNameLength:
		return group.Group{}, fmt.Errorf("%w: group name must be at most %d characters", ErrInvalidInput, maxGroupNameLength)
	case utf8.RuneCountInString(input.Description) > maxGroupDescriptionLength:
		return group.Group{}, fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxGroupDescriptionLength)
	case input.CompetitionID == "":
		return group.Group{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	visibility, err := group.ParseVisibility(input.Visibility)
	if err != nil {
		return group.Group{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, exists, err := s.competitions.GetCompetition(ctx, input.CompetitionID); err != nil {
		return group.Group{}, fmt.Errorf("get competition: %w", err)
	} else if !exists {
		return group.Group{}, fmt.Errorf("%w: competition=%s", ErrNotFound, input.CompetitionID)
	}

	groupID, err := s.idGen.NewID()
	if err != nil {
		return group.Group{}, fmt.Errorf("generate group id: %w", err)
	}
	now := s.now().UTC()
	g := group.Group{
		ID:            groupID,
		Name:          input.Name,
		Description:   input.Description,
		OwnerID:       input.UserID,
		CompetitionID: input.CompetitionID,
		Visibility:    visibility,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	owner := group.Member{GroupID: g.ID, UserID: input.UserID, Role: group.RoleOwner, JoinedAt: now}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return group.Group{}, fmt.Errorf("generate invite code: %w", err)
		}
		g.InviteCode = code

		err = s.groups.Create(ctx, g, owner)
		if err == nil {
			break
		}
		if !errors.Is(err, group.ErrInviteCodeTaken) && !isDuplicateConstraintError(err) {
			return group.Group{}, fmt.Errorf("create group: %w", err)
		}
		if attempt >= inviteCodeAttempts {
			return group.Group{}, fmt.Errorf("%w: could not allocate a unique invite code", ErrConflict)
		}
	}

	s.recompute(ctx, g.ID)
	return g, nil
}

func (s *GroupService) ListMyGroups(ctx context.Context, userID string) ([]group.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ListMyGroups")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups by user: %w", err)
	}
	rows, err := s.rankings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rankings by user: %w", err)
	}
	rankByGroup := make(map[string]ranking.Ranking, len(rows))
	for _, row := range rows {
		rankByGroup[row.GroupID] = row
	}

	out := make([]group.Membership, 0, len(groups))
	for _, g := range groups {
		members, err := s.groups.ListMembers(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list members group=%s: %w", g.ID, err)
		}
		item := group.Membership{Group: g, MemberCount: len(members), Movement: ranking.MovementNew}
		for _, m := range members {
			if m.UserID == userID {
				item.Role = m.Role
				item.TotalPoints = m.TotalPoints
			}
		}
		if row, ok := rankByGroup[g.ID]; ok {
			item.MyRank = row.Rank
			item.PreviousRank = row.PreviousRank
			item.Movement = row.Movement()
			item.TotalPoints = row.TotalPoints
		}
		out = append(out, item)
	}

	return out, nil
}

func (s *GroupService) ListPublicGroups(ctx context.Context, userID, competitionID string) ([]GroupSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.ListPublicGroups")
	defer span.End()

	userID = strings.TrimSpace(userID)
	groups, err := s.groups.ListPublic(ctx, strings.TrimSpace(competitionID))
	if err != nil {
		return nil, fmt.Errorf("list public groups: %w", err)
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		members, err := s.groups.ListMembers(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list members group=%s: %w", g.ID, err)
		}
		item := GroupSummary{Group: g, MemberCount: len(members)}
		for _, m := range members {
			if m.UserID == userID {
				item.IsMember = true
				break
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// GetGroup returns the group with members, rules and rankings. Private groups are visible to members only.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (GroupDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.GetGroup")
	defer span.End()

	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return GroupDetail{}, err
	}
	me, isMember, err := s.access.requireViewer(ctx, g, strings.TrimSpace(userID))
	if err != nil {
		return GroupDetail{}, err
	}

	members, err := s.groups.ListMembers(ctx, g.ID)
	if err != nil {
		return GroupDetail{}, fmt.Errorf("list group members: %w", err)
	}
	rules, err := s.rules.ListByGroup(ctx, g.ID)
	if err != nil {
		return GroupDetail{}, fmt.Errorf("list group rules: %w", err)
	}
	rows, err := s.rankings.ListByGroup(ctx, g.ID)
	if err != nil {
		return GroupDetail{}, fmt.Errorf("list group rankings: %w", err)
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}
	names, err := usernames(ctx, s.users, memberIDs)
	if err != nil {
		return GroupDetail{}, err
	}

	detail := GroupDetail{
		Group:    g,
		IsMember: isMember,
		Members:  make([]MemberView, 0, len(members)),
		Rules:    rules,
		Rankings: make([]RankingView, 0, len(rows)),
	}
	if isMember {
		detail.MyRole = me.Role
	}
	for _, m := range members {
		detail.Members = append(detail.Members, MemberView{Member: m, Username: names[m.UserID]})
	}
	for _, row := range rows {
		detail.Rankings = append(detail.Rankings, RankingView{Ranking: row, Username: names[row.UserID], Movement: row.Movement()})
	}
	return detail, nil
}

func (s *GroupService) JoinByInviteCode(ctx context.Context, userID, code string) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.JoinByInviteCode")
	defer span.End()

	userID = strings.TrimSpace(userID)
	code = group.NormalizeInviteCode(code)
	if userID == "" {
		return group.Group{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(code) != group.InviteCodeLength {
		return group.Group{}, fmt.Errorf("%w: invite code must be %d characters", ErrInvalidInput, group.InviteCodeLength)
	}

	g, exists, err := s.groups.GetByInviteCode(ctx, code)
	if err != nil {
		return group.Group{}, fmt.Errorf("get group by invite code: %w", err)
	}
	if !exists {
		return group.Group{}, fmt.Errorf("%w: invite code=%s", ErrNotFound, code)
	}
	if err := s.joinGroup(ctx, g, userID); err != nil {
		return group.Group{}, err
	}
	return g, nil
}

func (s *GroupService) JoinPublicGroup(ctx context.Context, userID, groupID string) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.JoinPublicGroup")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return group.Group{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return group.Group{}, err
	}
	if !g.IsPublic() {
		return group.Group{}, fmt.Errorf("%w: group=%s is private, use an invite code", ErrForbidden, g.ID)
	}
	if err := s.joinGroup(ctx, g, userID); err != nil {
		return group.Group{}, err
	}
	return g, nil
}

func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.LeaveGroup")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return err
	}
	m, err := s.access.requireMember(ctx, g, userID)
	if err != nil {
		return err
	}
	if m.Role == group.RoleOwner || g.OwnerID == userID {
		return fmt.Errorf("%w: %v", ErrForbidden, group.ErrOwnerImmutable)
	}

	return s.removeMember(ctx, g, userID)
}

func (s *GroupService) RemoveMember(ctx context.Context, actorUserID, groupID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GroupService.RemoveMember")
	defer span.End()

	actorUserID = strings.TrimSpace(actorUserID)
	userID = strings.TrimSpace(userID)
	if actorUserID == "" || userID == "" {
		return fmt.Errorf("%w: actor and member ids are required", ErrInvalidInput)
	}
	g, err := s.access.load(ctx, groupID)
	if err != nil {
		return err
	}
	actor, err := s.access.requireManager(ctx, g, actorUserID)
	if err != nil {
		return err
	}
	target, exists, err := s.access.member(ctx, g, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: member=%s group=%s", ErrNotFound, userID, g.ID)
	}
	if target.Role == group.RoleOwner || g.OwnerID == userID {
		return fmt.Errorf("%w: %v", ErrForbidden, group.ErrOwnerImmutable)
	}
	if actor.Role == group.RoleAdmin && target.Role == group.RoleAdmin {
		return fmt.Errorf("%w: admins cannot remove other admins", ErrForbidden)
	}

	return s.removeMember(ctx, g, userID)
}

// joinGroup adds userID as a plain member and ranks them.
func (s *GroupService) joinGroup(ctx context.Context, g group.Group, userID string) error {
	err := s.groups.AddMember(ctx, group.Member{
		GroupID:  g.ID,
		UserID:   userID,
		Role:     group.RoleMember,
		JoinedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, group.ErrDuplicateMember) || isDuplicateConstraintError(err) {
			return fmt.Errorf("%w: user=%s is already a member of group=%s", ErrConflict, userID, g.ID)
		}
		return fmt.Errorf("add group member: %w", err)
	}

	s.recompute(ctx, g.ID)
	return nil
}

func (s *GroupService) removeMember(ctx context.Context, g group.Group, userID string) error {
	removed, err := s.groups.RemoveMember(ctx, g.ID, userID)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: member=%s group=%s", ErrNotFound, userID, g.ID)
	}

	s.recompute(ctx, g.ID)
	return nil
}

// recompute refreshes ranks after membership changes. Failures leave the previous ranking in place.
func (s *GroupService) recompute(ctx context.Context, groupID string) {
	if s.ranker == nil {
		return
	}
	if _, err := s.ranker.Recompute(ctx, groupID, false); err != nil {
		s.logger.WarnContext(ctx, "recompute rankings after membership change failed", "group_id", groupID, "error", err)
	}
}
