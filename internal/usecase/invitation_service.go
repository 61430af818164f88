package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/group"
	"github.com/frozenbet/scoring-engine/internal/domain/invitation"
	"github.com/frozenbet/scoring-engine/internal/domain/user"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
	"github.com/go-playground/validator/v10"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

var inputValidator = validator.New()

type SendInvitationInput struct {
	InviterID string
	GroupID   string
	Email     string
}

// InvitationView is an invitation with the names needed to render it.
type InvitationView struct {
	invitation.Invitation
	GroupName       string
	InviterUsername string
}

type groupJoiner interface {
	joinGroup(ctx context.Context, g group.Group, userID string) error
}

type InvitationService struct {
	access      groupAccess
	groups      group.Repository
	invitations invitation.Repository
	users       user.Repository
	joiner      groupJoiner
	tokens      idgen.Generator
	idGen       idgen.Generator
	ttl         time.Duration
	now         func() time.Time
}

func NewInvitationService(
	groupRepo group.Repository,
	invitationRepo invitation.Repository,
	userRepo user.Repository,
	joiner *GroupService,
	tokens idgen.Generator,
	idGen idgen.Generator,
	ttl time.Duration,
) *InvitationService {
	if ttl <= 0 {
		ttl = defaultInvitationTTL
	}
	return &InvitationService{
		access:      groupAccess{groups: groupRepo},
		groups:      groupRepo,
		invitations: invitationRepo,
		users:       userRepo,
		joiner:      joiner,
		tokens:      tokens,
		idGen:       idGen,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (s *InvitationService) Send(ctx context.Context, input SendInvitationInput) (invitation.Invitation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Send")
	defer span.End()

	input.InviterID = strings.TrimSpace(input.InviterID)
	input.Email = user.NormalizeEmail(input.Email)
	if input.InviterID == "" {
		return invitation.Invitation{}, fmt.Errorf("%w: inviter id is required", ErrInvalidInput)
	}
	if err := inputValidator.Var(input.Email, "required,email"); err != nil {
		return invitation.Invitation{}, fmt.Errorf("%w: invitee email is invalid", ErrInvalidInput)
	}

	g, err := s.access.load(ctx, input.GroupID)
	if err != nil {
		return invitation.Invitation{}, err
	}
	if _, err := s.access.requireMember(ctx, g, input.InviterID); err != nil {
		return invitation.Invitation{}, err
	}

	invitee, exists, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("get invitee: %w", err)
	}
	if exists {
		if _, member, err := s.access.member(ctx, g, invitee.ID); err != nil {
			return invitation.Invitation{}, err
		} else if member {
			return invitation.Invitation{}, fmt.Errorf("%w: %s is already a member of group=%s", ErrConflict, input.Email, g.ID)
		}
	}

	now := s.now().UTC()
	pending, err := s.invitations.ListPendingByGroupAndEmail(ctx, g.ID, input.Email)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("list pending invitations: %w", err)
	}
	for _, item := range pending {
		if item.IsOpen(now) {
			return invitation.Invitation{}, fmt.Errorf("%w: %s already has a pending invitation to group=%s", ErrConflict, input.Email, g.ID)
		}
	}

	invitationID, err := s.idGen.NewID()
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("generate invitation id: %w", err)
	}
	token, err := s.tokens.NewID()
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("generate invitation token: %w", err)
	}

	item := invitation.Invitation{
		ID:           invitationID,
		GroupID:      g.ID,
		InviterID:    input.InviterID,
		InviteeEmail: input.Email,
		Status:       invitation.StatusPending,
		Token:        token,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
	}
	if exists {
		item.InviteeUserID = invitee.ID
	}
	if err := s.invitations.Create(ctx, item); err != nil {
		return invitation.Invitation{}, fmt.Errorf("create invitation: %w", err)
	}

	return item, nil
}

func (s *InvitationService) ListReceived(ctx context.Context, userID string) ([]InvitationView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.ListReceived")
	defer span.End()

	me, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.invitations.ListByInviteeEmail(ctx, me.Email)
	if err != nil {
		return nil, fmt.Errorf("list received invitations: %w", err)
	}
	return s.decorate(ctx, items)
}

func (s *InvitationService) ListSent(ctx context.Context, userID string) ([]InvitationView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.ListSent")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	items, err := s.invitations.ListByInviter(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sent invitations: %w", err)
	}
	return s.decorate(ctx, items)
}

func (s *InvitationService) Accept(ctx context.Context, userID, token string) (group.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Accept")
	defer span.End()

	me, item, err := s.openForInvitee(ctx, userID, token)
	if err != nil {
		return group.Group{}, err
	}
	g, err := s.access.load(ctx, item.GroupID)
	if err != nil {
		return group.Group{}, err
	}
	if _, member, err := s.access.member(ctx, g, me.ID); err != nil {
		return group.Group{}, err
	} else if member {
		return group.Group{}, fmt.Errorf("%w: already a member of group=%s", ErrConflict, g.ID)
	}

	if err := s.respond(ctx, item, me.ID, invitation.StatusAccepted); err != nil {
		return group.Group{}, err
	}
	if err := s.joiner.joinGroup(ctx, g, me.ID); err != nil {
		return group.Group{}, err
	}
	return g, nil
}

func (s *InvitationService) Decline(ctx context.Context, userID, token string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Decline")
	defer span.End()

	me, item, err := s.openForInvitee(ctx, userID, token)
	if err != nil {
		return err
	}
	return s.respond(ctx, item, me.ID, invitation.StatusDeclined)
}

// Delete withdraws a pending invitation. Only its sender may do this.
func (s *InvitationService) Delete(ctx context.Context, userID, invitationID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Delete")
	defer span.End()

	userID = strings.TrimSpace(userID)
	invitationID = strings.TrimSpace(invitationID)
	if userID == "" || invitationID == "" {
		return fmt.Errorf("%w: user id and invitation id are required", ErrInvalidInput)
	}

	item, exists, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: invitation=%s", ErrNotFound, invitationID)
	}
	if item.InviterID != userID {
		return fmt.Errorf("%w: only the sender can delete an invitation", ErrForbidden)
	}
	if item.Status != invitation.StatusPending {
		return fmt.Errorf("%w: invitation is already %s", ErrConflict, item.Status)
	}
	if err := s.invitations.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (s *InvitationService) openForInvitee(ctx context.Context, userID, token string) (user.User, invitation.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("%w: invitation token is required", ErrInvalidInput)
	}
	me, err := s.loadUser(ctx, userID)
	if err != nil {
		return user.User{}, invitation.Invitation{}, err
	}

	item, exists, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	if !exists {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("%w: invitation not found", ErrNotFound)
	}
	if item.InviteeEmail != user.NormalizeEmail(me.Email) {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("%w: invitation is addressed to another user", ErrForbidden)
	}
	if item.Status != invitation.StatusPending {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("%w: invitation is already %s", ErrConflict, item.Status)
	}
	if item.IsExpired(s.now().UTC()) {
		return user.User{}, invitation.Invitation{}, fmt.Errorf("%w: invitation expired at %s", ErrInvalidInput, item.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return me, item, nil
}

func (s *InvitationService) respond(ctx context.Context, item invitation.Invitation, userID string, status invitation.Status) error {
	updated, err := s.invitations.Respond(ctx, invitation.Response{
		InvitationID:  item.ID,
		Status:        status,
		InviteeUserID: userID,
		RespondedAt:   s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("respond to invitation: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: invitation was answered concurrently", ErrConflict)
	}
	return nil
}

func (s *InvitationService) loadUser(ctx context.Context, userID string) (user.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	me, exists, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrUnauthorized, userID)
	}
	return me, nil
}

func (s *InvitationService) decorate(ctx context.Context, items []invitation.Invitation) ([]InvitationView, error) {
	inviterIDs := make([]string, 0, len(items))
	for _, item := range items {
		inviterIDs = append(inviterIDs, item.InviterID)
	}
	names, err := usernames(ctx, s.users, inviterIDs)
	if err != nil {
		return nil, err
	}

	groupNames := make(map[string]string)
	out := make([]InvitationView, 0, len(items))
	for _, item := range items {
		name, ok := groupNames[item.GroupID]
		if !ok {
			g, exists, err := s.groups.GetByID(ctx, item.GroupID)
			if err != nil {
				return nil, fmt.Errorf("get invitation group: %w", err)
			}
			name = item.GroupID
			if exists {
				name = g.Name
			}
			groupNames[item.GroupID] = name
		}
		out = append(out, InvitationView{Invitation: item, GroupName: name, InviterUsername: names[item.InviterID]})
	}
	return out, nil
}
