package group

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/ranking"
)

const (
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength   = 8
)

var (
	ErrDuplicateMember   = errors.New("user is already a group member")
	ErrInviteCodeTaken   = errors.New("invite code already in use")
	ErrOwnerImmutable    = errors.New("group owner cannot leave or be removed")
	ErrUnknownVisibility = errors.New("unknown group visibility")
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func ParseVisibility(v string) (Visibility, error) {
	switch Visibility(strings.ToLower(strings.TrimSpace(v))) {
	case "", VisibilityPrivate:
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVisibility, v)
	}
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanManage reports whether the role may edit rules, refresh rankings and remove members.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Group struct {
	ID            string
	Name          string
	Description   string
	OwnerID       string
	CompetitionID string
	Visibility    Visibility
	InviteCode    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (g Group) IsPublic() bool {
	return g.Visibility == VisibilityPublic
}

type Member struct {
	GroupID     string
	UserID      string
	Role        Role
	JoinedAt    time.Time
	TotalPoints int
}

// Membership is one of the caller's groups with their standing in it.
type Membership struct {
	Group        Group
	Role         Role
	TotalPoints  int
	MyRank       int
	PreviousRank *int
	Movement     ranking.Movement
	MemberCount  int
}

// GenerateInviteCode returns a random code over an alphabet without look-alike characters.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes for invite code: %w", err)
	}

	out := make([]byte, InviteCodeLength)
	for i, b := range buf {
		out[i] = InviteCodeAlphabet[int(b)%len(InviteCodeAlphabet)]
	}
	return string(out), nil
}

func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
