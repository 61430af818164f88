package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/frozenbet/scoring-engine/internal/domain/user"
	"github.com/frozenbet/scoring-engine/internal/platform/auth"
	idgen "github.com/frozenbet/scoring-engine/internal/platform/id"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is an authenticated user with a freshly issued access token.
type Session struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

type tokenIssuer interface {
	Issue(subject auth.TokenSubject) (string, time.Time, error)
	Verify(raw string) (auth.TokenSubject, error)
}

type AuthService struct {
	users  user.Repository
	hasher passwordHasher
	tokens tokenIssuer
	idGen  idgen.Generator
	now    func() time.Time
}

func NewAuthService(userRepo user.Repository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, idGen idgen.Generator) *AuthService {
	return &AuthService{
		users:  userRepo,
		hasher: hasher,
		tokens: tokens,
		idGen:  idGen,
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Register")
	defer span.End()

	input.Username = strings.TrimSpace(input.Username)
	input.Email = user.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if !usernamePattern.MatchString(input.Username) {
		return Session{}, fmt.Errorf("%w: username must be 3-32 letters, digits, dots, dashes or underscores", ErrInvalidInput)
	}
	if err := inputValidator.Var(input.Email, "required,email"); err != nil {
		return Session{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := s.idGen.NewID()
	if err != nil {
		return Session{}, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	u := user.User{
		ID:           userID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicate) || isDuplicateConstraintError(err) {
			return Session{}, fmt.Errorf("%w: username or email is already registered", ErrConflict)
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Login")
	defer span.End()

	email := user.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	u, exists, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, fmt.Errorf("get user by email: %w", err)
	}
	if !exists {
		return Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err := s.hasher.Verify(u.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return Session{}, fmt.Errorf("verify password: %w", err)
	}

	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuthService.Me")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	u, exists, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s no longer exists", ErrUnauthorized, userID)
	}
	return u, nil
}

// Authenticate resolves an access token to the calling principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (user.Principal, error) {
	subject, err := s.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return user.Principal{UserID: subject.UserID, Email: subject.Email, Username: subject.Username}, nil
}

func (s *AuthService) issue(u user.User) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(auth.TokenSubject{UserID: u.ID, Email: u.Email, Username: u.Username})
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	return Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}
