package user

import (
	"errors"
	"strings"
	"time"
)

var ErrDuplicate = errors.New("user already exists")

// User is a registered player identity. PasswordHash is never serialized to clients.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full != "" {
		return full
	}
	return u.Username
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   string
	Email    string
	Username string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
