package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := h.Verify(hash, "correct horse"); err != nil {
		t.Fatalf("verify valid password: %v", err)
	}
	if err := h.Verify(hash, "wrong horse"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestPasswordHasher_RejectsLongPasswords(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := h.Hash(string(long)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected too long error, got %v", err)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("0123456789abcdef0123", "frozenbet", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	token, expiresAt, err := issuer.Issue(TokenSubject{UserID: "u-1", Email: "ana@example.com", Username: "ana"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %s", expiresAt)
	}

	subject, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject.UserID != "u-1" || subject.Email != "ana@example.com" || subject.Username != "ana" {
		t.Fatalf("unexpected subject: %+v", subject)
	}
}

func TestTokenIssuer_RejectsInvalidTokens(t *testing.T) {
	issuer, _ := NewTokenIssuer("0123456789abcdef0123", "frozenbet", time.Hour)
	other, _ := NewTokenIssuer("another-secret-value-xyz", "frozenbet", time.Hour)
	foreign, _ := NewTokenIssuer("0123456789abcdef0123", "someone-else", time.Hour)

	wrongSecret, _, _ := other.Issue(TokenSubject{UserID: "u-1"})
	wrongIssuer, _, _ := foreign.Issue(TokenSubject{UserID: "u-1"})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: wrongSecret},
		{name: "wrong issuer", token: wrongIssuer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := issuer.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer, _ := NewTokenIssuer("0123456789abcdef0123", "frozenbet", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(TokenSubject{UserID: "u-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	if _, err := NewTokenIssuer("short", "x", time.Hour); err == nil {
		t.Fatalf("expected short secret error")
	}
	if _, err := NewTokenIssuer("0123456789abcdef0123", "x", 0); err == nil {
		t.Fatalf("expected ttl error")
	}
}
