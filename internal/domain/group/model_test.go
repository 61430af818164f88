package group

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateInviteCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != InviteCodeLength {
			t.Fatalf("unexpected code length %d", len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(InviteCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 95 {
		t.Fatalf("expected mostly distinct codes, got %d", len(seen))
	}
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		in      string
		want    Visibility
		wantErr bool
	}{
		{in: "", want: VisibilityPrivate},
		{in: "PUBLIC", want: VisibilityPublic},
		{in: " private ", want: VisibilityPrivate},
		{in: "secret", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseVisibility(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownVisibility) {
				t.Fatalf("ParseVisibility(%q) expected error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseVisibility(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestRole_CanManage(t *testing.T) {
	if !RoleOwner.CanManage() || !RoleAdmin.CanManage() {
		t.Fatalf("owner and admin must manage")
	}
	if RoleMember.CanManage() {
		t.Fatalf("member must not manage")
	}
}
