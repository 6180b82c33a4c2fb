package auth

import (
	"testing"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Generate(User{ID: "u-1", Email: "a@x.com", Name: "A", Role: RoleResearcher})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}

	userID, role, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "u-1" || role != RoleResearcher {
		t.Fatalf("unexpected claims: %s %s", userID, role)
	}
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").Generate(User{ID: "u-1", Role: RoleFarmer})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, _, err := NewTokenIssuer("secret-b").Verify(token); err == nil {
		t.Fatal("expected verification to fail under a different key")
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	if _, _, err := NewTokenIssuer("secret").Verify("not-a-token"); err == nil {
		t.Fatal("expected parse error")
	}
}
