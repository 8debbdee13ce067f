package auth

import (
	"strings"
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("TestPass123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if strings.Contains(hash, "TestPass123!") {
		t.Fatal("hash must not contain the password")
	}
	if !CheckPassword(hash, "TestPass123!") {
		t.Fatal("matching password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
	if CheckPassword("not-a-hash", "TestPass123!") {
		t.Fatal("malformed hash accepted")
	}
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	tok, err := issuer.Issue("user-1", "patient")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "patient" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other := NewTokenIssuer("other-secret", time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	base := time.Date(2025, 1, 28, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return base }
	tok, err := issuer.Issue("user-1", "professional")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := issuer.Parse(tok); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
