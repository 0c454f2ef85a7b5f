package security

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSignAndParseAccessToken(t *testing.T) {
	mgr := NewJWTManager("photoshare", "photoshare-clients", testSecret)
	raw, err := mgr.SignAccessToken(42, "ana@example.com", []string{"ROLE_USER"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := mgr.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "ana@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "ROLE_USER" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}

	id, err := UserIDFromClaims(claims)
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected user id 42, got %d", id)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("photoshare", "photoshare-clients", testSecret)
	raw, err := mgr.SignAccessToken(1, "a@b.com", nil, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.ParseAccessToken(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager("photoshare", "photoshare-clients", testSecret)
	other := NewJWTManager("photoshare", "photoshare-clients", "ffffffffffffffffffffffffffffffff")
	raw, err := other.SignAccessToken(1, "a@b.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.ParseAccessToken(raw); err == nil {
		t.Fatal("expected token signed with wrong secret to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongAudience(t *testing.T) {
	mgr := NewJWTManager("photoshare", "photoshare-clients", testSecret)
	other := NewJWTManager("photoshare", "someone-else", testSecret)
	raw, err := other.SignAccessToken(1, "a@b.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.ParseAccessToken(raw); err == nil {
		t.Fatal("expected token with wrong audience to be rejected")
	}
}
