package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Correct-Horse1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("Correct-Horse1", hash)
	if err != nil || !ok {
		t.Errorf("correct password rejected: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	if _, err := VerifyPassword("whatever", "not-a-hash"); err == nil {
		t.Error("expected an error for a malformed stored hash")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Short1", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoDigitsHere", true},
		{"GoodPass1", false},
		{strings.Repeat("Aa1", 50), true}, // over 128 chars
	}

	for _, tt := range tests {
		err := ValidatePasswordStrength(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePasswordStrength(%q) err=%v, wantErr=%v", tt.password, err, tt.wantErr)
		}
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "webforge", 15*time.Minute)

	access, refresh, err := svc.GenerateTokens(42, "ada", "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Username != "ada" || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	newAccess, err := svc.RefreshAccessToken(refresh)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(newAccess); err != nil {
		t.Errorf("refreshed token invalid: %v", err)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", "webforge", time.Minute)
	other := NewJWTService("secret-b", "webforge", time.Minute)

	token, _, err := issuer.GenerateTokens(1, "u", "u@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret was accepted")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", "webforge", -time.Minute)

	token, _, err := svc.GenerateTokens(1, "u", "u@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired access token was accepted")
	}
}
