package services

import (
	"strings"
	"testing"

	"main/utils"
)

func setupJWT(t *testing.T) {
	t.Helper()
	oldSecret, oldExp := utils.JWTSecretKey, utils.JWTExpirationTime
	utils.JWTSecretKey = "test_jwt_secret"
	utils.JWTExpirationTime = 3600
	t.Cleanup(func() {
		utils.JWTSecretKey, utils.JWTExpirationTime = oldSecret, oldExp
	})
}

func TestGenerateAndParseSessionToken(t *testing.T) {
	setupJWT(t)

	claims := &SessionClaims{
		Username:  "193-15-1036",
		Name:      "Nadia Islam",
		StudentID: "193-15-1036",
		Email:     "nadia@diu.edu.bd",
		Roles:     []string{"student"},
	}

	token, err := GenerateSessionToken(claims)
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	parsed, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if parsed.Username != claims.Username {
		t.Errorf("username: got %q, want %q", parsed.Username, claims.Username)
	}
	if parsed.Name != claims.Name {
		t.Errorf("name: got %q, want %q", parsed.Name, claims.Name)
	}
	if parsed.Email != claims.Email {
		t.Errorf("email: got %q, want %q", parsed.Email, claims.Email)
	}
	if len(parsed.Roles) != 1 || parsed.Roles[0] != "student" {
		t.Errorf("roles: got %v, want [student]", parsed.Roles)
	}
}

func TestParseSessionTokenRejectsTampering(t *testing.T) {
	setupJWT(t)

	token, err := GenerateSessionToken(&SessionClaims{Username: "u1"})
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three JWT segments, got %d", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := ParseSessionToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	setupJWT(t)
	utils.JWTExpirationTime = -60

	token, err := GenerateSessionToken(&SessionClaims{Username: "u1"})
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if _, err := ParseSessionToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestParseSessionTokenRejectsGarbage(t *testing.T) {
	setupJWT(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ParseSessionToken(token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}
