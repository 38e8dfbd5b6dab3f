package auth

import (
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Errorf("CheckPassword rejected the correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong-pass"); err == nil {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken(secret, Claims{UserID: "u1", EmployeeID: "e1", Role: "hr"}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" || claims.EmployeeID != "e1" || claims.Role != "hr" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Error("ParseToken accepted a token signed with a different secret")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Error("ParseToken accepted an expired token")
	}
}
