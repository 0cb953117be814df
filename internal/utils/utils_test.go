package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenCarriesRoleAndName(t *testing.T) {
	tok, err := NewAccessToken("secret", 7, "Gate Staff", "Ravi", 15)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["role"] != "Gate Staff" || claims["name"] != "Ravi" {
		t.Fatalf("claims = %v", claims)
	}
	if sub, _ := claims["sub"].(float64); sub != 7 {
		t.Fatalf("sub = %v", claims["sub"])
	}
}

func TestRandomHexLengthAndUniqueness(t *testing.T) {
	a, err := RandomHex(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomHex(32)
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	if a == b {
		t.Fatal("two tokens collided")
	}
}

func TestHashRefreshRawIsStable(t *testing.T) {
	if HashRefreshRaw("x") != HashRefreshRaw("x") || HashRefreshRaw("x") == HashRefreshRaw("y") {
		t.Fatal("hash not deterministic or not distinct")
	}
	if len(HashRefreshRaw("x")) != 64 {
		t.Fatal("expected 64 hex chars")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "hunter22") || VerifyPassword(h, "nope") {
		t.Fatal("verify mismatch")
	}
}
