package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestParseTokenRoundTrip(t *testing.T) {
	in := &Claims{
		TenantID: "t1",
		Role:     RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	out, err := ParseToken(signToken(t, in, testSecret), testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TenantID != "t1" || out.Role != RoleManager {
		t.Fatalf("claims = %+v", out)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	in := &Claims{TenantID: "t1", Role: RoleAdmin}
	if _, err := ParseToken(signToken(t, in, "other-secret"), testSecret); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	in := &Claims{
		TenantID: "t1",
		Role:     RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	if _, err := ParseToken(signToken(t, in, testSecret), testSecret); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseTokenRequiresTenant(t *testing.T) {
	in := &Claims{Role: RoleAdmin}
	if _, err := ParseToken(signToken(t, in, testSecret), testSecret); err == nil {
		t.Fatal("expected error for missing tenant")
	}
}

func TestCanMoveOrder(t *testing.T) {
	cases := []struct {
		role, from string
		want       bool
	}{
		{RoleKitchenStaff, "NEW", false},
		{RoleKitchenStaff, "PENDING", false},
		{RoleAdmin, "PENDING", true},
		{RoleManager, "PENDING", true},
		{"waiter", "PENDING", false},
		{"waiter", "NEW", true},
	}
	for _, c := range cases {
		if got := CanMoveOrder(c.role, c.from); got != c.want {
			t.Errorf("CanMoveOrder(%s, %s) = %v, want %v", c.role, c.from, got, c.want)
		}
	}
}
