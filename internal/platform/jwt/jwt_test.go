package jwt_test

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/allthepins/identity-gateway/internal/platform/jwt"
)

// signToken builds a token the way the provider shapes them. The key is
// irrelevant since Inspect never checks signatures.
func signToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()

	tokenString, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenString
}

func TestInspect(t *testing.T) {
	inspector := jwt.New()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("should read access token claims", func(t *testing.T) {
		tokenString := signToken(t, jwtv5.MapClaims{
			"sub":            "8f1c-sub",
			"username":       "alice@example.com",
			"client_id":      "client123",
			"token_use":      "access",
			"cognito:groups": []string{"admin", "staff"},
			"exp":            exp.Unix(),
		})

		claims, err := inspector.Inspect(tokenString)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if claims.Subject != "8f1c-sub" {
			t.Errorf("expected subject %q, got %q", "8f1c-sub", claims.Subject)
		}
		if claims.Username != "alice@example.com" {
			t.Errorf("expected username %q, got %q", "alice@example.com", claims.Username)
		}
		if claims.ClientID != "client123" {
			t.Errorf("expected client id %q, got %q", "client123", claims.ClientID)
		}
		if !claims.IsAccessToken() {
			t.Error("expected an access token")
		}
		if len(claims.Groups) != 2 {
			t.Errorf("expected 2 groups, got %v", claims.Groups)
		}
		if !claims.ExpiresAt.Equal(exp) {
			t.Errorf("expected expiry %v, got %v", exp, claims.ExpiresAt)
		}
	})

	t.Run("should flag id tokens", func(t *testing.T) {
		tokenString := signToken(t, jwtv5.MapClaims{
			"sub":       "8f1c-sub",
			"token_use": "id",
		})

		claims, err := inspector.Inspect(tokenString)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if claims.IsAccessToken() {
			t.Error("id token reported as access token")
		}
	})

	t.Run("should not reject expired tokens", func(t *testing.T) {
		tokenString := signToken(t, jwtv5.MapClaims{
			"token_use": "access",
			"exp":       time.Now().Add(-time.Hour).Unix(),
		})

		if _, err := inspector.Inspect(tokenString); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	})

	t.Run("should reject malformed tokens", func(t *testing.T) {
		for _, tokenString := range []string{"", "not-a-jwt", "a.b.c"} {
			_, err := inspector.Inspect(tokenString)
			if !errors.Is(err, jwt.ErrMalformedToken) {
				t.Errorf("expected ErrMalformedToken for %q, got %v", tokenString, err)
			}
		}
	})
}

func TestClaimsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"no exp claim", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Minute), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &jwt.Claims{ExpiresAt: tc.exp}
			if got := c.Expired(now); got != tc.want {
				t.Errorf("Expired() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInspectExpiredToken(t *testing.T) {
	tokenString := signToken(t, jwtv5.MapClaims{
		"username":  "alice@example.com",
		"token_use": "access",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})

	claims, err := jwt.New().Inspect(tokenString)
	if err != nil {
		t.Fatalf("expired tokens should still decode: %v", err)
	}
	if !claims.Expired(time.Now()) {
		t.Error("expected claims to report expiry")
	}
}
