// Package jwt reads claims from tokens issued by the identity provider.
//
// Tokens are NOT verified here. The provider verifies them on every call that
// accepts one; this package only peeks at claims for request pre-checks and
// log attributes.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenUseAccess is the token_use claim value of access tokens.
const TokenUseAccess = "access"

// ErrMalformedToken is returned when a token cannot be decoded.
var ErrMalformedToken = errors.New("malformed token")

// Claims is the subset of provider token claims the gateway cares about.
type Claims struct {
	Subject   string
	Username  string
	ClientID  string
	TokenUse  string
	Groups    []string
	ExpiresAt time.Time
}

// IsAccessToken reports whether the token is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenUse == TokenUseAccess
}

// Expired reports whether the token expired before now. Tokens without an
// exp claim never expire here.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Inspector is the interface for reading token claims.
type Inspector interface {
	Inspect(tokenString string) (*Claims, error)
}

// providerClaims mirrors the JSON claims of user pool tokens.
type providerClaims struct {
	jwtv5.RegisteredClaims
	Username string   `json:"username"`
	ClientID string   `json:"client_id"`
	TokenUse string   `json:"token_use"`
	Groups   []string `json:"cognito:groups"`
}

// inspector implements the Inspector interface.
type inspector struct {
	parser *jwtv5.Parser
}

// New creates a new instance of inspector.
func New() Inspector {
	return &inspector{parser: jwtv5.NewParser()}
}

// Inspect decodes the token payload without checking its signature.
func (i *inspector) Inspect(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	var pc providerClaims
	if _, _, err := i.parser.ParseUnverified(tokenString, &pc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := &Claims{
		Subject:  pc.Subject,
		Username: pc.Username,
		ClientID: pc.ClientID,
		TokenUse: pc.TokenUse,
		Groups:   pc.Groups,
	}
	if pc.ExpiresAt != nil {
		claims.ExpiresAt = pc.ExpiresAt.Time
	}

	return claims, nil
}
