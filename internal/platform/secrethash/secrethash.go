// Package secrethash computes the SECRET_HASH value that user pool app clients
// configured with a client secret require on every auth, challenge and
// forgot-password request.
package secrethash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
)

// ErrSigning is returned when a secret hash cannot be derived.
var ErrSigning = errors.New("secret hash calculation failed")

// Sign returns Base64(HMAC-SHA256(key=clientSecret, message=username+clientID)).
//
// The result is username specific. Callers compute it per request and never
// cache it across usernames.
func Sign(clientID, clientSecret, username string) (string, error) {
	switch {
	case clientID == "":
		return "", fmt.Errorf("%w: client id is required", ErrSigning)
	case clientSecret == "":
		return "", fmt.Errorf("%w: client secret is required", ErrSigning)
	case username == "":
		return "", fmt.Errorf("%w: username is required", ErrSigning)
	}

	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username))
	mac.Write([]byte(clientID))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Credentials holds the app client id and secret used to sign requests.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Sign derives the secret hash for username with these credentials.
func (c Credentials) Sign(username string) (string, error) {
	return Sign(c.ClientID, c.ClientSecret, username)
}

// String keeps the secret out of fmt output.
func (c Credentials) String() string {
	return fmt.Sprintf("{ClientID:%s ClientSecret:[REDACTED]}", c.ClientID)
}

// LogValue keeps the secret out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", c.ClientID),
		slog.String("client_secret", "[REDACTED]"),
	)
}
