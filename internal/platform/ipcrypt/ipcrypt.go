// Package ipcrypt pseudonymizes client IP addresses found in provider auth
// events. Encryption is deterministic, so the same address always maps to the
// same pseudonym and events can still be correlated by source.
package ipcrypt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"

	"github.com/jedisct1/go-ipcrypt"
)

var (
	// ErrInvalidKey is returned for keys that are not base64 or have the wrong size.
	ErrInvalidKey = errors.New("invalid ipcrypt key")

	// ErrInvalidIP is returned for values that do not parse as an IP address.
	ErrInvalidIP = errors.New("invalid IP address")
)

// Encryptor handles IP address pseudonymization and its reversal.
type Encryptor interface {
	Encrypt(ip string) (string, error)
	Decrypt(pseudonym string) (string, error)
}

// encryptor implements Encryptor using ipcrypt-deterministic.
// https://www.ietf.org/archive/id/draft-denis-ipcrypt-12.html#name-ipcrypt-deterministic
type encryptor struct {
	key []byte
}

// New creates an Encryptor from a base64 key that decodes to exactly
// ipcrypt.KeySizeDeterministic bytes.
func New(keyBase64 string) (Encryptor, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != ipcrypt.KeySizeDeterministic {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKey, ipcrypt.KeySizeDeterministic, len(key))
	}

	return &encryptor{key: key}, nil
}

// Encrypt returns the pseudonym of ip, itself formatted as an IP address.
func (e *encryptor) Encrypt(ipStr string) (string, error) {
	ip, err := parse(ipStr)
	if err != nil {
		return "", err
	}

	encrypted, err := ipcrypt.EncryptIP(e.key, ip)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt IP: %w", err)
	}

	return encrypted.String(), nil
}

// Decrypt recovers the original address from a pseudonym.
func (e *encryptor) Decrypt(pseudonym string) (string, error) {
	ip, err := parse(pseudonym)
	if err != nil {
		return "", err
	}

	decrypted, err := ipcrypt.DecryptIP(e.key, ip)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt IP: %w", err)
	}

	return decrypted.String(), nil
}

func parse(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, s)
	}
	return ip, nil
}
