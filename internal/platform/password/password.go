// Package password generates throwaway passwords for administrative user
// creation. The generated value only lives until the caller's own password is
// set permanently.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	// Specials is the special-character set passwords draw from.
	Specials = "!@#$%^&*()_+"

	// Length is the total length of a generated password.
	Length = 10
)

// rule requires count characters from set.
type rule struct {
	set   string
	count int
}

var rules = []rule{
	{set: lowercase, count: 2},
	{set: uppercase, count: 2},
	{set: digits, count: 2},
	{set: Specials, count: 2},
}

// Generator produces random passwords.
type Generator interface {
	Generate() (string, error)
}

// generator implements Generator using crypto/rand.
type generator struct {
	length int
}

// New creates a new password generator.
func New() Generator {
	return &generator{length: Length}
}

// Generate returns a password with exactly two characters from each rule set,
// filled up to Length from the combined alphabet and shuffled.
func (g *generator) Generate() (string, error) {
	var all string
	out := make([]byte, 0, g.length)

	for _, r := range rules {
		all += r.set
		for i := 0; i < r.count; i++ {
			c, err := pick(r.set)
			if err != nil {
				return "", err
			}
			out = append(out, c)
		}
	}

	for len(out) < g.length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the required characters don't sit at fixed positions.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return int(v.Int64()), nil
}
