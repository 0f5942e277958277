// Package joincode generates the short human-entry codes used to join a
// room. The alphabet drops ambiguous characters (0/O, 1/I/L) so codes
// survive being read aloud or typed from a phone screen.
package joincode

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	Length   = 6
)

// New returns a fresh 6-character join code. Uniqueness is enforced by
// the rooms table; callers retry on collision.
func New() (string, error) {
	buf := make([]byte, Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// Valid reports whether a candidate string is a well-formed join code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, r := range code {
		ok := false
		for _, a := range alphabet {
			if r == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
