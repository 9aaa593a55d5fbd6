// Package token generates the unguessable artifacts of the credential flows:
// opaque reset tokens and 4-digit email-verification codes.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
)

const resetTokenSize = 32

// NewResetToken returns a cryptographically random, base64url-encoded reset
// token. It carries no account identity; consuming it requires a store-side
// lookup by exact match.
func NewResetToken() (string, error) {
	var raw [resetTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewVerificationCode returns a 4-digit numeric string drawn uniformly from
// 1000–9999 inclusive. The small code space is a deliberate tradeoff for a
// human-enterable code: codes are single-use, short-lived, and consuming one
// requires a matching account lookup first.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	code := n.Int64() + 1000

	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + code%10)
		code /= 10
	}
	return string(digits[:]), nil
}

// Equal compares two codes or tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
