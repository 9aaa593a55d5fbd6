package authflow

import (
	"sort"
	"strings"
	"time"
)

// Account is the account document owned by the external user directory. The
// engine reads and writes only the fields below; anything else the directory
// stores travels through [Store] implementations untouched.
//
// Pairing invariant: VerificationCode is non-empty iff VerificationExpires is
// non-nil (and in the future at issuance time); the same holds for ResetToken
// and ResetExpires. EmailVerified == true implies the verification pair is
// cleared. The engine maintains these on every mutation.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string

	EmailVerified       bool
	VerificationCode    string
	VerificationExpires *time.Time

	ResetToken   string
	ResetExpires *time.Time

	// RefreshTokens is the set of currently valid refresh tokens issued to
	// this account. Mutation is reserved to the engine; see RefreshTokenSet.
	RefreshTokens RefreshTokenSet
}

// Summary returns the redacted view of the account that flows hand back to
// transports. It never carries the password hash or any token material.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Role:          a.Role,
		EmailVerified: a.EmailVerified,
	}
}

func (a *Account) clearVerification() {
	a.VerificationCode = ""
	a.VerificationExpires = nil
}

func (a *Account) clearReset() {
	a.ResetToken = ""
	a.ResetExpires = nil
}

// AccountSummary is the redacted account view returned by Login, VerifyEmail
// and Register.
type AccountSummary struct {
	ID            string
	Name          string
	Email         string
	Role          string
	EmailVerified bool
}

// RefreshTokenSet is the owned collection of valid refresh tokens on an
// account. Read accessors are exported so stores can persist and hydrate the
// set; add and remove are unexported, so every mutation goes through the
// engine's session operations and revocation cannot be bypassed.
//
// Insertion order is not significant.
type RefreshTokenSet struct {
	tokens []string
}

// NewRefreshTokenSet hydrates a set from persisted tokens. Store
// implementations use it when reconstructing an Account.
func NewRefreshTokenSet(tokens ...string) RefreshTokenSet {
	s := RefreshTokenSet{}
	for _, t := range tokens {
		if t != "" && !s.Contains(t) {
			s.tokens = append(s.tokens, t)
		}
	}
	return s
}

// Tokens returns a copy of the set for persistence.
func (s RefreshTokenSet) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	sort.Strings(out)
	return out
}

// Contains reports whether the exact token is present.
func (s RefreshTokenSet) Contains(token string) bool {
	for _, t := range s.tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Len returns the number of tracked tokens.
func (s RefreshTokenSet) Len() int {
	return len(s.tokens)
}

func (s *RefreshTokenSet) add(token string) {
	if token == "" || s.Contains(token) {
		return
	}
	s.tokens = append(s.tokens, token)
}

func (s *RefreshTokenSet) remove(token string) bool {
	for i, t := range s.tokens {
		if t == token {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			return true
		}
	}
	return false
}

func (s *RefreshTokenSet) clear() int {
	n := len(s.tokens)
	s.tokens = nil
	return n
}

// NormalizeEmail lowercases and trims an email address. Every engine lookup
// and every stored Email field uses the normalized form, which is what makes
// uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
