package authflow

import "errors"

var (
	// ErrValidation indicates missing or malformed input (empty email, short
	// password, malformed request).
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials indicates an unknown email or a password mismatch.
	// The two cases are intentionally indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified indicates a login attempt against an account whose
	// email ownership has not been proven yet. It is only returned after the
	// password check has passed.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrNotFound indicates an absent account. Store implementations return it
	// from lookups; flows propagate it where the operation allows enumeration.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail indicates a registration against an email that already
	// exists, compared case-insensitively.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidOrExpired indicates a verification code or reset token that
	// does not match, was already consumed, or is past its expiry.
	ErrInvalidOrExpired = errors.New("token invalid or expired")
	// ErrAlreadyVerified indicates a verification re-issue for an account that
	// is already verified.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrTokenInvalid indicates a signed token that failed verification.
	// Signing and parse failures never silently succeed.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRateLimited indicates an attempt rejected by the optional
	// Redis-backed attempt limiter.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnexpected wraps store failures and other internal faults. A failed
	// store write aborts the whole operation; nothing is retried.
	ErrUnexpected = errors.New("unexpected failure")
	// ErrEngineNotReady is returned when an Engine is used before Build wired
	// its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
