package authflow

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Zero values are not usable;
// start from [DefaultConfig] and override.
type Config struct {
	JWT          JWTConfig
	Password     PasswordConfig
	Session      SessionConfig
	Verification VerificationConfig
	Reset        ResetConfig
	Mail         MailConfig
	Limiter      LimiterConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the token codec. AccessTTL and RefreshTTL are
// independent on purpose: the access token is short-lived even though the
// refresh token (and its cookie) may live for days.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig configures the argon2id hashing pipeline used at account
// creation, password change, and password reset.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int // minimum plaintext length, enforced before hashing
	UpgradeOnLogin bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig governs the refresh-token set on the account document.
type SessionConfig struct {
	// RevokeOnPasswordChange clears all outstanding refresh tokens whenever
	// the password changes (ChangePassword or ResetPassword). Disable to
	// keep existing sessions alive across a password change.
	RevokeOnPasswordChange bool
	// MaxRefreshTokens caps the set per account; 0 means unbounded. When the
	// cap is hit, the oldest entry is dropped to make room.
	MaxRefreshTokens int
}

/*
====================================
VERIFICATION / RESET CONFIG
====================================
*/

// VerificationConfig governs the 4-digit email-verification code lifecycle.
// The code space (1000–9999) is deliberately small so a human can type it;
// this is acceptable only because codes are single-use, short-lived, and
// gated by an account lookup; see also LimiterConfig for attempt lockout.
type VerificationConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int // consume attempts per code before lockout (limiter only)
}

// ResetConfig governs the password-reset token lifecycle.
type ResetConfig struct {
	TokenTTL    time.Duration
	MaxAttempts int
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig shapes outbound notifications. ResetURL is the base the reset
// token is appended to when composing the recovery link.
type MailConfig struct {
	From     string
	AppName  string
	ResetURL string
}

/*
====================================
LIMITER CONFIG
====================================
*/

// LimiterConfig enables the optional Redis-backed fixed-window attempt
// limiters. Enabled requires a Redis client on the Builder; with Enabled
// false the engine runs purely lookup-gated.
type LimiterConfig struct {
	Enabled          bool
	KeyPrefix        string
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Signing keys are not
// defaulted and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			MaxFutureIAT:  10 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		Session: SessionConfig{
			RevokeOnPasswordChange: true,
		},
		Verification: VerificationConfig{
			CodeTTL:     24 * time.Hour,
			MaxAttempts: 5,
		},
		Reset: ResetConfig{
			TokenTTL:    time.Hour,
			MaxAttempts: 5,
		},
		Mail: MailConfig{
			From:    "no-reply@localhost",
			AppName: "authflow",
		},
		Limiter: LimiterConfig{
			KeyPrefix:        "af",
			MaxLoginAttempts: 10,
			LoginCooldown:    15 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT.RefreshTTL must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT.RefreshTTL must not be shorter than AccessTTL")
	}
	if c.Verification.CodeTTL <= 0 {
		return errors.New("Verification.CodeTTL must be positive")
	}
	if c.Reset.TokenTTL <= 0 {
		return errors.New("Reset.TokenTTL must be positive")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password.MinLength must be at least 1")
	}
	if c.Session.MaxRefreshTokens < 0 {
		return errors.New("Session.MaxRefreshTokens must not be negative")
	}
	if c.Limiter.Enabled {
		if c.Limiter.MaxLoginAttempts <= 0 {
			return errors.New("Limiter.MaxLoginAttempts must be positive")
		}
		if c.Limiter.LoginCooldown <= 0 {
			return errors.New("Limiter.LoginCooldown must be positive")
		}
		if c.Verification.MaxAttempts <= 0 {
			return errors.New("Verification.MaxAttempts must be positive")
		}
		if c.Reset.MaxAttempts <= 0 {
			return errors.New("Reset.MaxAttempts must be positive")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
