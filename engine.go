package authflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jottr/authflow/jwt"
	"github.com/jottr/authflow/password"
)

// Engine runs the account authentication and session lifecycle flows against
// an injected [Store] and [Mailer]. Construct it through [Builder.Build];
// the zero value is unusable.
//
// The engine holds no per-account state of its own. All durable state lives
// on the account document behind the Store, which is also the sole point of
// concurrency control.
type Engine struct {
	config Config
	store  Store
	mailer Mailer

	jwtManager   *jwt.Manager
	passwordHash *password.Hasher

	loginLimiter        *loginLimiter
	verificationLimiter *verificationLimiter
	resetLimiter        *resetLimiter

	audit   *auditDispatcher
	metrics *Metrics
}

// Close flushes and stops the audit dispatcher. Safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.mailer == nil || e.jwtManager == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	return nil
}

// Login authenticates an email/password pair and establishes a session.
//
// Unknown email and wrong password both return [ErrInvalidCredentials].
// An unverified account returns [ErrEmailNotVerified], but only after the
// password matched, so the error never leaks whether a password was correct
// for a nonexistent or unverified account probe.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	start := time.Now()

	email = NormalizeEmail(email)
	if email == "" || plainPassword == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	if err := e.loginLimiter.Enforce(ctx, email); err != nil {
		if errors.Is(err, errLoginRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	account, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	match, err := e.passwordHash.Verify(plainPassword, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if !match {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	// Verification is checked strictly after the password so the two
	// failures stay distinguishable only for legitimate owners.
	if !account.EmailVerified {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrEmailNotVerified, nil)
		return nil, ErrEmailNotVerified
	}

	if e.config.Password.UpgradeOnLogin {
		if needs, err := e.passwordHash.NeedsUpgrade(account.PasswordHash); err == nil && needs {
			if rehashed, err := e.passwordHash.Hash(plainPassword); err == nil {
				account.PasswordHash = rehashed
			}
		}
	}

	access, refresh, err := e.establishSession(account)
	if err != nil {
		return nil, err
	}

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.loginLimiter.Reset(ctx, email)
	e.metricInc(MetricLoginSuccess)
	e.metrics.Observe(MetricLoginLatency, time.Since(start))
	e.emitAudit(ctx, auditEventLoginSuccess, true, saved.ID, email, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      saved.Summary(),
	}, nil
}

// ValidateAccess verifies a bearer access token and returns its claims.
// Any verification failure (bad signature, wrong scope, expired) surfaces
// as [ErrTokenInvalid].
func (e *Engine) ValidateAccess(tokenStr string) (*jwt.Claims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// Logout revokes a single session by removing the exact refresh token from
// the account's set. It is idempotent: an invalid, expired, or already
// revoked token is a successful no-op, never an error.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}

	account, err := e.store.FindByID(ctx, claims.AccountID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if !account.RefreshTokens.remove(refreshToken) {
		return nil
	}

	if _, err := e.store.Save(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogout, true, account.ID, account.Email, nil, nil)

	return nil
}

// establishSession mints the access/refresh pair and appends the refresh
// token to the account's set. Login and VerifyEmail both funnel through
// here; the caller persists the account afterwards.
func (e *Engine) establishSession(account *Account) (access string, refresh string, err error) {
	access, err = e.jwtManager.CreateAccess(account.ID, account.Role)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	refresh, err = e.jwtManager.CreateRefresh(account.ID, account.Role)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if max := e.config.Session.MaxRefreshTokens; max > 0 {
		for account.RefreshTokens.Len() >= max {
			oldest := account.RefreshTokens.tokens[0]
			account.RefreshTokens.remove(oldest)
		}
	}
	account.RefreshTokens.add(refresh)

	e.metricInc(MetricSessionIssued)

	return access, refresh, nil
}

// revokeAllSessions clears the refresh-token set in memory. The caller is
// responsible for persisting the account.
func (e *Engine) revokeAllSessions(ctx context.Context, account *Account, reason string) {
	n := account.RefreshTokens.clear()
	if n == 0 {
		return
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionsRevoked, true, account.ID, account.Email, nil, func() map[string]string {
		return map[string]string{
			"reason":  reason,
			"revoked": fmt.Sprintf("%d", n),
		}
	})
}
