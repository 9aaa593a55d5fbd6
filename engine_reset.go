package authflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jottr/authflow/internal/token"
)

// RequestPasswordReset issues a recovery token and mails the reset link.
// The token overwrites any previous one, so only the latest link works.
// An unknown email returns [ErrNotFound]; callers that prefer not to reveal
// account existence can collapse that to a generic response at the edge.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}

	account, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	resetToken, err := token.NewResetToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	expires := time.Now().Add(e.config.Reset.TokenTTL)

	account.ResetToken = resetToken
	account.ResetExpires = &expires

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventResetRequest, true, saved.ID, email, nil, nil)

	mailErr := e.dispatchMail(ctx, e.resetMessage(saved, resetToken), saved.ID)

	return &ResetRequestResult{MailError: mailErr}, nil
}

// ResetPassword consumes a recovery token and installs the new password.
// The token is single-use: the pair is cleared before the account is saved,
// and by default every outstanding session is revoked alongside.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if resetToken == "" {
		return fmt.Errorf("%w: token required", ErrValidation)
	}
	if len(newPassword) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}

	if err := e.resetLimiter.Enforce(ctx, clientIPFromContext(ctx)); err != nil {
		if errors.Is(err, errResetRateLimited) {
			e.metricInc(MetricResetRateLimited)
			e.emitAudit(ctx, auditEventResetConfirm, false, "", "", ErrRateLimited, nil)
			return ErrRateLimited
		}
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	account, err := e.store.FindByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventResetConfirm, false, "", "", ErrInvalidOrExpired, nil)
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	// The store already filters on expiry, but stores are caller-provided,
	// so the engine rechecks rather than trusting the filter.
	if account.ResetToken == "" || !token.Equal(account.ResetToken, resetToken) ||
		account.ResetExpires == nil || !account.ResetExpires.After(time.Now()) {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventResetConfirm, false, account.ID, account.Email, ErrInvalidOrExpired, nil)
		return ErrInvalidOrExpired
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	account.PasswordHash = hash
	account.clearReset()

	if e.config.Session.RevokeOnPasswordChange {
		e.revokeAllSessions(ctx, account, "password_reset")
	}

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventResetConfirm, true, saved.ID, saved.Email, nil, nil)

	return nil
}
