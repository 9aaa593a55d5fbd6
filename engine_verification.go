package authflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jottr/authflow/internal/token"
)

// ResendVerification issues a fresh verification code for an unverified
// account. The new code and expiry overwrite the old pair, so any previous
// code stops working immediately.
func (e *Engine) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
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

	if account.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	code, err := token.NewVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	expires := time.Now().Add(e.config.Verification.CodeTTL)

	account.VerificationCode = code
	account.VerificationExpires = &expires

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.verificationLimiter.Clear(ctx, saved.ID)
	e.metricInc(MetricVerificationIssued)
	e.emitAudit(ctx, auditEventVerificationIssue, true, saved.ID, email, nil, nil)

	mailErr := e.dispatchMail(ctx, e.verificationMessage(saved, code), saved.ID)

	return &ResendResult{MailError: mailErr}, nil
}

// VerifyEmail confirms a verification code, marks the account verified, and
// establishes a session so the caller lands signed in. A wrong, consumed, or
// expired code returns [ErrInvalidOrExpired]; the code is single-use and the
// pair is cleared on success.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and code required", ErrValidation)
	}

	account, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if account.EmailVerified {
		return nil, ErrAlreadyVerified
	}

	if err := e.verificationLimiter.Enforce(ctx, account.ID); err != nil {
		if errors.Is(err, errVerificationRateLimited) {
			e.metricInc(MetricVerificationRateLimited)
			e.emitAudit(ctx, auditEventVerificationConfirm, false, account.ID, email, ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	if account.VerificationCode == "" || !token.Equal(account.VerificationCode, code) {
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, account.ID, email, ErrInvalidOrExpired, nil)
		return nil, ErrInvalidOrExpired
	}

	// Expiry is strict: a code at exactly its deadline is already dead.
	if account.VerificationExpires == nil || !account.VerificationExpires.After(time.Now()) {
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, account.ID, email, ErrInvalidOrExpired, nil)
		return nil, ErrInvalidOrExpired
	}

	account.EmailVerified = true
	account.clearVerification()

	access, refresh, err := e.establishSession(account)
	if err != nil {
		return nil, err
	}

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.verificationLimiter.Clear(ctx, saved.ID)
	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, saved.ID, email, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      saved.Summary(),
	}, nil
}
