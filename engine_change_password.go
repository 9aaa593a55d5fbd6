package authflow

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword rotates the password of an authenticated account. The old
// password must verify against the stored hash; by default every outstanding
// session is revoked so stolen refresh tokens die with the old password.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if accountID == "" || oldPassword == "" {
		return fmt.Errorf("%w: account id and old password required", ErrValidation)
	}
	if len(newPassword) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}

	account, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	match, err := e.passwordHash.Verify(oldPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if !match {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, account.ID, account.Email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	account.PasswordHash = hash

	if e.config.Session.RevokeOnPasswordChange {
		e.revokeAllSessions(ctx, account, "password_change")
	}

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, saved.ID, saved.Email, nil, nil)

	return nil
}
