package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jottr/authflow/internal/token"
)

// Register creates an unverified account and dispatches the verification
// code. The account is persisted before the mail is sent; a send failure is
// reported through RegisterResult.MailError, never by failing the call.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)

	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(req.Password) < e.config.Password.MinLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, e.config.Password.MinLength)
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	code, err := token.NewVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	expires := time.Now().Add(e.config.Verification.CodeTTL)

	account := &Account{
		Name:                name,
		Email:               email,
		PasswordHash:        hash,
		EmailVerified:       false,
		VerificationCode:    code,
		VerificationExpires: &expires,
	}

	saved, err := e.store.Save(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, ErrDuplicateEmail, nil)
			return nil, ErrDuplicateEmail
		}
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, nil)
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.metricInc(MetricVerificationIssued)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, saved.ID, email, nil, nil)

	mailErr := e.dispatchMail(ctx, e.verificationMessage(saved, code), saved.ID)

	return &RegisterResult{
		Account:   saved.Summary(),
		MailError: mailErr,
	}, nil
}
